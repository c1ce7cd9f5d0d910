package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Query and result types are shared with the application layer.
type (
	CatalogueQuery  = stypes.CatalogueQuery
	CatalogueHit    = stypes.CatalogueHit
	CatalogueResult = stypes.CatalogueResult
)

// Searcher queries the catalogue index.
type Searcher struct {
	client *Client
	index  string
	logger logging.Logger
}

func NewSearcher(client *Client, index string, logger logging.Logger) *Searcher {
	if index == "" {
		index = DefaultIndex
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Searcher{client: client, index: index, logger: logger}
}

// Search runs q. Results are ordered by score, then newest index time.
func (s *Searcher) Search(ctx context.Context, q CatalogueQuery) (*CatalogueResult, error) {
	body, err := json.Marshal(buildCatalogueQuery(q))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to marshal search body")
	}
	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, responseError(resp, errors.New(errors.CodeSearchError, "search failed"))
	}

	var raw struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string            `json:"_id"`
				Score  float64           `json:"_score"`
				Source CatalogueDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to decode search response")
	}

	out := &CatalogueResult{Total: raw.Hits.Total.Value, TookMs: raw.Took, Hits: make([]CatalogueHit, 0, len(raw.Hits.Hits))}
	for _, h := range raw.Hits.Hits {
		id := h.Source.ModelID
		if id == "" {
			id = h.ID
		}
		out.Hits = append(out.Hits, CatalogueHit{
			ModelID: id, Title: h.Source.Title, AtomCount: h.Source.AtomCount, Score: h.Score,
		})
	}
	s.logger.Debug("catalogue search",
		logging.Int64("total", out.Total), logging.Int64("took_ms", out.TookMs))
	return out, nil
}

// buildCatalogueQuery renders q as an OpenSearch bool query.
func buildCatalogueQuery(q CatalogueQuery) map[string]any {
	size := q.Limit
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	from := q.Offset
	if from < 0 {
		from = 0
	}

	var must, filter []any
	if t := strings.TrimSpace(q.Text); t != "" {
		must = append(must, map[string]any{"match": map[string]any{"title": map[string]any{"query": t, "operator": "and"}}})
	}
	if m := strings.ToUpper(strings.TrimSpace(q.Motif)); m != "" {
		filter = append(filter, map[string]any{"wildcard": map[string]any{"sequences": "*" + escapeWildcard(m) + "*"}})
	}
	if q.ChainID != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"chain_ids": q.ChainID}})
	}
	for _, el := range q.Elements {
		filter = append(filter, map[string]any{"term": map[string]any{"elements": el}})
	}
	if q.MinAtoms > 0 || q.MaxAtoms > 0 {
		r := map[string]any{}
		if q.MinAtoms > 0 {
			r["gte"] = q.MinAtoms
		}
		if q.MaxAtoms > 0 {
			r["lte"] = q.MaxAtoms
		}
		filter = append(filter, map[string]any{"range": map[string]any{"atom_count": r}})
	}

	var query map[string]any
	if len(must) == 0 && len(filter) == 0 {
		query = map[string]any{"match_all": map[string]any{}}
	} else {
		b := map[string]any{}
		if len(must) > 0 {
			b["must"] = must
		}
		if len(filter) > 0 {
			b["filter"] = filter
		}
		query = map[string]any{"bool": b}
	}

	return map[string]any{
		"from":  from,
		"size":  size,
		"query": query,
		"sort": []any{
			map[string]any{"_score": "desc"},
			map[string]any{"indexed_at": "desc"},
		},
	}
}

func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}

//Personal.AI order the ending
