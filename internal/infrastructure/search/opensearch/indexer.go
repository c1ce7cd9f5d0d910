package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// DefaultIndex holds one catalogue document per stored model.
const DefaultIndex = "molgraph-models"

var (
	ErrIndexCreationFailed = errors.New(errors.CodeSearchError, "index creation failed")
	ErrDocumentIndexFailed = errors.New(errors.CodeSearchError, "document index failed")
)

// CatalogueDocument is the searchable form of a model summary.
type CatalogueDocument struct {
	ModelID            string    `json:"model_id"`
	Title              string    `json:"title"`
	ChainIDs           []string  `json:"chain_ids"`
	Elements           []string  `json:"elements"`
	Sequences          []string  `json:"sequences"`
	ChainCount         int       `json:"chain_count"`
	ResidueCount       int       `json:"residue_count"`
	SmallMoleculeCount int       `json:"small_molecule_count"`
	AtomCount          int       `json:"atom_count"`
	BondCount          int       `json:"bond_count"`
	HelixCount         int       `json:"helix_count"`
	BetaStrandCount    int       `json:"beta_strand_count"`
	Mass               float64   `json:"mass"`
	IndexedAt          time.Time `json:"indexed_at"`
}

// DocumentFromSummary flattens s. Elements and sequences are sorted so equal
// summaries index identically.
func DocumentFromSummary(s *stypes.ModelSummary, now time.Time) CatalogueDocument {
	elements := make([]string, 0, len(s.Formula))
	for el := range s.Formula {
		elements = append(elements, el)
	}
	sort.Strings(elements)

	chainIDs := make([]string, 0, len(s.Sequences))
	for id := range s.Sequences {
		chainIDs = append(chainIDs, id)
	}
	sort.Strings(chainIDs)
	sequences := make([]string, 0, len(chainIDs))
	for _, id := range chainIDs {
		sequences = append(sequences, s.Sequences[id])
	}

	return CatalogueDocument{
		ModelID:            string(s.ID),
		Title:              s.Title,
		ChainIDs:           append([]string{}, s.ChainIDs...),
		Elements:           elements,
		Sequences:          sequences,
		ChainCount:         s.ChainCount,
		ResidueCount:       s.ResidueCount,
		SmallMoleculeCount: s.SmallMoleculeCount,
		AtomCount:          s.AtomCount,
		BondCount:          s.BondCount,
		HelixCount:         s.HelixCount,
		BetaStrandCount:    s.BetaStrandCount,
		Mass:               s.Mass,
		IndexedAt:          now.UTC(),
	}
}

// catalogueMapping keeps identifiers and sequences as keywords so filters
// and wildcard sequence motifs match exactly.
var catalogueMapping = map[string]any{
	"settings": map[string]any{"number_of_shards": 1, "number_of_replicas": 0},
	"mappings": map[string]any{
		"properties": map[string]any{
			"model_id":             map[string]any{"type": "keyword"},
			"title":                map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"chain_ids":            map[string]any{"type": "keyword"},
			"elements":             map[string]any{"type": "keyword"},
			"sequences":            map[string]any{"type": "keyword"},
			"chain_count":          map[string]any{"type": "integer"},
			"residue_count":        map[string]any{"type": "integer"},
			"small_molecule_count": map[string]any{"type": "integer"},
			"atom_count":           map[string]any{"type": "integer"},
			"bond_count":           map[string]any{"type": "integer"},
			"helix_count":          map[string]any{"type": "integer"},
			"beta_strand_count":    map[string]any{"type": "integer"},
			"mass":                 map[string]any{"type": "double"},
			"indexed_at":           map[string]any{"type": "date"},
		},
	},
}

// Indexer writes catalogue documents.
type Indexer struct {
	client  *Client
	index   string
	refresh string
	logger  logging.Logger
	now     func() time.Time
}

// NewIndexer targets index, or DefaultIndex when empty. refresh is passed to
// every write ("true", "wait_for" or "false").
func NewIndexer(client *Client, index, refresh string, logger logging.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	if refresh == "" {
		refresh = "false"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{client: client, index: index, refresh: refresh, logger: logger, now: time.Now}
}

func (i *Indexer) Index() string { return i.index }

// EnsureIndex creates the catalogue index with its mapping when missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.IndexExists(ctx)
	if err != nil || exists {
		return err
	}
	body, err := json.Marshal(catalogueMapping)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader(body)}.
		Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to create index request")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, ErrIndexCreationFailed)
	}
	i.logger.Info("Index created", logging.String("index", i.index))
	return nil
}

func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.CodeSearchError, "failed to check index existence")
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	}
	return false, responseError(resp, errors.New(errors.CodeSearchError, "check index existence failed"))
}

// IndexSummary upserts the catalogue document of s under its model id.
func (i *Indexer) IndexSummary(ctx context.Context, s *stypes.ModelSummary) error {
	if s == nil || s.ID == "" {
		return errors.InvalidParam("summary with a model id is required")
	}
	body, err := json.Marshal(DocumentFromSummary(s, i.now()))
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to marshal document")
	}
	resp, err := opensearchapi.IndexRequest{
		Index:      i.index,
		DocumentID: string(s.ID),
		Body:       bytes.NewReader(body),
		Refresh:    i.refresh,
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to index document request")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, ErrDocumentIndexFailed)
	}
	i.logger.Debug("indexed model summary", logging.String(logging.FieldModelID, string(s.ID)))
	return nil
}

// Delete removes the document of modelID. A missing document is not an error.
func (i *Indexer) Delete(ctx context.Context, modelID string) error {
	resp, err := opensearchapi.DeleteRequest{
		Index:      i.index,
		DocumentID: modelID,
		Refresh:    i.refresh,
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to delete document request")
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil
	}
	if resp.IsError() {
		return responseError(resp, errors.New(errors.CodeSearchError, "delete document failed"))
	}
	return nil
}

// responseError folds the OpenSearch error body into base.
func responseError(resp *opensearchapi.Response, base *errors.AppError) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	detail := resp.Status()
	if json.Unmarshal(body, &e) == nil && e.Error.Type != "" {
		detail = e.Error.Type + ": " + e.Error.Reason
	}
	return base.WithDetail(detail)
}

//Personal.AI order the ending
