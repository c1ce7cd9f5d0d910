package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/testutil"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// fakeCluster answers the handful of endpoints the catalogue uses.
type fakeCluster struct {
	mu          sync.Mutex
	requests    []recordedRequest
	indexExists bool
	docs        map[string][]byte
	failSearch  bool
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{r.Method, r.URL.Path, r.URL.RawQuery, body})
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"version":{"number":"2.11.0","distribution":"opensearch"}}`))
	case r.Method == http.MethodHead && r.URL.Path == "/"+DefaultIndex:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/"+DefaultIndex:
		f.indexExists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case strings.HasPrefix(r.URL.Path, "/"+DefaultIndex+"/_doc/"):
		id := strings.TrimPrefix(r.URL.Path, "/"+DefaultIndex+"/_doc/")
		switch r.Method {
		case http.MethodPut, http.MethodPost:
			f.docs[id] = body
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		case http.MethodDelete:
			if _, ok := f.docs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"result":"not_found"}`))
				return
			}
			delete(f.docs, id)
			_, _ = w.Write([]byte(`{"result":"deleted"}`))
		}
	case strings.HasSuffix(r.URL.Path, "/_search"):
		if f.failSearch {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception","reason":"bad query"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"took":3,"hits":{"total":{"value":1},"hits":[
			{"_id":"m-1","_score":1.5,"_source":{"model_id":"m-1","title":"lysozyme","atom_count":1001}}]}}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (f *fakeCluster) last(method, pathPrefix string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			return r, true
		}
	}
	return recordedRequest{}, false
}

func (f *fakeCluster) set(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func newTestClient(t *testing.T) (*Client, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{docs: map[string][]byte{}}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		Addresses:      []string{srv.URL},
		MaxRetries:     1,
		RetryBackoff:   time.Millisecond,
		RequestTimeout: time.Second,
	}, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, cluster
}

func sampleSummary() *stypes.ModelSummary {
	return &stypes.ModelSummary{
		ID:         "m-1",
		Title:      "lysozyme",
		ChainIDs:   []string{"A"},
		ChainCount: 1,
		AtomCount:  1001,
		Formula:    map[string]int{"O": 10, "C": 50, "N": 12},
		Sequences:  map[string]string{"B": "GG", "A": "KVFGR"},
	}
}

func TestValidateConfig(t *testing.T) {
	assert.Equal(t, ErrInvalidConfig, ValidateConfig(ClientConfig{RequestTimeout: time.Second}))
	assert.Error(t, ValidateConfig(ClientConfig{Addresses: []string{"http://x"}, MaxRetries: -1, RequestTimeout: time.Second}))
	assert.Error(t, ValidateConfig(ClientConfig{Addresses: []string{"http://x"}}))
	assert.NoError(t, ValidateConfig(ClientConfigFrom(config.OpenSearchConfig{Addresses: []string{"http://x"}})))
}

func TestNewClient_PingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{Addresses: []string{srv.URL}, RequestTimeout: time.Second}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeSearchError))
}

func TestNewClient_Healthy(t *testing.T) {
	c, _ := newTestClient(t)
	assert.True(t, c.IsHealthy())
}

func TestDocumentFromSummary(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := DocumentFromSummary(sampleSummary(), now)

	assert.Equal(t, "m-1", doc.ModelID)
	assert.Equal(t, []string{"C", "N", "O"}, doc.Elements)
	assert.Equal(t, []string{"KVFGR", "GG"}, doc.Sequences, "sequences follow chain id order")
	assert.Equal(t, now, doc.IndexedAt)
}

func TestIndexer_EnsureIndexCreatesOnce(t *testing.T) {
	c, cluster := newTestClient(t)
	idx := NewIndexer(c, "", "", nil)

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req, ok := cluster.last(http.MethodPut, "/"+DefaultIndex)
	require.True(t, ok)
	var mapping map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &mapping))
	assert.Contains(t, mapping, "mappings")

	cluster.set(func() { cluster.requests = nil })
	require.NoError(t, idx.EnsureIndex(context.Background()))
	_, created := cluster.last(http.MethodPut, "/"+DefaultIndex)
	assert.False(t, created, "existing index is left alone")
}

func TestIndexer_IndexAndDelete(t *testing.T) {
	c, cluster := newTestClient(t)
	idx := NewIndexer(c, "", "true", nil)
	ctx := context.Background()

	require.NoError(t, idx.IndexSummary(ctx, sampleSummary()))
	req, ok := cluster.last(http.MethodPut, "/"+DefaultIndex+"/_doc/m-1")
	require.True(t, ok)
	assert.Contains(t, req.Query, "refresh=true")

	var doc CatalogueDocument
	require.NoError(t, json.Unmarshal(req.Body, &doc))
	assert.Equal(t, 1001, doc.AtomCount)

	require.NoError(t, idx.Delete(ctx, "m-1"))
	require.NoError(t, idx.Delete(ctx, "m-1"), "missing documents are ignored")

	assert.Error(t, idx.IndexSummary(ctx, nil))
	assert.Error(t, idx.IndexSummary(ctx, &stypes.ModelSummary{}))
}

func TestSearcher_Search(t *testing.T) {
	c, cluster := newTestClient(t)
	s := NewSearcher(c, "", nil)

	res, err := s.Search(context.Background(), CatalogueQuery{Text: "lyso", MinAtoms: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, int64(3), res.TookMs)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, CatalogueHit{ModelID: "m-1", Title: "lysozyme", AtomCount: 1001, Score: 1.5}, res.Hits[0])

	cluster.set(func() { cluster.failSearch = true })
	_, err = s.Search(context.Background(), CatalogueQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception")
}

func TestBuildCatalogueQuery(t *testing.T) {
	q := buildCatalogueQuery(CatalogueQuery{})
	assert.Equal(t, map[string]any{"match_all": map[string]any{}}, q["query"])
	assert.Equal(t, defaultPageSize, q["size"])
	assert.Equal(t, 0, q["from"])

	q = buildCatalogueQuery(CatalogueQuery{
		Motif: "kv*", ChainID: "A", Elements: []string{"FE"}, MaxAtoms: 500, Limit: 1000, Offset: -3,
	})
	assert.Equal(t, maxPageSize, q["size"])
	assert.Equal(t, 0, q["from"])

	b := q["query"].(map[string]any)["bool"].(map[string]any)
	assert.NotContains(t, b, "must")
	filter := b["filter"].([]any)
	require.Len(t, filter, 4)
	assert.Equal(t, map[string]any{"wildcard": map[string]any{"sequences": `*KV\**`}}, filter[0])
	assert.Equal(t, map[string]any{"term": map[string]any{"chain_ids": "A"}}, filter[1])
	assert.Equal(t, map[string]any{"range": map[string]any{"atom_count": map[string]any{"lte": 500}}}, filter[3])
}

//Personal.AI order the ending
