package redis

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

func newSummaryCache(t *testing.T) *SummaryCache {
	t.Helper()
	client, _ := newTestClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithNamespace("summary"))
	return NewSummaryCache(cache, time.Minute, nil, nil)
}

func sampleSummary(id common.ID) *stypes.ModelSummary {
	return &stypes.ModelSummary{
		ID:           id,
		ChainIDs:     []string{"A"},
		ChainCount:   1,
		ResidueCount: 3,
		AtomCount:    9,
		Formula:      map[string]int{"C": 6, "N": 3},
		Sequences:    map[string]string{"A": "RXW"},
	}
}

func TestSummaryCache_GetOrLoad(t *testing.T) {
	sc := newSummaryCache(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (*stypes.ModelSummary, error) {
		loads++
		return sampleSummary("m-1"), nil
	}

	first, err := sc.GetOrLoad(ctx, "m-1", load)
	require.NoError(t, err)
	second, err := sc.GetOrLoad(ctx, "m-1", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, sampleSummary("m-1"), first)
	assert.Equal(t, first, second)
}

func TestSummaryCache_GetMissThenHit(t *testing.T) {
	sc := newSummaryCache(t)
	ctx := context.Background()

	_, err := sc.Get(ctx, "m-2")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = sc.GetOrLoad(ctx, "m-2", func(context.Context) (*stypes.ModelSummary, error) {
		return sampleSummary("m-2"), nil
	})
	require.NoError(t, err)

	got, err := sc.Get(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, "RXW", got.Sequences["A"])
}

func TestSummaryCache_Invalidate(t *testing.T) {
	sc := newSummaryCache(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (*stypes.ModelSummary, error) {
		loads++
		return sampleSummary("m-3"), nil
	}
	_, err := sc.GetOrLoad(ctx, "m-3", load)
	require.NoError(t, err)

	sc.Invalidate(ctx, "m-3")
	sc.Invalidate(ctx, "never-cached")

	_, err = sc.GetOrLoad(ctx, "m-3", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestSummaryCache_LoadError(t *testing.T) {
	sc := newSummaryCache(t)
	boom := stderrors.New("model gone")

	got, err := sc.GetOrLoad(context.Background(), "m-4", func(context.Context) (*stypes.ModelSummary, error) {
		return nil, boom
	})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

//Personal.AI order the ending
