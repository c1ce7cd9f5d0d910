package redis

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

const summaryCacheName = "summary"

// SummaryCache caches derived model summaries by model id. Entries are
// invalidated by the service on every mutation of the model.
type SummaryCache struct {
	cache   Cache
	ttl     time.Duration
	metrics *prometheus.StructureMetrics
	logger  logging.Logger
}

func NewSummaryCache(cache Cache, ttl time.Duration, metrics *prometheus.StructureMetrics, log logging.Logger) *SummaryCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SummaryCache{cache: cache, ttl: ttl, metrics: metrics, logger: log}
}

// Get returns ErrCacheMiss when nothing is cached for id.
func (s *SummaryCache) Get(ctx context.Context, id common.ID) (*stypes.ModelSummary, error) {
	var sum stypes.ModelSummary
	err := s.cache.Get(ctx, string(id), &sum)
	s.metrics.RecordCacheAccess(summaryCacheName, err == nil)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// GetOrLoad returns the cached summary or computes, stores and returns it.
func (s *SummaryCache) GetOrLoad(ctx context.Context, id common.ID,
	load func(ctx context.Context) (*stypes.ModelSummary, error)) (*stypes.ModelSummary, error) {
	hit := true
	var sum stypes.ModelSummary
	err := s.cache.GetOrSet(ctx, string(id), &sum, s.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		v, err := load(ctx)
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	})
	s.metrics.RecordCacheAccess(summaryCacheName, hit && err == nil)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// Invalidate drops the cached summary for id. Failures are logged, not returned.
func (s *SummaryCache) Invalidate(ctx context.Context, id common.ID) {
	if err := s.cache.Delete(ctx, string(id)); err != nil && !stderrors.Is(err, ErrCacheMiss) {
		s.logger.Warn("summary invalidation failed",
			logging.String(logging.FieldModelID, string(id)), logging.Err(err))
	}
}

//Personal.AI order the ending
