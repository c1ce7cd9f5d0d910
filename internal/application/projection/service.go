// Package projection keeps the read-side stores in step with the snapshot
// store. It consumes structural events and rewrites the graph projection and
// the catalogue index of the affected model.
package projection

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

const (
	targetGraph     = "graph"
	targetCatalogue = "catalogue"
)

// SnapshotLoader reads the current snapshot of a model.
type SnapshotLoader interface {
	FindByID(ctx context.Context, id common.ID) (*domain.Snapshot, error)
}

// GraphProjector mirrors models into the graph store.
type GraphProjector interface {
	ProjectModel(ctx context.Context, id common.ID, title string, m *domain.Model) error
	DeleteModel(ctx context.Context, id common.ID) error
}

// CatalogueIndexer mirrors model summaries into the search index.
type CatalogueIndexer interface {
	IndexSummary(ctx context.Context, s *stypes.ModelSummary) error
	Delete(ctx context.Context, modelID string) error
}

// Service defines the interface for projection operations.
type Service interface {
	Handle(ctx context.Context, ev stypes.StructureEvent) error
}

type serviceImpl struct {
	snapshots SnapshotLoader
	graph     GraphProjector
	catalogue CatalogueIndexer
	metrics   *prometheus.StructureMetrics
	logger    logging.Logger
}

// NewService creates a projection service. graph and catalogue may be nil;
// the missing target is then skipped.
func NewService(snapshots SnapshotLoader, graph GraphProjector, catalogue CatalogueIndexer,
	metrics *prometheus.StructureMetrics, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		snapshots: snapshots,
		graph:     graph,
		catalogue: catalogue,
		metrics:   metrics,
		logger:    logger.Named("projection"),
	}
}

// Handle applies one event. Only model.saved and model.deleted change the
// projections; finer-grained events are always followed by model.saved.
func (s *serviceImpl) Handle(ctx context.Context, ev stypes.StructureEvent) error {
	if err := ev.ModelID.Validate(); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "event carries no valid model id")
	}
	switch ev.Type {
	case stypes.EventModelSaved:
		return s.project(ctx, ev)
	case stypes.EventModelDeleted:
		return s.remove(ctx, ev)
	default:
		return nil
	}
}

func (s *serviceImpl) project(ctx context.Context, ev stypes.StructureEvent) error {
	if s.snapshots == nil {
		return errors.New(errors.CodeNotImplemented, "no snapshot store to project from")
	}
	start := time.Now()
	snap, err := s.snapshots.FindByID(ctx, ev.ModelID)
	if errors.IsNotFound(err) {
		// Deleted since the event was produced; the delete event cleans up.
		s.logger.Info("snapshot gone, skipping projection",
			logging.String(logging.FieldModelID, string(ev.ModelID)))
		return nil
	}
	if err != nil {
		return err
	}
	m, err := domain.ModelFromDTO(snap.Model)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "stored snapshot does not rebuild").
			WithDetail("id=" + string(ev.ModelID))
	}
	summary := domain.Summarize(m)
	summary.ID = snap.ID
	summary.Title = snap.Title

	g, gctx := errgroup.WithContext(ctx)
	if s.graph != nil {
		g.Go(func() error {
			err := s.graph.ProjectModel(gctx, snap.ID, snap.Title, m)
			s.metrics.RecordProjection(targetGraph, string(ev.Type), err)
			return err
		})
	}
	if s.catalogue != nil {
		g.Go(func() error {
			err := s.catalogue.IndexSummary(gctx, summary)
			s.metrics.RecordProjection(targetCatalogue, string(ev.Type), err)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("projection failed",
			logging.String(logging.FieldModelID, string(ev.ModelID)), logging.Err(err))
		return err
	}
	s.logger.Debug("model projected",
		logging.String(logging.FieldModelID, string(ev.ModelID)),
		logging.Int("atoms", summary.AtomCount),
		logging.Duration("took", time.Since(start)))
	return nil
}

func (s *serviceImpl) remove(ctx context.Context, ev stypes.StructureEvent) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.graph != nil {
		g.Go(func() error {
			err := s.graph.DeleteModel(gctx, ev.ModelID)
			s.metrics.RecordProjection(targetGraph, string(ev.Type), err)
			return err
		})
	}
	if s.catalogue != nil {
		g.Go(func() error {
			err := s.catalogue.Delete(gctx, string(ev.ModelID))
			s.metrics.RecordProjection(targetCatalogue, string(ev.Type), err)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("projection removal failed",
			logging.String(logging.FieldModelID, string(ev.ModelID)), logging.Err(err))
		return err
	}
	return nil
}

//Personal.AI order the ending
