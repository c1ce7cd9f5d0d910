// Package structure provides the application-level service for structural
// models. It sits between the HTTP/gRPC/CLI surfaces and the domain graph and
// drives the optional persistence, archive, cache and event ports.
package structure

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/domain/selection"
	domain "github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// Service defines the interface for structural model operations.
type Service interface {
	Ingest(ctx context.Context, dto *stypes.ModelDTO) (*stypes.ModelSummary, error)
	Get(ctx context.Context, id common.ID) (*stypes.ModelDTO, error)
	Summary(ctx context.Context, id common.ID) (*stypes.ModelSummary, error)
	Export(ctx context.Context, id common.ID) (*stypes.ExportResult, error)
	List(ctx context.Context, page common.Pagination) (*common.PageResponse[*stypes.ModelHeader], error)
	Delete(ctx context.Context, id common.ID) error

	AddSmallMolecule(ctx context.Context, id common.ID, sm stypes.SmallMoleculeDTO) (*stypes.ModelSummary, error)
	RemoveSmallMolecule(ctx context.Context, id common.ID, moleculeID string) (*stypes.ModelSummary, error)
	AddBetaStrand(ctx context.Context, id common.ID, chainID string, strand stypes.BetaStrandDTO) (*stypes.ModelSummary, error)
	AddHelix(ctx context.Context, id common.ID, chainID string, helix stypes.HelixDTO) (*stypes.ModelSummary, error)

	Select(ctx context.Context, id common.ID, expr string) ([]stypes.AtomView, error)
	Events(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error)
	Search(ctx context.Context, q stypes.CatalogueQuery) (*stypes.CatalogueResult, error)
}

// Archive stores content-addressed model snapshots.
type Archive interface {
	Put(ctx context.Context, modelID string, dto *stypes.ModelDTO) (string, error)
	Get(ctx context.Context, digest string) (*stypes.ModelDTO, error)
}

// Publisher sends structural events to the bus.
type Publisher interface {
	Publish(ctx context.Context, events ...stypes.StructureEvent) error
}

// SummaryCache keeps derived summaries between mutations.
type SummaryCache interface {
	GetOrLoad(ctx context.Context, id common.ID,
		load func(ctx context.Context) (*stypes.ModelSummary, error)) (*stypes.ModelSummary, error)
	Invalidate(ctx context.Context, id common.ID)
}

// Locker serializes mutations of one model across service instances.
type Locker interface {
	Lock(ctx context.Context, id common.ID) (func(), error)
}

// Catalogue answers catalogue queries.
type Catalogue interface {
	Search(ctx context.Context, q stypes.CatalogueQuery) (*stypes.CatalogueResult, error)
}

// Config tunes ingestion.
type Config struct {
	InferBonds    bool
	BondTolerance float64
	// MaxAtoms rejects larger models on ingest. Zero means no limit.
	MaxAtoms int
}

// ConfigFrom maps the structure section of the application config.
func ConfigFrom(c config.StructureConfig) Config {
	return Config{InferBonds: c.InferBonds, BondTolerance: c.BondTolerance, MaxAtoms: c.MaxAtoms}
}

// Deps are the optional ports of the service. Nil ports are skipped, so a
// zero Deps gives a purely in-memory service.
type Deps struct {
	Repository domain.Repository
	EventLog   domain.EventLog
	Archive    Archive
	Publisher  Publisher
	Summaries  SummaryCache
	Locker     Locker
	Catalogue  Catalogue
	Metrics    *prometheus.StructureMetrics
	Logger     logging.Logger
}

// resident is a model held in memory. mu guards model and the bookkeeping
// fields.
type resident struct {
	mu        sync.Mutex
	model     *domain.Model
	title     string
	digest    string
	createdAt time.Time
	updatedAt time.Time
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg  Config
	deps Deps
	log  logging.Logger
	now  func() time.Time

	mu     sync.RWMutex
	models map[common.ID]*resident
}

// NewService creates a new structure application service.
func NewService(cfg Config, deps Deps) Service {
	return newService(cfg, deps)
}

func newService(cfg Config, deps Deps) *serviceImpl {
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &serviceImpl{
		cfg:    cfg,
		deps:   deps,
		log:    log.Named("structure"),
		now:    func() time.Time { return time.Now().UTC() },
		models: make(map[common.ID]*resident),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Whole-model operations
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Ingest(ctx context.Context, dto *stypes.ModelDTO) (_ *stypes.ModelSummary, err error) {
	start := time.Now()
	atoms := 0
	defer func() {
		s.deps.Metrics.RecordIngest(atoms, err)
		s.deps.Metrics.RecordOperation("ingest", start, true, err)
	}()

	if dto == nil {
		return nil, errors.InvalidParam("model document is required")
	}
	id := dto.ID
	if id == "" {
		id = common.NewID()
	} else if verr := id.Validate(); verr != nil {
		return nil, errors.Wrap(verr, errors.CodeInvalidParam, "invalid model id")
	} else if cerr := s.checkStored(ctx, id); cerr != nil {
		return nil, cerr
	}

	m, err := domain.ModelFromDTO(dto)
	if err != nil {
		return nil, err
	}
	if len(dto.Bonds) == 0 && s.cfg.InferBonds {
		n, err := domain.InferBonds(m.ReachableAtoms(), s.cfg.BondTolerance)
		if err != nil {
			return nil, err
		}
		s.log.Debug("bonds inferred", logging.String(logging.FieldModelID, string(id)), logging.Int("bonds", n))
	}
	atoms = len(m.ReachableAtoms())
	if s.cfg.MaxAtoms > 0 && atoms > s.cfg.MaxAtoms {
		return nil, errors.ValueRange(fmt.Sprintf("model has %d atoms, limit is %d", atoms, s.cfg.MaxAtoms))
	}

	now := s.now()
	r := &resident{model: m, title: dto.Title, createdAt: now, updatedAt: now}

	s.mu.Lock()
	if _, taken := s.models[id]; taken {
		s.mu.Unlock()
		return nil, errors.Conflict("model already exists").WithDetail("id=" + string(id))
	}
	s.models[id] = r
	n := len(s.models)
	s.mu.Unlock()
	s.deps.Metrics.SetResident(n)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := s.persist(ctx, id, r); err != nil {
		s.evict(id)
		return nil, err
	}
	s.publish(ctx, id, r, m.Events())

	s.log.Info("model ingested",
		logging.String(logging.FieldModelID, string(id)),
		logging.Int("atoms", atoms),
		logging.Int("chains", len(m.Chains())))
	return s.summarize(id, r), nil
}

func (s *serviceImpl) Get(ctx context.Context, id common.ID) (_ *stypes.ModelDTO, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation("get", start, false, err) }()

	r, err := s.resident(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.document(id, r), nil
}

func (s *serviceImpl) Summary(ctx context.Context, id common.ID) (_ *stypes.ModelSummary, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation("summary", start, false, err) }()

	load := func(ctx context.Context) (*stypes.ModelSummary, error) {
		r, err := s.resident(ctx, id)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return s.summarize(id, r), nil
	}
	if s.deps.Summaries == nil {
		return load(ctx)
	}
	return s.deps.Summaries.GetOrLoad(ctx, id, load)
}

func (s *serviceImpl) Export(ctx context.Context, id common.ID) (_ *stypes.ExportResult, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation("export", start, false, err) }()

	r, err := s.resident(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	dto := s.document(id, r)
	raw, err := snapshot.Marshal(dto)
	if err != nil {
		return nil, err
	}
	return &stypes.ExportResult{Digest: snapshot.Digest(raw), Model: dto}, nil
}

func (s *serviceImpl) List(ctx context.Context, page common.Pagination) (_ *common.PageResponse[*stypes.ModelHeader], err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation("list", start, false, err) }()

	page = page.Normalize()
	if s.deps.Repository != nil {
		snaps, total, err := s.deps.Repository.List(ctx, page)
		if err != nil {
			return nil, err
		}
		headers := make([]*stypes.ModelHeader, 0, len(snaps))
		for _, snap := range snaps {
			headers = append(headers, &stypes.ModelHeader{
				ID:        snap.ID,
				Title:     snap.Title,
				AtomCount: snap.AtomCount,
				Digest:    snap.Digest,
				Version:   snap.Version,
				CreatedAt: common.Timestamp(snap.CreatedAt),
				UpdatedAt: common.Timestamp(snap.UpdatedAt),
			})
		}
		out := common.NewPageResponse(headers, total, page)
		return &out, nil
	}

	headers := s.residentHeaders()
	total := int64(len(headers))
	from := page.Offset()
	if from > len(headers) {
		from = len(headers)
	}
	to := from + page.PageSize
	if to > len(headers) {
		to = len(headers)
	}
	out := common.NewPageResponse(headers[from:to], total, page)
	return &out, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id common.ID) (err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation("delete", start, true, err) }()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	_, inMemory := s.models[id]
	s.mu.RUnlock()

	if s.deps.Repository != nil {
		if err := s.deps.Repository.Delete(ctx, id); err != nil {
			if !errors.IsNotFound(err) || !inMemory {
				return err
			}
		}
	} else if !inMemory {
		return errors.ModelNotFound(string(id))
	}

	s.evict(id)
	s.invalidate(ctx, id)
	s.emit(ctx, []stypes.StructureEvent{s.event(id, stypes.EventModelDeleted, string(id), nil)})
	s.log.Info("model deleted", logging.String(logging.FieldModelID, string(id)))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) AddSmallMolecule(ctx context.Context, id common.ID, sd stypes.SmallMoleculeDTO) (*stypes.ModelSummary, error) {
	return s.mutate(ctx, id, "add_small_molecule", func(m *domain.Model) error {
		sm, err := domain.SmallMoleculeFromDTO(sd)
		if err != nil {
			return err
		}
		return m.AddSmallMolecule(sm)
	})
}

func (s *serviceImpl) RemoveSmallMolecule(ctx context.Context, id common.ID, moleculeID string) (*stypes.ModelSummary, error) {
	return s.mutate(ctx, id, "remove_small_molecule", func(m *domain.Model) error {
		sm, ok := m.SmallMoleculeByID(moleculeID)
		if !ok {
			return errors.Membership("small molecule is not in this model").WithDetail("id=" + moleculeID)
		}
		return m.RemoveSmallMolecule(sm)
	})
}

func (s *serviceImpl) AddBetaStrand(ctx context.Context, id common.ID, chainID string, sd stypes.BetaStrandDTO) (*stypes.ModelSummary, error) {
	return s.mutate(ctx, id, "add_beta_strand", func(m *domain.Model) error {
		residues, err := chainResidues(m, chainID, sd.ResidueIDs)
		if err != nil {
			return err
		}
		_, err = domain.NewBetaStrandFromValues(sd.StrandID, sd.Sense, residues...)
		return err
	})
}

func (s *serviceImpl) AddHelix(ctx context.Context, id common.ID, chainID string, hd stypes.HelixDTO) (*stypes.ModelSummary, error) {
	return s.mutate(ctx, id, "add_helix", func(m *domain.Model) error {
		residues, err := chainResidues(m, chainID, hd.ResidueIDs)
		if err != nil {
			return err
		}
		_, err = domain.NewHelixFromValues(hd.HelixID, hd.Class, hd.Comment, residues...)
		return err
	})
}

func chainResidues(m *domain.Model, chainID string, ids []string) ([]*domain.Residue, error) {
	c, ok := m.ChainByID(chainID)
	if !ok {
		return nil, errors.Membership("chain is not in this model").WithDetail("chain=" + chainID)
	}
	return domain.ResiduesOf(c, ids)
}

// mutate runs fn on the model under its locks, then saves the snapshot and
// emits the drained domain events followed by model.saved. A failed fn leaves
// the model untouched because every domain mutator checks before it changes.
func (s *serviceImpl) mutate(ctx context.Context, id common.ID, op string, fn func(*domain.Model) error) (_ *stypes.ModelSummary, err error) {
	start := time.Now()
	defer func() { s.deps.Metrics.RecordOperation(op, start, true, err) }()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another instance may have changed the stored copy while we held ours.
	if s.deps.Locker != nil && s.deps.Repository != nil {
		s.evict(id)
	}
	r, err := s.resident(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.isResident(id, r) {
		return nil, errors.ModelNotFound(string(id))
	}
	if err := fn(r.model); err != nil {
		return nil, err
	}
	events := r.model.Events()
	r.updatedAt = s.now()

	s.invalidate(ctx, id)
	if err := s.persist(ctx, id, r); err != nil {
		s.evict(id)
		return nil, err
	}
	s.publish(ctx, id, r, events)
	s.log.Debug("model updated", logging.String(logging.FieldModelID, string(id)), logging.String("op", op))
	return s.summarize(id, r), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Select(ctx context.Context, id common.ID, expr string) (_ []stypes.AtomView, err error) {
	start := time.Now()
	defer func() {
		s.deps.Metrics.RecordSelection(err)
		s.deps.Metrics.RecordOperation("select", start, false, err)
	}()

	sel, err := selection.Compile(expr)
	if err != nil {
		return nil, err
	}
	r, err := s.resident(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	atoms := sel.Select(r.model)
	out := make([]stypes.AtomView, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, domain.AtomViewOf(a))
	}
	return out, nil
}

func (s *serviceImpl) Events(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error) {
	if s.deps.EventLog == nil {
		return nil, errors.New(errors.CodeNotImplemented, "event log is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	return s.deps.EventLog.ListByModel(ctx, id, limit)
}

func (s *serviceImpl) Search(ctx context.Context, q stypes.CatalogueQuery) (*stypes.CatalogueResult, error) {
	if s.deps.Catalogue == nil {
		return nil, errors.New(errors.CodeNotImplemented, "catalogue search is not configured")
	}
	if q.MinAtoms < 0 || q.MaxAtoms < 0 || (q.MaxAtoms > 0 && q.MinAtoms > q.MaxAtoms) {
		return nil, errors.InvalidParam("invalid atom count range")
	}
	return s.deps.Catalogue.Search(ctx, q)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────────────────────────────────────

// resident returns the in-memory model, loading it from the repository on a
// miss.
func (s *serviceImpl) resident(ctx context.Context, id common.ID) (*resident, error) {
	s.mu.RLock()
	r, ok := s.models[id]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}
	if s.deps.Repository == nil {
		return nil, errors.ModelNotFound(string(id))
	}

	snap, err := s.deps.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := domain.ModelFromDTO(snap.Model)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "stored snapshot does not rebuild").
			WithDetail("id=" + string(id))
	}
	loaded := &resident{
		model:     m,
		title:     snap.Title,
		digest:    snap.Digest,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.models[id]; ok {
		return r, nil
	}
	s.models[id] = loaded
	s.deps.Metrics.SetResident(len(s.models))
	return loaded, nil
}

func (s *serviceImpl) isResident(id common.ID, r *resident) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models[id] == r
}

func (s *serviceImpl) evict(id common.ID) {
	s.mu.Lock()
	delete(s.models, id)
	n := len(s.models)
	s.mu.Unlock()
	s.deps.Metrics.SetResident(n)
}

func (s *serviceImpl) lock(ctx context.Context, id common.ID) (func(), error) {
	if s.deps.Locker == nil {
		return func() {}, nil
	}
	return s.deps.Locker.Lock(ctx, id)
}

func (s *serviceImpl) invalidate(ctx context.Context, id common.ID) {
	if s.deps.Summaries != nil {
		s.deps.Summaries.Invalidate(ctx, id)
	}
}

// persist saves r through the repository and the archive. Caller holds r.mu.
// checkStored fails with CodeConflict when a caller-chosen id is already in
// the repository, including models this instance has never loaded.
func (s *serviceImpl) checkStored(ctx context.Context, id common.ID) error {
	if s.deps.Repository == nil {
		return nil
	}
	_, err := s.deps.Repository.FindByID(ctx, id)
	switch {
	case err == nil:
		return errors.Conflict("model already exists").WithDetail("id=" + string(id))
	case errors.IsNotFound(err):
		return nil
	default:
		return errors.Wrap(err, errors.CodeUnknown, "checking model id")
	}
}

func (s *serviceImpl) persist(ctx context.Context, id common.ID, r *resident) error {
	dto := s.document(id, r)
	raw, err := snapshot.Marshal(dto)
	if err != nil {
		return err
	}
	r.digest = snapshot.Digest(raw)

	if s.deps.Repository != nil {
		snap := &domain.Snapshot{
			ID:        id,
			Title:     r.title,
			Model:     dto,
			Digest:    r.digest,
			AtomCount: len(r.model.ReachableAtoms()),
			CreatedAt: r.createdAt,
			UpdatedAt: r.updatedAt,
		}
		if err := s.deps.Repository.Save(ctx, snap); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "saving model snapshot")
		}
	}
	if s.deps.Archive != nil {
		if _, err := s.deps.Archive.Put(ctx, string(id), dto); err != nil {
			// The repository copy is authoritative; a missing archive object
			// is rewritten on the next save.
			s.log.Warn("snapshot archive failed",
				logging.String(logging.FieldModelID, string(id)), logging.Err(err))
		}
	}
	return nil
}

// publish converts drained domain events, appends model.saved and emits them.
func (s *serviceImpl) publish(ctx context.Context, id common.ID, r *resident, drained []domain.DomainEvent) {
	events := make([]stypes.StructureEvent, 0, len(drained)+1)
	for _, e := range drained {
		events = append(events, s.event(id, e.EventType(), e.SubjectID(), e.Attributes()))
	}
	events = append(events, s.event(id, stypes.EventModelSaved, string(id), map[string]string{
		"digest":     r.digest,
		"atom_count": fmt.Sprint(len(r.model.ReachableAtoms())),
	}))
	s.emit(ctx, events)
}

func (s *serviceImpl) event(id common.ID, typ stypes.EventType, subject string, attrs map[string]string) stypes.StructureEvent {
	return stypes.StructureEvent{
		EventID:    string(common.NewID()),
		Type:       typ,
		ModelID:    id,
		SubjectID:  subject,
		OccurredAt: common.Timestamp(s.now()),
		Attributes: attrs,
	}
}

// emit records events in the log and on the bus. The change is already
// stored, so failures are logged rather than returned.
func (s *serviceImpl) emit(ctx context.Context, events []stypes.StructureEvent) {
	if len(events) == 0 {
		return
	}
	modelID := string(events[0].ModelID)
	if s.deps.EventLog != nil {
		if err := s.deps.EventLog.Append(ctx, events...); err != nil {
			s.log.Error("event log append failed",
				logging.String(logging.FieldModelID, modelID), logging.Err(err))
		}
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Publish(ctx, events...); err != nil {
			s.log.Error("event publish failed",
				logging.String(logging.FieldModelID, modelID),
				logging.Int("events", len(events)), logging.Err(err))
		}
	}
}

// document exports r with its id and title. Caller holds r.mu.
func (s *serviceImpl) document(id common.ID, r *resident) *stypes.ModelDTO {
	dto := r.model.ToDTO()
	dto.ID = id
	dto.Title = r.title
	return dto
}

// summarize derives the summary of r. Caller holds r.mu.
func (s *serviceImpl) summarize(id common.ID, r *resident) *stypes.ModelSummary {
	sum := domain.Summarize(r.model)
	sum.ID = id
	sum.Title = r.title
	return sum
}

// residentHeaders lists in-memory models, newest first.
func (s *serviceImpl) residentHeaders() []*stypes.ModelHeader {
	s.mu.RLock()
	ids := make([]common.ID, 0, len(s.models))
	for id := range s.models {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	headers := make([]*stypes.ModelHeader, 0, len(ids))
	for _, id := range ids {
		s.mu.RLock()
		r, ok := s.models[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		r.mu.Lock()
		headers = append(headers, &stypes.ModelHeader{
			ID:        id,
			Title:     r.title,
			AtomCount: len(r.model.ReachableAtoms()),
			Digest:    r.digest,
			Version:   1,
			CreatedAt: common.Timestamp(r.createdAt),
			UpdatedAt: common.Timestamp(r.updatedAt),
		})
		r.mu.Unlock()
	}
	sort.Slice(headers, func(i, j int) bool {
		ti, tj := time.Time(headers[i].CreatedAt), time.Time(headers[j].CreatedAt)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return headers[i].ID < headers[j].ID
	})
	return headers
}

//Personal.AI order the ending
