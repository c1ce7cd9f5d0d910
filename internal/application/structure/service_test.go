package structure

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/internal/testutil"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// MockRepository is a mock implementation of domain.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, snap *domain.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id common.ID) (*domain.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, page common.Pagination) ([]*domain.Snapshot, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Snapshot), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Delete(ctx context.Context, id common.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...stypes.StructureEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockEventLog is a mock implementation of domain.EventLog
type MockEventLog struct {
	mock.Mock
}

func (m *MockEventLog) Append(ctx context.Context, events ...stypes.StructureEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventLog) ListByModel(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stypes.StructureEvent), args.Error(1)
}

// MockArchive is a mock implementation of Archive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Put(ctx context.Context, modelID string, dto *stypes.ModelDTO) (string, error) {
	args := m.Called(ctx, modelID, dto)
	return args.String(0), args.Error(1)
}

func (m *MockArchive) Get(ctx context.Context, digest string) (*stypes.ModelDTO, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stypes.ModelDTO), args.Error(1)
}

// memSummaries is an in-process SummaryCache.
type memSummaries struct {
	mu          sync.Mutex
	entries     map[common.ID]*stypes.ModelSummary
	loads       int
	invalidated []common.ID
}

func newMemSummaries() *memSummaries {
	return &memSummaries{entries: make(map[common.ID]*stypes.ModelSummary)}
}

func (c *memSummaries) GetOrLoad(ctx context.Context, id common.ID,
	load func(ctx context.Context) (*stypes.ModelSummary, error)) (*stypes.ModelSummary, error) {
	c.mu.Lock()
	if s, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.loads++
	c.mu.Unlock()

	s, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[id] = s
	c.mu.Unlock()
	return s, nil
}

func (c *memSummaries) Invalidate(ctx context.Context, id common.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

// countingLocker records lock traffic.
type countingLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
	err      error
}

func (l *countingLocker) Lock(ctx context.Context, id common.ID) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.locked++
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
	}, nil
}

type stubCatalogue struct {
	got stypes.CatalogueQuery
}

func (c *stubCatalogue) Search(ctx context.Context, q stypes.CatalogueQuery) (*stypes.CatalogueResult, error) {
	c.got = q
	return &stypes.CatalogueResult{Total: 1, Hits: []stypes.CatalogueHit{{ModelID: "m", Title: "t"}}}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

// testModel is chain A with residues A1 GLY and A2 ALA, each an N-CA pair
// at bonding distance. The residues sit 10 Å apart.
func testModel() *stypes.ModelDTO {
	residue := func(id, name string, firstAtom int, x float64) stypes.ResidueDTO {
		return stypes.ResidueDTO{ID: id, Name: name, Atoms: []stypes.AtomDTO{
			{ID: firstAtom, Name: "N", Element: "N", X: x},
			{ID: firstAtom + 1, Name: "CA", Element: "C", X: x + 1.46},
		}}
	}
	return &stypes.ModelDTO{
		Title: "test model",
		Chains: []stypes.ChainDTO{{
			ID:       "A",
			Residues: []stypes.ResidueDTO{residue("A1", "GLY", 1, 0), residue("A2", "ALA", 3, 10)},
		}},
	}
}

func water(id string, atomID int) stypes.SmallMoleculeDTO {
	return stypes.SmallMoleculeDTO{ID: id, Name: "HOH", Atoms: []stypes.AtomDTO{
		{ID: atomID, Name: "O", Element: "O", X: 20, Y: float64(atomID)},
	}}
}

func eventTypes(events []stypes.StructureEvent) []stypes.EventType {
	out := make([]stypes.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func ingest(t *testing.T, svc Service) common.ID {
	t.Helper()
	sum, err := svc.Ingest(context.Background(), testModel())
	require.NoError(t, err)
	return sum.ID
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingest
// ─────────────────────────────────────────────────────────────────────────────

func TestIngest(t *testing.T) {
	svc := NewService(Config{}, Deps{})

	sum, err := svc.Ingest(context.Background(), testModel())
	require.NoError(t, err)
	assert.NoError(t, sum.ID.Validate())
	assert.Equal(t, "test model", sum.Title)
	assert.Equal(t, []string{"A"}, sum.ChainIDs)
	assert.Equal(t, 2, sum.ResidueCount)
	assert.Equal(t, 4, sum.AtomCount)
	assert.Equal(t, 0, sum.BondCount)
	assert.Equal(t, "GA", sum.Sequences["A"])
}

func TestIngest_KeepsCallerID(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	dto := testModel()
	dto.ID = common.NewID()

	sum, err := svc.Ingest(context.Background(), dto)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, sum.ID)

	_, err = svc.Ingest(context.Background(), dto)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

// memRepository is a map-backed domain.Repository shared between services.
type memRepository struct {
	mu    sync.Mutex
	snaps map[common.ID]*domain.Snapshot
}

func newMemRepository() *memRepository {
	return &memRepository{snaps: make(map[common.ID]*domain.Snapshot)}
}

func (r *memRepository) Save(_ context.Context, snap *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *snap
	if prev, ok := r.snaps[snap.ID]; ok {
		cp.Version = prev.Version + 1
	} else {
		cp.Version = 1
	}
	r.snaps[snap.ID] = &cp
	return nil
}

func (r *memRepository) FindByID(_ context.Context, id common.ID) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snaps[id]
	if !ok {
		return nil, errors.ModelNotFound(string(id))
	}
	cp := *snap
	return &cp, nil
}

func (r *memRepository) List(_ context.Context, _ common.Pagination) ([]*domain.Snapshot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Snapshot, 0, len(r.snaps))
	for _, snap := range r.snaps {
		cp := *snap
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memRepository) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snaps[id]; !ok {
		return errors.ModelNotFound(string(id))
	}
	delete(r.snaps, id)
	return nil
}

func TestIngest_CallerIDStoredByAnotherInstance(t *testing.T) {
	repo := newMemRepository()
	first := NewService(Config{}, Deps{Repository: repo})
	second := NewService(Config{}, Deps{Repository: repo})
	ctx := context.Background()

	dto := testModel()
	dto.ID = common.NewID()
	dto.Title = "first"
	_, err := first.Ingest(ctx, dto)
	require.NoError(t, err)

	other := testModel()
	other.ID = dto.ID
	other.Title = "second"
	other.Chains[0].Residues = other.Chains[0].Residues[:1]
	_, err = second.Ingest(ctx, other)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	stored, err := repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
	assert.Len(t, stored.Model.Chains[0].Residues, 2)

	// The rejected document never became resident on the second instance.
	got, err := second.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestIngest_CallerIDLookupFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, errors.New(errors.CodeDBConnectionError, "down")).Once()

	svc := newService(Config{}, Deps{Repository: repo})
	dto := testModel()
	dto.ID = common.NewID()
	_, err := svc.Ingest(context.Background(), dto)
	assert.True(t, errors.IsCode(err, errors.CodeDBConnectionError))
	assert.Empty(t, svc.models)
	repo.AssertExpectations(t)
}

func TestIngest_InvalidInput(t *testing.T) {
	svc := NewService(Config{}, Deps{})

	_, err := svc.Ingest(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	dto := testModel()
	dto.ID = "not-a-uuid"
	_, err = svc.Ingest(context.Background(), dto)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	dto = testModel()
	dto.Chains[0].BetaStrands = []stypes.BetaStrandDTO{{StrandID: 1, Sense: 2, ResidueIDs: []string{"A1"}}}
	_, err = svc.Ingest(context.Background(), dto)
	assert.True(t, errors.IsValueRange(err))
}

func TestIngest_InfersBondsWhenNoneGiven(t *testing.T) {
	svc := NewService(Config{InferBonds: true, BondTolerance: 0.4}, Deps{})

	sum, err := svc.Ingest(context.Background(), testModel())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.BondCount)

	dto := testModel()
	dto.Bonds = []stypes.BondDTO{{1, 2}}
	sum, err = svc.Ingest(context.Background(), dto)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.BondCount, "explicit bonds suppress inference")
}

func TestIngest_MaxAtoms(t *testing.T) {
	svc := NewService(Config{MaxAtoms: 3}, Deps{})

	_, err := svc.Ingest(context.Background(), testModel())
	assert.True(t, errors.IsValueRange(err))
}

func TestIngest_PersistsArchivesAndPublishes(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	evlog := new(MockEventLog)
	arch := new(MockArchive)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		return s.AtomCount == 4 && s.Title == "test model" && len(s.Digest) == 64 && s.Model != nil
	})).Return(nil).Once()
	arch.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return("digest", nil).Once()
	saved := mock.MatchedBy(func(evs []stypes.StructureEvent) bool {
		return len(evs) == 1 && evs[0].Type == stypes.EventModelSaved && evs[0].Attributes["atom_count"] == "4"
	})
	evlog.On("Append", mock.Anything, saved).Return(nil).Once()
	pub.On("Publish", mock.Anything, saved).Return(nil).Once()

	svc := NewService(Config{}, Deps{Repository: repo, Publisher: pub, EventLog: evlog, Archive: arch})
	sum, err := svc.Ingest(context.Background(), testModel())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.AtomCount)

	repo.AssertExpectations(t)
	arch.AssertExpectations(t)
	evlog.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestIngest_SaveFailureForgetsModel(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New(errors.CodeDBConnectionError, "down")).Once()

	svc := newService(Config{}, Deps{Repository: repo})
	_, err := svc.Ingest(context.Background(), testModel())
	assert.True(t, errors.IsCode(err, errors.CodeDBConnectionError))
	assert.Empty(t, svc.models)
}

func TestIngest_PublishFailureIsLogged(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(stderrors.New("broker down"))
	log := testutil.NewMockLogger()

	svc := NewService(Config{}, Deps{Publisher: pub, Logger: log})
	_, err := svc.Ingest(context.Background(), testModel())
	require.NoError(t, err)

	var found bool
	for _, msg := range log.GetMessages() {
		if msg.Level == "error" && msg.Message == "event publish failed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIngest_ArchiveFailureIsNotFatal(t *testing.T) {
	arch := new(MockArchive)
	arch.On("Put", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("bucket gone"))

	svc := NewService(Config{}, Deps{Archive: arch})
	_, err := svc.Ingest(context.Background(), testModel())
	assert.NoError(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func TestGet(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)

	dto, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, dto.ID)
	assert.Equal(t, "test model", dto.Title)
	require.Len(t, dto.Chains, 1)
	assert.Len(t, dto.Chains[0].Residues, 2)

	_, err = svc.Get(context.Background(), common.NewID())
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotFound))
}

func TestGet_LoadsFromRepository(t *testing.T) {
	id := common.NewID()
	stored := testModel()
	stored.ID = id
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, id).Return(&domain.Snapshot{ID: id, Title: "stored", Model: stored}, nil).Once()

	svc := NewService(Config{}, Deps{Repository: repo})
	dto, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "stored", dto.Title)

	// Served from memory the second time.
	_, err = svc.Get(context.Background(), id)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGet_RepositoryMiss(t *testing.T) {
	id := common.NewID()
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, id).Return(nil, errors.ModelNotFound(string(id)))

	svc := NewService(Config{}, Deps{Repository: repo})
	_, err := svc.Get(context.Background(), id)
	assert.True(t, errors.IsNotFound(err))
}

func TestSummary_UsesCache(t *testing.T) {
	cache := newMemSummaries()
	svc := NewService(Config{}, Deps{Summaries: cache})
	id := ingest(t, svc)

	first, err := svc.Summary(context.Background(), id)
	require.NoError(t, err)
	second, err := svc.Summary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.loads)

	_, err = svc.AddSmallMolecule(context.Background(), id, water("W1", 100))
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, id)

	third, err := svc.Summary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, third.SmallMoleculeCount)
	assert.Equal(t, 2, cache.loads)
}

func TestExport(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)

	out, err := svc.Export(context.Background(), id)
	require.NoError(t, err)
	raw, err := snapshot.Marshal(out.Model)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Digest(raw), out.Digest)
	assert.Equal(t, id, out.Model.ID)
}

func TestList_InMemory(t *testing.T) {
	svc := newService(Config{}, Deps{})
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []common.ID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		ids = append(ids, ingest(t, svc))
	}

	page, err := svc.List(context.Background(), common.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = svc.List(context.Background(), common.Pagination{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)

	page, err = svc.List(context.Background(), common.Pagination{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestList_Repository(t *testing.T) {
	id := common.NewID()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := new(MockRepository)
	repo.On("List", mock.Anything, common.Pagination{Page: 1, PageSize: 20}).
		Return([]*domain.Snapshot{{ID: id, Title: "t", AtomCount: 7, Version: 3, CreatedAt: created, UpdatedAt: created}}, int64(1), nil)

	svc := NewService(Config{}, Deps{Repository: repo})
	page, err := svc.List(context.Background(), common.Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.Equal(t, 7, page.Items[0].AtomCount)
	assert.Equal(t, 3, page.Items[0].Version)
	assert.Equal(t, created, time.Time(page.Items[0].CreatedAt))
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────────────────

func TestAddAndRemoveSmallMolecule(t *testing.T) {
	pub := new(MockPublisher)
	var published [][]stypes.StructureEvent
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		published = append(published, args.Get(1).([]stypes.StructureEvent))
	})
	svc := NewService(Config{}, Deps{Publisher: pub})
	id := ingest(t, svc)

	sum, err := svc.AddSmallMolecule(context.Background(), id, water("W1", 100))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SmallMoleculeCount)
	assert.Equal(t, 5, sum.AtomCount)

	sum, err = svc.RemoveSmallMolecule(context.Background(), id, "W1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.SmallMoleculeCount)

	require.Len(t, published, 3)
	assert.Equal(t, []stypes.EventType{stypes.EventSmallMoleculeAdded, stypes.EventModelSaved}, eventTypes(published[1]))
	assert.Equal(t, "W1", published[1][0].SubjectID)
	assert.Equal(t, id, published[1][0].ModelID)
	assert.Equal(t, []stypes.EventType{stypes.EventSmallMoleculeRemoved, stypes.EventModelSaved}, eventTypes(published[2]))
}

func TestAddSmallMolecule_Errors(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)

	// Atom id 1 is already used by the chain.
	_, err := svc.AddSmallMolecule(context.Background(), id, water("W1", 1))
	assert.Error(t, err)

	_, err = svc.AddSmallMolecule(context.Background(), common.NewID(), water("W2", 200))
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotFound))

	sum, err := svc.Summary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.SmallMoleculeCount)
}

func TestRemoveSmallMolecule_NotMember(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	svc := NewService(Config{}, Deps{Repository: repo})
	id := ingest(t, svc)

	_, err := svc.RemoveSmallMolecule(context.Background(), id, "nope")
	assert.True(t, errors.IsMembership(err))
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestAddSecondaryStructure(t *testing.T) {
	pub := new(MockPublisher)
	var last []stypes.StructureEvent
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		last = args.Get(1).([]stypes.StructureEvent)
	})
	svc := NewService(Config{}, Deps{Publisher: pub})
	id := ingest(t, svc)

	sum, err := svc.AddBetaStrand(context.Background(), id, "A",
		stypes.BetaStrandDTO{StrandID: 1, Sense: 0, ResidueIDs: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.BetaStrandCount)
	assert.Equal(t, []stypes.EventType{stypes.EventSecondaryStructure, stypes.EventModelSaved}, eventTypes(last))
	assert.Equal(t, "BetaStrand", last[0].Attributes["kind"])

	sum, err = svc.AddHelix(context.Background(), id, "A",
		stypes.HelixDTO{HelixID: 1, Class: 1, Comment: "alpha", ResidueIDs: []string{"A2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.HelixCount)
	assert.Equal(t, "Helix", last[0].Attributes["kind"])
}

func TestAddSecondaryStructure_Errors(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)
	ctx := context.Background()

	cases := []struct {
		name  string
		run   func() error
		check func(error) bool
	}{
		{"unknown chain", func() error {
			_, err := svc.AddBetaStrand(ctx, id, "Z", stypes.BetaStrandDTO{StrandID: 1, Sense: 0, ResidueIDs: []string{"A1"}})
			return err
		}, errors.IsMembership},
		{"unknown residue", func() error {
			_, err := svc.AddHelix(ctx, id, "A", stypes.HelixDTO{HelixID: 1, Class: 1, ResidueIDs: []string{"A9"}})
			return err
		}, errors.IsMembership},
		{"bad sense", func() error {
			_, err := svc.AddBetaStrand(ctx, id, "A", stypes.BetaStrandDTO{StrandID: 1, Sense: 5, ResidueIDs: []string{"A1"}})
			return err
		}, errors.IsValueRange},
		{"non-integer class", func() error {
			_, err := svc.AddHelix(ctx, id, "A", stypes.HelixDTO{HelixID: 1, Class: "one", ResidueIDs: []string{"A1"}})
			return err
		}, errors.IsTypeKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			require.Error(t, err)
			assert.True(t, tc.check(err), "got %v", err)
		})
	}

	sum, err := svc.Summary(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, sum.BetaStrandCount)
	assert.Zero(t, sum.HelixCount)
}

func TestMutations_UseLocker(t *testing.T) {
	locker := &countingLocker{}
	svc := NewService(Config{}, Deps{Locker: locker})
	id := ingest(t, svc)

	_, err := svc.AddSmallMolecule(context.Background(), id, water("W1", 100))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), id))
	assert.Equal(t, 2, locker.locked)
	assert.Equal(t, 2, locker.unlocked)

	locker.err = errors.New(errors.CodeConflict, "model lock not acquired")
	id = ingest(t, svc)
	_, err = svc.AddSmallMolecule(context.Background(), id, water("W2", 101))
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestMutations_Concurrent(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddSmallMolecule(context.Background(), id, water(fmt.Sprintf("W%d", i), 100+i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sum, err := svc.Summary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 20, sum.SmallMoleculeCount)
	assert.Equal(t, 24, sum.AtomCount)
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete / Select / Events / Search
// ─────────────────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	pub := new(MockPublisher)
	var last []stypes.StructureEvent
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		last = args.Get(1).([]stypes.StructureEvent)
	})
	svc := NewService(Config{}, Deps{Publisher: pub})
	id := ingest(t, svc)

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.Equal(t, []stypes.EventType{stypes.EventModelDeleted}, eventTypes(last))

	_, err := svc.Get(context.Background(), id)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(svc.Delete(context.Background(), id)))
}

func TestDelete_Repository(t *testing.T) {
	id := common.NewID()
	repo := new(MockRepository)
	repo.On("Delete", mock.Anything, id).Return(nil).Once()

	svc := NewService(Config{}, Deps{Repository: repo})
	require.NoError(t, svc.Delete(context.Background(), id))

	missing := common.NewID()
	repo.On("Delete", mock.Anything, missing).Return(errors.ModelNotFound(string(missing)))
	assert.True(t, errors.IsNotFound(svc.Delete(context.Background(), missing)))
	repo.AssertExpectations(t)
}

func TestSelect(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	id := ingest(t, svc)

	atoms, err := svc.Select(context.Background(), id, "name CA")
	require.NoError(t, err)
	require.Len(t, atoms, 2)
	assert.Equal(t, 2, atoms[0].ID)
	assert.Equal(t, "A", atoms[0].ChainID)
	assert.Equal(t, "A1", atoms[0].ResidueID)
	assert.Equal(t, 4, atoms[1].ID)

	atoms, err = svc.Select(context.Background(), id, "resname HOH")
	require.NoError(t, err)
	assert.Empty(t, atoms)

	_, err = svc.Select(context.Background(), id, "name (")
	assert.True(t, errors.IsSelectionSyntax(err))
}

func TestEvents(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	_, err := svc.Events(context.Background(), common.NewID(), 10)
	assert.True(t, errors.IsCode(err, errors.CodeNotImplemented))

	id := common.NewID()
	evlog := new(MockEventLog)
	evlog.On("ListByModel", mock.Anything, id, 100).
		Return([]stypes.StructureEvent{{Type: stypes.EventModelSaved, ModelID: id}}, nil)
	svc = NewService(Config{}, Deps{EventLog: evlog})
	events, err := svc.Events(context.Background(), id, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSearch(t *testing.T) {
	svc := NewService(Config{}, Deps{})
	_, err := svc.Search(context.Background(), stypes.CatalogueQuery{Text: "x"})
	assert.True(t, errors.IsCode(err, errors.CodeNotImplemented))

	cat := &stubCatalogue{}
	svc = NewService(Config{}, Deps{Catalogue: cat})
	res, err := svc.Search(context.Background(), stypes.CatalogueQuery{Motif: "GA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, "GA", cat.got.Motif)

	_, err = svc.Search(context.Background(), stypes.CatalogueQuery{MinAtoms: 10, MaxAtoms: 5})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

//Personal.AI order the ending
