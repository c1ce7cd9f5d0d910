package structure

import (
	"context"
	"time"

	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// Snapshot is the persisted form of a model: its exported graph plus
// bookkeeping. The graph is rebuilt with ModelFromDTO on load.
type Snapshot struct {
	ID        common.ID
	Title     string
	Model     *stypes.ModelDTO
	Digest    string
	AtomCount int
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists model snapshots.
type Repository interface {
	// Save inserts or replaces the snapshot with the same ID and bumps Version.
	Save(ctx context.Context, snap *Snapshot) error

	// FindByID returns errors.ErrCodeModelNotFound when no snapshot exists.
	FindByID(ctx context.Context, id common.ID) (*Snapshot, error)

	// List returns snapshot headers (Model left nil) newest first, plus the total count.
	List(ctx context.Context, page common.Pagination) ([]*Snapshot, int64, error)

	// Delete returns errors.ErrCodeModelNotFound when no snapshot exists.
	Delete(ctx context.Context, id common.ID) error
}

// EventLog keeps the published structural events of each model.
type EventLog interface {
	Append(ctx context.Context, events ...stypes.StructureEvent) error

	// ListByModel returns at most limit events of id, oldest first.
	ListByModel(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error)
}

//Personal.AI order the ending
