package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
)

// ModelRepository stores model snapshots as JSONB rows.
type ModelRepository struct {
	db     DB
	logger Logger
	now    func() time.Time
}

var _ structure.Repository = (*ModelRepository)(nil)

func NewModelRepository(db DB, logger Logger) *ModelRepository {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &ModelRepository{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts snap and writes back the stored version and timestamps.
func (r *ModelRepository) Save(ctx context.Context, snap *structure.Snapshot) error {
	if snap == nil || snap.ID == "" {
		return errors.InvalidParam("snapshot id is required")
	}
	r.logger.Debug("ModelRepository.Save", "model_id", snap.ID)

	doc, err := snapshot.Marshal(snap.Model)
	if err != nil {
		return err
	}
	if snap.Digest == "" {
		snap.Digest = snapshot.Digest(doc)
	}

	now := r.now()
	err = r.db.QueryRow(ctx, `
		INSERT INTO model_snapshots (id, title, model, digest, atom_count, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			title      = EXCLUDED.title,
			model      = EXCLUDED.model,
			digest     = EXCLUDED.digest,
			atom_count = EXCLUDED.atom_count,
			version    = model_snapshots.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version, created_at, updated_at`,
		string(snap.ID), snap.Title, doc, snap.Digest, snap.AtomCount, now,
	).Scan(&snap.Version, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		r.logger.Error("ModelRepository.Save", "error", err)
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save model snapshot")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindByID
// ─────────────────────────────────────────────────────────────────────────────

func (r *ModelRepository) FindByID(ctx context.Context, id common.ID) (*structure.Snapshot, error) {
	r.logger.Debug("ModelRepository.FindByID", "model_id", id)

	var (
		snap structure.Snapshot
		sid  string
		doc  []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, title, model, digest, atom_count, version, created_at, updated_at
		FROM model_snapshots WHERE id = $1`, string(id),
	).Scan(&sid, &snap.Title, &doc, &snap.Digest, &snap.AtomCount, &snap.Version, &snap.CreatedAt, &snap.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.ModelNotFound(string(id))
	}
	if err != nil {
		r.logger.Error("ModelRepository.FindByID", "error", err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load model snapshot")
	}

	snap.ID = common.ID(sid)
	if snap.Model, err = snapshot.Unmarshal(doc); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List
// ─────────────────────────────────────────────────────────────────────────────

func (r *ModelRepository) List(ctx context.Context, page common.Pagination) ([]*structure.Snapshot, int64, error) {
	page = page.Normalize()
	r.logger.Debug("ModelRepository.List", "page", page.Page, "page_size", page.PageSize)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM model_snapshots`).Scan(&total); err != nil {
		r.logger.Error("ModelRepository.List count", "error", err)
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count model snapshots")
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, title, digest, atom_count, version, created_at, updated_at
		FROM model_snapshots
		ORDER BY updated_at DESC, id
		LIMIT $1 OFFSET $2`, page.PageSize, page.Offset())
	if err != nil {
		r.logger.Error("ModelRepository.List", "error", err)
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list model snapshots")
	}
	defer rows.Close()

	out := make([]*structure.Snapshot, 0, page.PageSize)
	for rows.Next() {
		var (
			snap structure.Snapshot
			sid  string
		)
		if err := rows.Scan(&sid, &snap.Title, &snap.Digest, &snap.AtomCount, &snap.Version, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan model snapshot")
		}
		snap.ID = common.ID(sid)
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate model snapshots")
	}
	return out, total, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

func (r *ModelRepository) Delete(ctx context.Context, id common.ID) error {
	r.logger.Debug("ModelRepository.Delete", "model_id", id)

	tag, err := r.db.Exec(ctx, `DELETE FROM model_snapshots WHERE id = $1`, string(id))
	if err != nil {
		r.logger.Error("ModelRepository.Delete", "error", err)
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete model snapshot")
	}
	if tag.RowsAffected() == 0 {
		return errors.ModelNotFound(string(id))
	}
	return nil
}

//Personal.AI order the ending
