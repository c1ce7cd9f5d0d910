// Package sqlite is the single-file snapshot store used by the CLI. It uses
// the pure Go modernc.org/sqlite driver, so the binary needs no cgo.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
)

const driverName = "sqlite"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS model_snapshots (
	id         TEXT    PRIMARY KEY,
	title      TEXT    NOT NULL DEFAULT '',
	model      TEXT    NOT NULL,
	digest     TEXT    NOT NULL DEFAULT '',
	atom_count INTEGER NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL DEFAULT 1,
	created_at TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_model_snapshots_updated_at ON model_snapshots (updated_at DESC);
`

// Store is a SQLite-backed structure.Repository.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

var _ structure.Repository = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory store.
func Open(ctx context.Context, path string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open sqlite database")
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to apply sqlite schema").WithDetail(path)
	}
	log.Debug("opened sqlite store", logging.String("path", path))
	return &Store{db: db, logger: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Save(ctx context.Context, snap *structure.Snapshot) error {
	if snap == nil || snap.ID == "" {
		return errors.InvalidParam("snapshot id is required")
	}
	doc, err := snapshot.Marshal(snap.Model)
	if err != nil {
		return err
	}
	if snap.Digest == "" {
		snap.Digest = snapshot.Digest(doc)
	}
	now := s.now().Format(timeLayout)

	var createdAt, updatedAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO model_snapshots (id, title, model, digest, atom_count, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title      = excluded.title,
			model      = excluded.model,
			digest     = excluded.digest,
			atom_count = excluded.atom_count,
			version    = model_snapshots.version + 1,
			updated_at = excluded.updated_at
		RETURNING version, created_at, updated_at`,
		string(snap.ID), snap.Title, string(doc), snap.Digest, snap.AtomCount, now, now,
	).Scan(&snap.Version, &createdAt, &updatedAt)
	if err != nil {
		s.logger.Error("sqlite save failed", logging.String(logging.FieldModelID, string(snap.ID)), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save model snapshot")
	}
	snap.CreatedAt = parseTime(createdAt)
	snap.UpdatedAt = parseTime(updatedAt)
	return nil
}

func (s *Store) FindByID(ctx context.Context, id common.ID) (*structure.Snapshot, error) {
	var (
		snap               structure.Snapshot
		sid, doc           string
		createdAt, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, model, digest, atom_count, version, created_at, updated_at
		FROM model_snapshots WHERE id = ?`, string(id),
	).Scan(&sid, &snap.Title, &doc, &snap.Digest, &snap.AtomCount, &snap.Version, &createdAt, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ModelNotFound(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load model snapshot")
	}
	snap.ID = common.ID(sid)
	snap.CreatedAt = parseTime(createdAt)
	snap.UpdatedAt = parseTime(updated)
	if snap.Model, err = snapshot.Unmarshal([]byte(doc)); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) List(ctx context.Context, page common.Pagination) ([]*structure.Snapshot, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM model_snapshots`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count model snapshots")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, digest, atom_count, version, created_at, updated_at
		FROM model_snapshots
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?`, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list model snapshots")
	}
	defer rows.Close()

	out := make([]*structure.Snapshot, 0, page.PageSize)
	for rows.Next() {
		var (
			snap               structure.Snapshot
			sid                string
			createdAt, updated string
		)
		if err := rows.Scan(&sid, &snap.Title, &snap.Digest, &snap.AtomCount, &snap.Version, &createdAt, &updated); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan model snapshot")
		}
		snap.ID = common.ID(sid)
		snap.CreatedAt = parseTime(createdAt)
		snap.UpdatedAt = parseTime(updated)
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate model snapshots")
	}
	return out, total, nil
}

func (s *Store) Delete(ctx context.Context, id common.ID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM model_snapshots WHERE id = ?`, string(id))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete model snapshot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ModelNotFound(string(id))
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

//Personal.AI order the ending
