package postgres

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/migrations"
	"github.com/turtacn/molgraph/pkg/errors"
)

// EmbeddedSource selects the schema compiled into the binary.
const EmbeddedSource = "embed://"

// Migrator applies the snapshot schema with golang-migrate.
type Migrator struct {
	dbURL  string
	source string
	logger logging.Logger
}

// NewMigrator takes a postgres:// URL and a migrate source URL such as
// file://migrations, or EmbeddedSource (also used when source is empty).
func NewMigrator(dbURL, source string, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if source == "" {
		source = EmbeddedSource
	}
	return &Migrator{dbURL: migrateURL(dbURL), source: source, logger: log.Named("migrate")}
}

// migrateURL switches the scheme to the pgx v5 driver registered with migrate.
func migrateURL(dbURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dbURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(dbURL, scheme)
		}
	}
	return dbURL
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	var (
		mg  *migrate.Migrate
		err error
	)
	if m.source == EmbeddedSource {
		src, serr := iofs.New(migrations.FS, ".")
		if serr != nil {
			return nil, errors.Wrap(serr, errors.ErrCodeDatabaseError, "loading embedded migrations")
		}
		mg, err = migrate.NewWithSourceInstance("iofs", src, m.dbURL)
	} else {
		mg, err = migrate.New(m.source, m.dbURL)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return mg, nil
}

// Up applies every pending migration. No pending migrations is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mg.Version()
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations").
			WithDetail("version=" + strconv.FormatUint(uint64(version), 10))
	}
	version, dirty, _ := mg.Version()
	m.logger.Info("migrations applied", logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
	return nil
}

// Rollback reverts steps migrations.
func (m *Migrator) Rollback(steps int) error {
	if steps <= 0 {
		return errors.InvalidParam("steps must be greater than 0")
	}
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.InvalidParam("no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "rollback failed")
	}
	return nil
}

// Status reports the applied version; 0 when nothing was applied.
func (m *Migrator) Status() (version uint, dirty bool, err error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err = mg.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "reading migration version")
	}
	return version, dirty, nil
}

// Force sets the version without running anything. Used to clear a dirty state.
func (m *Migrator) Force(version int) error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()
	if err := mg.Force(version); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "forcing migration version")
	}
	return nil
}

//Personal.AI order the ending
