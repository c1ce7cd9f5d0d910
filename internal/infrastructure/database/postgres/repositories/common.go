// Package repositories holds the PostgreSQL implementations of the structure
// domain's persistence ports.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Logger is the key-value logging contract of the repositories.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type fieldLogger struct{ l logging.Logger }

// NewLogger adapts a structured logger to Logger. A nil logger discards.
func NewLogger(l logging.Logger) Logger {
	if l == nil {
		l = logging.NewNopLogger()
	}
	return fieldLogger{l: l.Named("postgres")}
}

func (f fieldLogger) Debug(msg string, kv ...interface{}) { f.l.Debug(msg, toFields(kv)...) }
func (f fieldLogger) Error(msg string, kv ...interface{}) { f.l.Error(msg, toFields(kv)...) }

func toFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kv[i+1].(error); isErr {
			fields = append(fields, logging.Err(err))
			continue
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}

//Personal.AI order the ending
