package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

var eventColumns = []string{"event_id", "model_id", "type", "subject_id", "attributes", "occurred_at"}

// EventRepository is the append-only structural event log.
type EventRepository struct {
	db     DB
	logger Logger
}

var _ structure.EventLog = (*EventRepository)(nil)

func NewEventRepository(db DB, logger Logger) *EventRepository {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &EventRepository{db: db, logger: logger}
}

// Append writes events with the COPY protocol.
func (r *EventRepository) Append(ctx context.Context, events ...stypes.StructureEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.logger.Debug("EventRepository.Append", "count", len(events))

	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		attrs := e.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		raw, err := json.Marshal(attrs)
		if err != nil {
			return errors.Wrap(err, errors.CodeSerialization, "encoding event attributes")
		}
		rows = append(rows, []interface{}{
			e.EventID, string(e.ModelID), string(e.Type), e.SubjectID, raw, time.Time(e.OccurredAt),
		})
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"structure_events"}, eventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		r.logger.Error("EventRepository.Append", "error", err)
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append structure events")
	}
	r.logger.Debug("EventRepository.Append: done", "inserted", n)
	return nil
}

func (r *EventRepository) ListByModel(ctx context.Context, id common.ID, limit int) ([]stypes.StructureEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT event_id, model_id, type, subject_id, attributes, occurred_at
		FROM structure_events
		WHERE model_id = $1
		ORDER BY occurred_at, event_id
		LIMIT $2`, string(id), limit)
	if err != nil {
		r.logger.Error("EventRepository.ListByModel", "error", err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list structure events")
	}
	defer rows.Close()

	out := []stypes.StructureEvent{}
	for rows.Next() {
		var (
			e        stypes.StructureEvent
			modelID  string
			typ      string
			rawAttrs []byte
			at       time.Time
		)
		if err := rows.Scan(&e.EventID, &modelID, &typ, &e.SubjectID, &rawAttrs, &at); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan structure event")
		}
		if len(rawAttrs) > 0 {
			if err := json.Unmarshal(rawAttrs, &e.Attributes); err != nil {
				return nil, errors.Wrap(err, errors.CodeSerialization, "decoding event attributes")
			}
		}
		if len(e.Attributes) == 0 {
			e.Attributes = nil
		}
		e.ModelID = common.ID(modelID)
		e.Type = stypes.EventType(typ)
		e.OccurredAt = common.Timestamp(at.UTC())
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate structure events")
	}
	return out, nil
}

//Personal.AI order the ending
