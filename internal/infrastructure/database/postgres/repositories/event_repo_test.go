package repositories

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

func TestEventRepository_Append(t *testing.T) {
	db := new(mockDB)
	repo := NewEventRepository(db, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db.On("CopyFrom", pgx.Identifier{"structure_events"}, eventColumns, [][]any{
		{"e-1", "m-1", "model.small_molecule_added", "HOH1", []byte(`{"name":"HOH"}`), at},
		{"e-2", "m-1", "model.saved", "", []byte(`{}`), at},
	}).Return(2, nil).Once()

	err := repo.Append(context.Background(),
		stypes.StructureEvent{EventID: "e-1", Type: stypes.EventSmallMoleculeAdded, ModelID: "m-1", SubjectID: "HOH1",
			OccurredAt: common.Timestamp(at), Attributes: map[string]string{"name": "HOH"}},
		stypes.StructureEvent{EventID: "e-2", Type: stypes.EventModelSaved, ModelID: "m-1", OccurredAt: common.Timestamp(at)},
	)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestEventRepository_AppendNothing(t *testing.T) {
	db := new(mockDB)
	assert.NoError(t, NewEventRepository(db, nil).Append(context.Background()))
	db.AssertNotCalled(t, "CopyFrom", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventRepository_AppendError(t *testing.T) {
	db := new(mockDB)
	db.On("CopyFrom", mock.Anything, mock.Anything, mock.Anything).Return(0, stderrors.New("copy failed"))

	err := NewEventRepository(db, nil).Append(context.Background(), stypes.StructureEvent{EventID: "e"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestEventRepository_ListByModel(t *testing.T) {
	db := new(mockDB)
	repo := NewEventRepository(db, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db.On("Query", mock.Anything, []any{"m-1", 100}).Return(&fakeRows{data: [][]any{
		{"e-1", "m-1", "chain.secondary_structure_added", "A", []byte(`{"kind":"Helix","element_id":"2"}`), at},
		{"e-2", "m-1", "model.saved", "", []byte(`{}`), at.Add(time.Second)},
	}}, nil)

	got, err := repo.ListByModel(context.Background(), "m-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, stypes.EventSecondaryStructure, got[0].Type)
	assert.Equal(t, "Helix", got[0].Attributes["kind"])
	assert.Nil(t, got[1].Attributes)
	assert.Equal(t, at.Add(time.Second), time.Time(got[1].OccurredAt))
}

//Personal.AI order the ending
