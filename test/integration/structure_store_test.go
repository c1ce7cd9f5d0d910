//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/bootstrap"
	"github.com/turtacn/molgraph/internal/testutil"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

func glyAla() *stypes.ModelDTO {
	return &stypes.ModelDTO{
		Title: "gly-ala",
		Chains: []stypes.ChainDTO{{
			ID: "A",
			Residues: []stypes.ResidueDTO{
				{ID: "A1", Name: "GLY", Atoms: []stypes.AtomDTO{
					{ID: 1, Name: "N", Element: "N"},
					{ID: 2, Name: "CA", Element: "C", X: 1.46},
				}},
				{ID: "A2", Name: "ALA", Atoms: []stypes.AtomDTO{
					{ID: 3, Name: "N", Element: "N", X: 2.9, Y: 0.5},
					{ID: 4, Name: "CA", Element: "C", X: 4.3, Y: 0.5, Z: 0.4},
				}},
			},
		}},
	}
}

// A model written by one service instance is read back, mutated and deleted
// by a second instance sharing the same Postgres and Redis.
func TestStructureService_PostgresAndRedis(t *testing.T) {
	cfg := newConfig()
	cfg.Database.Postgres = startPostgres(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = startRedis(t)
	ctx := context.Background()

	first, err := bootstrap.Open(ctx, cfg, testutil.NewMockLogger(), bootstrap.Options{})
	require.NoError(t, err)
	defer first.Close()
	second, err := bootstrap.Open(ctx, cfg, testutil.NewMockLogger(), bootstrap.Options{})
	require.NoError(t, err)
	defer second.Close()

	for _, infra := range []*bootstrap.Infrastructure{first, second} {
		checks := infra.HealthCheckers()
		require.Len(t, checks, 2)
		for _, c := range checks {
			assert.NoError(t, c.Check(ctx), c.Name())
		}
	}

	writer := first.StructureService()
	reader := second.StructureService()

	sum, err := writer.Ingest(ctx, glyAla())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.AtomCount)

	dto, err := reader.Get(ctx, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, "gly-ala", dto.Title)
	assert.NotEmpty(t, dto.Bonds)

	_, err = reader.AddSmallMolecule(ctx, sum.ID, stypes.SmallMoleculeDTO{
		ID: "W1", Name: "HOH", Atoms: []stypes.AtomDTO{{ID: 9, Name: "O", Element: "O", X: 8, Y: 8, Z: 8}},
	})
	require.NoError(t, err)

	// The writer's resident copy is stale; its next mutation reloads under
	// the lock and sees the water.
	after, err := writer.AddBetaStrand(ctx, sum.ID, "A", stypes.BetaStrandDTO{StrandID: 1, Sense: 0, ResidueIDs: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, after.SmallMoleculeCount)
	assert.Equal(t, 1, after.BetaStrandCount)

	page, err := reader.List(ctx, common.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, sum.ID, page.Items[0].ID)
	assert.Greater(t, page.Items[0].Version, 1)

	events, err := reader.Events(ctx, sum.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	require.NoError(t, reader.Delete(ctx, sum.ID))
	_, err = second.StructureService().Get(ctx, sum.ID)
	assert.True(t, errors.IsNotFound(err))
}

//Personal.AI order the ending
