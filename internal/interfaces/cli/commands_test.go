package cli

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

func TestInspect(t *testing.T) {
	path := writeModel(t, fragmentJSON)

	out, _, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(gly-ala)")
	assert.Contains(t, out, "atoms:           5")
	assert.Contains(t, out, "sequence A:     GA")

	out, _, err = run(t, "--output", "json", "inspect", path)
	require.NoError(t, err)
	var sum stypes.ModelSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 5, sum.AtomCount)
	assert.Equal(t, 1, sum.SmallMoleculeCount)

	out, _, err = run(t, "--output", "table", "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sequence")
	assert.Contains(t, out, "GA")
}

func TestInspect_Errors(t *testing.T) {
	_, _, err := run(t, "inspect", filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, _, err = run(t, "inspect", writeModel(t, "{ not json"))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, _, err = run(t, "inspect", empty)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	dup := strings.Replace(fragmentJSON, `"id": 9`, `"id": 1`, 1)
	_, _, err = run(t, "inspect", writeModel(t, dup))
	assert.Error(t, err, "atom ids are unique within a model")
}

func TestSelect(t *testing.T) {
	path := writeModel(t, fragmentJSON)

	out, _, err := run(t, "--output", "json", "select", path, "name", "CA")
	require.NoError(t, err)
	var atoms []stypes.AtomView
	require.NoError(t, json.Unmarshal([]byte(out), &atoms))
	require.Len(t, atoms, 2)
	assert.Equal(t, "A", atoms[0].ChainID)

	out, _, err = run(t, "select", path, "hetero")
	require.NoError(t, err)
	assert.Contains(t, out, "W1")

	_, _, err = run(t, "select", path, "name", "(")
	assert.True(t, errors.IsSelectionSyntax(err))
}

func TestExport_JSONAndXZ(t *testing.T) {
	path := writeModel(t, fragmentJSON)

	out, _, err := run(t, "export", path)
	require.NoError(t, err)
	dto, err := snapshot.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "gly-ala", dto.Title)
	require.Len(t, dto.Chains, 1)

	xzPath := filepath.Join(t.TempDir(), "model.json.xz")
	_, _, err = run(t, "export", path, "--format", "xz", "--file", xzPath)
	require.NoError(t, err)

	// The compressed export is itself a valid input.
	out, _, err = run(t, "--output", "json", "inspect", xzPath)
	require.NoError(t, err)
	var sum stypes.ModelSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 5, sum.AtomCount)

	_, _, err = run(t, "export", path, "--format", "pdb")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRender(t *testing.T) {
	path := writeModel(t, fragmentJSON)
	pngPath := filepath.Join(t.TempDir(), "out.png")

	_, _, err := run(t, "render", path, "--out", pngPath, "--size", "128", "--highlight", "hetero")
	require.NoError(t, err)

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestRenderPNG_Validation(t *testing.T) {
	dto := &stypes.ModelDTO{Chains: []stypes.ChainDTO{{ID: "A"}}}
	var buf bytes.Buffer

	err := renderPNG(&buf, dto, nil, renderOptions{Size: 128})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), "no atoms")

	dto.SmallMolecules = []stypes.SmallMoleculeDTO{{ID: "ZN", Atoms: []stypes.AtomDTO{{ID: 1, Element: "Zn"}}}}
	assert.True(t, errors.IsValueRange(renderPNG(&buf, dto, nil, renderOptions{Size: 10})))
	assert.True(t, errors.IsCode(renderPNG(&buf, dto, nil, renderOptions{Size: 128, Axis: "w"}), errors.CodeInvalidParam))

	// A single atom has no extent and still renders.
	require.NoError(t, renderPNG(&buf, dto, nil, renderOptions{Size: 128, Axis: "x"}))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)
}

func TestStore_SaveListLoadDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "models.db")
	path := writeModel(t, fragmentJSON)

	out, _, err := run(t, "--output", "json", "store", "save", path, "--db", db)
	require.NoError(t, err)
	var sum stypes.ModelSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	id := string(sum.ID)

	out, _, err = run(t, "store", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "gly-ala")

	out, _, err = run(t, "store", "load", id, "--db", db)
	require.NoError(t, err)
	dto, err := snapshot.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, sum.ID, dto.ID)

	out, _, err = run(t, "store", "load", id, "--summary", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "atoms:           5")

	out, _, err = run(t, "store", "delete", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	_, _, err = run(t, "store", "load", id, "--db", db)
	assert.True(t, errors.IsNotFound(err))

	_, _, err = run(t, "store", "load", "not-an-id", "--db", db)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestFormulaString(t *testing.T) {
	assert.Equal(t, "C2H5NO2", formulaString(map[string]int{"O": 2, "N": 1, "C": 2, "H": 5}))
	assert.Equal(t, "FeS", formulaString(map[string]int{"S": 1, "Fe": 1}))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "1crn", baseName("/data/1crn.json.xz"))
	assert.Equal(t, "model", baseName(`C:\models\model.json`))
}

//Personal.AI order the ending
