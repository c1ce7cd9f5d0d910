package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/internal/domain/selection"
	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/pkg/errors"
)

// buildModel lays out, along x unless noted:
//
//	A1 ARG  1 N (0)   2 CA (1)   3 C (2)
//	A2 GLY  4 N (10)  5 CA (11)  6 C (12)
//	B1 ALA  7 N (y=20) 8 CA (x=1, y=20)
//	HOH1    9 O (z=5)
//	LIG1   10 C (14)
func buildModel(t *testing.T) *structure.Model {
	t.Helper()
	atom := func(id int, element, name string, x, y, z float64) *structure.Atom {
		a, err := structure.NewAtom(x, y, z, element, id, name)
		require.NoError(t, err)
		return a
	}
	residue := func(id, name string, atoms ...*structure.Atom) *structure.Residue {
		r, err := structure.NewResidue(id, name, atoms...)
		require.NoError(t, err)
		return r
	}

	a1 := residue("A1", "ARG", atom(1, "N", "N", 0, 0, 0), atom(2, "C", "CA", 1, 0, 0), atom(3, "C", "C", 2, 0, 0))
	a2 := residue("A2", "GLY", atom(4, "N", "N", 10, 0, 0), atom(5, "C", "CA", 11, 0, 0), atom(6, "C", "C", 12, 0, 0))
	b1 := residue("B1", "ALA", atom(7, "N", "N", 0, 20, 0), atom(8, "C", "CA", 1, 20, 0))

	chainA, err := structure.NewChain("A", a1, a2)
	require.NoError(t, err)
	chainB, err := structure.NewChain("B", b1)
	require.NoError(t, err)
	water, err := structure.NewSmallMolecule("HOH1", "HOH", atom(9, "O", "O", 0, 0, 5))
	require.NoError(t, err)
	ligand, err := structure.NewSmallMolecule("LIG1", "LIG", atom(10, "C", "C1", 14, 0, 0))
	require.NoError(t, err)

	m := structure.NewModel()
	for _, s := range []structure.Structure{chainA, chainB, water, ligand} {
		require.NoError(t, m.Add(s))
	}
	return m
}

func ids(atoms []*structure.Atom) []int {
	out := make([]int, len(atoms))
	for i, a := range atoms {
		out[i] = a.ID()
	}
	return out
}

func TestSelect(t *testing.T) {
	m := buildModel(t)

	cases := []struct {
		expr string
		want []int
	}{
		{"all", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"none", []int{}},
		{"chain A", []int{1, 2, 3, 4, 5, 6}},
		{"chain A B", []int{1, 2, 3, 4, 5, 6, 7, 8}},
		{"name CA", []int{2, 5, 8}},
		{"element n", []int{1, 4, 7}},
		{"chain A and (name CA or element N)", []int{1, 2, 4, 5}},
		{"chain A and (name CA or element N) and not resname HOH", []int{1, 2, 4, 5}},
		{"resname HOH", []int{9}},
		{"not resname HOH", []int{1, 2, 3, 4, 5, 6, 7, 8, 10}},
		{"residue A2", []int{4, 5, 6}},
		{"molecule LIG1", []int{10}},
		{"hetero", []int{9, 10}},
		{"id 1 3 10", []int{1, 3, 10}},
		{"within 3.0 of resname LIG", []int{5, 6, 10}},
		{"within 5 of id 1", []int{1, 2, 3, 9}},
		{"not not chain B", []int{7, 8}},
		{"chain A or chain B and name N", []int{1, 2, 3, 4, 5, 6, 7}},
		{"(chain A or chain B) and name N", []int{1, 4, 7}},
		{"  resname   ARG  ", []int{1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			sel, err := selection.Compile(tc.expr)
			require.NoError(t, err)
			got := sel.Select(m)
			assert.Equal(t, tc.want, ids(got))
			assert.Equal(t, len(tc.want), sel.Count(m))
		})
	}
}

func TestSelect_HyphenatedResidueIDs(t *testing.T) {
	atom := func(id int) *structure.Atom {
		a, err := structure.NewAtom(float64(id), 0, 0, "C", id, "CA")
		require.NoError(t, err)
		return a
	}
	minus, err := structure.NewResidue("A-1", "MET", atom(1))
	require.NoError(t, err)
	zero, err := structure.NewResidue("A0", "SER", atom(2))
	require.NoError(t, err)
	chain, err := structure.NewChain("A", minus, zero)
	require.NoError(t, err)
	m := structure.NewModel()
	require.NoError(t, m.Add(chain))

	sel, err := selection.Compile("residue A-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(sel.Select(m)))

	sel, err = selection.Compile("residue A-1 A0 and name CA")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(sel.Select(m)))

	_, err = selection.Compile("residue -1")
	assert.True(t, errors.IsSelectionSyntax(err), "got %v", err)
}

func TestCompile_SyntaxErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"   ",
		"chain",
		"chain A and",
		"(chain A",
		"chain A )",
		"bogus A",
		"within of all",
		"id one",
		"name C.A",
		"not",
	} {
		t.Run(expr, func(t *testing.T) {
			sel, err := selection.Compile(expr)
			require.Error(t, err)
			assert.Nil(t, sel)
			assert.True(t, errors.IsSelectionSyntax(err), "got %v", err)
		})
	}
}

func TestSelector_String(t *testing.T) {
	sel := selection.MustCompile("  chain A  ")
	assert.Equal(t, "chain A", sel.String())
	assert.Panics(t, func() { selection.MustCompile("chain") })
}

func TestSelector_NilModel(t *testing.T) {
	sel := selection.MustCompile("all")
	assert.Empty(t, sel.Select(nil))
	assert.Zero(t, sel.Count(nil))
}

func TestSelector_FilterUsesGivenUniverse(t *testing.T) {
	m := buildModel(t)
	chainA, ok := m.ChainByID("A")
	require.True(t, ok)

	sel := selection.MustCompile("not name CA")
	assert.Equal(t, []int{1, 3, 4, 6}, ids(sel.Filter(chainA.Atoms())))
}

func TestSelector_SeesLaterMutations(t *testing.T) {
	m := buildModel(t)
	sel := selection.MustCompile("hetero")
	require.Len(t, sel.Select(m), 2)

	water, ok := m.SmallMoleculeByID("HOH1")
	require.True(t, ok)
	require.NoError(t, m.RemoveSmallMolecule(water))
	assert.Equal(t, []int{10}, ids(sel.Select(m)))
}

//Personal.AI order the ending
