package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/pkg/errors"
)

func TestResiduicSequence_KeepsCallOrder(t *testing.T) {
	f := newAtomFactory(t)
	r1 := f.residue("A1", "ARG", 0)
	r2 := f.residue("A2", "HST", 4)
	r3 := f.residue("A3", "TRP", 8)

	orders := [][]*Residue{
		{r1},
		{r1, r2, r3},
		{r3, r1, r2},
		{r2, r2},
	}
	for _, order := range orders {
		seq, err := NewResiduicSequence(order...)
		require.NoError(t, err)
		assert.Equal(t, order, seq.Residues())
		assert.Equal(t, len(order), seq.Length())
	}
}

func TestResiduicSequence_AtomsAreUnionOfResidueAtoms(t *testing.T) {
	f := newAtomFactory(t)
	r1 := f.residue("A1", "ARG", 0)
	r2 := f.residue("A2", "HST", 4)

	seq, err := NewResiduicSequence(r1, r2, r1)
	require.NoError(t, err)

	want := append(r1.Atoms(), r2.Atoms()...)
	assert.ElementsMatch(t, want, seq.Atoms())
	assert.Equal(t, 6, seq.AtomCount())
}

func TestResiduicSequence_EmptyIsValueError(t *testing.T) {
	_, err := NewResiduicSequence()
	require.Error(t, err)
	assert.True(t, errors.IsValueRange(err))

	_, err = SequenceOf()
	assert.True(t, errors.IsValueRange(err))
}

func TestResiduicSequence_NonResidueIsTypeError(t *testing.T) {
	f := newAtomFactory(t)
	r1 := f.residue("A1", "ARG", 0)
	r2 := f.residue("A2", "HST", 4)

	for pos := 0; pos < 3; pos++ {
		args := []*Residue{r1, r2, r1}
		args[pos] = nil
		_, err := NewResiduicSequence(args...)
		require.Error(t, err, "nil at position %d", pos)
		assert.True(t, errors.IsTypeKind(err))
	}

	sm := f.smallMolecule("HOH1", "HOH")
	_, err := SequenceOf(r1, sm, r2)
	require.Error(t, err)
	assert.True(t, errors.IsTypeKind(err))
	assert.Contains(t, err.Error(), "SmallMolecule at position 1")

	var nilResidue *Residue
	_, err = SequenceOf(r1, nilResidue)
	assert.True(t, errors.IsTypeKind(err))

	_, err = SequenceOf(nil)
	assert.True(t, errors.IsTypeKind(err))
}

func TestResiduicSequence_DoesNotClaimResidues(t *testing.T) {
	f := newAtomFactory(t)
	r1 := f.residue("A1", "ARG", 0)

	_, err := NewResiduicSequence(r1)
	require.NoError(t, err)
	assert.Nil(t, r1.Chain())

	_, err = NewChain("A", r1)
	assert.NoError(t, err, "a residue in a plain sequence is still free to join a chain")
}

func TestResiduicSequence_ResiduesIsACopy(t *testing.T) {
	f := newAtomFactory(t)
	r1 := f.residue("A1", "ARG", 0)
	r2 := f.residue("A2", "HST", 4)
	seq, _ := NewResiduicSequence(r1, r2)

	got := seq.Residues()
	got[0] = r2
	assert.Same(t, r1, seq.ResidueAt(0))
	assert.Nil(t, seq.ResidueAt(5))
	assert.Equal(t, 1, seq.IndexOf(r2))
	assert.Equal(t, "<ResiduicSequence (2 residues)>", seq.String())
}

//Personal.AI order the ending
