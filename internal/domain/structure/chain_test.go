package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgraph/pkg/errors"
)

func TestNewChain_ClaimsResidues(t *testing.T) {
	f := newAtomFactory(t)
	chain, residues := f.chainA()

	assert.Equal(t, "A", chain.ID())
	assert.Equal(t, residues, chain.Residues())
	for _, r := range residues {
		assert.Same(t, chain, r.Chain())
		assert.True(t, chain.HasResidue(r))
	}
	assert.Equal(t, 9, chain.AtomCount())
	assert.Nil(t, chain.Model())
	assert.Equal(t, "<Chain A (3 residues)>", chain.String())
}

func TestNewChain_Rejects(t *testing.T) {
	f := newAtomFactory(t)
	_, residues := f.chainA()
	free := f.residue("B1", "GLY", 20)

	_, err := NewChain("", free)
	assert.True(t, errors.IsValueRange(err))

	_, err = NewChain("B")
	assert.True(t, errors.IsValueRange(err))

	_, err = NewChain("B", free, nil)
	assert.True(t, errors.IsTypeKind(err))

	_, err = NewChain("B", free, free)
	assert.True(t, errors.IsValueRange(err))

	_, err = NewChain("B", free, residues[0])
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyOwned(err))
	assert.Nil(t, free.Chain(), "a rejected chain leaves its residues untouched")
	assert.Equal(t, "A", residues[0].Chain().ID())
}

func TestChain_ResidueNavigation(t *testing.T) {
	f := newAtomFactory(t)
	chain, residues := f.chainA()

	r, ok := chain.Residue("A2")
	require.True(t, ok)
	assert.Same(t, residues[1], r)
	_, ok = chain.Residue("Z9")
	assert.False(t, ok)

	assert.Same(t, residues[1], residues[0].Next())
	assert.Same(t, residues[0], residues[1].Previous())
	assert.Nil(t, residues[2].Next())
	assert.Nil(t, residues[0].Previous())
	assert.Nil(t, f.residue("X1", "GLY", 0).Next())
}

func TestChain_Sequence(t *testing.T) {
	f := newAtomFactory(t)
	chain, _ := f.chainA()
	assert.Equal(t, "RXW", chain.Sequence())
}

func TestChain_AddBetaStrand(t *testing.T) {
	f := newAtomFactory(t)
	chainA, ra := f.chainA()
	_, rb := f.chain("B", "GLY", "ALA")

	s, err := chainA.AddBetaStrand(1, 1, ra[0], ra[1])
	require.NoError(t, err)
	assert.Same(t, chainA, s.Chain())
	assert.Equal(t, []*BetaStrand{s}, chainA.BetaStrands())

	_, err = chainA.AddBetaStrand(2, 0, rb[0])
	require.Error(t, err)
	assert.True(t, errors.IsBrokenStrand(err))
	assert.Len(t, chainA.BetaStrands(), 1)

	h, err := chainA.AddHelix(1, 1, "alpha", ra[1], ra[2])
	require.NoError(t, err)
	assert.Equal(t, []*Helix{h}, chainA.Helices())
}

func TestChain_ElementCollectionsAreCopies(t *testing.T) {
	f := newAtomFactory(t)
	chain, residues := f.chainA()
	_, err := NewBetaStrand(1, 0, residues[0])
	require.NoError(t, err)

	strands := chain.BetaStrands()
	strands[0] = nil
	assert.NotNil(t, chain.BetaStrands()[0])

	helices := chain.Helices()
	assert.Empty(t, helices)
}

//Personal.AI order the ending
