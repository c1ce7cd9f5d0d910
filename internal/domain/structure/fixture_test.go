package structure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// atomFactory hands out atoms with ids unique across a test, so fixtures can
// share one model.
type atomFactory struct {
	t    *testing.T
	next int
}

func newAtomFactory(t *testing.T) *atomFactory {
	return &atomFactory{t: t, next: 1}
}

func (f *atomFactory) atom(element, name string, x, y, z float64) *Atom {
	f.t.Helper()
	a, err := NewAtom(x, y, z, element, f.next, name)
	require.NoError(f.t, err)
	f.next++
	return a
}

func (f *atomFactory) residue(id, name string, offset float64) *Residue {
	f.t.Helper()
	r, err := NewResidue(id, name,
		f.atom("N", "N", offset, 0, 0),
		f.atom("C", "CA", offset+1.0, 0.5, 0),
		f.atom("C", "C", offset+2.0, 0, 0),
	)
	require.NoError(f.t, err)
	return r
}

// chainA builds chain A with residues A1 ARG, A2 HST, A3 TRP of three atoms each.
func (f *atomFactory) chainA() (*Chain, []*Residue) {
	f.t.Helper()
	return f.chain("A", "ARG", "HST", "TRP")
}

func (f *atomFactory) chain(id string, names ...string) (*Chain, []*Residue) {
	f.t.Helper()
	residues := make([]*Residue, len(names))
	for i, n := range names {
		residues[i] = f.residue(id+string(rune('1'+i)), n, float64(i)*3.8)
	}
	c, err := NewChain(id, residues...)
	require.NoError(f.t, err)
	return c, residues
}

func (f *atomFactory) smallMolecule(id, name string) *SmallMolecule {
	f.t.Helper()
	sm, err := NewSmallMolecule(id, name, f.atom("O", "O", 10, 10, 10))
	require.NoError(f.t, err)
	return sm
}

//Personal.AI order the ending
