package structure

import (
	"fmt"
	"strings"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Residue is a named group of atoms, usually one monomer of a polymer chain.
// Its chain back-reference is written only by NewChain.
type Residue struct {
	AtomicStructure

	id    string
	name  string
	chain *Chain
}

// NewResidue groups atoms into a residue. id must be non-empty, at least one
// atom is required, and no atom may already belong to another structure.
func NewResidue(id, name string, atoms ...*Atom) (*Residue, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ValueRange("residue id must not be empty")
	}
	members, err := checkFreeAtoms("residue "+id, atoms)
	if err != nil {
		return nil, err
	}
	r := &Residue{AtomicStructure: newAtomicStructure(members), id: id, name: name}
	for _, a := range members {
		a.owner = r
	}
	return r, nil
}

func (r *Residue) ID() string    { return r.id }
func (r *Residue) Name() string  { return r.name }
func (r *Residue) Kind() Kind    { return KindResidue }
func (r *Residue) Chain() *Chain { return r.chain }
func (*Residue) isStructure()    {}

// Model returns the model reached through the chain, or nil.
func (r *Residue) Model() *Model {
	if r.chain == nil {
		return nil
	}
	return r.chain.model
}

// Next returns the residue after r in its chain, or nil at the end or when r
// is not in a chain.
func (r *Residue) Next() *Residue {
	return r.offset(1)
}

// Previous returns the residue before r in its chain, or nil.
func (r *Residue) Previous() *Residue {
	return r.offset(-1)
}

func (r *Residue) offset(d int) *Residue {
	if r.chain == nil {
		return nil
	}
	i, ok := r.chain.position[r]
	if !ok || i+d < 0 || i+d >= len(r.chain.residues) {
		return nil
	}
	return r.chain.residues[i+d]
}

func (r *Residue) String() string {
	return fmt.Sprintf("<Residue %s (%s)>", r.id, r.name)
}

// checkFreeAtoms validates the atoms handed to a new owner and collapses
// repeats. Nothing is mutated.
func checkFreeAtoms(owner string, atoms []*Atom) ([]*Atom, error) {
	if len(atoms) == 0 {
		return nil, errors.ValueRange(owner + " needs at least one atom")
	}
	seen := make(map[*Atom]struct{}, len(atoms))
	members := make([]*Atom, 0, len(atoms))
	for i, a := range atoms {
		if a == nil {
			return nil, errors.TypeKind(fmt.Sprintf("%s: atom at position %d is <nil>", owner, i))
		}
		if a.owner != nil {
			return nil, errors.AlreadyOwned(fmt.Sprintf("%s: atom %d already belongs to %s", owner, a.id, describeOwner(a.owner)))
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		members = append(members, a)
	}
	return members, nil
}

func describeOwner(s Structure) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}
	return s.Kind().String()
}

//Personal.AI order the ending
