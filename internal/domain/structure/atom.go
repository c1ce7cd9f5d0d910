package structure

import (
	"fmt"
	"math"
	"sort"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Point is a position in Cartesian space, in ångström.
type Point struct {
	X, Y, Z float64
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// Atom is the leaf of the graph. Identity, element and coordinates are fixed
// at construction; the owner is written once by the Residue or SmallMolecule
// that takes the atom in. Bonds are the only mutable part.
type Atom struct {
	id      int
	name    string
	element string
	pos     Point

	owner Structure
	bonds map[*Atom]struct{}
}

// NewAtom creates a free-standing atom. The element symbol is normalised
// ("FE" → "Fe") and must not be empty; coordinates must be finite.
func NewAtom(x, y, z float64, element string, id int, name string) (*Atom, error) {
	el := NormalizeElement(element)
	if el == "" {
		return nil, errors.ValueRange(fmt.Sprintf("atom %d has no element", id))
	}
	for _, c := range []float64{x, y, z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.ValueRange(fmt.Sprintf("atom %d has a non-finite coordinate", id))
		}
	}
	return &Atom{
		id:      id,
		name:    name,
		element: el,
		pos:     Point{X: x, Y: y, Z: z},
	}, nil
}

func (a *Atom) ID() int          { return a.id }
func (a *Atom) Name() string     { return a.name }
func (a *Atom) Element() string  { return a.element }
func (a *Atom) X() float64       { return a.pos.X }
func (a *Atom) Y() float64       { return a.pos.Y }
func (a *Atom) Z() float64       { return a.pos.Z }
func (a *Atom) Position() Point  { return a.pos }
func (a *Atom) Mass() float64    { return AtomicMass(a.element) }
func (a *Atom) Owner() Structure { return a.owner }

// Distance returns the distance between two atoms.
func (a *Atom) Distance(other *Atom) float64 {
	return a.pos.Distance(other.pos)
}

// Residue returns the owning residue, or nil.
func (a *Atom) Residue() *Residue {
	r, _ := a.owner.(*Residue)
	return r
}

// SmallMolecule returns the owning small molecule, or nil.
func (a *Atom) SmallMolecule() *SmallMolecule {
	m, _ := a.owner.(*SmallMolecule)
	return m
}

// Chain returns the chain reached through the owning residue, or nil.
func (a *Atom) Chain() *Chain {
	if r := a.Residue(); r != nil {
		return r.chain
	}
	return nil
}

// Model returns the model reached through the owner, or nil.
func (a *Atom) Model() *Model {
	switch o := a.owner.(type) {
	case *Residue:
		return o.Model()
	case *SmallMolecule:
		return o.model
	}
	return nil
}

// Bonds returns the atoms bonded to a, ordered by id.
func (a *Atom) Bonds() []*Atom {
	out := make([]*Atom, 0, len(a.bonds))
	for b := range a.bonds {
		out = append(out, b)
	}
	sortAtoms(out)
	return out
}

// BondedTo reports whether a and other share a bond.
func (a *Atom) BondedTo(other *Atom) bool {
	_, ok := a.bonds[other]
	return ok
}

// BondTo records a symmetric bond. Bonding twice is a no-op.
func (a *Atom) BondTo(other *Atom) error {
	if other == nil {
		return errors.TypeKind("can only bond an atom to another atom, not <nil>")
	}
	if other == a {
		return errors.ValueRange(fmt.Sprintf("atom %d cannot bond to itself", a.id))
	}
	if a.bonds == nil {
		a.bonds = make(map[*Atom]struct{})
	}
	if other.bonds == nil {
		other.bonds = make(map[*Atom]struct{})
	}
	a.bonds[other] = struct{}{}
	other.bonds[a] = struct{}{}
	return nil
}

// Unbond removes a bond from both sides.
func (a *Atom) Unbond(other *Atom) error {
	if other == nil || !a.BondedTo(other) {
		return errors.Membership(fmt.Sprintf("atom %d is not bonded to %s", a.id, atomLabel(other)))
	}
	delete(a.bonds, other)
	delete(other.bonds, a)
	return nil
}

func (a *Atom) String() string {
	return fmt.Sprintf("<Atom %d (%s)>", a.id, a.element)
}

func atomLabel(a *Atom) string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("atom %d", a.id)
}

// sortAtoms orders atoms by id, then name, so that every accessor returns a
// stable sequence for a set.
func sortAtoms(atoms []*Atom) {
	sort.Slice(atoms, func(i, j int) bool {
		if atoms[i].id != atoms[j].id {
			return atoms[i].id < atoms[j].id
		}
		return atoms[i].name < atoms[j].name
	})
}

//Personal.AI order the ending
