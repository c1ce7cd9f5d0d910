package structure

import (
	"fmt"

	"github.com/turtacn/molgraph/pkg/errors"
)

// AtomicStructure is the capability shared by every entity that holds a set
// of atoms. It is embedded by Residue, SmallMolecule and ResiduicSequence
// (and therefore Chain, BetaStrand and Helix). Membership is by atom
// identity; two structures with identical content are still distinct.
//
// Every query is derived from the atom set alone and has no side effects.
type AtomicStructure struct {
	atoms map[*Atom]struct{}
}

func newAtomicStructure(atoms []*Atom) AtomicStructure {
	set := make(map[*Atom]struct{}, len(atoms))
	for _, a := range atoms {
		set[a] = struct{}{}
	}
	return AtomicStructure{atoms: set}
}

// Atoms returns a fresh slice of the atoms, ordered by id. Changing the
// slice does not change the structure.
func (s *AtomicStructure) Atoms() []*Atom {
	out := make([]*Atom, 0, len(s.atoms))
	for a := range s.atoms {
		out = append(out, a)
	}
	sortAtoms(out)
	return out
}

// AtomCount returns the number of atoms.
func (s *AtomicStructure) AtomCount() int { return len(s.atoms) }

// Contains reports whether a is one of the atoms.
func (s *AtomicStructure) Contains(a *Atom) bool {
	_, ok := s.atoms[a]
	return ok
}

// AtomByID returns the first atom with the given id.
func (s *AtomicStructure) AtomByID(id int) (*Atom, bool) {
	for _, a := range s.Atoms() {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

// AtomsByName returns the atoms whose name matches exactly.
func (s *AtomicStructure) AtomsByName(name string) []*Atom {
	return filterAtoms(s.Atoms(), func(a *Atom) bool { return a.name == name })
}

// AtomsByElement returns the atoms of one element.
func (s *AtomicStructure) AtomsByElement(element string) []*Atom {
	el := NormalizeElement(element)
	return filterAtoms(s.Atoms(), func(a *Atom) bool { return a.element == el })
}

// Mass is the sum of the atoms' standard atomic weights.
func (s *AtomicStructure) Mass() float64 { return MassOf(s.Atoms()) }

// Formula is the element histogram of the atoms.
func (s *AtomicStructure) Formula() map[string]int { return FormulaOf(s.Atoms()) }

// CenterOfMass returns the mass-weighted centre. ok is false for an empty
// structure or one made only of unknown elements.
func (s *AtomicStructure) CenterOfMass() (Point, bool) { return CenterOfMass(s.Atoms()) }

// NearbyAtoms returns the atoms within cutoff of p.
func (s *AtomicStructure) NearbyAtoms(p Point, cutoff float64) []*Atom {
	return NearbyAtoms(s.Atoms(), p, cutoff)
}

// AtomsNear returns the atoms within cutoff of probe, excluding probe itself.
func (s *AtomicStructure) AtomsNear(probe *Atom, cutoff float64) []*Atom {
	if probe == nil {
		return nil
	}
	return filterAtoms(s.NearbyAtoms(probe.pos, cutoff), func(a *Atom) bool { return a != probe })
}

// InferBonds bonds every pair of atoms whose distance is at most the sum of
// their covalent radii plus tolerance. Atoms of unknown elements are skipped.
// It returns the number of bonds created.
func (s *AtomicStructure) InferBonds(tolerance float64) (int, error) {
	return InferBonds(s.Atoms(), tolerance)
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom-slice helpers, shared with Model which owns no atoms of its own
// ─────────────────────────────────────────────────────────────────────────────

// MassOf sums the standard atomic weights of atoms.
func MassOf(atoms []*Atom) float64 {
	var total float64
	for _, a := range atoms {
		total += a.Mass()
	}
	return total
}

// FormulaOf counts atoms per element.
func FormulaOf(atoms []*Atom) map[string]int {
	formula := make(map[string]int)
	for _, a := range atoms {
		formula[a.element]++
	}
	return formula
}

// CenterOfMass returns the mass-weighted centre of atoms.
func CenterOfMass(atoms []*Atom) (Point, bool) {
	var c Point
	var total float64
	for _, a := range atoms {
		m := a.Mass()
		c.X += a.pos.X * m
		c.Y += a.pos.Y * m
		c.Z += a.pos.Z * m
		total += m
	}
	if total == 0 {
		return Point{}, false
	}
	return Point{X: c.X / total, Y: c.Y / total, Z: c.Z / total}, true
}

// NearbyAtoms filters atoms to those within cutoff of p.
func NearbyAtoms(atoms []*Atom, p Point, cutoff float64) []*Atom {
	return filterAtoms(atoms, func(a *Atom) bool { return a.pos.Distance(p) <= cutoff })
}

// InferBonds bonds close pairs among atoms. See AtomicStructure.InferBonds.
func InferBonds(atoms []*Atom, tolerance float64) (int, error) {
	if tolerance < 0 {
		return 0, errors.ValueRange(fmt.Sprintf("bond tolerance %v must not be negative", tolerance))
	}
	created := 0
	for i := 0; i < len(atoms); i++ {
		ri, ok := CovalentRadius(atoms[i].element)
		if !ok {
			continue
		}
		for j := i + 1; j < len(atoms); j++ {
			rj, ok := CovalentRadius(atoms[j].element)
			if !ok || atoms[i].BondedTo(atoms[j]) {
				continue
			}
			if atoms[i].Distance(atoms[j]) <= ri+rj+tolerance {
				if err := atoms[i].BondTo(atoms[j]); err != nil {
					return created, err
				}
				created++
			}
		}
	}
	return created, nil
}

func filterAtoms(atoms []*Atom, keep func(*Atom) bool) []*Atom {
	out := make([]*Atom, 0)
	for _, a := range atoms {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// CountBonds returns the number of distinct bonds with both ends in atoms.
func CountBonds(atoms []*Atom) int {
	in := make(map[*Atom]struct{}, len(atoms))
	for _, a := range atoms {
		in[a] = struct{}{}
	}
	ends := 0
	for _, a := range atoms {
		for b := range a.bonds {
			if _, ok := in[b]; ok {
				ends++
			}
		}
	}
	return ends / 2
}

//Personal.AI order the ending
