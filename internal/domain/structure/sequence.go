package structure

import (
	"fmt"

	"github.com/turtacn/molgraph/pkg/errors"
)

// ResiduicSequence is an ordered run of residues. The order is the caller's
// and is never re-sorted. Its atom set is the union of the residues' atoms.
//
// A plain sequence does not own its residues: building one leaves every
// residue's chain back-reference untouched.
type ResiduicSequence struct {
	AtomicStructure

	residues []*Residue
}

// NewResiduicSequence builds a sequence from at least one residue.
func NewResiduicSequence(residues ...*Residue) (*ResiduicSequence, error) {
	seq, err := newResiduicSequence(residues)
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// SequenceOf is the runtime-checked form of NewResiduicSequence for callers
// holding arbitrary structures. Any member that is not a Residue fails with a
// type-kind error naming its position and kind.
func SequenceOf(items ...Structure) (*ResiduicSequence, error) {
	if len(items) == 0 {
		return nil, errors.ValueRange("a residue sequence needs at least one residue")
	}
	residues := make([]*Residue, len(items))
	for i, item := range items {
		r, ok := item.(*Residue)
		if !ok || r == nil {
			return nil, errors.TypeKind(fmt.Sprintf("can only sequence Residues, not %s at position %d", kindName(item), i))
		}
		residues[i] = r
	}
	return NewResiduicSequence(residues...)
}

func newResiduicSequence(residues []*Residue) (ResiduicSequence, error) {
	if len(residues) == 0 {
		return ResiduicSequence{}, errors.ValueRange("a residue sequence needs at least one residue")
	}
	var atoms []*Atom
	for i, r := range residues {
		if r == nil {
			return ResiduicSequence{}, errors.TypeKind(fmt.Sprintf("can only sequence Residues, not <nil> at position %d", i))
		}
		for a := range r.atoms {
			atoms = append(atoms, a)
		}
	}
	ordered := make([]*Residue, len(residues))
	copy(ordered, residues)
	return ResiduicSequence{AtomicStructure: newAtomicStructure(atoms), residues: ordered}, nil
}

// Residues returns a copy of the residues in sequence order.
func (s *ResiduicSequence) Residues() []*Residue {
	out := make([]*Residue, len(s.residues))
	copy(out, s.residues)
	return out
}

// Length is the number of residues.
func (s *ResiduicSequence) Length() int { return len(s.residues) }

// ResidueAt returns the residue at position i, or nil when out of range.
func (s *ResiduicSequence) ResidueAt(i int) *Residue {
	if i < 0 || i >= len(s.residues) {
		return nil
	}
	return s.residues[i]
}

// IndexOf returns the first position of r, or -1.
func (s *ResiduicSequence) IndexOf(r *Residue) int {
	for i, x := range s.residues {
		if x == r {
			return i
		}
	}
	return -1
}

func (s *ResiduicSequence) Kind() Kind { return KindResiduicSequence }
func (*ResiduicSequence) isStructure() {}

func (s *ResiduicSequence) String() string {
	return fmt.Sprintf("<ResiduicSequence (%d residues)>", len(s.residues))
}

//Personal.AI order the ending
