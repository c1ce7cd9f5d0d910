package structure

import (
	"fmt"

	"github.com/turtacn/molgraph/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Secondary structure
//
// A BetaStrand or Helix is a residue sequence drawn from exactly one chain.
// The chain is never passed in: it is read from the first residue's
// back-reference, every other residue must agree, and only then does the
// element register itself with that chain.
// ─────────────────────────────────────────────────────────────────────────────

// Valid strand senses relative to the previous strand in a sheet.
const (
	SenseAntiParallel = -1
	SenseFirst        = 0
	SenseParallel     = 1
)

// PDB helix classes run from 1 (right-handed alpha) to 10 (polyproline).
const (
	MinHelixClass = 1
	MaxHelixClass = 10
)

// BetaStrand is one strand of a beta sheet.
type BetaStrand struct {
	ResiduicSequence

	strandID int
	sense    int
	chain    *Chain
}

// NewBetaStrand builds a strand and registers it with the residues' chain.
// sense must be -1, 0 or 1.
func NewBetaStrand(strandID, sense int, residues ...*Residue) (*BetaStrand, error) {
	if err := checkSense(sense); err != nil {
		return nil, err
	}
	seq, err := newResiduicSequence(residues)
	if err != nil {
		return nil, err
	}
	chain, err := commonChain(seq.residues)
	if err != nil {
		return nil, err
	}
	s := &BetaStrand{ResiduicSequence: seq, strandID: strandID, sense: sense, chain: chain}
	chain.registerBetaStrand(s)
	return s, nil
}

// NewBetaStrandFromValues is NewBetaStrand for untyped producers: strandID
// and sense must hold integers (see IntegerValue) or the call fails with a
// type-kind error before any other check.
func NewBetaStrandFromValues(strandID, sense interface{}, residues ...*Residue) (*BetaStrand, error) {
	id, err := IntegerValue("strand_id", strandID)
	if err != nil {
		return nil, err
	}
	sn, err := IntegerValue("sense", sense)
	if err != nil {
		return nil, err
	}
	return NewBetaStrand(id, sn, residues...)
}

func (s *BetaStrand) StrandID() int { return s.strandID }
func (s *BetaStrand) Sense() int    { return s.sense }
func (s *BetaStrand) Chain() *Chain { return s.chain }
func (s *BetaStrand) Kind() Kind    { return KindBetaStrand }

func (s *BetaStrand) String() string {
	return fmt.Sprintf("<BetaStrand %d (%d residues)>", s.strandID, len(s.residues))
}

// Helix is a helical run of residues.
type Helix struct {
	ResiduicSequence

	helixID int
	class   int
	comment string
	chain   *Chain
}

// NewHelix builds a helix and registers it with the residues' chain. class
// must be a PDB helix class (1..10).
func NewHelix(helixID, class int, comment string, residues ...*Residue) (*Helix, error) {
	if class < MinHelixClass || class > MaxHelixClass {
		return nil, errors.ValueRange(fmt.Sprintf("helix class must be between %d and %d, not %d", MinHelixClass, MaxHelixClass, class))
	}
	seq, err := newResiduicSequence(residues)
	if err != nil {
		return nil, err
	}
	chain, err := commonChain(seq.residues)
	if err != nil {
		return nil, err
	}
	h := &Helix{ResiduicSequence: seq, helixID: helixID, class: class, comment: comment, chain: chain}
	chain.registerHelix(h)
	return h, nil
}

// NewHelixFromValues is NewHelix for untyped producers.
func NewHelixFromValues(helixID, class interface{}, comment string, residues ...*Residue) (*Helix, error) {
	id, err := IntegerValue("helix_id", helixID)
	if err != nil {
		return nil, err
	}
	cl, err := IntegerValue("class", class)
	if err != nil {
		return nil, err
	}
	return NewHelix(id, cl, comment, residues...)
}

func (h *Helix) HelixID() int    { return h.helixID }
func (h *Helix) Class() int      { return h.class }
func (h *Helix) Comment() string { return h.comment }
func (h *Helix) Chain() *Chain   { return h.chain }
func (h *Helix) Kind() Kind      { return KindHelix }

func (h *Helix) String() string {
	return fmt.Sprintf("<Helix %d (%d residues)>", h.helixID, len(h.residues))
}

func checkSense(sense int) error {
	switch sense {
	case SenseAntiParallel, SenseFirst, SenseParallel:
		return nil
	}
	return errors.ValueRange(fmt.Sprintf("sense must be -1, 0 or 1, not %d", sense))
}

// commonChain resolves the single chain shared by residues.
func commonChain(residues []*Residue) (*Chain, error) {
	first := residues[0]
	if first.chain == nil {
		return nil, errors.BrokenStrand(fmt.Sprintf("residue %s is not part of any chain", first.id))
	}
	for _, r := range residues[1:] {
		if r.chain != first.chain {
			other := "no chain"
			if r.chain != nil {
				other = "chain " + r.chain.id
			}
			return nil, errors.BrokenStrand(fmt.Sprintf("residues span chain %s and %s (residue %s)", first.chain.id, other, r.id))
		}
	}
	return first.chain, nil
}

//Personal.AI order the ending
