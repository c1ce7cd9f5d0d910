package structure

import (
	"fmt"
	"strings"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Chain is a polymer: a residue sequence that owns its residues and carries
// the secondary-structure elements laid over them. The residues are fixed at
// construction; only the element collections grow.
type Chain struct {
	ResiduicSequence

	id       string
	model    *Model
	position map[*Residue]int

	betaStrands []*BetaStrand
	helices     []*Helix
}

// NewChain builds a chain and takes ownership of its residues. Residues may
// not repeat and may not already belong to another chain.
func NewChain(id string, residues ...*Residue) (*Chain, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ValueRange("chain id must not be empty")
	}
	seq, err := newResiduicSequence(residues)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "chain "+id)
	}
	position := make(map[*Residue]int, len(residues))
	for i, r := range seq.residues {
		if _, dup := position[r]; dup {
			return nil, errors.ValueRange(fmt.Sprintf("chain %s: residue %s appears twice", id, r.id))
		}
		if r.chain != nil {
			return nil, errors.AlreadyOwned(fmt.Sprintf("chain %s: residue %s already belongs to chain %s", id, r.id, r.chain.id))
		}
		position[r] = i
	}
	c := &Chain{ResiduicSequence: seq, id: id, position: position}
	for _, r := range seq.residues {
		r.chain = c
	}
	return c, nil
}

func (c *Chain) ID() string    { return c.id }
func (c *Chain) Kind() Kind    { return KindChain }
func (c *Chain) Model() *Model { return c.model }

// Residue looks a residue up by id.
func (c *Chain) Residue(id string) (*Residue, bool) {
	for _, r := range c.residues {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

// HasResidue reports whether r is one of the chain's residues.
func (c *Chain) HasResidue(r *Residue) bool {
	_, ok := c.position[r]
	return ok
}

// BetaStrands returns the chain's strands in registration order.
func (c *Chain) BetaStrands() []*BetaStrand {
	out := make([]*BetaStrand, len(c.betaStrands))
	copy(out, c.betaStrands)
	return out
}

// Helices returns the chain's helices in registration order.
func (c *Chain) Helices() []*Helix {
	out := make([]*Helix, len(c.helices))
	copy(out, c.helices)
	return out
}

// AddBetaStrand builds a strand from residues of this chain. Residues from
// any other chain make it fail with a broken-strand error.
func (c *Chain) AddBetaStrand(strandID, sense int, residues ...*Residue) (*BetaStrand, error) {
	if err := c.checkOwnResidues(residues); err != nil {
		return nil, err
	}
	return NewBetaStrand(strandID, sense, residues...)
}

// AddHelix builds a helix from residues of this chain.
func (c *Chain) AddHelix(helixID, class int, comment string, residues ...*Residue) (*Helix, error) {
	if err := c.checkOwnResidues(residues); err != nil {
		return nil, err
	}
	return NewHelix(helixID, class, comment, residues...)
}

func (c *Chain) checkOwnResidues(residues []*Residue) error {
	for _, r := range residues {
		if r != nil && r.chain != c {
			return errors.BrokenStrand(fmt.Sprintf("residue %s is not part of chain %s", r.id, c.id))
		}
	}
	return nil
}

// Sequence renders the chain as one-letter codes.
func (c *Chain) Sequence() string {
	var sb strings.Builder
	sb.Grow(len(c.residues))
	for _, r := range c.residues {
		sb.WriteByte(OneLetterCode(r.name))
	}
	return sb.String()
}

func (c *Chain) registerBetaStrand(s *BetaStrand) {
	c.betaStrands = append(c.betaStrands, s)
	if c.model != nil {
		c.model.record(SecondaryStructureAddedEvent{ChainID: c.id, ElementKind: KindBetaStrand, ElementID: s.strandID})
	}
}

func (c *Chain) registerHelix(h *Helix) {
	c.helices = append(c.helices, h)
	if c.model != nil {
		c.model.record(SecondaryStructureAddedEvent{ChainID: c.id, ElementKind: KindHelix, ElementID: h.helixID})
	}
}

func (c *Chain) String() string {
	return fmt.Sprintf("<Chain %s (%d residues)>", c.id, len(c.residues))
}

//Personal.AI order the ending
