package structure

import (
	"fmt"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Model is the aggregate root of one structural entry. It owns chains and
// small molecules; atoms are reachable only through them, so Model's own
// atom set is always empty.
//
// Atom ids are unique within a model. A chain or small molecule that still
// belongs to another model is taken over: it leaves the old model (which
// records a removal) and joins this one. Adding a member twice is a no-op.
type Model struct {
	chains         []*Chain
	smallMolecules []*SmallMolecule
	atomIndex      map[int]*Atom
	events         []DomainEvent
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{atomIndex: make(map[int]*Atom)}
}

func (m *Model) Kind() Kind { return KindModel }
func (*Model) isStructure() {}

// Atoms is always empty for a model. Use ReachableAtoms to walk its children.
func (m *Model) Atoms() []*Atom { return []*Atom{} }

// ─────────────────────────────────────────────────────────────────────────────
// Membership
// ─────────────────────────────────────────────────────────────────────────────

// Add dispatches on the kind of s. Only chains and small molecules can join
// a model; anything else is a type-kind error.
func (m *Model) Add(s Structure) error {
	switch v := s.(type) {
	case *SmallMolecule:
		return m.AddSmallMolecule(v)
	case *Chain:
		return m.AddChain(v)
	}
	return errors.TypeKind(fmt.Sprintf("can only add SmallMolecule or Chain to Model, not %s", kindName(s)))
}

// Remove is the counterpart of Add.
func (m *Model) Remove(s Structure) error {
	switch v := s.(type) {
	case *SmallMolecule:
		return m.RemoveSmallMolecule(v)
	case *Chain:
		return m.RemoveChain(v)
	}
	return errors.TypeKind(fmt.Sprintf("can only remove SmallMolecule or Chain from Model, not %s", kindName(s)))
}

// AddSmallMolecule inserts sm and points its back-reference at m.
func (m *Model) AddSmallMolecule(sm *SmallMolecule) error {
	if sm == nil {
		return errors.TypeKind("can only add SmallMolecule to Model, not <nil>")
	}
	if sm.model == m {
		return nil
	}
	if err := m.checkAtomIDs(sm.Atoms()); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "small molecule "+sm.id)
	}
	if prev := sm.model; prev != nil {
		prev.detachSmallMolecule(sm)
	}
	m.smallMolecules = append(m.smallMolecules, sm)
	m.indexAtoms(sm.Atoms())
	sm.model = m
	m.record(SmallMoleculeAddedEvent{MoleculeID: sm.id, Name: sm.name})
	return nil
}

// RemoveSmallMolecule takes sm out of m and clears its back-reference. sm
// must be a member.
func (m *Model) RemoveSmallMolecule(sm *SmallMolecule) error {
	if sm == nil {
		return errors.TypeKind("can only remove SmallMolecule from Model, not <nil>")
	}
	if sm.model != m {
		return errors.Membership(fmt.Sprintf("%s is not in this model", sm))
	}
	m.detachSmallMolecule(sm)
	return nil
}

// AddChain inserts c and points its back-reference at m. Chain ids are
// unique within a model.
func (m *Model) AddChain(c *Chain) error {
	if c == nil {
		return errors.TypeKind("can only add Chain to Model, not <nil>")
	}
	if c.model == m {
		return nil
	}
	if existing, ok := m.ChainByID(c.id); ok && existing != c {
		return errors.ValueRange(fmt.Sprintf("model already has a chain %s", c.id))
	}
	if err := m.checkAtomIDs(c.Atoms()); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "chain "+c.id)
	}
	if prev := c.model; prev != nil {
		prev.detachChain(c)
	}
	m.chains = append(m.chains, c)
	m.indexAtoms(c.Atoms())
	c.model = m
	m.record(ChainAddedEvent{ChainID: c.id})
	return nil
}

// RemoveChain takes c out of m and clears its back-reference.
func (m *Model) RemoveChain(c *Chain) error {
	if c == nil {
		return errors.TypeKind("can only remove Chain from Model, not <nil>")
	}
	if c.model != m {
		return errors.Membership(fmt.Sprintf("%s is not in this model", c))
	}
	m.detachChain(c)
	return nil
}

func (m *Model) detachSmallMolecule(sm *SmallMolecule) {
	for i, x := range m.smallMolecules {
		if x == sm {
			m.smallMolecules = append(m.smallMolecules[:i:i], m.smallMolecules[i+1:]...)
			break
		}
	}
	m.unindexAtoms(sm.Atoms())
	sm.model = nil
	m.record(SmallMoleculeRemovedEvent{MoleculeID: sm.id, Name: sm.name})
}

func (m *Model) detachChain(c *Chain) {
	for i, x := range m.chains {
		if x == c {
			m.chains = append(m.chains[:i:i], m.chains[i+1:]...)
			break
		}
	}
	m.unindexAtoms(c.Atoms())
	c.model = nil
	m.record(ChainRemovedEvent{ChainID: c.id})
}

func (m *Model) checkAtomIDs(atoms []*Atom) error {
	incoming := make(map[int]struct{}, len(atoms))
	for _, a := range atoms {
		if _, dup := incoming[a.id]; dup {
			return errors.ValueRange(fmt.Sprintf("atom id %d is used twice", a.id))
		}
		incoming[a.id] = struct{}{}
		if existing, ok := m.atomIndex[a.id]; ok && existing != a {
			return errors.ValueRange(fmt.Sprintf("atom id %d is already used in this model", a.id))
		}
	}
	return nil
}

func (m *Model) indexAtoms(atoms []*Atom) {
	if m.atomIndex == nil {
		m.atomIndex = make(map[int]*Atom)
	}
	for _, a := range atoms {
		m.atomIndex[a.id] = a
	}
}

func (m *Model) unindexAtoms(atoms []*Atom) {
	for _, a := range atoms {
		if m.atomIndex[a.id] == a {
			delete(m.atomIndex, a.id)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// SmallMolecules returns the model's small molecules in insertion order.
func (m *Model) SmallMolecules() []*SmallMolecule {
	out := make([]*SmallMolecule, len(m.smallMolecules))
	copy(out, m.smallMolecules)
	return out
}

// HasSmallMolecule reports membership of sm.
func (m *Model) HasSmallMolecule(sm *SmallMolecule) bool {
	return sm != nil && sm.model == m
}

// SmallMoleculeByID returns the small molecule with the given id.
func (m *Model) SmallMoleculeByID(id string) (*SmallMolecule, bool) {
	for _, sm := range m.smallMolecules {
		if sm.id == id {
			return sm, true
		}
	}
	return nil, false
}

// SmallMoleculesByName returns every small molecule with the given name.
func (m *Model) SmallMoleculesByName(name string) []*SmallMolecule {
	out := make([]*SmallMolecule, 0)
	for _, sm := range m.smallMolecules {
		if sm.name == name {
			out = append(out, sm)
		}
	}
	return out
}

// Chains returns the model's chains in insertion order.
func (m *Model) Chains() []*Chain {
	out := make([]*Chain, len(m.chains))
	copy(out, m.chains)
	return out
}

// ChainByID returns the chain with the given id.
func (m *Model) ChainByID(id string) (*Chain, bool) {
	for _, c := range m.chains {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// Residues returns every chain residue, chain by chain in sequence order.
func (m *Model) Residues() []*Residue {
	var out []*Residue
	for _, c := range m.chains {
		out = append(out, c.residues...)
	}
	if out == nil {
		out = []*Residue{}
	}
	return out
}

// ReachableAtoms walks chains and small molecules and returns their atoms
// ordered by id.
func (m *Model) ReachableAtoms() []*Atom {
	out := make([]*Atom, 0, len(m.atomIndex))
	for _, a := range m.atomIndex {
		out = append(out, a)
	}
	sortAtoms(out)
	return out
}

// AtomByID finds a reachable atom by its model-unique id.
func (m *Model) AtomByID(id int) (*Atom, bool) {
	a, ok := m.atomIndex[id]
	return a, ok
}

// Events returns the unpublished domain events and clears them.
func (m *Model) Events() []DomainEvent {
	events := m.events
	m.events = nil
	return events
}

func (m *Model) record(e DomainEvent) {
	m.events = append(m.events, e)
}

func (m *Model) String() string {
	return fmt.Sprintf("<Model (%d chains, %d small molecules)>", len(m.chains), len(m.smallMolecules))
}

//Personal.AI order the ending
