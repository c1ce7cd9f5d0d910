package structure

import (
	"fmt"
	"strings"

	"github.com/turtacn/molgraph/pkg/errors"
)

// SmallMolecule is a non-polymer atom group (ligand, ion, water) owned
// directly by a Model. Its model back-reference is written only by the
// Model's add and remove operations.
type SmallMolecule struct {
	AtomicStructure

	id    string
	name  string
	model *Model
}

// NewSmallMolecule groups atoms into a small molecule. The rules match NewResidue.
func NewSmallMolecule(id, name string, atoms ...*Atom) (*SmallMolecule, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ValueRange("small molecule id must not be empty")
	}
	members, err := checkFreeAtoms("small molecule "+id, atoms)
	if err != nil {
		return nil, err
	}
	m := &SmallMolecule{AtomicStructure: newAtomicStructure(members), id: id, name: name}
	for _, a := range members {
		a.owner = m
	}
	return m, nil
}

func (m *SmallMolecule) ID() string    { return m.id }
func (m *SmallMolecule) Name() string  { return m.name }
func (m *SmallMolecule) Kind() Kind    { return KindSmallMolecule }
func (m *SmallMolecule) Model() *Model { return m.model }
func (*SmallMolecule) isStructure()    {}

func (m *SmallMolecule) String() string {
	return fmt.Sprintf("<SmallMolecule %s (%s)>", m.id, m.name)
}

//Personal.AI order the ending
