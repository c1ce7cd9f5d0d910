package structure

import (
	"strconv"

	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// DomainEvent is a membership change recorded by a Model. Events are not
// persisted; the application layer drains them with Model.Events and
// publishes them.
type DomainEvent interface {
	EventType() stypes.EventType
	SubjectID() string
	Attributes() map[string]string
}

// ChainAddedEvent is recorded when a chain joins a model.
type ChainAddedEvent struct {
	ChainID string
}

func (e ChainAddedEvent) EventType() stypes.EventType   { return stypes.EventChainAdded }
func (e ChainAddedEvent) SubjectID() string             { return e.ChainID }
func (e ChainAddedEvent) Attributes() map[string]string { return nil }

// ChainRemovedEvent is recorded when a chain leaves a model, including when
// another model takes it over.
type ChainRemovedEvent struct {
	ChainID string
}

func (e ChainRemovedEvent) EventType() stypes.EventType   { return stypes.EventChainRemoved }
func (e ChainRemovedEvent) SubjectID() string             { return e.ChainID }
func (e ChainRemovedEvent) Attributes() map[string]string { return nil }

// SmallMoleculeAddedEvent is recorded when a small molecule joins a model.
type SmallMoleculeAddedEvent struct {
	MoleculeID string
	Name       string
}

func (e SmallMoleculeAddedEvent) EventType() stypes.EventType { return stypes.EventSmallMoleculeAdded }
func (e SmallMoleculeAddedEvent) SubjectID() string           { return e.MoleculeID }
func (e SmallMoleculeAddedEvent) Attributes() map[string]string {
	return map[string]string{"name": e.Name}
}

// SmallMoleculeRemovedEvent is recorded when a small molecule leaves a model.
type SmallMoleculeRemovedEvent struct {
	MoleculeID string
	Name       string
}

func (e SmallMoleculeRemovedEvent) EventType() stypes.EventType {
	return stypes.EventSmallMoleculeRemoved
}
func (e SmallMoleculeRemovedEvent) SubjectID() string { return e.MoleculeID }
func (e SmallMoleculeRemovedEvent) Attributes() map[string]string {
	return map[string]string{"name": e.Name}
}

// SecondaryStructureAddedEvent is recorded when a strand or helix registers
// with a chain that already belongs to a model.
type SecondaryStructureAddedEvent struct {
	ChainID     string
	ElementKind Kind
	ElementID   int
}

func (e SecondaryStructureAddedEvent) EventType() stypes.EventType {
	return stypes.EventSecondaryStructure
}
func (e SecondaryStructureAddedEvent) SubjectID() string { return e.ChainID }
func (e SecondaryStructureAddedEvent) Attributes() map[string]string {
	return map[string]string{"kind": e.ElementKind.String(), "element_id": strconv.Itoa(e.ElementID)}
}

//Personal.AI order the ending
