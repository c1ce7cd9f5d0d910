// Package structure defines the wire representation of a structural model:
// plain data types exchanged between the CLI, the HTTP/gRPC APIs, the
// snapshot stores and the event stream. No domain logic lives here; the graph
// and its invariants are built by internal/domain/structure.
package structure

import (
	"github.com/turtacn/molgraph/pkg/types/common"
)

// AtomDTO is a single atom record as handed over by a parser.
type AtomDTO struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Element string  `json:"element"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// ResidueDTO groups atoms into a residue.
type ResidueDTO struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Atoms []AtomDTO `json:"atoms"`
}

// BetaStrandDTO refers to residues of its chain by residue id.
//
// StrandID and Sense are deliberately untyped: producers such as JSON
// decoders hand over whatever they read, and the domain rejects
// non-integer values with a type-kind error.
type BetaStrandDTO struct {
	StrandID   interface{} `json:"strand_id"`
	Sense      interface{} `json:"sense"`
	ResidueIDs []string    `json:"residue_ids"`
}

// HelixDTO refers to residues of its chain by residue id.
type HelixDTO struct {
	HelixID    interface{} `json:"helix_id"`
	Class      interface{} `json:"class"`
	Comment    string      `json:"comment,omitempty"`
	ResidueIDs []string    `json:"residue_ids"`
}

// ChainDTO is an ordered run of residues plus the secondary structure laid over it.
type ChainDTO struct {
	ID          string          `json:"id"`
	Residues    []ResidueDTO    `json:"residues"`
	BetaStrands []BetaStrandDTO `json:"beta_strands,omitempty"`
	Helices     []HelixDTO      `json:"helices,omitempty"`
}

// SmallMoleculeDTO is a non-polymer atom group owned directly by the model.
type SmallMoleculeDTO struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Atoms []AtomDTO `json:"atoms"`
}

// BondDTO is an undirected bond between two atom ids.
type BondDTO [2]int

// ModelDTO is one parsed structural entry.
type ModelDTO struct {
	ID             common.ID          `json:"id,omitempty"`
	Title          string             `json:"title,omitempty"`
	Chains         []ChainDTO         `json:"chains"`
	SmallMolecules []SmallMoleculeDTO `json:"small_molecules,omitempty"`
	Bonds          []BondDTO          `json:"bonds,omitempty"`
}

// ModelSummary is the derived, cacheable view of a model.
type ModelSummary struct {
	ID                 common.ID         `json:"id"`
	Title              string            `json:"title,omitempty"`
	ChainIDs           []string          `json:"chain_ids"`
	ChainCount         int               `json:"chain_count"`
	ResidueCount       int               `json:"residue_count"`
	SmallMoleculeCount int               `json:"small_molecule_count"`
	AtomCount          int               `json:"atom_count"`
	BondCount          int               `json:"bond_count"`
	BetaStrandCount    int               `json:"beta_strand_count"`
	HelixCount         int               `json:"helix_count"`
	Mass               float64           `json:"mass"`
	Formula            map[string]int    `json:"formula"`
	Sequences          map[string]string `json:"sequences,omitempty"`
}

// ModelHeader lists a stored model without loading its graph.
type ModelHeader struct {
	ID        common.ID        `json:"id"`
	Title     string           `json:"title,omitempty"`
	AtomCount int              `json:"atom_count"`
	Digest    string           `json:"digest,omitempty"`
	Version   int              `json:"version"`
	CreatedAt common.Timestamp `json:"created_at"`
	UpdatedAt common.Timestamp `json:"updated_at"`
}

// ExportResult is a model document together with its content digest.
type ExportResult struct {
	Digest string    `json:"digest"`
	Model  *ModelDTO `json:"model"`
}

// AtomView is an atom together with the path that reaches it.
type AtomView struct {
	AtomDTO
	ChainID         string `json:"chain_id,omitempty"`
	ResidueID       string `json:"residue_id,omitempty"`
	ResidueName     string `json:"residue_name,omitempty"`
	SmallMoleculeID string `json:"small_molecule_id,omitempty"`
}

// EventType names a structural event on the message bus.
type EventType string

const (
	EventModelSaved           EventType = "model.saved"
	EventModelDeleted         EventType = "model.deleted"
	EventSmallMoleculeAdded   EventType = "model.small_molecule_added"
	EventSmallMoleculeRemoved EventType = "model.small_molecule_removed"
	EventChainAdded           EventType = "model.chain_added"
	EventChainRemoved         EventType = "model.chain_removed"
	EventSecondaryStructure   EventType = "chain.secondary_structure_added"
)

// StructureEvent is the envelope published for every structural change.
type StructureEvent struct {
	EventID    string            `json:"event_id"`
	Type       EventType         `json:"type"`
	ModelID    common.ID         `json:"model_id"`
	SubjectID  string            `json:"subject_id,omitempty"`
	OccurredAt common.Timestamp  `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SelectionRequest carries an atom selection expression.
type SelectionRequest struct {
	Expression string `json:"expression"`
}

// CatalogueQuery filters the model catalogue. Zero fields do not filter.
type CatalogueQuery struct {
	// Text is matched against titles.
	Text string `json:"text,omitempty"`
	// Motif is a one-letter residue motif that must occur in some chain
	// sequence.
	Motif    string   `json:"motif,omitempty"`
	ChainID  string   `json:"chain_id,omitempty"`
	Elements []string `json:"elements,omitempty"`
	MinAtoms int      `json:"min_atoms,omitempty"`
	MaxAtoms int      `json:"max_atoms,omitempty"`
	Offset   int      `json:"offset,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// CatalogueHit is one matching model.
type CatalogueHit struct {
	ModelID   string  `json:"model_id"`
	Title     string  `json:"title"`
	AtomCount int     `json:"atom_count"`
	Score     float64 `json:"score"`
}

// CatalogueResult is one page of hits.
type CatalogueResult struct {
	Total  int64          `json:"total"`
	Hits   []CatalogueHit `json:"hits"`
	TookMs int64          `json:"took_ms"`
}

//Personal.AI order the ending
