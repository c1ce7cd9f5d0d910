package structure

import (
	"fmt"
	"sort"

	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// ModelFromDTO builds a model through the validating constructors, so a
// snapshot that breaks any graph rule is rejected with the same error a
// direct caller would get. Construction does not count as a change: the new
// model starts with no pending events.
func ModelFromDTO(dto *stypes.ModelDTO) (*Model, error) {
	if dto == nil {
		return nil, errors.InvalidParam("model snapshot is nil")
	}
	m := NewModel()

	for _, cd := range dto.Chains {
		chain, err := chainFromDTO(cd)
		if err != nil {
			return nil, err
		}
		if err := m.AddChain(chain); err != nil {
			return nil, err
		}
		for i, sd := range cd.BetaStrands {
			residues, err := lookupResidues(chain, sd.ResidueIDs)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("chain %s beta strand %d", cd.ID, i))
			}
			if _, err := NewBetaStrandFromValues(sd.StrandID, sd.Sense, residues...); err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("chain %s beta strand %d", cd.ID, i))
			}
		}
		for i, hd := range cd.Helices {
			residues, err := lookupResidues(chain, hd.ResidueIDs)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("chain %s helix %d", cd.ID, i))
			}
			if _, err := NewHelixFromValues(hd.HelixID, hd.Class, hd.Comment, residues...); err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("chain %s helix %d", cd.ID, i))
			}
		}
	}

	for _, sd := range dto.SmallMolecules {
		sm, err := SmallMoleculeFromDTO(sd)
		if err != nil {
			return nil, err
		}
		if err := m.AddSmallMolecule(sm); err != nil {
			return nil, err
		}
	}

	for _, b := range dto.Bonds {
		a1, ok1 := m.AtomByID(b[0])
		a2, ok2 := m.AtomByID(b[1])
		if !ok1 || !ok2 {
			return nil, errors.Membership(fmt.Sprintf("bond %d-%d refers to an atom outside the model", b[0], b[1]))
		}
		if err := a1.BondTo(a2); err != nil {
			return nil, err
		}
	}

	m.Events()
	return m, nil
}

// SmallMoleculeFromDTO builds a detached small molecule.
func SmallMoleculeFromDTO(sd stypes.SmallMoleculeDTO) (*SmallMolecule, error) {
	atoms, err := atomsFromDTO(sd.Atoms)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "small molecule "+sd.ID)
	}
	return NewSmallMolecule(sd.ID, sd.Name, atoms...)
}

// ResiduesOf resolves residue ids against c, in the given order.
func ResiduesOf(c *Chain, ids []string) ([]*Residue, error) {
	return lookupResidues(c, ids)
}

func chainFromDTO(cd stypes.ChainDTO) (*Chain, error) {
	residues := make([]*Residue, 0, len(cd.Residues))
	for _, rd := range cd.Residues {
		atoms, err := atomsFromDTO(rd.Atoms)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("chain %s residue %s", cd.ID, rd.ID))
		}
		r, err := NewResidue(rd.ID, rd.Name, atoms...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "chain "+cd.ID)
		}
		residues = append(residues, r)
	}
	return NewChain(cd.ID, residues...)
}

func atomsFromDTO(ads []stypes.AtomDTO) ([]*Atom, error) {
	atoms := make([]*Atom, 0, len(ads))
	for _, ad := range ads {
		a, err := NewAtom(ad.X, ad.Y, ad.Z, ad.Element, ad.ID, ad.Name)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func lookupResidues(c *Chain, ids []string) ([]*Residue, error) {
	residues := make([]*Residue, 0, len(ids))
	for _, id := range ids {
		r, ok := c.Residue(id)
		if !ok {
			return nil, errors.Membership(fmt.Sprintf("residue %s is not in chain %s", id, c.id))
		}
		residues = append(residues, r)
	}
	return residues, nil
}

// ToDTO exports the model graph. Bonds are listed once each, lower atom id first.
func (m *Model) ToDTO() *stypes.ModelDTO {
	dto := &stypes.ModelDTO{
		Chains: make([]stypes.ChainDTO, 0, len(m.chains)),
	}
	for _, c := range m.chains {
		cd := stypes.ChainDTO{ID: c.id, Residues: make([]stypes.ResidueDTO, 0, len(c.residues))}
		for _, r := range c.residues {
			cd.Residues = append(cd.Residues, stypes.ResidueDTO{ID: r.id, Name: r.name, Atoms: atomsToDTO(r.Atoms())})
		}
		for _, s := range c.betaStrands {
			cd.BetaStrands = append(cd.BetaStrands, stypes.BetaStrandDTO{
				StrandID: s.strandID, Sense: s.sense, ResidueIDs: residueIDs(s.residues),
			})
		}
		for _, h := range c.helices {
			cd.Helices = append(cd.Helices, stypes.HelixDTO{
				HelixID: h.helixID, Class: h.class, Comment: h.comment, ResidueIDs: residueIDs(h.residues),
			})
		}
		dto.Chains = append(dto.Chains, cd)
	}
	for _, sm := range m.smallMolecules {
		dto.SmallMolecules = append(dto.SmallMolecules, stypes.SmallMoleculeDTO{
			ID: sm.id, Name: sm.name, Atoms: atomsToDTO(sm.Atoms()),
		})
	}
	dto.Bonds = bondsOf(m.ReachableAtoms())
	return dto
}

func atomsToDTO(atoms []*Atom) []stypes.AtomDTO {
	out := make([]stypes.AtomDTO, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, AtomDTOOf(a))
	}
	return out
}

// AtomDTOOf converts a single atom.
func AtomDTOOf(a *Atom) stypes.AtomDTO {
	return stypes.AtomDTO{ID: a.id, Name: a.name, Element: a.element, X: a.pos.X, Y: a.pos.Y, Z: a.pos.Z}
}

// AtomViewOf converts an atom together with the path that reaches it.
func AtomViewOf(a *Atom) stypes.AtomView {
	v := stypes.AtomView{AtomDTO: AtomDTOOf(a)}
	if r := a.Residue(); r != nil {
		v.ResidueID = r.id
		v.ResidueName = r.name
		if r.chain != nil {
			v.ChainID = r.chain.id
		}
	}
	if sm := a.SmallMolecule(); sm != nil {
		v.SmallMoleculeID = sm.id
	}
	return v
}

func residueIDs(residues []*Residue) []string {
	out := make([]string, len(residues))
	for i, r := range residues {
		out[i] = r.id
	}
	return out
}

func bondsOf(atoms []*Atom) []stypes.BondDTO {
	var out []stypes.BondDTO
	for _, a := range atoms {
		for b := range a.bonds {
			if a.id < b.id {
				out = append(out, stypes.BondDTO{a.id, b.id})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Summarize derives the cacheable summary of a model.
func Summarize(m *Model) *stypes.ModelSummary {
	atoms := m.ReachableAtoms()
	s := &stypes.ModelSummary{
		ChainIDs:           make([]string, 0, len(m.chains)),
		ChainCount:         len(m.chains),
		SmallMoleculeCount: len(m.smallMolecules),
		AtomCount:          len(atoms),
		BondCount:          CountBonds(atoms),
		Mass:               MassOf(atoms),
		Formula:            FormulaOf(atoms),
		Sequences:          make(map[string]string, len(m.chains)),
	}
	for _, c := range m.chains {
		s.ChainIDs = append(s.ChainIDs, c.id)
		s.ResidueCount += len(c.residues)
		s.BetaStrandCount += len(c.betaStrands)
		s.HelixCount += len(c.helices)
		s.Sequences[c.id] = c.Sequence()
	}
	return s
}

//Personal.AI order the ending
