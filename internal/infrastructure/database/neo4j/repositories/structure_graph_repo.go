// Package repositories projects structural models into Neo4j.
//
// Graph shape, every node carrying model_id:
//
//	(:Model)-[:HAS_CHAIN]->(:Chain)-[:HAS_RESIDUE {position}]->(:Residue)-[:HAS_ATOM]->(:Atom)
//	(:Model)-[:HAS_SMALL_MOLECULE]->(:SmallMolecule)-[:HAS_ATOM]->(:Atom)
//	(:Residue)-[:NEXT]->(:Residue)
//	(:Chain)-[:HAS_ELEMENT]->(:SecondaryStructure)-[:SPANS]->(:Residue)
//	(:Atom)-[:BONDED_TO]->(:Atom)
package repositories

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/molgraph/internal/domain/structure"
	infraNeo4j "github.com/turtacn/molgraph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
)

const (
	cypherClear = `MATCH (n {model_id: $model_id}) DETACH DELETE n`

	cypherModel = `MERGE (m:Model {id: $model_id, model_id: $model_id})
SET m.title = $title, m.atom_count = $atom_count, m.projected_at = datetime()`

	cypherChains = `MATCH (m:Model {id: $model_id})
UNWIND $chains AS c
CREATE (m)-[:HAS_CHAIN]->(:Chain {model_id: $model_id, id: c.id, sequence: c.sequence})`

	cypherResidues = `UNWIND $residues AS r
MATCH (c:Chain {model_id: $model_id, id: r.chain_id})
CREATE (c)-[:HAS_RESIDUE {position: r.position}]->(:Residue {model_id: $model_id, id: r.id, name: r.name})`

	cypherResidueLinks = `UNWIND $links AS l
MATCH (a:Residue {model_id: $model_id, id: l.from}), (b:Residue {model_id: $model_id, id: l.to})
CREATE (a)-[:NEXT]->(b)`

	cypherSmallMolecules = `MATCH (m:Model {id: $model_id})
UNWIND $small_molecules AS s
CREATE (m)-[:HAS_SMALL_MOLECULE]->(:SmallMolecule {model_id: $model_id, id: s.id, name: s.name})`

	cypherResidueAtoms = `UNWIND $atoms AS a
MATCH (p:Residue {model_id: $model_id, id: a.parent_id})
CREATE (p)-[:HAS_ATOM]->(:Atom {model_id: $model_id, id: a.id, name: a.name, element: a.element, x: a.x, y: a.y, z: a.z})`

	cypherMoleculeAtoms = `UNWIND $atoms AS a
MATCH (p:SmallMolecule {model_id: $model_id, id: a.parent_id})
CREATE (p)-[:HAS_ATOM]->(:Atom {model_id: $model_id, id: a.id, name: a.name, element: a.element, x: a.x, y: a.y, z: a.z})`

	cypherBonds = `UNWIND $bonds AS b
MATCH (x:Atom {model_id: $model_id, id: b[0]}), (y:Atom {model_id: $model_id, id: b[1]})
CREATE (x)-[:BONDED_TO]->(y)`

	cypherElements = `UNWIND $elements AS e
MATCH (c:Chain {model_id: $model_id, id: e.chain_id})
CREATE (c)-[:HAS_ELEMENT]->(s:SecondaryStructure {model_id: $model_id, kind: e.kind, element_id: e.element_id, sense: e.sense, class: e.class, comment: e.comment})
WITH s, e
UNWIND e.residue_ids AS rid
MATCH (r:Residue {model_id: $model_id, id: rid})
CREATE (s)-[:SPANS]->(r)`

	cypherBondedAtoms = `MATCH (:Atom {model_id: $model_id, id: $atom_id})-[:BONDED_TO]-(n:Atom)
RETURN n.id AS id ORDER BY id`

	cypherCountNodes = `MATCH (n {model_id: $model_id}) RETURN count(n) AS n`
)

// StructureGraphRepository writes and queries the graph projection of models.
type StructureGraphRepository struct {
	driver infraNeo4j.DriverInterface
	logger logging.Logger
}

func NewStructureGraphRepository(driver infraNeo4j.DriverInterface, log logging.Logger) *StructureGraphRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &StructureGraphRepository{driver: driver, logger: log}
}

type statement struct {
	cypher string
	params map[string]any
}

// ProjectModel replaces the projection of id with the current graph of m in
// one write transaction.
func (r *StructureGraphRepository) ProjectModel(ctx context.Context, id common.ID, title string, m *structure.Model) error {
	if m == nil {
		return errors.InvalidParam("nil model")
	}
	stmts := buildProjection(string(id), title, m)
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		for _, st := range stmts {
			res, err := tx.Run(ctx, st.cypher, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "projecting model into neo4j").WithDetail("id=" + string(id))
	}
	r.logger.Debug("projected model into neo4j",
		logging.String(logging.FieldModelID, string(id)), logging.Int("statements", len(stmts)))
	return nil
}

// DeleteModel removes every node of id. Deleting an absent model is not an error.
func (r *StructureGraphRepository) DeleteModel(ctx context.Context, id common.ID) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		res, err := tx.Run(ctx, cypherClear, map[string]any{"model_id": string(id)})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "deleting model from neo4j").WithDetail("id=" + string(id))
	}
	return nil
}

// BondedAtoms returns the ids of atoms bonded to atomID, ascending.
func (r *StructureGraphRepository) BondedAtoms(ctx context.Context, id common.ID, atomID int) ([]int, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		res, err := tx.Run(ctx, cypherBondedAtoms, map[string]any{"model_id": string(id), "atom_id": atomID})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, res, func(rec *neo4j.Record) (int, error) {
			v, _ := rec.Get("id")
			n, ok := v.(int64)
			if !ok {
				return 0, errors.Internal("atom id is not an integer")
			}
			return int(n), nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "querying bonded atoms")
	}
	return out.([]int), nil
}

// NodeCount returns the number of projected nodes of id.
func (r *StructureGraphRepository) NodeCount(ctx context.Context, id common.ID) (int64, error) {
	out, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		res, err := tx.Run(ctx, cypherCountNodes, map[string]any{"model_id": string(id)})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.ExtractSingleRecord(ctx, res, func(rec *neo4j.Record) (int64, error) {
			v, _ := rec.Get("n")
			n, _ := v.(int64)
			return n, nil
		})
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeUnknown, "counting projected nodes")
	}
	return out.(int64), nil
}

// buildProjection flattens m into parameterised statements. Statements with
// nothing to write are skipped.
func buildProjection(id, title string, m *structure.Model) []statement {
	atoms := m.ReachableAtoms()
	stmts := []statement{
		{cypherClear, map[string]any{"model_id": id}},
		{cypherModel, map[string]any{"model_id": id, "title": title, "atom_count": len(atoms)}},
	}
	add := func(cypher, key string, rows []any) {
		if len(rows) == 0 {
			return
		}
		stmts = append(stmts, statement{cypher, map[string]any{"model_id": id, key: rows}})
	}

	var chains, residues, links, residueAtoms, elements []any
	for _, c := range m.Chains() {
		chains = append(chains, map[string]any{"id": c.ID(), "sequence": c.Sequence()})
		rs := c.Residues()
		for i, res := range rs {
			residues = append(residues, map[string]any{
				"chain_id": c.ID(), "id": res.ID(), "name": res.Name(), "position": i,
			})
			if i > 0 {
				links = append(links, map[string]any{"from": rs[i-1].ID(), "to": res.ID()})
			}
			for _, a := range res.Atoms() {
				residueAtoms = append(residueAtoms, atomRow(res.ID(), a))
			}
		}
		for _, s := range c.BetaStrands() {
			elements = append(elements, map[string]any{
				"chain_id": c.ID(), "kind": s.Kind().String(), "element_id": s.StrandID(),
				"sense": s.Sense(), "class": nil, "comment": "", "residue_ids": residueIDs(s.Residues()),
			})
		}
		for _, h := range c.Helices() {
			elements = append(elements, map[string]any{
				"chain_id": c.ID(), "kind": h.Kind().String(), "element_id": h.HelixID(),
				"sense": nil, "class": h.Class(), "comment": h.Comment(), "residue_ids": residueIDs(h.Residues()),
			})
		}
	}

	var molecules, moleculeAtoms []any
	for _, sm := range m.SmallMolecules() {
		molecules = append(molecules, map[string]any{"id": sm.ID(), "name": sm.Name()})
		for _, a := range sm.Atoms() {
			moleculeAtoms = append(moleculeAtoms, atomRow(sm.ID(), a))
		}
	}

	var bonds []any
	for _, a := range atoms {
		for _, b := range a.Bonds() {
			if a.ID() < b.ID() {
				bonds = append(bonds, []any{a.ID(), b.ID()})
			}
		}
	}

	add(cypherChains, "chains", chains)
	add(cypherResidues, "residues", residues)
	add(cypherResidueLinks, "links", links)
	add(cypherSmallMolecules, "small_molecules", molecules)
	add(cypherResidueAtoms, "atoms", residueAtoms)
	add(cypherMoleculeAtoms, "atoms", moleculeAtoms)
	add(cypherBonds, "bonds", bonds)
	add(cypherElements, "elements", elements)
	return stmts
}

func atomRow(parentID string, a *structure.Atom) map[string]any {
	return map[string]any{
		"parent_id": parentID, "id": a.ID(), "name": a.Name(), "element": a.Element(),
		"x": a.X(), "y": a.Y(), "z": a.Z(),
	}
}

func residueIDs(rs []*structure.Residue) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r.ID()
	}
	return out
}

//Personal.AI order the ending
