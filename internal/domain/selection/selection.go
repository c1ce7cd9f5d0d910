// Package selection compiles atom selection expressions such as
//
//	chain A and (name CA or element N) and not resname HOH
//	within 5.0 of resname LIG
//
// into Selectors that pick atoms out of a structure.Model.
//
// Fields: chain, name, element, resname (residue or small-molecule name),
// residue (residue id), molecule (small-molecule id) and id (atom id). Each
// takes one or more values and matches any of them. "and" binds tighter than
// "or"; "not" binds tightest.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/pkg/errors"
)

// Selector is a compiled expression. It holds no per-model state and can be
// shared between goroutines.
type Selector struct {
	expr string
	root node
}

// Compile parses expr. Any syntax problem is reported as
// errors.ErrCodeSelectionSyntax.
func Compile(expr string) (*Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.SelectionSyntax("selection expression is empty")
	}
	ast, err := selectionParser.ParseString("", expr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSelectionSyntax, fmt.Sprintf("cannot parse selection %q", expr)).
			WithDetail(err.Error())
	}
	root, err := compileOr(ast)
	if err != nil {
		return nil, err
	}
	return &Selector{expr: expr, root: root}, nil
}

// MustCompile is Compile for expressions known at build time.
func MustCompile(expr string) *Selector {
	s, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Selector) String() string { return s.expr }

// Select returns the model's reachable atoms that match, in atom-id order.
func (s *Selector) Select(m *structure.Model) []*structure.Atom {
	if m == nil {
		return []*structure.Atom{}
	}
	return s.Filter(m.ReachableAtoms())
}

// Filter applies the selector to an arbitrary atom set, which also serves as
// the universe for "not", "all" and "within". Input order is preserved.
func (s *Selector) Filter(atoms []*structure.Atom) []*structure.Atom {
	hits := s.root.eval(atoms)
	out := make([]*structure.Atom, 0, len(hits))
	for _, a := range atoms {
		if _, ok := hits[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Count is len(Select(m)).
func (s *Selector) Count(m *structure.Model) int {
	if m == nil {
		return 0
	}
	return len(s.root.eval(m.ReachableAtoms()))
}

// ─────────────────────────────────────────────────────────────────────────────
// Compilation
// ─────────────────────────────────────────────────────────────────────────────

func compileOr(e *orExpr) (node, error) {
	terms := make([]node, 0, len(e.Terms))
	for _, t := range e.Terms {
		n, err := compileAnd(t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return orNode(terms), nil
}

func compileAnd(e *andExpr) (node, error) {
	terms := make([]node, 0, len(e.Terms))
	for _, t := range e.Terms {
		n, err := compileUnary(t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return andNode(terms), nil
}

func compileUnary(e *unaryExpr) (node, error) {
	if e.Not != nil {
		inner, err := compileUnary(e.Not)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return compilePrimary(e.Primary)
}

func compilePrimary(e *primaryExpr) (node, error) {
	switch {
	case e.Group != nil:
		return compileOr(e.Group)
	case e.All:
		return matchNode(func(*structure.Atom) bool { return true }), nil
	case e.None:
		return matchNode(func(*structure.Atom) bool { return false }), nil
	case e.Hetero:
		return matchNode(func(a *structure.Atom) bool { return a.SmallMolecule() != nil }), nil
	case e.Within != nil:
		if e.Within.Cutoff < 0 {
			return nil, errors.SelectionSyntax(fmt.Sprintf("within cutoff must not be negative, got %v", e.Within.Cutoff))
		}
		target, err := compileUnary(e.Within.Target)
		if err != nil {
			return nil, err
		}
		return withinNode{cutoff: e.Within.Cutoff, target: target}, nil
	case e.Field != nil:
		return compileField(e.Field)
	}
	return nil, errors.SelectionSyntax("empty selection term")
}

func compileField(f *fieldExpr) (node, error) {
	values := make(map[string]struct{}, len(f.Values))
	for _, v := range f.Values {
		values[v] = struct{}{}
	}
	has := func(v string) bool {
		_, ok := values[v]
		return ok
	}

	switch f.Field {
	case "chain":
		return matchNode(func(a *structure.Atom) bool {
			c := a.Chain()
			return c != nil && has(c.ID())
		}), nil
	case "name":
		return matchNode(func(a *structure.Atom) bool { return has(a.Name()) }), nil
	case "element":
		elements := make(map[string]struct{}, len(values))
		for v := range values {
			elements[structure.NormalizeElement(v)] = struct{}{}
		}
		return matchNode(func(a *structure.Atom) bool {
			_, ok := elements[a.Element()]
			return ok
		}), nil
	case "resname":
		return matchNode(func(a *structure.Atom) bool {
			if r := a.Residue(); r != nil {
				return has(r.Name())
			}
			if sm := a.SmallMolecule(); sm != nil {
				return has(sm.Name())
			}
			return false
		}), nil
	case "residue":
		return matchNode(func(a *structure.Atom) bool {
			r := a.Residue()
			return r != nil && has(r.ID())
		}), nil
	case "molecule":
		return matchNode(func(a *structure.Atom) bool {
			sm := a.SmallMolecule()
			return sm != nil && has(sm.ID())
		}), nil
	case "id":
		ids := make(map[int]struct{}, len(values))
		for v := range values {
			id, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.SelectionSyntax(fmt.Sprintf("id expects integers, got %q", v))
			}
			ids[id] = struct{}{}
		}
		return matchNode(func(a *structure.Atom) bool {
			_, ok := ids[a.ID()]
			return ok
		}), nil
	}
	return nil, errors.SelectionSyntax(fmt.Sprintf("unknown field %q", f.Field))
}

// ─────────────────────────────────────────────────────────────────────────────
// Evaluation
// ─────────────────────────────────────────────────────────────────────────────

type atomSet map[*structure.Atom]struct{}

type node interface {
	eval(universe []*structure.Atom) atomSet
}

type matchNode func(*structure.Atom) bool

func (n matchNode) eval(universe []*structure.Atom) atomSet {
	out := make(atomSet)
	for _, a := range universe {
		if n(a) {
			out[a] = struct{}{}
		}
	}
	return out
}

type andNode []node

func (n andNode) eval(universe []*structure.Atom) atomSet {
	out := n[0].eval(universe)
	for _, term := range n[1:] {
		if len(out) == 0 {
			break
		}
		next := term.eval(universe)
		for a := range out {
			if _, ok := next[a]; !ok {
				delete(out, a)
			}
		}
	}
	return out
}

type orNode []node

func (n orNode) eval(universe []*structure.Atom) atomSet {
	out := make(atomSet)
	for _, term := range n {
		for a := range term.eval(universe) {
			out[a] = struct{}{}
		}
	}
	return out
}

type notNode struct {
	inner node
}

func (n notNode) eval(universe []*structure.Atom) atomSet {
	excluded := n.inner.eval(universe)
	out := make(atomSet, len(universe)-len(excluded))
	for _, a := range universe {
		if _, ok := excluded[a]; !ok {
			out[a] = struct{}{}
		}
	}
	return out
}

// withinNode selects every atom no farther than cutoff from any target atom,
// the targets included.
type withinNode struct {
	cutoff float64
	target node
}

func (n withinNode) eval(universe []*structure.Atom) atomSet {
	targets := n.target.eval(universe)
	out := make(atomSet, len(targets))
	for _, a := range universe {
		p := a.Position()
		for t := range targets {
			if p.Distance(t.Position()) <= n.cutoff {
				out[a] = struct{}{}
				break
			}
		}
	}
	return out
}

//Personal.AI order the ending
