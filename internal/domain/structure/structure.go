// Package structure is the structural graph of a biological macromolecule:
// atoms grouped into residues and small molecules, residues into chains and
// secondary-structure elements, and chains plus small molecules into a model.
//
// Ownership always runs container → member. Members keep a plain pointer back
// to their container; only the container writes that pointer. Every
// constructor and mutator validates its input completely before touching any
// state, so a failed call leaves the graph exactly as it was.
//
// The graph is not safe for concurrent mutation. Callers that share a Model
// between goroutines must serialise access themselves.
package structure

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Kind tags the concrete type behind a Structure.
type Kind int

const (
	KindResidue Kind = iota + 1
	KindSmallMolecule
	KindResiduicSequence
	KindChain
	KindBetaStrand
	KindHelix
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindResidue:
		return "Residue"
	case KindSmallMolecule:
		return "SmallMolecule"
	case KindResiduicSequence:
		return "ResiduicSequence"
	case KindChain:
		return "Chain"
	case KindBetaStrand:
		return "BetaStrand"
	case KindHelix:
		return "Helix"
	case KindModel:
		return "Model"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Structure is the closed set of entities that own or reach atoms. Only types
// in this package can implement it.
type Structure interface {
	Kind() Kind
	Atoms() []*Atom
	isStructure()
}

// kindName describes a value for type-kind error messages.
func kindName(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return "<nil>"
	case Structure:
		if isNilStructure(s) {
			return fmt.Sprintf("nil %T", s)
		}
		return s.Kind().String()
	}
	return fmt.Sprintf("%T", v)
}

// isNilStructure catches typed nil pointers hidden inside the interface.
func isNilStructure(s Structure) bool {
	switch v := s.(type) {
	case nil:
		return true
	case *Residue:
		return v == nil
	case *SmallMolecule:
		return v == nil
	case *ResiduicSequence:
		return v == nil
	case *Chain:
		return v == nil
	case *BetaStrand:
		return v == nil
	case *Helix:
		return v == nil
	case *Model:
		return v == nil
	}
	return false
}

// IntegerValue checks that v holds an integer and returns it. Producers that
// hand over loosely typed values (decoded JSON, map records) go through here
// so that a string "1" or a nil never silently becomes a number.
//
// Accepted: Go integer types, json.Number holding an integer, and float64 or
// float32 values with no fractional part (plain encoding/json output).
func IntegerValue(field string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		if x > math.MaxInt || x < math.MinInt {
			return 0, errors.ValueRange(fmt.Sprintf("%s %d overflows int", field, x))
		}
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint:
		if uint64(x) > math.MaxInt {
			return 0, errors.ValueRange(fmt.Sprintf("%s %d overflows int", field, x))
		}
		return int(x), nil
	case uint64:
		if x > math.MaxInt {
			return 0, errors.ValueRange(fmt.Sprintf("%s %d overflows int", field, x))
		}
		return int(x), nil
	case float32:
		return integralFloat(field, float64(x))
	case float64:
		return integralFloat(field, x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, errors.TypeKind(fmt.Sprintf("%s must be an integer, not %q", field, x.String()))
		}
		return IntegerValue(field, n)
	}
	return 0, errors.TypeKind(fmt.Sprintf("%s must be an integer, not %s", field, describe(v)))
}

func integralFloat(field string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.TypeKind(fmt.Sprintf("%s must be an integer, not %v", field, f))
	}
	// 1<<63 is the first float64 above MaxInt64.
	if f >= 1<<63 || f < math.MinInt64 {
		return 0, errors.ValueRange(fmt.Sprintf("%s %v overflows int", field, f))
	}
	return int(f), nil
}

func describe(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("string %q", x)
	}
	return fmt.Sprintf("%T %v", v, v)
}

//Personal.AI order the ending
