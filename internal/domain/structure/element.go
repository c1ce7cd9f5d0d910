package structure

import (
	"strings"
	"unicode"
)

// Standard atomic weights (IUPAC, abridged) for the elements that turn up in
// macromolecular entries.
var atomicMasses = map[string]float64{
	"H": 1.008, "He": 4.0026, "Li": 6.94, "Be": 9.0122, "B": 10.81,
	"C": 12.011, "N": 14.007, "O": 15.999, "F": 18.998, "Ne": 20.180,
	"Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.085, "P": 30.974,
	"S": 32.06, "Cl": 35.45, "Ar": 39.948, "K": 39.098, "Ca": 40.078,
	"V": 50.942, "Cr": 51.996, "Mn": 54.938, "Fe": 55.845, "Co": 58.933,
	"Ni": 58.693, "Cu": 63.546, "Zn": 65.38, "Ga": 69.723, "As": 74.922,
	"Se": 78.971, "Br": 79.904, "Rb": 85.468, "Sr": 87.62, "Mo": 95.95,
	"Ag": 107.87, "Cd": 112.41, "I": 126.90, "Cs": 132.91, "Ba": 137.33,
	"W": 183.84, "Pt": 195.08, "Au": 196.97, "Hg": 200.59, "Pb": 207.2,
	"U": 238.03,
}

// Single-bond covalent radii in ångström (Cordero et al. 2008).
var covalentRadii = map[string]float64{
	"H": 0.31, "He": 0.28, "Li": 1.28, "Be": 0.96, "B": 0.84,
	"C": 0.76, "N": 0.71, "O": 0.66, "F": 0.57, "Ne": 0.58,
	"Na": 1.66, "Mg": 1.41, "Al": 1.21, "Si": 1.11, "P": 1.07,
	"S": 1.05, "Cl": 1.02, "Ar": 1.06, "K": 2.03, "Ca": 1.76,
	"V": 1.53, "Cr": 1.39, "Mn": 1.39, "Fe": 1.32, "Co": 1.26,
	"Ni": 1.24, "Cu": 1.32, "Zn": 1.22, "Ga": 1.22, "As": 1.19,
	"Se": 1.20, "Br": 1.20, "Rb": 2.20, "Sr": 1.95, "Mo": 1.54,
	"Ag": 1.45, "Cd": 1.44, "I": 1.39, "Cs": 2.44, "Ba": 2.15,
	"W": 1.62, "Pt": 1.36, "Au": 1.36, "Hg": 1.32, "Pb": 1.46,
	"U": 1.96,
}

// NormalizeElement trims and capitalises an element symbol, so "FE", " fe"
// and "Fe" all become "Fe".
func NormalizeElement(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	runes := []rune(strings.ToLower(symbol))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// AtomicMass returns the standard atomic weight of an element, or 0 for
// symbols outside the table.
func AtomicMass(element string) float64 {
	return atomicMasses[NormalizeElement(element)]
}

// CovalentRadius returns the covalent radius of an element and whether it is known.
func CovalentRadius(element string) (float64, bool) {
	r, ok := covalentRadii[NormalizeElement(element)]
	return r, ok
}

//Personal.AI order the ending
