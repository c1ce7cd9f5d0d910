package structure

// One-letter codes for residue names. Three-letter names are amino acids,
// two-letter names deoxyribonucleotides, one-letter names ribonucleotides.
var aminoCodes = map[string]byte{
	"UNK": 'X',
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEC": 'U', "PYL": 'O',
	"MSE": 'M',
	"ASX": 'B', "GLX": 'Z',
}

var deoxyCodes = map[string]byte{
	"DA": 'A', "DC": 'C', "DG": 'G', "DT": 'T', "DI": 'I', "DU": 'U',
}

var riboCodes = map[string]byte{
	"A": 'A', "C": 'C', "G": 'G', "U": 'U', "I": 'I', "T": 'T',
}

// OneLetterCode maps a residue name to its one-letter code, 'X' when unknown.
func OneLetterCode(name string) byte {
	var table map[string]byte
	switch len(name) {
	case 3:
		table = aminoCodes
	case 2:
		table = deoxyCodes
	case 1:
		table = riboCodes
	default:
		return 'X'
	}
	if c, ok := table[name]; ok {
		return c
	}
	return 'X'
}

//Personal.AI order the ending
