// Package core provides the mass model, sequence notation and spectrum types
// shared by the digestion, fragmentation, preprocessing and scoring packages.
package core

import (
	"fmt"
	"math"
	"strings"
)

// Physical constants (monoisotopic).
const (
	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
	C13Diff    = 1.00335483

	N14Mass    = 14.0030732
	N15Mass    = 15.0001088
	N15N14Diff = N15Mass - N14Mass
)

// Labelling selects the nitrogen isotope used throughout the element table.
type Labelling string

const (
	LabellingN14 Labelling = "N14"
	LabellingN15 Labelling = "N15"
)

// ParseLabelling validates a labelling name. Only N14 and N15 are accepted.
func ParseLabelling(s string) (Labelling, error) {
	switch l := Labelling(strings.ToUpper(strings.TrimSpace(s))); l {
	case LabellingN14, LabellingN15:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabelling, s)
}

// Composition stores the elemental composition of a residue.
type Composition struct {
	C, H, N, O, S, Se int
}

// Mass sums the composition against an element table.
func (c Composition) Mass(elements map[string]float64) float64 {
	return float64(c.C)*elements["C"] +
		float64(c.H)*elements["H"] +
		float64(c.N)*elements["N"] +
		float64(c.O)*elements["O"] +
		float64(c.S)*elements["S"] +
		float64(c.Se)*elements["Se"]
}

// ResidueCompositions maps amino acid one-letter codes to elemental composition
// (residue form, i.e. without water).
var ResidueCompositions = map[byte]Composition{
	'G': {C: 2, H: 3, N: 1, O: 1},
	'A': {C: 3, H: 5, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'V': {C: 5, H: 9, N: 1, O: 1},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'U': {C: 3, H: 7, N: 1, O: 2, Se: 1},
	'O': {C: 12, H: 21, N: 3, O: 3},
}

// N15Shift returns the mass difference between the N15 and N14 forms of a
// residue. Terminal pseudo-residues and unknown codes have no shift.
func N15Shift(aa byte) float64 {
	return float64(ResidueCompositions[aa].N) * N15N14Diff
}

var baseElements = map[string]float64{
	"-":   0,
	"H":   1.0078246,
	"He":  3.01603,
	"Li":  6.015121,
	"Be":  9.012182,
	"B":   10.012937,
	"C":   12.0000000,
	"N":   N14Mass,
	"O":   15.9949141,
	"F":   18.9984032,
	"Ne":  19.992435,
	"Na":  22.989767,
	"Mg":  23.985042,
	"Al":  26.981539,
	"Si":  27.976927,
	"P":   30.973762,
	"S":   31.972070,
	"Cl":  34.9688531,
	"Ar":  35.967545,
	"K":   38.963707,
	"Ca":  39.962591,
	"Sc":  44.955910,
	"Ti":  45.952629,
	"V":   49.947161,
	"Cr":  49.946046,
	"Mn":  54.938047,
	"Fe":  53.939612,
	"Co":  58.933198,
	"Ni":  57.935346,
	"Cu":  62.939598,
	"Zn":  63.929145,
	"Ga":  68.925580,
	"Ge":  69.924250,
	"As":  74.921594,
	"Se":  73.922475,
	"Br":  78.918336,
	"Kr":  77.914,
	"Rb":  84.911794,
	"Sr":  83.913430,
	"Y":   88.905849,
	"Zr":  89.904703,
	"Nb":  92.906377,
	"Mo":  91.906808,
	"Tc":  98.0,
	"Ru":  95.907599,
	"Rh":  102.905500,
	"Pd":  101.905634,
	"Ag":  106.905092,
	"Cd":  105.906461,
	"In":  112.904061,
	"Sn":  111.904826,
	"Sb":  120.903821,
	"Te":  119.904048,
	"I":   126.904473,
	"Xe":  123.905894,
	"Cs":  132.905429,
	"Ba":  129.906282,
	"La":  137.90711,
	"Ce":  135.907140,
	"Pr":  140.907647,
	"Nd":  141.907719,
	"Pm":  145.0,
	"Sm":  143.911998,
	"Eu":  150.919847,
	"Gd":  151.919786,
	"Tb":  158.925342,
	"Dy":  155.925277,
	"Ho":  164.930319,
	"Er":  161.928775,
	"Tm":  168.934212,
	"Yb":  167.933894,
	"Lu":  174.940770,
	"Hf":  173.940044,
	"Ta":  179.947462,
	"W":   179.946701,
	"Re":  184.952951,
	"Os":  183.952488,
	"Ir":  190.960584,
	"Pt":  189.959917,
	"Au":  196.966543,
	"Hg":  195.965807,
	"Tl":  202.972320,
	"Pb":  203.973020,
	"Bi":  208.980374,
	"Po":  209.0,
	"At":  210.0,
	"Rn":  222.0,
	"Fr":  223.0,
	"Ra":  226.025,
	"Th":  232.038054,
	"Pa":  231.0359,
	"U":   234.040946,
	"Np":  237.048,
	"Pu":  244.0,
	"Am":  243.0,
	"Cm":  247.0,
	"Bk":  247.0,
	"Cf":  251.0,
	"Es":  252.0,
	"Fm":  257.0,
	"Md":  258.0,
	"No":  259.0,
	"Lr":  260.0,
	"13C": 13.0033554,
	"15N": N15Mass,
	"18O": 17.9991616,
	"2H":  2.0141021,
}

// NewElementTable returns a fresh element table for the given labelling,
// including the Unimod composite bricks (Hex, HexNAc, Phos, ...). "Ac" is the
// acetyl brick, not actinium.
func NewElementTable(labelling Labelling) map[string]float64 {
	e := make(map[string]float64, len(baseElements)+16)
	for k, v := range baseElements {
		e[k] = v
	}
	if labelling == LabellingN15 {
		e["N"] = N15Mass
	}

	c, h, n, o, p, s := e["C"], e["H"], e["N"], e["O"], e["P"], e["S"]
	e["dHex"] = c*6 + o*4 + h*10
	e["Hep"] = c*7 + o*6 + h*12
	e["Hex"] = c*6 + o*5 + h*10
	e["HexA"] = c*6 + o*6 + h*8
	e["HexN"] = c*6 + o*4 + h*11 + n
	e["HexNAc"] = c*8 + o*5 + n + h*13
	e["Kdn"] = c*9 + h*14 + o*8
	e["Kdo"] = c*8 + h*12 + o*7
	e["NeuAc"] = c*11 + h*17 + o*8 + n
	e["NeuGc"] = c*11 + h*17 + o*9 + n
	e["Pent"] = c*5 + o*4 + h*8
	e["Phos"] = o*3 + h + p
	e["Sulf"] = s + o*3
	e["Water"] = h*2 + o
	e["Me"] = c + h*2
	e["Ac"] = c*2 + h*2 + o
	return e
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
