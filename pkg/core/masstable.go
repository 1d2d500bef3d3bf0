package core

import (
	"fmt"
	"math"
	"sort"
)

// binEpsilon absorbs the rounding error of binToMz so that bin edges map back
// to their own bin.
const binEpsilon = 1e-9

// MassConfig holds the parameters of a MassTable.
type MassConfig struct {
	// FixMods maps residue codes (and 'n'/'c') to fixed modification masses.
	// Codes that are absent have no fixed modification.
	FixMods map[byte]float64

	Labelling Labelling

	// MS2Tolerance is half the fragment bin width.
	MS2Tolerance float64

	// BinOffset shifts bin boundaries; bins start at (k - (1-BinOffset)) * 2 * MS2Tolerance.
	BinOffset float64
}

// DefaultFixMods returns carbamidomethylated cysteine and nothing else.
func DefaultFixMods() map[byte]float64 {
	return map[byte]float64{'C': 57.02146}
}

// DefaultMassConfig mirrors the Comet low-resolution fragment settings.
func DefaultMassConfig() MassConfig {
	return MassConfig{
		FixMods:      DefaultFixMods(),
		Labelling:    LabellingN14,
		MS2Tolerance: 1.0005 * 0.5,
		BinOffset:    0.4,
	}
}

// Validate checks the configuration.
func (c MassConfig) Validate() error {
	if _, err := ParseLabelling(string(c.Labelling)); err != nil {
		return &ValidationError{Field: "Labelling", Message: err.Error()}
	}
	if !(c.MS2Tolerance > 0) || math.IsInf(c.MS2Tolerance, 0) {
		return &ValidationError{Field: "MS2Tolerance", Message: fmt.Sprintf("must be positive, got %v", c.MS2Tolerance)}
	}
	if math.IsNaN(c.BinOffset) || math.IsInf(c.BinOffset, 0) {
		return &ValidationError{Field: "BinOffset", Message: "must be finite"}
	}
	for aa, mass := range c.FixMods {
		if !IsAA(aa) && aa != 'n' && aa != 'c' {
			return &ValidationError{Field: "FixMods", Message: fmt.Sprintf("%q is not a residue or terminal", aa)}
		}
		if math.IsNaN(mass) || math.IsInf(mass, 0) {
			return &ValidationError{Field: "FixMods", Message: fmt.Sprintf("mass for %c must be finite", aa)}
		}
	}
	return nil
}

// MassTable is the residue mass model: per-residue masses including fixed
// modifications, the element table for the chosen labelling, and the fragment
// m/z binning. A MassTable is immutable after construction and safe for
// concurrent use.
type MassTable struct {
	elements map[string]float64
	masses   [128]float64
	known    [128]bool
	fixMods  [128]float64

	labelling         Labelling
	h2o               float64
	ms2Tolerance      float64
	inverse2Tolerance float64
	oneMinusBinOffset float64
}

// NewMassTable validates cfg and builds the mass table.
func NewMassTable(cfg MassConfig) (*MassTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	labelling, _ := ParseLabelling(string(cfg.Labelling))

	m := &MassTable{
		elements:          NewElementTable(labelling),
		labelling:         labelling,
		ms2Tolerance:      cfg.MS2Tolerance,
		inverse2Tolerance: 1 / (2 * cfg.MS2Tolerance),
		oneMinusBinOffset: 1 - cfg.BinOffset,
	}
	for aa, mass := range cfg.FixMods {
		m.fixMods[aa] = mass
	}
	for aa, comp := range ResidueCompositions {
		m.set(aa, comp.Mass(m.elements)+m.fixMods[aa])
	}
	m.set('n', m.fixMods['n'])
	m.set('c', m.fixMods['c'])
	m.set('#', m.masses['I'])
	m.set('$', (m.masses['Q']+m.masses['K'])*0.5)
	m.h2o = m.elements["H"]*2 + m.elements["O"]
	return m, nil
}

func (m *MassTable) set(aa byte, mass float64) {
	m.masses[aa] = mass
	m.known[aa] = true
}

// AAMass returns the mass of a residue code, fixed modification included.
func (m *MassTable) AAMass(aa byte) (float64, error) {
	if aa >= 128 || !m.known[aa] {
		return 0, fmt.Errorf("%w %q", ErrUnknownResidue, aa)
	}
	return m.masses[aa], nil
}

// FixMod returns the fixed modification applied to a residue code.
func (m *MassTable) FixMod(aa byte) float64 {
	if aa >= 128 {
		return 0
	}
	return m.fixMods[aa]
}

// ResidueMass sums the residue masses of an annotated sequence, including
// fixed modifications and inline deltas. The terminals count as residues.
func (m *MassTable) ResidueMass(seq string) (float64, error) {
	return m.residueMass(seq, true)
}

// ResidueMassWithoutFixMods is ResidueMass with every fixed modification
// removed. Used when the sequence already carries all modifications inline.
func (m *MassTable) ResidueMassWithoutFixMods(seq string) (float64, error) {
	return m.residueMass(seq, false)
}

func (m *MassTable) residueMass(seq string, withFixMods bool) (float64, error) {
	total := 0.0
	err := walkSequence(seq, func(code byte, delta float64) error {
		mass, err := m.AAMass(code)
		if err != nil {
			return fmt.Errorf("%s: %w", seq, err)
		}
		if !withFixMods {
			mass -= m.fixMods[code]
		}
		total += mass + delta
		return nil
	})
	return total, err
}

// PeptideMass returns the neutral mass of an annotated peptide.
func (m *MassTable) PeptideMass(seq string) (float64, error) {
	mass, err := m.ResidueMass(seq)
	if err != nil {
		return 0, err
	}
	return mass + m.h2o, nil
}

// H2O returns the water mass for the table's labelling.
func (m *MassTable) H2O() float64 {
	return m.h2o
}

// Element looks up an element or composite brick mass.
func (m *MassTable) Element(name string) (float64, bool) {
	mass, ok := m.elements[name]
	return mass, ok
}

// ElementNames returns the sorted element table keys.
func (m *MassTable) ElementNames() []string {
	names := make([]string, 0, len(m.elements))
	for k := range m.elements {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Labelling returns the nitrogen labelling of the table.
func (m *MassTable) Labelling() Labelling {
	return m.labelling
}

// MS2Tolerance returns the fragment tolerance (half the bin width).
func (m *MassTable) MS2Tolerance() float64 {
	return m.ms2Tolerance
}

// MzToBin maps an m/z to its fragment bin.
func (m *MassTable) MzToBin(mz float64) int {
	return int(math.Floor(mz*m.inverse2Tolerance + m.oneMinusBinOffset + binEpsilon))
}

// BinToMz returns the lower edge of a bin; MzToBin(BinToMz(b)) == b.
func (m *MassTable) BinToMz(bin int) float64 {
	return (float64(bin) - m.oneMinusBinOffset) * 2 * m.ms2Tolerance
}
