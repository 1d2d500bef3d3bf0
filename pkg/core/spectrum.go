package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Spectrum represents a single MS2 spectrum: an experimental scan from an
// MGF/mzML file, or a library entry carrying its peptide annotation.
type Spectrum struct {
	// Required fields
	Charge      int      // Precursor charge state
	PrecursorMZ float64  // Precursor m/z
	Peaks       PeakList // Fragment peaks

	// Scan identity
	Title   string
	ScanNum int
	MSLevel int

	// Library annotation
	Sequence      string // Bare peptide sequence
	Modifications []Modification

	// Optional metadata
	RetentionTime     *float64 // seconds, or iRT for libraries
	CollisionEnergy   *float64 // Normalized collision energy
	FragmentationMode string   // HCD, CID, etc.

	// Internal tracking
	SourceFile   string
	SourceFormat string // mgf, mzml, msp
}

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term, len(seq) for C-term
	Name     string // Modification name (e.g., "Carbamidomethyl", "Oxidation")
}

// Validate checks that a spectrum can be preprocessed and scored.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if s.PrecursorMZ <= 0 {
		errs = append(errs, "precursor m/z must be positive")
	}
	if len(s.Peaks) == 0 {
		errs = append(errs, "at least one peak is required")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
	}

	if !s.Peaks.IsSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	for _, mod := range s.Modifications {
		if mod.Position < -1 || mod.Position > len(s.Sequence) {
			errs = append(errs, fmt.Sprintf("modification %s at %d is outside the sequence", mod.Name, mod.Position))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// SortPeaks sorts peaks by m/z in ascending order.
func (s *Spectrum) SortPeaks() {
	s.Peaks.Sort()
}

// PrecursorMass returns the neutral precursor mass.
func (s *Spectrum) PrecursorMass() float64 {
	return (s.PrecursorMZ - ProtonMass) * float64(s.Charge)
}

// TotalModMass returns the sum of all modification masses.
func (s *Spectrum) TotalModMass() float64 {
	total := 0.0
	for _, mod := range s.Modifications {
		total += mod.Mass
	}
	return total
}

// AnnotatedSequence renders the library annotation in the n/c notation used
// by the mass table, e.g. "n(42.011)PEPT(79.966)IDEc". Fixed modifications
// are expected to be part of Modifications; use ResidueMassWithoutFixMods on
// the result.
func (s *Spectrum) AnnotatedSequence() string {
	deltas := make([]float64, len(s.Sequence)+2)
	for _, mod := range s.Modifications {
		switch {
		case mod.Position < 0:
			deltas[0] += mod.Mass
		case mod.Position >= len(s.Sequence):
			deltas[len(deltas)-1] += mod.Mass
		default:
			deltas[mod.Position+1] += mod.Mass
		}
	}
	aas := make([]AA, 0, len(deltas))
	aas = append(aas, AA{Code: 'n', Delta: deltas[0]})
	for i := 0; i < len(s.Sequence); i++ {
		aas = append(aas, AA{Code: s.Sequence[i], Delta: deltas[i+1]})
	}
	aas = append(aas, AA{Code: 'c', Delta: deltas[len(deltas)-1]})
	return FormatSequence(aas)
}

// ModString returns a string representation of modifications in format "mass@pos;mass@pos;..."
func (s *Spectrum) ModString() string {
	if len(s.Modifications) == 0 {
		return ""
	}

	mods := append([]Modification(nil), s.Modifications...)
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Position < mods[j].Position })
	var parts []string
	for _, mod := range mods {
		parts = append(parts, fmt.Sprintf("%.6f@%d", mod.Mass, mod.Position))
	}
	return strings.Join(parts, ";")
}

// Name returns "Sequence/Charge" for library entries and the title otherwise.
func (s *Spectrum) Name() string {
	if s.Sequence == "" {
		if s.Title != "" {
			return s.Title
		}
		return fmt.Sprintf("scan=%d", s.ScanNum)
	}
	return fmt.Sprintf("%s/%d", s.Sequence, s.Charge)
}
