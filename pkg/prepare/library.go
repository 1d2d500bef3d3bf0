package prepare

import (
	"sort"
	"strings"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

// LibraryFilter cleans annotated library spectra before they are scored
// against their own peptide.
type LibraryFilter struct {
	TopN            int      // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64  // Keep only peaks above this % of base peak (0 = no cutoff)
	IonTypes        []string // Keep only specified ion types (nil = all)
}

// Apply applies all configured filters to a spectrum
func (c *LibraryFilter) Apply(spec *core.Spectrum) {
	RemoveZeroIntensityPeaks(spec)

	// Filter by ion type first
	if len(c.IonTypes) > 0 {
		c.filterByIonType(spec)
	}

	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	// Ensure peaks are sorted after all filtering
	spec.SortPeaks()
}

// filterByIonType keeps only peaks matching specified ion types
func (c *LibraryFilter) filterByIonType(spec *core.Spectrum) {
	var filtered core.PeakList
	for _, peak := range spec.Peaks {
		if matchesIonType(peak.Annotation, c.IonTypes) {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}

// matchesIonType checks if an annotation matches any of the allowed ion types
func matchesIonType(annotation string, ionTypes []string) bool {
	if annotation == "" {
		return false
	}
	for _, ionType := range ionTypes {
		// Match ion type at start of annotation (e.g., "y3", "b2^2")
		if strings.HasPrefix(annotation, ionType) {
			return true
		}
	}
	return false
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *LibraryFilter) filterByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	threshold := (c.IntensityCutoff / 100.0) * spec.Peaks.MaxIntensity()

	var filtered core.PeakList
	for _, peak := range spec.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *LibraryFilter) filterTopN(spec *core.Spectrum) {
	if len(spec.Peaks) <= c.TopN {
		return
	}

	peaks := spec.Peaks.Clone()
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})
	spec.Peaks = peaks[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	var filtered core.PeakList
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}
