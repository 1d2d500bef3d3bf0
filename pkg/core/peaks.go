package core

import "sort"

// Peak represents a single m/z, intensity pair with optional metadata.
type Peak struct {
	MZ         float64
	Intensity  float64
	Annotation string // Ion annotation (e.g., "y3", "b2^2")
	Charge     int    // Fragment charge (if available)
}

// PeakList is a peak list ordered by ascending m/z. Functions that take a
// PeakList assume the order; use Sort after building one by hand.
type PeakList []Peak

// NewPeakList builds a sorted peak list from an {m/z: intensity} map.
func NewPeakList(m map[float64]float64) PeakList {
	pl := make(PeakList, 0, len(m))
	for mz, intensity := range m {
		pl = append(pl, Peak{MZ: mz, Intensity: intensity})
	}
	pl.Sort()
	return pl
}

// Sort orders the peaks by m/z.
func (pl PeakList) Sort() {
	sort.SliceStable(pl, func(i, j int) bool { return pl[i].MZ < pl[j].MZ })
}

// IsSorted reports whether the peaks are in ascending m/z order.
func (pl PeakList) IsSorted() bool {
	for i := 1; i < len(pl); i++ {
		if pl[i].MZ < pl[i-1].MZ {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (pl PeakList) Clone() PeakList {
	return append(PeakList(nil), pl...)
}

// Below returns the prefix of peaks with m/z strictly below mz. The result
// shares storage with pl.
func (pl PeakList) Below(mz float64) PeakList {
	i := sort.Search(len(pl), func(i int) bool { return pl[i].MZ >= mz })
	return pl[:i]
}

// MaxIntensity returns the largest intensity, or 0 for an empty list.
func (pl PeakList) MaxIntensity() float64 {
	max := 0.0
	for i, p := range pl {
		if i == 0 || p.Intensity > max {
			max = p.Intensity
		}
	}
	return max
}

// Intensities returns the intensities in m/z order.
func (pl PeakList) Intensities() []float64 {
	out := make([]float64, len(pl))
	for i, p := range pl {
		out[i] = p.Intensity
	}
	return out
}

// Map converts the list to {m/z: intensity}.
func (pl PeakList) Map() map[float64]float64 {
	m := make(map[float64]float64, len(pl))
	for _, p := range pl {
		m[p.MZ] = p.Intensity
	}
	return m
}
