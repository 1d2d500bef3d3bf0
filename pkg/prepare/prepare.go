// Package prepare turns experimental peak lists into the normalised forms
// used for scoring: top-N windows for ion matching and the background
// subtracted XCorr vector.
package prepare

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
)

const (
	// Peaks at or below this m/z are dropped by RemoveCertainPeaks.
	lowMassCutoff = 50.0
	// Half width around the precursor m/z treated as unfragmented precursor.
	precursorTolerance = 1.5
	topNWindow         = 100.0
	cometWindows       = 10
	cometMaxIntensity  = 50.0
	cometNoiseFraction = 0.05
	xcorrOffset        = 75
)

// PrecursorFilter describes the precursor peaks to remove before
// normalisation. Peaks inside [MinClear, MaxClear] are kept regardless of
// their distance to the precursor.
type PrecursorFilter struct {
	Charge   int
	MinClear float64
	MaxClear float64
}

// Validate checks the precursor charge.
func (f PrecursorFilter) Validate() error {
	if f.Charge < 1 {
		return &core.ValidationError{Field: "Charge", Message: fmt.Sprintf("%d must be positive", f.Charge)}
	}
	return nil
}

// Preparer digitises peak lists with a mass table's binning. It is
// immutable and safe for concurrent use.
type Preparer struct {
	masses *core.MassTable
}

// NewPreparer returns a Preparer binning with masses.
func NewPreparer(masses *core.MassTable) *Preparer {
	return &Preparer{masses: masses}
}

func sorted(pl core.PeakList) core.PeakList {
	if pl.IsSorted() {
		return pl
	}
	out := pl.Clone()
	out.Sort()
	return out
}

// belowPrecursor keeps peaks with 0 <= m/z < precursorMass.
func belowPrecursor(pl core.PeakList, precursorMass float64) core.PeakList {
	pl = pl.Below(precursorMass)
	start := sort.Search(len(pl), func(i int) bool { return pl[i].MZ >= 0 })
	return pl[start:]
}

// RemoveCertainPeaks drops peaks at or below 50 m/z, peaks without positive
// intensity and peaks within 1.5 of the precursor m/z. The returned list is
// sorted and does not share storage with pl.
func RemoveCertainPeaks(pl core.PeakList, precursorMass float64, f PrecursorFilter) core.PeakList {
	precursorMz := precursorMass/float64(f.Charge) + core.ProtonMass
	out := make(core.PeakList, 0, len(pl))
	for _, p := range pl {
		if p.MZ <= lowMassCutoff || p.Intensity <= sparse.Epsilon {
			continue
		}
		inClear := p.MZ >= f.MinClear && p.MZ <= f.MaxClear
		if !inClear && math.Abs(p.MZ-precursorMz) <= precursorTolerance {
			continue
		}
		out = append(out, p)
	}
	out.Sort()
	return out
}

// SqrtPL square-roots intensities, dropping non-positive peaks.
func SqrtPL(pl core.PeakList) core.PeakList {
	out := make(core.PeakList, 0, len(pl))
	for _, p := range pl {
		if p.Intensity > sparse.Epsilon {
			p.Intensity = math.Sqrt(p.Intensity)
			out = append(out, p)
		}
	}
	return out
}

// TopNStyleNormalization keeps the topN most intense peaks of every 100 Da
// window, starting at the lowest m/z, and scales each window to a maximum of
// 1. The last window includes the highest m/z. Ties with the (topN+1)-th
// intensity are dropped.
func TopNStyleNormalization(pl core.PeakList, topN int) core.PeakList {
	pl = sorted(pl)
	if len(pl) == 0 {
		return core.PeakList{}
	}

	minMz, maxMz := pl[0].MZ, pl[len(pl)-1].MZ
	out := make(core.PeakList, 0, len(pl))
	for left := minMz; ; {
		right := math.Min(left+topNWindow, maxMz)
		last := right >= maxMz
		lo := sort.Search(len(pl), func(i int) bool { return pl[i].MZ >= left })
		hi := sort.Search(len(pl), func(i int) bool {
			if last {
				return pl[i].MZ > right
			}
			return pl[i].MZ >= right
		})
		out = append(out, normalizeWindow(pl[lo:hi], topN)...)
		if last {
			break
		}
		left = right
	}
	return out
}

func normalizeWindow(window core.PeakList, topN int) core.PeakList {
	if len(window) == 0 {
		return nil
	}
	intensities := window.Intensities()
	sort.Sort(sort.Reverse(sort.Float64Slice(intensities)))
	scale := 1 / intensities[0]
	threshold := 0.0
	if len(window) > topN {
		threshold = intensities[max(topN, 0)]
	}

	var out core.PeakList
	for _, p := range window {
		if p.Intensity > threshold {
			p.Intensity *= scale
			out = append(out, p)
		}
	}
	return out
}

// binned places intensities into fragment bins keeping the maximum per bin.
// Peaks in negative bins are ignored.
func (p *Preparer) binned(pl core.PeakList) []float64 {
	if len(pl) == 0 {
		return nil
	}
	size := p.masses.MzToBin(pl[len(pl)-1].MZ) + 1
	if size < 1 {
		return nil
	}
	arr := make([]float64, size)
	for _, peak := range pl {
		if math.Abs(peak.Intensity) <= sparse.Epsilon {
			continue
		}
		idx := p.masses.MzToBin(peak.MZ)
		if idx >= 0 && idx < size {
			arr[idx] = math.Max(arr[idx], peak.Intensity)
		}
	}
	return arr
}

// CometStyleNormalization bins the peak list and splits the bins into ten
// windows. Bins at or below 5% of the global maximum are cleared and each
// window is scaled to a maximum of 50.
func (p *Preparer) CometStyleNormalization(pl core.PeakList) []float64 {
	arr := p.binned(sorted(pl))
	if len(arr) == 0 {
		return nil
	}

	globalMax := math.Max(floats.Max(arr), 0)
	noise := cometNoiseFraction * globalMax
	out := make([]float64, len(arr))
	windowSize := len(arr)/cometWindows + 1
	for w := 0; w < cometWindows; w++ {
		start := w * windowSize
		if start >= len(arr) {
			break
		}
		end := min(start+windowSize, len(arr))
		windowMax := math.Max(floats.Max(arr[start:end]), 0)
		if windowMax <= 0 {
			continue
		}
		scale := cometMaxIntensity / windowMax
		for i := start; i < end; i++ {
			if arr[i] > noise {
				out[i] = arr[i] * scale
			}
		}
	}
	return out
}

// PrepareXCorr bins a peak list and applies XCorrTransform.
func (p *Preparer) PrepareXCorr(pl core.PeakList, flankingPeaks bool) *sparse.Vector {
	arr := p.binned(sorted(pl))
	if len(arr) == 0 {
		return sparse.NewVector()
	}
	return XCorrTransform(arr, flankingPeaks)
}

// XCorrTransform subtracts from every bin the mean of the 150 surrounding
// bins (75 each side, centre excluded) in a single pass. With flankingPeaks
// half of the neighbouring residuals is added. Bin 0 is never emitted.
func XCorrTransform(arr []float64, flankingPeaks bool) *sparse.Vector {
	const window = 2*xcorrOffset + 1
	const factor = 1.0 / (window - 1)

	n := len(arr)
	background := make([]float64, n)
	sum := 0.0
	for i := 0; i < xcorrOffset && i < n; i++ {
		sum += arr[i]
	}
	for i := xcorrOffset; i < n+xcorrOffset; i++ {
		if i < n {
			sum += arr[i]
		}
		if i >= window {
			sum -= arr[i-window]
		}
		background[i-xcorrOffset] = (sum - arr[i-xcorrOffset]) * factor
	}

	out := sparse.NewVector()
	for i := 1; i < n; i++ {
		v := arr[i] - background[i]
		if flankingPeaks {
			v += (arr[i-1] - background[i-1]) * 0.5
			if i+1 < n {
				v += (arr[i+1] - background[i+1]) * 0.5
			}
		}
		out.Put(i, v)
	}
	return out
}

// DigitizePL bins a peak list into a sparse vector keeping the maximum
// intensity per bin.
func (p *Preparer) DigitizePL(pl core.PeakList) *sparse.Vector {
	out := sparse.NewVector()
	for _, peak := range pl {
		if math.Abs(peak.Intensity) <= sparse.Epsilon {
			continue
		}
		idx := p.masses.MzToBin(peak.MZ)
		out.Put(idx, math.Max(peak.Intensity, out.Get(idx)))
	}
	return out
}

// TopNStyle prepares a spectrum for ion matching: optional precursor
// filtering, truncation below the precursor mass, square root and top-N
// normalisation. A nil filter skips precursor filtering.
func (p *Preparer) TopNStyle(pl core.PeakList, precursorMass float64, filter *PrecursorFilter, topN int) (core.PeakList, error) {
	if topN < 1 {
		return nil, &core.ValidationError{Field: "TopN", Message: fmt.Sprintf("%d must be positive", topN)}
	}
	pl, err := p.truncate(pl, precursorMass, filter)
	if err != nil {
		return nil, err
	}
	if len(pl) == 0 {
		return core.PeakList{}, nil
	}
	return TopNStyleNormalization(SqrtPL(pl), topN), nil
}

// CometStyle prepares the XCorr vector of a spectrum: optional precursor
// filtering, truncation below the precursor mass, square root, Comet
// normalisation and the XCorr transform. A nil filter skips precursor
// filtering.
func (p *Preparer) CometStyle(pl core.PeakList, precursorMass float64, filter *PrecursorFilter, flankingPeaks bool) (*sparse.Vector, error) {
	pl, err := p.truncate(pl, precursorMass, filter)
	if err != nil {
		return nil, err
	}
	if len(pl) == 0 {
		return sparse.NewVector(), nil
	}
	arr := p.CometStyleNormalization(SqrtPL(pl))
	if len(arr) == 0 {
		return sparse.NewVector(), nil
	}
	return XCorrTransform(arr, flankingPeaks), nil
}

func (p *Preparer) truncate(pl core.PeakList, precursorMass float64, filter *PrecursorFilter) (core.PeakList, error) {
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
		pl = RemoveCertainPeaks(pl, precursorMass, *filter)
	} else {
		pl = sorted(pl)
	}
	return belowPrecursor(pl, precursorMass), nil
}
