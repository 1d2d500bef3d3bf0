// Package score measures how well a theoretical ion matrix explains an
// observed peak list.
//
// Peak lists are expected in ascending m/z order. An ion is matched by the
// lowest m/z peak within the fragment tolerance.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/fragment"
	"github.com/fcyu/ProteomicsLibrary/pkg/prepare"
	"github.com/fcyu/ProteomicsLibrary/pkg/stats"
)

func sorted(pl core.PeakList) core.PeakList {
	if pl.IsSorted() {
		return pl
	}
	out := pl.Clone()
	out.Sort()
	return out
}

// findPeak returns the lowest m/z peak within tol of mz.
func findPeak(pl core.PeakList, mz, tol float64) (core.Peak, bool) {
	i := sort.Search(len(pl), func(i int) bool { return pl[i].MZ >= mz-2*tol })
	for ; i < len(pl) && pl[i].MZ <= mz+2*tol; i++ {
		if math.Abs(pl[i].MZ-mz) <= tol {
			return pl[i], true
		}
	}
	return core.Peak{}, false
}

// scoredRows is the number of ion rows used for a precursor charge: two for
// charge 1 and 2, otherwise b and y up to charge-1.
func scoredRows(ions fragment.IonMatrix, precursorCharge int) int {
	return max(2, min(len(ions), 2*(precursorCharge-1)))
}

// IonFraction is the fraction of theoretical ions matched by a peak.
func IonFraction(ions fragment.IonMatrix, precursorCharge int, pl core.PeakList, tol float64) float64 {
	pl = sorted(pl)
	rows := scoredRows(ions, precursorCharge)
	total := ions.Cols() * rows
	if total == 0 {
		return 0
	}
	matched := 0
	for i := 0; i < rows; i++ {
		for _, mz := range ions[i] {
			if _, ok := findPeak(pl, mz, tol); ok {
				matched++
			}
		}
	}
	return float64(matched) / float64(total)
}

// MatchedHighestIntensityFraction is the fraction of matched ions whose peak
// is among the most intense ones, where "most intense" means above the
// intensity at rank equal to the number of theoretical ions.
func MatchedHighestIntensityFraction(ions fragment.IonMatrix, precursorCharge int, pl core.PeakList, tol float64) float64 {
	pl = sorted(pl)
	rows := scoredRows(ions, precursorCharge)
	total := ions.Cols() * rows

	intensities := pl.Intensities()
	sort.Sort(sort.Reverse(sort.Float64Slice(intensities)))
	threshold := 0.0
	if total < len(intensities) {
		threshold = intensities[total]
	}

	matched, highest := 0, 0
	for i := 0; i < rows; i++ {
		for _, mz := range ions[i] {
			p, ok := findPeak(pl, mz, tol)
			if !ok {
				continue
			}
			matched++
			if p.Intensity > threshold {
				highest++
			}
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(highest) / float64(matched)
}

// ExplainedAAFraction is the fraction of residues whose both flanking
// backbone cleavages are evidenced. Both termini count as evidenced.
func ExplainedAAFraction(ions fragment.IonMatrix, precursorCharge int, pl core.PeakList, tol float64) float64 {
	pl = sorted(pl)
	cols := ions.Cols()
	if cols == 0 {
		return 0
	}

	// position k sits between residue k and k+1
	explained := map[int]bool{0: true, cols: true}
	rows := scoredRows(ions, precursorCharge)
	for i := 0; i < rows; i++ {
		for j, mz := range ions[i] {
			if _, ok := findPeak(pl, mz, tol); !ok {
				continue
			}
			if i%2 == 0 {
				explained[j+1] = true
			} else if j > 0 {
				explained[j] = true
			}
		}
	}

	positions := make([]int, 0, len(explained))
	for k := range explained {
		positions = append(positions, k)
	}
	sort.Ints(positions)
	n := 0
	for i := 1; i < len(positions); i++ {
		if positions[i]-positions[i-1] == 1 {
			n++
		}
	}
	return float64(n) / float64(cols)
}

// MatchedIonNum counts the ions of the first maxCharge charge states that are
// matched by a peak.
func MatchedIonNum(pl core.PeakList, maxCharge int, ions fragment.IonMatrix, tol float64) int {
	pl = sorted(pl)
	rows := min(2*maxCharge, len(ions))
	n := 0
	for i := 0; i < rows; i++ {
		for _, mz := range ions[i] {
			if _, ok := findPeak(pl, mz, tol); ok {
				n++
			}
		}
	}
	return n
}

// Scorer computes the probability based scores. It shares one binomial table
// and is safe for concurrent use.
type Scorer struct {
	binomial  *stats.Binomial
	tolerance float64
}

// NewScorer returns a Scorer matching fragments within tol. The binomial
// table must be larger than twice the longest peptide times the largest
// fragment charge scored.
func NewScorer(binomial *stats.Binomial, tol float64) *Scorer {
	return &Scorer{binomial: binomial, tolerance: tol}
}

// Tolerance returns the fragment matching tolerance.
func (s *Scorer) Tolerance() float64 {
	return s.tolerance
}

// BinomialPValue is the smallest upper-tail binomial probability of the
// matched ion count over the top-N normalisation levels 1..topN. The trial
// count is 2 * residues * maxCharge with success probability level/100.
// peptideLength counts the terminal pseudo residues.
func (s *Scorer) BinomialPValue(pl core.PeakList, topN, maxCharge int, ions fragment.IonMatrix, peptideLength int) (float64, error) {
	if err := checkTopN(topN); err != nil {
		return 0, err
	}
	best := 2.0
	for level := 1; level <= topN; level++ {
		p, err := s.BinomialPValueSub(prepare.TopNStyleNormalization(pl, level), level, maxCharge, ions, peptideLength)
		if err != nil {
			return 0, err
		}
		best = math.Min(best, p)
	}
	return best, nil
}

// BinomialPValueSub scores one already normalised peak list.
func (s *Scorer) BinomialPValueSub(pl core.PeakList, level, maxCharge int, ions fragment.IonMatrix, peptideLength int) (float64, error) {
	matched := MatchedIonNum(pl, maxCharge, ions, s.tolerance)
	p, err := s.binomial.ProbLargerThanOrEqualTo((peptideLength-2)*2*maxCharge, matched, float64(level)*0.01)
	if err != nil {
		return 0, fmt.Errorf("binomial p-value: %w", err)
	}
	return p, nil
}

func checkTopN(topN int) error {
	if topN < 1 || topN > 100 {
		return &core.ValidationError{Field: "TopN", Message: fmt.Sprintf("%d is not in [1, 100]", topN)}
	}
	return nil
}
