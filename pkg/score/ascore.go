package score

import (
	"fmt"
	"math"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/fragment"
	"github.com/fcyu/ProteomicsLibrary/pkg/prepare"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
)

// noAScore is returned by AScore when no level could be scored.
const noAScore = -9999.0

// Placement is one candidate localisation of the variable modifications
// together with the ion matrix of the peptide it produces.
type Placement struct {
	PTMs PTMMap
	Ions fragment.IonMatrix
}

// AScore is the largest AScoreSub over the top-N normalisation levels
// 1..topN. A nil second placement scores the first one alone.
func (s *Scorer) AScore(pl core.PeakList, topN int, first Placement, second *Placement, peptideLength int) (float64, error) {
	if err := checkTopN(topN); err != nil {
		return 0, err
	}
	best := noAScore
	for level := 1; level <= topN; level++ {
		a, err := s.AScoreSub(prepare.TopNStyleNormalization(pl, level), level, first, second, peptideLength)
		if err != nil {
			return 0, err
		}
		best = math.Max(best, a)
	}
	return best, nil
}

// AScoreSub scores one already normalised peak list. Only ions whose mass
// depends on the modification positions are counted. With a single placement
// the score is -10*log10(p) of its matched count. With two placements the
// outermost ions are dropped unless they are b1/y1 or the last ion, and the
// score is the difference of both -10*log10(p) values.
func (s *Scorer) AScoreSub(pl core.PeakList, level int, first Placement, second *Placement, peptideLength int) (float64, error) {
	residues := peptideLength - 2
	if err := checkPlacement(first, residues); err != nil {
		return 0, err
	}
	bIons, yIons := affectedIons(first.PTMs, residues)
	if second == nil {
		return s.localisationScore(pl, level, first.Ions, bIons, yIons)
	}

	if err := checkPlacement(*second, residues); err != nil {
		return 0, err
	}
	b2, y2 := affectedIons(second.PTMs, residues)
	for _, i := range b2.Indices() {
		bIons.Set(i)
	}
	for _, i := range y2.Indices() {
		yIons.Set(i)
	}
	trimOutermost(bIons, residues-1)
	trimOutermost(yIons, residues-1)

	a1, err := s.localisationScore(pl, level, first.Ions, bIons, yIons)
	if err != nil {
		return 0, err
	}
	a2, err := s.localisationScore(pl, level, second.Ions, bIons, yIons)
	if err != nil {
		return 0, err
	}
	return a1 - a2, nil
}

func (s *Scorer) localisationScore(pl core.PeakList, level int, ions fragment.IonMatrix, bIons, yIons *sparse.BoolVector) (float64, error) {
	matched := matchedIonSet(ions, pl, s.tolerance, bIons, yIons)
	p, err := s.binomial.ProbLargerThanOrEqualTo(bIons.Len()+yIons.Len(), len(matched), float64(level)*0.01)
	if err != nil {
		return 0, fmt.Errorf("ascore: %w", err)
	}
	return -10 * math.Log10(p), nil
}

func checkPlacement(p Placement, residues int) error {
	if residues < 2 || len(p.Ions) < 2 || p.Ions.Cols() != residues {
		return &core.ValidationError{Field: "Ions", Message: fmt.Sprintf("expected b and y rows of %d ions", residues)}
	}
	for c := range p.PTMs {
		if c.X < 0 || c.X > residues+1 {
			return &core.ValidationError{Field: "PTMs", Message: fmt.Sprintf("%s is outside a peptide of %d residues", c, residues)}
		}
	}
	return nil
}

// affectedIons returns the 1-based b and y ion numbers whose mass changes
// with a modification at each coordinate. Terminal positions affect b1 and
// the complementary y ion.
func affectedIons(ptms PTMMap, residues int) (bIons, yIons *sparse.BoolVector) {
	bIons, yIons = sparse.NewBoolVector(), sparse.NewBoolVector()
	for c := range ptms {
		switch x := c.X; {
		case x == 0 || x == 1:
			bIons.Set(1)
			yIons.Set(residues - 1)
		case x == residues || x == residues+1:
			bIons.Set(residues - 1)
			yIons.Set(1)
		default:
			bIons.Set(x - 1)
			bIons.Set(x)
			yIons.Set(residues - x)
			yIons.Set(residues - x + 1)
		}
	}
	return bIons, yIons
}

// trimOutermost removes the smallest ion unless it is ion 1 and the largest
// unless it is last.
func trimOutermost(ions *sparse.BoolVector, last int) {
	if ions.IsZero(1) {
		if idx := ions.Indices(); len(idx) > 0 {
			ions.Delete(idx[0])
		}
	}
	if ions.IsZero(last) {
		if idx := ions.Indices(); len(idx) > 0 {
			ions.Delete(idx[len(idx)-1])
		}
	}
}

// matchedIonSet labels the matched ions among bIons and yIons as "b<n>" and
// "y<n>".
func matchedIonSet(ions fragment.IonMatrix, pl core.PeakList, tol float64, bIons, yIons *sparse.BoolVector) map[string]struct{} {
	pl = sorted(pl)
	cols := ions.Cols()
	out := make(map[string]struct{})
	for _, ion := range bIons.Indices() {
		if _, ok := findPeak(pl, ions[0][ion-1], tol); ok {
			out[fmt.Sprintf("b%d", ion)] = struct{}{}
		}
	}
	for _, ion := range yIons.Indices() {
		if _, ok := findPeak(pl, ions[1][cols-ion], tol); ok {
			out[fmt.Sprintf("y%d", ion)] = struct{}{}
		}
	}
	return out
}
