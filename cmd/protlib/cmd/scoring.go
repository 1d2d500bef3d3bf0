package cmd

import (
	"fmt"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/fragment"
	"github.com/fcyu/ProteomicsLibrary/pkg/prepare"
	"github.com/fcyu/ProteomicsLibrary/pkg/score"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
	"github.com/fcyu/ProteomicsLibrary/pkg/stats"
	"github.com/fcyu/ProteomicsLibrary/pkg/writer/sqlite"
)

var (
	// Scoring flags, shared by search, score-library and xcorr
	topN              int
	binomialTopN      int
	maxFragmentCharge int
	flankingPeaks     bool
)

// scorer bundles the immutable scoring state shared by all workers.
type scorer struct {
	masses   *core.MassTable
	gen      *fragment.Generator
	prep     *prepare.Preparer
	binomial *score.Scorer
}

func newScorer(masses *core.MassTable, maxPeptideLength int) (*scorer, error) {
	if maxFragmentCharge < 1 {
		return nil, &core.ValidationError{Field: "MaxFragmentCharge", Message: fmt.Sprintf("%d must be positive", maxFragmentCharge)}
	}
	if binomialTopN < 1 || binomialTopN > 100 {
		return nil, &core.ValidationError{Field: "BinomialTopN", Message: fmt.Sprintf("%d is not in [1, 100]", binomialTopN)}
	}
	// trials are 2 * residues * charge
	capacity := 2*maxPeptideLength*maxFragmentCharge + 1
	return &scorer{
		masses:   masses,
		gen:      fragment.NewGenerator(masses),
		prep:     prepare.NewPreparer(masses),
		binomial: score.NewScorer(stats.NewBinomial(capacity), masses.MS2Tolerance()),
	}, nil
}

// fragmentCharge is the highest fragment charge scored for a precursor.
func fragmentCharge(precursorCharge int) int {
	return min(max(1, precursorCharge-1), maxFragmentCharge)
}

// prepared holds the per-spectrum peak lists every candidate is scored on.
type prepared struct {
	xcorr    *sparse.Vector
	topN     core.PeakList
	sqrt     core.PeakList
	charge   int
	precMass float64
}

func (s *scorer) prepare(spec *core.Spectrum) (*prepared, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	precMass := spec.PrecursorMass()
	filter := &prepare.PrecursorFilter{Charge: spec.Charge}

	xcorrPL, err := s.prep.CometStyle(spec.Peaks, precMass, filter, flankingPeaks)
	if err != nil {
		return nil, err
	}
	topPL, err := s.prep.TopNStyle(spec.Peaks, precMass, filter, topN)
	if err != nil {
		return nil, err
	}
	cleaned := prepare.RemoveCertainPeaks(spec.Peaks, precMass, *filter)
	return &prepared{
		xcorr:    xcorrPL,
		topN:     topPL,
		sqrt:     prepare.SqrtPL(cleaned.Below(precMass)),
		charge:   spec.Charge,
		precMass: precMass,
	}, nil
}

// xcorr scores one candidate on the XCorr vector only.
func (s *scorer) xcorr(p *prepared, peptide string) (float64, error) {
	return s.gen.PeptideXCorr(peptide, p.charge, p.xcorr)
}

// annotate computes every score of a candidate peptide.
func (s *scorer) annotate(p *prepared, peptide string, xcorr float64) (sqlite.PSM, error) {
	maxCharge := fragmentCharge(p.charge)
	ions, err := s.gen.BuildIonArray(peptide, maxCharge)
	if err != nil {
		return sqlite.PSM{}, err
	}
	mass, err := s.masses.PeptideMass(peptide)
	if err != nil {
		return sqlite.PSM{}, err
	}
	length := len(core.SequenceOnly(peptide)) + 2
	pValue, err := s.binomial.BinomialPValue(p.sqrt, binomialTopN, maxCharge, ions, length)
	if err != nil {
		return sqlite.PSM{}, err
	}

	tol := s.masses.MS2Tolerance()
	return sqlite.PSM{
		Peptide:                         peptide,
		PeptideMass:                     mass,
		XCorr:                           xcorr,
		IonFraction:                     score.IonFraction(ions, p.charge, p.topN, tol),
		MatchedHighestIntensityFraction: score.MatchedHighestIntensityFraction(ions, p.charge, p.topN, tol),
		ExplainedAAFraction:             score.ExplainedAAFraction(ions, p.charge, p.topN, tol),
		BinomialPValue:                  pValue,
	}, nil
}
