// Package fragment generates theoretical b/y fragment ladders and scores them
// against preprocessed spectra.
package fragment

import (
	"errors"
	"fmt"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
)

// ErrInvalidPeptide is returned for sequences that are not n...c annotated or
// hold no residue between the terminals.
var ErrInvalidPeptide = errors.New("invalid annotated peptide")

// IonMatrix holds fragment m/z values. Row 2(c-1) is the b ladder at charge
// c and row 2(c-1)+1 the y ladder; column j of the b row is the fragment
// ending at residue j+1, column j of the y row is the fragment starting there.
type IonMatrix [][]float64

// MaxCharge returns the highest fragment charge in the matrix.
func (m IonMatrix) MaxCharge() int {
	return len(m) / 2
}

// Cols returns the number of residues covered.
func (m IonMatrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// B returns the b ladder at the given charge.
func (m IonMatrix) B(charge int) []float64 {
	return m[2*(charge-1)]
}

// Y returns the y ladder at the given charge.
func (m IonMatrix) Y(charge int) []float64 {
	return m[2*(charge-1)+1]
}

func newIonMatrix(maxCharge, cols int) IonMatrix {
	m := make(IonMatrix, 2*maxCharge)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Generator builds fragment ladders from a mass table. It is immutable and
// safe for concurrent use.
type Generator struct {
	masses *core.MassTable
}

// NewGenerator returns a Generator using masses.
func NewGenerator(masses *core.MassTable) *Generator {
	return &Generator{masses: masses}
}

// MassTable returns the underlying mass table.
func (g *Generator) MassTable() *core.MassTable {
	return g.masses
}

// residueMasses resolves each annotated residue (terminals included) to its
// mass plus inline delta.
func (g *Generator) residueMasses(seq string) ([]float64, error) {
	aas, err := core.ParseSequence(seq)
	if err != nil {
		return nil, err
	}
	if len(aas) < 3 || aas[0].Code != 'n' || aas[len(aas)-1].Code != 'c' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeptide, seq)
	}
	out := make([]float64, len(aas))
	for i, aa := range aas {
		mass, err := g.masses.AAMass(aa.Code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", seq, err)
		}
		out[i] = mass + aa.Delta
	}
	return out, nil
}

func checkCharge(maxCharge int) error {
	if maxCharge < 1 {
		return &core.ValidationError{Field: "MaxCharge", Message: fmt.Sprintf("%d must be positive", maxCharge)}
	}
	return nil
}

// BuildIonArray returns the b/y ladders of an n...c annotated peptide for
// charges 1..maxCharge. The N-terminal modification folds into the first b
// ion, the C-terminal one into the last b ion, and y ions are taken from the
// full precursor by subtraction.
func (g *Generator) BuildIonArray(seq string, maxCharge int) (IonMatrix, error) {
	if err := checkCharge(maxCharge); err != nil {
		return nil, err
	}
	res, err := g.residueMasses(seq)
	if err != nil {
		return nil, err
	}

	n := len(res)
	m := newIonMatrix(maxCharge, n-2)
	put := func(row, col int, mass float64) {
		for charge := 1; charge <= maxCharge; charge++ {
			m[2*(charge-1)+row][col] = mass/float64(charge) + core.ProtonMass
		}
	}

	b := res[0]
	for i := 1; i < n-2; i++ {
		b += res[i]
		put(0, i-1, b)
	}
	b += res[n-2] + res[n-1]
	put(0, n-3, b)

	y := b + g.masses.H2O()
	put(1, 0, y)
	if n-2 > 1 {
		y -= res[0] + res[1]
		put(1, 1, y)
	}
	for i := 2; i < n-2; i++ {
		y -= res[i]
		put(1, i, y)
	}
	return m, nil
}

// XCorr sums the preprocessed spectrum over the fragment bins. Charges up to
// precursorCharge-1 are used (charge 1 for singly charged precursors).
func (g *Generator) XCorr(ions IonMatrix, precursorCharge int, xcorrPL *sparse.Vector) float64 {
	rows := min(len(ions)/2, precursorCharge-1) * 2
	if precursorCharge == 1 {
		rows = 2
	}
	rows = min(rows, len(ions))

	xcorr := 0.0
	for i := 0; i < rows; i++ {
		for _, mz := range ions[i] {
			xcorr += xcorrPL.Get(g.masses.MzToBin(mz))
		}
	}
	return xcorr * 0.25
}

// PeptideXCorr builds the ion matrix for seq and scores it in one call.
func (g *Generator) PeptideXCorr(seq string, precursorCharge int, xcorrPL *sparse.Vector) (float64, error) {
	maxCharge := max(1, precursorCharge-1)
	ions, err := g.BuildIonArray(seq, maxCharge)
	if err != nil {
		return 0, err
	}
	return g.XCorr(ions, precursorCharge, xcorrPL), nil
}
