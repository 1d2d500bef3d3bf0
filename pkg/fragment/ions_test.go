package fragment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	masses, err := core.NewMassTable(core.DefaultMassConfig())
	require.NoError(t, err)
	return NewGenerator(masses)
}

func TestBuildIonArray(t *testing.T) {
	g := newGenerator(t)

	ions, err := g.BuildIonArray("nPEPTIDEKc", 2)
	require.NoError(t, err)
	require.Len(t, ions, 4)
	assert.Equal(t, 2, ions.MaxCharge())
	assert.Equal(t, 8, ions.Cols())

	want := IonMatrix{
		{98.060036, 227.102624, 324.155383, 425.203057, 538.287115, 653.314053, 782.356641, 910.451597},
		{928.46216, 831.4094, 702.366813, 605.314053, 504.26638, 391.182322, 276.155383, 147.112795},
		{49.533656, 114.05495, 162.58133, 213.105167, 269.647196, 327.160665, 391.681959, 455.729437},
		{464.734718, 416.208338, 351.687045, 303.160665, 252.636828, 196.094799, 138.58133, 74.060036},
	}
	for row := range want {
		assert.InDeltaSlice(t, want[row], ions[row], 1e-5, "row %d", row)
	}
	assert.Equal(t, ions[2], ions.B(2))
	assert.Equal(t, ions[1], ions.Y(1))
}

func TestBuildIonArrayTerminalModifications(t *testing.T) {
	g := newGenerator(t)

	ions, err := g.BuildIonArray("n(42.010565)PEPT(79.966331)IDEKc", 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{140.070601, 269.113189, 366.165948, 547.179953, 660.264011, 775.290949, 904.333537, 1032.428493}, ions.B(1), 1e-5)
	assert.InDeltaSlice(t, []float64{1050.439056, 911.375731, 782.333144, 685.280384, 504.26638, 391.182322, 276.155383, 147.112795}, ions.Y(1), 1e-5)
}

func TestBuildIonArrayShortPeptides(t *testing.T) {
	g := newGenerator(t)

	ions, err := g.BuildIonArray("nGKc", 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{58.028738, 186.123693}, ions.B(1), 1e-5)
	assert.InDeltaSlice(t, []float64{204.134257, 147.112795}, ions.Y(1), 1e-5)

	ions, err = g.BuildIonArray("nKc", 1)
	require.NoError(t, err)
	require.Equal(t, 1, ions.Cols())
	// single residue: last b and whole y only
	assert.InDelta(t, ions.B(1)[0]+g.MassTable().H2O(), ions.Y(1)[0], 1e-9)
}

func TestBuildIonArrayErrors(t *testing.T) {
	g := newGenerator(t)

	tests := []struct {
		name    string
		seq     string
		charge  int
		wantErr error
	}{
		{"no residue", "nc", 1, ErrInvalidPeptide},
		{"missing terminals", "PEPTIDE", 1, ErrInvalidPeptide},
		{"unknown residue", "nPEBTIDEc", 1, core.ErrUnknownResidue},
		{"lowercase residue", "nPEPxTIDEc", 1, core.ErrUnknownResidue},
		{"non-numeric delta", "nPEPT[abc]IDEc", 1, core.ErrInvalidDelta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.BuildIonArray(tt.seq, tt.charge)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := g.BuildIonArray("nPEPc", 0)
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestXCorr(t *testing.T) {
	g := newGenerator(t)
	ions, err := g.BuildIonArray("nPEPTIDEKc", 2)
	require.NoError(t, err)

	// bins of b1 98, b2 227, y1 928 at charge 1; b1 50 and y1 74 at charge 2
	pl := sparse.FromMap(map[int]float64{98: 1, 227: 2, 928: 0.5, 50: 3, 74: 4, 10000: 100})

	tests := []struct {
		charge int
		want   float64
	}{
		{1, 0.875},
		{2, 0.875},
		{3, 2.625},
		{4, 2.625},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, g.XCorr(ions, tt.charge, pl), 1e-9, "charge %d", tt.charge)
	}

	got, err := g.PeptideXCorr("nPEPTIDEKc", 3, pl)
	require.NoError(t, err)
	assert.InDelta(t, 2.625, got, 1e-9)

	assert.Zero(t, g.XCorr(ions, 3, sparse.NewVector()))
}
