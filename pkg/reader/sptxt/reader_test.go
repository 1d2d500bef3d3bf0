package sptxt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

const library = `### SpectraST library
### ===
Name: n[43]PEPTM[147]DEC[160]K/2
LibID: 0
MW: 1150.4
PrecursorMZ: 576.2
Status: Normal
FullName: K.n[43]PEPTM[147]DEC[160]K.A/2
Comment: CollisionEnergy=28 Mods=3/-1,P,Acetyl/4,M,Oxidation/7,C,Carbamidomethyl Parent=999 RetentionTime=1520.3,1519.8,1521.0
NumPeaks: 3
300.1	100	y2/0.01,b3/0.2	2/2 0.0
175.1	50	b3^2/-0.02	1/2 0.0
250.0	5	?	0/0 0.0

Name: SAMPLER/3
Comment: Parent=300.5
NumPeaks: 1
201.2	7	?
`

func TestReaderReadsEntries(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)

	require.True(t, r.Next())
	spec := r.Spectrum()
	assert.Equal(t, "PEPTMDECK", spec.Sequence)
	assert.Equal(t, 2, spec.Charge)
	assert.Equal(t, "n[43]PEPTM[147]DEC[160]K/2", spec.Title)
	assert.InDelta(t, 576.2, spec.PrecursorMZ, 1e-9, "PrecursorMZ wins over Parent")
	require.NotNil(t, spec.CollisionEnergy)
	assert.InDelta(t, 28.0, *spec.CollisionEnergy, 1e-9)
	require.NotNil(t, spec.RetentionTime)
	assert.InDelta(t, 1520.3, *spec.RetentionTime, 1e-9)

	require.Len(t, spec.Modifications, 3)
	assert.Equal(t, -1, spec.Modifications[0].Position)
	assert.Equal(t, "Oxidation", spec.Modifications[1].Name)
	assert.InDelta(t, 15.994915, spec.Modifications[1].Mass, 1e-6)
	assert.Equal(t, 7, spec.Modifications[2].Position)

	assert.Equal(t, core.PeakList{
		{MZ: 175.1, Intensity: 50, Annotation: "b3^2", Charge: 2},
		{MZ: 250.0, Intensity: 5, Annotation: "?"},
		{MZ: 300.1, Intensity: 100, Annotation: "y2", Charge: 1},
	}, spec.Peaks)

	require.True(t, r.Next())
	spec = r.Spectrum()
	assert.Equal(t, "SAMPLER", spec.Sequence)
	assert.InDelta(t, 300.5, spec.PrecursorMZ, 1e-9)
	assert.Empty(t, spec.Modifications)

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "inline mods without Mods comment",
			input:   "Name: PEPTM[147]K/2\nNumPeaks: 0\n",
			wantErr: ErrMissingMods.Error(),
		},
		{
			name:    "unknown modification",
			input:   "Name: PEPTM[147]K/2\nComment: Mods=1/4,M,Sparkle\nNumPeaks: 0\n",
			wantErr: "unknown modification 'Sparkle'",
		},
		{
			name:    "mods count mismatch",
			input:   "Name: PEPTMK/2\nComment: Mods=2/4,M,Oxidation\nNumPeaks: 0\n",
			wantErr: "lists 1 of 2",
		},
		{
			name:    "bad residue",
			input:   "Name: PEP*K/2\nNumPeaks: 0\n",
			wantErr: "invalid residue",
		},
		{
			name:    "truncated peaks",
			input:   "Name: PEPK/2\nNumPeaks: 2\n100 1\n",
			wantErr: "ends after 1 of 2 peaks",
		},
		{
			name:    "no peak count",
			input:   "Name: PEPK/2\n",
			wantErr: "no 'NumPeaks' line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), nil)
			assert.False(t, r.Next())
			assert.ErrorContains(t, r.Err(), tt.wantErr)
		})
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader("### only comments\n\n"), nil)
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}
