package msp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

const library = `Name: PEPTMDEK/2
MW: 948.4
Comment: Parent=475.2 Collision_energy=30 Mods=1/4,M,Oxidation iRT=33.5 Fragmentation=HCD
Num peaks: 3
300.1	100	"y2/0.01"
175.1	50	"b2^2/-0.02,y1"
250.0	5	"?"

Name: SAMPLER/3
PrecursorMZ: 300.5
Num peaks: 1
201.2	7
`

func TestReaderReadsEntries(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)

	require.True(t, r.Next())
	spec := r.Spectrum()
	assert.Equal(t, "PEPTMDEK", spec.Sequence)
	assert.Equal(t, 2, spec.Charge)
	assert.Equal(t, "PEPTMDEK/2", spec.Title)
	assert.InDelta(t, 475.2, spec.PrecursorMZ, 1e-9)
	require.NotNil(t, spec.CollisionEnergy)
	assert.InDelta(t, 30.0, *spec.CollisionEnergy, 1e-9)
	require.NotNil(t, spec.RetentionTime)
	assert.InDelta(t, 33.5, *spec.RetentionTime, 1e-9)
	assert.Equal(t, "HCD", spec.FragmentationMode)
	assert.Equal(t, []core.Modification{{Mass: 15.994915, Position: 4, Name: "Oxidation"}}, spec.Modifications)

	require.Len(t, spec.Peaks, 3)
	assert.True(t, spec.Peaks.IsSorted())
	assert.Equal(t, core.Peak{MZ: 175.1, Intensity: 50, Annotation: "b2^2", Charge: 2}, spec.Peaks[0])
	assert.Equal(t, core.Peak{MZ: 250.0, Intensity: 5, Annotation: "?"}, spec.Peaks[1])
	assert.Equal(t, core.Peak{MZ: 300.1, Intensity: 100, Annotation: "y2", Charge: 1}, spec.Peaks[2])

	require.True(t, r.Next())
	spec = r.Spectrum()
	assert.Equal(t, "SAMPLER", spec.Sequence)
	assert.Equal(t, 3, spec.Charge)
	assert.InDelta(t, 300.5, spec.PrecursorMZ, 1e-9)
	assert.Equal(t, core.PeakList{{MZ: 201.2, Intensity: 7}}, spec.Peaks)

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderPrecursorFromMW(t *testing.T) {
	r := NewReader(strings.NewReader("Name: AAK/2\nMW: 1000\nNum peaks: 0\n"), nil)
	require.True(t, r.Next())
	assert.InDelta(t, 500+core.ProtonMass, r.Spectrum().PrecursorMZ, 1e-9)
	assert.Empty(t, r.Spectrum().Peaks)
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"bad name", "Name: PEPTIDE\nNum peaks: 0\n", "expected 'SEQUENCE/CHARGE'"},
		{"bad charge", "Name: PEPTIDE/x\nNum peaks: 0\n", "invalid charge"},
		{"bad peak count", "Name: PEPTIDE/2\nNum peaks: many\n", "invalid num peaks"},
		{"bad peak", "Name: PEPTIDE/2\nNum peaks: 1\n100.0\n", "invalid peak format"},
		{"truncated peaks", "Name: PEPTIDE/2\nNum peaks: 2\n100.0 1\n", "ends after 1 of 2 peaks"},
		{"missing peak count", "Name: PEPTIDE/2\n", "no 'Num peaks'"},
		{"not a header", "PEPTIDE\n", "expected 'Key: value'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), nil)
			assert.False(t, r.Next())
			require.Error(t, r.Err())
			assert.Contains(t, r.Err().Error(), tt.wantErr)
		})
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"), nil)
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}
