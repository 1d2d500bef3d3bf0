package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

func librarySpectrum() *core.Spectrum {
	return &core.Spectrum{
		Charge:      2,
		PrecursorMZ: 500,
		Peaks: core.PeakList{
			{MZ: 400, Intensity: 50, Annotation: "y3"},
			{MZ: 100, Intensity: 10, Annotation: "b1"},
			{MZ: 200, Intensity: 100, Annotation: "y1"},
			{MZ: 250, Intensity: 0, Annotation: "b2"},
			{MZ: 300, Intensity: 4, Annotation: "b2^2"},
			{MZ: 350, Intensity: 30},
			{MZ: 450, Intensity: 60, Annotation: "p-H2O"},
		},
	}
}

func TestLibraryFilterApply(t *testing.T) {
	tests := []struct {
		name   string
		filter LibraryFilter
		want   []float64
	}{
		{
			name:   "no filters only drops empty peaks",
			filter: LibraryFilter{},
			want:   []float64{100, 200, 300, 350, 400, 450},
		},
		{
			name:   "ion types",
			filter: LibraryFilter{IonTypes: []string{"b", "y"}},
			want:   []float64{100, 200, 300, 400},
		},
		{
			name:   "intensity cutoff",
			filter: LibraryFilter{IntensityCutoff: 10},
			want:   []float64{100, 200, 350, 400, 450},
		},
		{
			name:   "top N",
			filter: LibraryFilter{TopN: 3},
			want:   []float64{200, 400, 450},
		},
		{
			name:   "combined",
			filter: LibraryFilter{IonTypes: []string{"y", "b"}, IntensityCutoff: 5, TopN: 2},
			want:   []float64{200, 400},
		},
		{
			name:   "top N larger than spectrum",
			filter: LibraryFilter{TopN: 20},
			want:   []float64{100, 200, 300, 350, 400, 450},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := librarySpectrum()
			tt.filter.Apply(spec)
			assert.Equal(t, tt.want, mzs(spec.Peaks))
		})
	}
}

func TestMatchesIonType(t *testing.T) {
	assert.True(t, matchesIonType("y3", []string{"y"}))
	assert.True(t, matchesIonType("b2^2", []string{"y", "b"}))
	assert.False(t, matchesIonType("", []string{"y"}))
	assert.False(t, matchesIonType("a2", []string{"b", "y"}))
}
