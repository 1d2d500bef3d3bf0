package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, cfg MassConfig) *MassTable {
	t.Helper()
	m, err := NewMassTable(cfg)
	require.NoError(t, err)
	return m
}

func TestNewMassTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MassConfig)
		field  string
	}{
		{"unknown labelling", func(c *MassConfig) { c.Labelling = "C13" }, "Labelling"},
		{"zero tolerance", func(c *MassConfig) { c.MS2Tolerance = 0 }, "MS2Tolerance"},
		{"negative tolerance", func(c *MassConfig) { c.MS2Tolerance = -0.5 }, "MS2Tolerance"},
		{"fixed mod on non residue", func(c *MassConfig) { c.FixMods = map[byte]float64{'X': 1} }, "FixMods"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMassConfig()
			tt.mutate(&cfg)
			_, err := NewMassTable(cfg)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error %v is not a ValidationError", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestResidueMass(t *testing.T) {
	cfg := DefaultMassConfig()
	cfg.FixMods = map[byte]float64{'C': 57.02146, 'n': 60, 'c': 10}
	cfg.BinOffset = 0.4
	withTerminals := newTestTable(t, cfg)

	got, err := withTerminals.ResidueMass("nGASPVTCILNDQKEMHFRYWc")
	require.NoError(t, err)
	assert.InDelta(t, 2503.1357421875, got, 0.001)

	def := newTestTable(t, DefaultMassConfig())
	tests := []struct {
		name string
		seq  string
		want float64
	}{
		{"no fixed mods", "nGASPVTCILNDQKEMHFRYWc", 2376.11438353312},
		{"delta on T", "nGASPVT(1.0)CILNDQKEMHFRYWc", 2377.11438353312},
		{"delta on C", "nGASPVTC(1.0)ILNDQKEMHFRYWc", 2377.11438353312},
		{"explicit carbamidomethyl", "nGASPVTC(57.02146)ILNDQKEMHFRYWc", 2433.13584353312},
		{"square brackets", "nGASPVTC[57.02146]ILNDQKEMHFRYWc", 2433.13584353312},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := def.ResidueMassWithoutFixMods(tt.seq)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}

	withFix, err := def.ResidueMass("nGASPVTCILNDQKEMHFRYWc")
	require.NoError(t, err)
	assert.InDelta(t, 2433.1356939, withFix, 1e-6)
}

func TestResidueMassUnknownResidue(t *testing.T) {
	m := newTestTable(t, DefaultMassConfig())

	for _, seq := range []string{"nPEPBTIDEc", "nPEPXc", "nZc"} {
		t.Run(seq, func(t *testing.T) {
			_, err := m.ResidueMass(seq)
			assert.ErrorIs(t, err, ErrUnknownResidue)
			_, err = m.ResidueMassWithoutFixMods(seq)
			assert.ErrorIs(t, err, ErrUnknownResidue)
		})
	}
}

func TestResidueMassRejectsMalformedSequence(t *testing.T) {
	m := newTestTable(t, DefaultMassConfig())
	plain, err := m.ResidueMass("nPEPTIDEc")
	require.NoError(t, err)

	signed, err := m.ResidueMass("nPEPT(+79.966)IDEc")
	require.NoError(t, err)
	assert.InDelta(t, plain+79.966, signed, 1e-9)

	tests := []struct {
		seq     string
		wantErr error
	}{
		{"nPEPxTIDEc", ErrUnknownResidue},
		{"nPEPT(79.966IDEc", ErrInvalidDelta},
		{"nPEPT[abc]IDEc", ErrInvalidDelta},
	}
	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			_, err := m.ResidueMass(tt.seq)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAmbiguityCodes(t *testing.T) {
	m := newTestTable(t, DefaultMassConfig())

	iso, err := m.AAMass('#')
	require.NoError(t, err)
	leu, err := m.AAMass('L')
	require.NoError(t, err)
	assert.Equal(t, leu, iso)

	qk, err := m.AAMass('$')
	require.NoError(t, err)
	q, _ := m.AAMass('Q')
	k, _ := m.AAMass('K')
	assert.InDelta(t, (q+k)/2, qk, 1e-12)
	assert.InDelta(t, 128.07676355, qk, 1e-6)
}

func TestPeptideMassLabelling(t *testing.T) {
	n14 := newTestTable(t, DefaultMassConfig())
	cfg := DefaultMassConfig()
	cfg.Labelling = LabellingN15
	n15 := newTestTable(t, cfg)

	light, err := n14.PeptideMass("nPEPTIDEc")
	require.NoError(t, err)
	heavy, err := n15.PeptideMass("nPEPTIDEc")
	require.NoError(t, err)

	assert.InDelta(t, 799.3599277, light, 1e-6)
	assert.InDelta(t, 7*N15N14Diff, heavy-light, 1e-6)
	assert.Equal(t, LabellingN15, n15.Labelling())
}

func TestMzToBin(t *testing.T) {
	cfg := DefaultMassConfig()
	m := newTestTable(t, cfg)

	tests := []struct {
		mz   float64
		want int
	}{
		{11, 11},
		{0, 0},
		{-5, -5},
		{1000.3, 1000},
	}
	for _, tt := range tests {
		if got := m.MzToBin(tt.mz); got != tt.want {
			t.Errorf("MzToBin(%v) = %d, want %d", tt.mz, got, tt.want)
		}
	}
}

func TestMzToBinOnlyMovesExactEdges(t *testing.T) {
	cfg := DefaultMassConfig()
	m := newTestTable(t, cfg)
	plain := func(mz float64) (int, float64) {
		x := mz/(2*cfg.MS2Tolerance) + (1 - cfg.BinOffset)
		return int(math.Floor(x)), x
	}

	for b := 1; b < 5000; b += 3 {
		edge := m.BinToMz(b)
		for _, mz := range []float64{edge - 1e-6, edge + 1e-6, edge + 0.3, edge + 0.9} {
			want, _ := plain(mz)
			assert.Equal(t, want, m.MzToBin(mz), "mz %v", mz)
		}

		want, x := plain(edge)
		if got := m.MzToBin(edge); got != want {
			assert.Equal(t, want+1, got, "edge of bin %d", b)
			assert.Less(t, math.Ceil(x)-x, 2*binEpsilon, "edge of bin %d", b)
		}
	}
}

func TestBinToMz(t *testing.T) {
	cfg := DefaultMassConfig()
	cfg.MS2Tolerance = 0.5
	m := newTestTable(t, cfg)

	assert.InDelta(t, 1.4, m.BinToMz(2), 1e-6)
	assert.InDelta(t, -0.6, m.BinToMz(0), 1e-6)
	assert.InDelta(t, 0.4, m.BinToMz(1), 1e-6)
}

func TestBinRoundTrip(t *testing.T) {
	configs := []MassConfig{
		DefaultMassConfig(),
		{Labelling: LabellingN14, MS2Tolerance: 0.01, BinOffset: 0},
		{Labelling: LabellingN14, MS2Tolerance: 0.02, BinOffset: 0.5},
		{Labelling: LabellingN14, MS2Tolerance: 0.5, BinOffset: 0.4},
	}
	for _, cfg := range configs {
		m := newTestTable(t, cfg)
		for b := -100; b < 200000; b += 7 {
			if got := m.MzToBin(m.BinToMz(b)); got != b {
				t.Fatalf("tolerance %v offset %v: MzToBin(BinToMz(%d)) = %d", cfg.MS2Tolerance, cfg.BinOffset, b, got)
			}
		}
	}
}
