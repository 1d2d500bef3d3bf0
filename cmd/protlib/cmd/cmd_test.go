package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

func TestCandidates(t *testing.T) {
	peptides := []indexedPeptide{
		{sequence: "a", mass: 999.9},
		{sequence: "b", mass: 1000.0},
		{sequence: "c", mass: 1000.01},
		{sequence: "d", mass: 1000.03},
	}

	var got []string
	for _, p := range candidates(peptides, 1000.0, 20) {
		got = append(got, p.sequence)
	}
	if diff := cmp.Diff([]string{"b", "c"}, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, candidates(peptides, 500, 20))
}

func TestFragmentCharge(t *testing.T) {
	maxFragmentCharge = 3
	tests := []struct {
		precursor int
		want      int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{6, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fragmentCharge(tt.precursor), "precursor charge %d", tt.precursor)
	}
}

func TestDigestConfig(t *testing.T) {
	enzymeSites, enzymeProtect, enzymeNTerm = "kr", "p", false
	secondarySites, secondaryProt, secondaryNTerm = "D", "-", true
	missedCleavage, minPeptideLen, maxPeptideLen = 1, 5, 30

	cfg, err := digestConfig()
	require.NoError(t, err)
	assert.Equal(t, "KR", cfg.Primary.Sites)
	assert.True(t, cfg.Primary.FromCTerm)
	require.NotNil(t, cfg.Secondary)
	assert.False(t, cfg.Secondary.FromCTerm)

	maxPeptideLen = 3
	_, err = digestConfig()
	var ve *core.ValidationError
	assert.ErrorAs(t, err, &ve)
	maxPeptideLen = 30

	secondarySites = ""
	cfg, err = digestConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Secondary)
}

func TestKeepLength(t *testing.T) {
	minPeptideLen, maxPeptideLen = 3, 5
	assert.True(t, keepLength("nPEPc"))
	assert.True(t, keepLength("nPEP(79.966)TIc"))
	assert.False(t, keepLength("nPEc"))
	assert.False(t, keepLength("nPEPTIDc"))
}

func TestMassConfigFromFlags(t *testing.T) {
	fixMods = []string{"Carbamidomethyl@C", "229.162932@n"}
	labelling, ms2Tolerance, binOffset = "N14", 0.01, 1

	cfg, err := massConfig(core.DefaultModDatabase())
	require.NoError(t, err)
	assert.InDelta(t, 229.162932, cfg.FixMods['n'], 1e-9)
	assert.Contains(t, cfg.FixMods, byte('C'))

	labelling = "C13"
	_, err = massConfig(core.DefaultModDatabase())
	assert.Error(t, err)
	labelling = "N14"
}

func TestLibraryFilterFromFlags(t *testing.T) {
	libraryTopN, cutoffPercent, ionTypes = 10, 1, " b, y ,"
	f := libraryFilter()
	assert.Equal(t, []string{"b", "y"}, f.IonTypes)
	assert.Equal(t, 10, f.TopN)
}

func TestOpenSpectra(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.mgf")
	content := "BEGIN IONS\nTITLE=run.15.15.2\nPEPMASS=445.3\nCHARGE=2+\n100.5 10\n200.25 20\nEND IONS\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, closeInput, err := openSpectra(path, "")
	require.NoError(t, err)
	defer closeInput()
	require.True(t, r.Next())
	assert.Equal(t, 15, r.Spectrum().ScanNum)

	_, _, err = openSpectra(filepath.Join(dir, "run.raw"), "")
	assert.ErrorContains(t, err, "auto-detect")

	_, _, err = openSpectra(path, "mzxml")
	assert.ErrorContains(t, err, "invalid input format")
}

func TestLibraryFormatOf(t *testing.T) {
	tests := []struct {
		path, format string
		want         string
		wantErr      bool
	}{
		{"lib.MSP", "", "msp", false},
		{"lib.sptxt", "", "sptxt", false},
		{"lib.txt", "SPTXT", "sptxt", false},
		{"lib.blib", "", "", true},
		{"lib.msp", "blib", "", true},
	}
	for _, tt := range tests {
		got, err := libraryFormatOf(tt.path, tt.format)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
