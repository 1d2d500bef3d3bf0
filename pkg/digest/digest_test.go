package digest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

func newEngine(t *testing.T, missed int) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Primary: Trypsin(), MissedCleavage: missed})
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"default", DefaultConfig(), ""},
		{"no protection", Config{Primary: CleavageRule{Sites: "K", Protection: "-", FromCTerm: true}}, ""},
		{"empty protection", Config{Primary: CleavageRule{Sites: "K"}}, ""},
		{"empty sites", Config{Primary: CleavageRule{Protection: "P"}}, "Sites"},
		{"lower-case sites", Config{Primary: CleavageRule{Sites: "kr"}}, "Sites"},
		{"bad protection", Config{Primary: CleavageRule{Sites: "KR", Protection: "p"}}, "Protection"},
		{"bad secondary", Config{Primary: Trypsin(), Secondary: &CleavageRule{Sites: "1"}}, "Sites"},
		{"negative missed", Config{Primary: Trypsin(), MissedCleavage: -1}, "MissedCleavage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve), "want *core.ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)

			_, err = NewEngine(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestCutPoints(t *testing.T) {
	e := newEngine(t, 0)
	assert.Equal(t, []int{0, 7, 11, 21}, e.CutPoints("SSDSDSKSDSRSDSDSKPSDS"))
	assert.Equal(t, []int{0, 3}, e.CutPoints("ABK"), "a site at the end cuts at len")
	assert.Equal(t, []int{0}, e.CutPoints(""))

	nterm, err := NewEngine(Config{Primary: CleavageRule{Sites: "D", Protection: "P"}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 6}, nterm.CutPoints("GADPDE"), "P before D blocks the second cut")
	assert.Equal(t, []int{0, 3}, nterm.CutPoints("DGA"))
}

func TestDigestLevels(t *testing.T) {
	e := newEngine(t, 2)
	got := e.Digest("SDSKKSDSRDSSK")
	want := [][]Range{
		{{0, 4}, {4, 5}, {5, 9}, {9, 13}},
		{{0, 5}, {4, 9}, {5, 13}},
		{{0, 9}, {4, 13}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Digest() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPeptideSet(t *testing.T) {
	tests := []struct {
		name    string
		missed  int
		protein string
		want    []string
	}{
		{
			name:    "protected site",
			missed:  1,
			protein: "SSDSDSKSDSRSDSDSKPSDS",
			want:    []string{"nSDSDSKPSDSc", "nSDSRSDSDSKPSDSc", "nSDSRc", "nSSDSDSKSDSRc", "nSSDSDSKc"},
		},
		{
			name:    "no site with leading Met",
			missed:  1,
			protein: "MABC",
			want:    []string{"nABCc", "nMABCc"},
		},
		{
			name:    "two missed cleavages with leading Met",
			missed:  2,
			protein: "MSDDFKDEDRDDKPSSDKKDF",
			want: []string{
				"nDDKPSSDKKDFc", "nDDKPSSDKKc", "nDDKPSSDKc", "nDEDRDDKPSSDKKc", "nDEDRDDKPSSDKc",
				"nDEDRc", "nDFc", "nKDFc", "nKc", "nMSDDFKDEDRDDKPSSDKc", "nMSDDFKDEDRc",
				"nMSDDFKc", "nSDDFKDEDRDDKPSSDKc", "nSDDFKDEDRc", "nSDDFKc",
			},
		},
		{
			name:    "empty protein",
			missed:  2,
			protein: "",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newEngine(t, tt.missed).BuildPeptideSet(tt.protein).Sorted()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildPeptideSet() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPeptideSetMetTruncationOnlyAddsNTerminalPeptides(t *testing.T) {
	set := newEngine(t, 0).BuildPeptideSet("MKAKB")
	// Met excision only adds the first peptide of "KAKB"
	assert.Equal(t, []string{"nAKc", "nBc", "nKc", "nMKc"}, set.Sorted())
	assert.True(t, set.Has("nKc"))
	assert.False(t, set.Has("nKAKBc"))
}

func TestSecondaryRule(t *testing.T) {
	e, err := NewEngine(Config{
		Primary:   Trypsin(),
		Secondary: &CleavageRule{Sites: "D", Protection: NoProtection},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 4, 7, 9}, e.CutPoints("GAKEDFRGH"))
	assert.Equal(t, []string{"nDFRc", "nEc", "nGAKc", "nGHc"}, e.BuildPeptideSet("GAKEDFRGH").Sorted())
}

func TestBuildChainSet(t *testing.T) {
	const protein = "MRGFASSASRIATAAAASKPSLNASTSVNPKLSKTMDYMRIFSVFVVTLWIIRVDARVFKTY"

	tests := []struct {
		name   string
		missed int
		seq    string
		linker Linker
		want   []string
	}{
		{
			name:   "lysine one missed cleavage",
			missed: 1,
			seq:    protein,
			linker: LinkerLysine,
			want: []string{
				"nGFASSASRIATAAAASKPSLNASTSVNPKc", "nIATAAAASKPSLNASTSVNPKLSKc", "nIATAAAASKPSLNASTSVNPKc",
				"nLSKTMDYMRc", "nMRGFASSASRc", "nMRc", "nRGFASSASRc", "nRc", "nVFKTYc",
			},
		},
		{
			name:   "lysine two missed cleavages",
			missed: 2,
			seq:    protein,
			linker: LinkerLysine,
			want: []string{
				"nGFASSASRIATAAAASKPSLNASTSVNPKLSKc", "nGFASSASRIATAAAASKPSLNASTSVNPKc",
				"nIATAAAASKPSLNASTSVNPKLSKTMDYMRc", "nIATAAAASKPSLNASTSVNPKLSKc", "nIATAAAASKPSLNASTSVNPKc",
				"nLSKTMDYMRIFSVFVVTLWIIRc", "nLSKTMDYMRc", "nMRGFASSASRIATAAAASKPSLNASTSVNPKc",
				"nMRGFASSASRc", "nMRc", "nRGFASSASRIATAAAASKPSLNASTSVNPKc", "nRGFASSASRc", "nRc",
				"nVDARVFKTYc", "nVFKTYc",
			},
		},
		{
			name:   "cysteine without cysteine",
			missed: 1,
			seq:    protein,
			linker: LinkerCysteine,
			want:   []string{},
		},
		{
			name:   "cysteine",
			missed: 1,
			seq:    "ACKDEFRGHCK",
			linker: LinkerCysteine,
			want:   []string{"nACKDEFRc", "nACKc", "nDEFRGHCKc", "nGHCKc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := newEngine(t, tt.missed).BuildChainSet(tt.seq, tt.linker)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, set.Sorted()); diff != "" {
				t.Errorf("BuildChainSet() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildChainSetUnknownLinker(t *testing.T) {
	_, err := newEngine(t, 1).BuildChainSet("PEPTIDEK", Linker(3))
	assert.ErrorIs(t, err, ErrUnknownLinker)
}

func TestMissedCleavages(t *testing.T) {
	tests := []struct {
		peptide string
		want    int
	}{
		{"nSDSKKSDSRc", 2},
		{"nDDKPSSDKc", 0},
		{"nS(79.966)DK(8.014)SDKc", 1},
		{"PEPTIDE", 0},
	}
	e := newEngine(t, 2)
	for _, tt := range tests {
		assert.Equal(t, tt.want, Trypsin().MissedCleavages(tt.peptide), tt.peptide)
		assert.Equal(t, tt.want, e.MissedCleavageNum(tt.peptide), tt.peptide)
	}

	nterm := CleavageRule{Sites: "D", Protection: "P"}
	assert.Equal(t, 1, nterm.MissedCleavages("DAPDGD"), "leading D and P-protected D do not count")
}

func TestFindPeptideLocation(t *testing.T) {
	rule := Trypsin()
	tests := []struct {
		name    string
		protein string
		peptide string
		want    []int
	}{
		{
			name:    "protein start",
			protein: "MAGSYFCDSKCKLRCSKAGLADRCLKYCGICCEECKCVPSGTYGNKHECPCYRDKKNSKGKSKCP*",
			peptide: "nM(-2.946)A(26.016)GS(57.021)YFCDSKc",
			want:    []int{0},
		},
		{"after leading Met", "MABCKDEF", "ABCK", []int{1}},
		{"after site", "MABCKDEF", "nDEFc", []int{5}},
		{"overlapping hits", "KAKAKA", "AKA", []int{1, 3}},
		{"not after a site", "GGABCK", "ABCK", nil},
		{"protected end", "GKABKPD", "ABK", nil},
		{"absent", "GKABK", "XYZ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.FindPeptideLocation(tt.protein, tt.peptide))
		})
	}
}

func TestBuildIndex(t *testing.T) {
	proteins := map[string]string{
		"pro1": "SSDSDSKSDSRSDSDSKPSDS",
		"pro2": "SDSKKSDSRDSSK",
		"pro3": "MABC",
		"pro4": "MMDEF",
		"pro5": "MMMGHI",
		"pro6": "MDMJPL",
	}
	want := Index{
		"nSSDSDSKc":        {"pro1"},
		"nSDSRc":           {"pro1", "pro2"},
		"nSDSDSKPSDSc":     {"pro1"},
		"nSSDSDSKSDSRc":    {"pro1"},
		"nSDSRSDSDSKPSDSc": {"pro1"},
		"nSDSKc":           {"pro2"},
		"nKc":              {"pro2"},
		"nDSSKc":           {"pro2"},
		"nSDSKKc":          {"pro2"},
		"nKSDSRc":          {"pro2"},
		"nSDSRDSSKc":       {"pro2"},
		"nMABCc":           {"pro3"},
		"nABCc":            {"pro3"},
		"nMMDEFc":          {"pro4"},
		"nMDEFc":           {"pro4"},
		"nDEFc":            {"pro4"},
		"nMMMGHIc":         {"pro5"},
		"nMMGHIc":          {"pro5"},
		"nMGHIc":           {"pro5"},
		"nGHIc":            {"pro5"},
		"nMDMJPLc":         {"pro6"},
		"nDMJPLc":          {"pro6"},
	}

	got := BuildIndex(newEngine(t, 1), proteins)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildIndex() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got.Peptides(), len(want))
	assert.Equal(t, "nABCc", got.Peptides()[0])
}
