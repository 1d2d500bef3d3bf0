// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/digest"
	"github.com/fcyu/ProteomicsLibrary/pkg/reader/mgf"
	"github.com/fcyu/ProteomicsLibrary/pkg/reader/mzml"
)

var (
	// Mass model flags, shared by every command
	fixMods      []string
	labelling    string
	ms2Tolerance float64
	binOffset    float64
	modCSV       string

	// Digestion flags, shared by digest and search
	enzymeSites     string
	enzymeProtect   string
	enzymeNTerm     bool
	secondarySites  string
	secondaryProt   string
	secondaryNTerm  bool
	missedCleavage  int
	minPeptideLen   int
	maxPeptideLen   int
	databaseType    string
	threads         int
	progressEvery   = 1000
	defaultFixedMod = []string{"Carbamidomethyl@C"}
)

var rootCmd = &cobra.Command{
	Use:   "protlib",
	Short: "protlib - peptide digestion and spectrum scoring",
	Long: `protlib digests protein databases, prepares MS/MS spectra and scores
peptide-spectrum matches.

Supported inputs: FASTA protein databases, MGF and mzML spectra, MSP
spectral libraries. Results are written to SQLite databases.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scoreLibraryCmd)
	rootCmd.AddCommand(xcorrCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&fixMods, "fix-mod", defaultFixedMod, "Fixed modification as name@residue or mass@residue (n and c for termini), repeatable")
	pf.StringVar(&labelling, "labelling", string(core.LabellingN14), "Isotope labelling: N14 or N15")
	pf.Float64Var(&ms2Tolerance, "ms2-tolerance", 1.0005*0.5, "Fragment tolerance in Da (half the bin width)")
	pf.Float64Var(&binOffset, "bin-offset", 0.4, "Fragment bin offset")
	pf.StringVar(&modCSV, "mods", "", "CSV of additional modification names and masses (Name,Mass)")
}

// addDigestFlags registers the enzyme flags on commands that digest proteins.
func addDigestFlags(c *cobra.Command) {
	c.Flags().StringVar(&enzymeSites, "enzyme-sites", "KR", "Cleavage site residues")
	c.Flags().StringVar(&enzymeProtect, "enzyme-protection", "P", "Residues blocking cleavage ('-' for none)")
	c.Flags().BoolVar(&enzymeNTerm, "enzyme-n-term", false, "Cut before the site residue instead of after it")
	c.Flags().StringVar(&secondarySites, "secondary-sites", "", "Cleavage sites of a second enzyme (empty = none)")
	c.Flags().StringVar(&secondaryProt, "secondary-protection", "-", "Protection residues of the second enzyme")
	c.Flags().BoolVar(&secondaryNTerm, "secondary-n-term", false, "Second enzyme cuts before the site residue")
	c.Flags().IntVar(&missedCleavage, "missed-cleavage", 2, "Maximum missed cleavages")
	c.Flags().IntVar(&minPeptideLen, "min-length", 7, "Minimum peptide length")
	c.Flags().IntVar(&maxPeptideLen, "max-length", 50, "Maximum peptide length")
	c.Flags().StringVar(&databaseType, "db-type", "uniprot", "FASTA header flavour: tair, uniprot, swissprot, nextprot, contaminants, itag, refseq, others")
}

// loadModDatabase returns the built-in modifications plus --mods.
func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()
	if modCSV == "" {
		return modDB, nil
	}
	f, err := os.Open(modCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification CSV: %w", err)
	}
	defer f.Close()
	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", modCSV, err)
	}
	return modDB, nil
}

// massConfig converts the mass flags into a validated configuration.
func massConfig(modDB *core.ModDatabase) (core.MassConfig, error) {
	l, err := core.ParseLabelling(labelling)
	if err != nil {
		return core.MassConfig{}, err
	}
	mods, err := modDB.ParseFixMods(fixMods)
	if err != nil {
		return core.MassConfig{}, err
	}
	cfg := core.MassConfig{
		FixMods:      mods,
		Labelling:    l,
		MS2Tolerance: ms2Tolerance,
		BinOffset:    binOffset,
	}
	return cfg, cfg.Validate()
}

func newMassTable(modDB *core.ModDatabase) (*core.MassTable, error) {
	cfg, err := massConfig(modDB)
	if err != nil {
		return nil, err
	}
	return core.NewMassTable(cfg)
}

// digestConfig converts the enzyme flags into a validated configuration.
func digestConfig() (digest.Config, error) {
	cfg := digest.Config{
		Primary: digest.CleavageRule{
			Sites:      strings.ToUpper(enzymeSites),
			Protection: strings.ToUpper(enzymeProtect),
			FromCTerm:  !enzymeNTerm,
		},
		MissedCleavage: missedCleavage,
	}
	if secondarySites != "" {
		cfg.Secondary = &digest.CleavageRule{
			Sites:      strings.ToUpper(secondarySites),
			Protection: strings.ToUpper(secondaryProt),
			FromCTerm:  !secondaryNTerm,
		}
	}
	if minPeptideLen < 1 || maxPeptideLen < minPeptideLen {
		return cfg, &core.ValidationError{Field: "Length", Message: fmt.Sprintf("invalid peptide length range [%d, %d]", minPeptideLen, maxPeptideLen)}
	}
	return cfg, cfg.Validate()
}

// keepLength applies --min-length and --max-length to an n...c peptide.
func keepLength(peptide string) bool {
	n := len(core.SequenceOnly(peptide))
	return n >= minPeptideLen && n <= maxPeptideLen
}

// spectrumReader is implemented by the MGF and mzML readers.
type spectrumReader interface {
	Next() bool
	Spectrum() *core.Spectrum
	Err() error
}

// openSpectra opens an MGF or mzML file, detected from its extension when
// format is empty. The returned close function releases the file.
func openSpectra(path, format string) (spectrumReader, func() error, error) {
	if format == "" {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".mgf":
			format = "mgf"
		case ".mzml":
			format = "mzml"
		default:
			return nil, nil, fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	switch strings.ToLower(format) {
	case "mgf":
		return mgf.NewReader(f), f.Close, nil
	case "mzml":
		r := mzml.NewReader(f)
		r.MSLevel = 2
		return r, f.Close, nil
	}
	f.Close()
	return nil, nil, fmt.Errorf("invalid input format '%s', must be mgf or mzml", format)
}
