package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/prepare"
	"github.com/fcyu/ProteomicsLibrary/pkg/reader/msp"
	"github.com/fcyu/ProteomicsLibrary/pkg/reader/sptxt"
	"github.com/fcyu/ProteomicsLibrary/pkg/writer/sqlite"
)

var (
	libraryIn     string
	libraryFormat string
	libraryOut    string
	libraryTopN   int
	cutoffPercent float64
	ionTypes      string
)

// Library peptides are not bounded by --max-length.
const maxLibraryPeptideLength = 100

func init() {
	addScoringFlags(scoreLibraryCmd)
	scoreLibraryCmd.Flags().StringVarP(&libraryIn, "in", "i", "", "Input MSP or SPTXT library (required)")
	scoreLibraryCmd.Flags().StringVarP(&libraryFormat, "from", "f", "", "Input format: msp or sptxt (auto-detect if not specified)")
	scoreLibraryCmd.Flags().StringVarP(&libraryOut, "out", "o", "", "Output database file (required)")
	scoreLibraryCmd.Flags().IntVar(&libraryTopN, "library-top-n", 0, "Keep only top N most intense library peaks (0 = no limit)")
	scoreLibraryCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	scoreLibraryCmd.Flags().StringVar(&ionTypes, "ion-types", "", "Comma-separated ion types to keep (e.g., 'b,y')")

	scoreLibraryCmd.MarkFlagRequired("in")
	scoreLibraryCmd.MarkFlagRequired("out")
}

var scoreLibraryCmd = &cobra.Command{
	Use:   "score-library",
	Short: "Score library spectra against their own annotations",
	Long: `Read an MSP or SPTXT spectral library and score every entry against the peptide
it is annotated with. Modifications are taken from the library, so fixed
modifications given with --fix-mod are not applied.

Examples:
  protlib score-library --in library.msp --out library.db
  protlib score-library --in consensus.sptxt --out consensus.db
  protlib score-library --in library.msp --out library.db --library-top-n 150 --cutoff 1 --ion-types b,y`,
	RunE: runScoreLibrary,
}

// libraryFormatOf resolves --from, falling back to the file extension.
func libraryFormatOf(path, format string) (string, error) {
	if format == "" {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".msp":
			format = "msp"
		case ".sptxt":
			format = "sptxt"
		default:
			return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
		}
	}
	format = strings.ToLower(format)
	if format != "msp" && format != "sptxt" {
		return "", fmt.Errorf("invalid input format '%s', must be msp or sptxt", format)
	}
	return format, nil
}

func libraryFilter() *prepare.LibraryFilter {
	f := &prepare.LibraryFilter{
		TopN:            libraryTopN,
		IntensityCutoff: cutoffPercent,
	}
	if ionTypes != "" {
		for _, t := range strings.Split(ionTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.IonTypes = append(f.IonTypes, t)
			}
		}
	}
	return f
}

func scoreLibrarySpectrum(s *scorer, spec *core.Spectrum) (sqlite.PSM, error) {
	if spec.Sequence == "" {
		return sqlite.PSM{}, fmt.Errorf("no peptide annotation")
	}
	p, err := s.prepare(spec)
	if err != nil {
		return sqlite.PSM{}, err
	}
	peptide := spec.AnnotatedSequence()
	x, err := s.xcorr(p, peptide)
	if err != nil {
		return sqlite.PSM{}, err
	}
	psm, err := s.annotate(p, peptide, x)
	if err != nil {
		return sqlite.PSM{}, err
	}
	psm.Rank = 1
	return psm, nil
}

func runScoreLibrary(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(libraryIn); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", libraryIn)
	}
	format, err := libraryFormatOf(libraryIn, libraryFormat)
	if err != nil {
		return err
	}

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	cfg, err := massConfig(modDB)
	if err != nil {
		return err
	}
	cfg.FixMods = nil
	masses, err := core.NewMassTable(cfg)
	if err != nil {
		return err
	}
	s, err := newScorer(masses, maxLibraryPeptideLength)
	if err != nil {
		return err
	}

	inFile, err := os.Open(libraryIn)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()
	var reader spectrumReader
	switch format {
	case "msp":
		reader = msp.NewReader(inFile, modDB)
	case "sptxt":
		reader = sptxt.NewReader(inFile, modDB)
	}

	writer, err := sqlite.NewWriter(libraryOut)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	fmt.Printf("Scoring %s to %s...\n", libraryIn, libraryOut)
	fmt.Printf("Format: %s\n", format)
	filter := libraryFilter()
	source := filepath.Base(libraryIn)

	count, skipped := 0, 0
	for reader.Next() {
		spec := reader.Spectrum()
		spec.SourceFile = source
		filter.Apply(spec)

		psm, err := scoreLibrarySpectrum(s, spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to score spectrum %s: %v\n", spec.Name(), err)
			skipped++
			continue
		}

		id, err := writer.WriteSpectrum(spec)
		if err != nil {
			return fmt.Errorf("failed to write spectrum %s: %w", spec.Name(), err)
		}
		if err := writer.WritePSM(id, psm); err != nil {
			return fmt.Errorf("failed to write scores of %s: %w", spec.Name(), err)
		}

		count++
		if count%progressEvery == 0 {
			fmt.Printf("Processed %d spectra...\n", count)
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(fmt.Sprintf("library scores of %s", libraryIn)); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nScoring complete!\n")
	fmt.Printf("Processed: %d spectra\n", count)
	if skipped > 0 {
		fmt.Printf("Skipped: %d spectra (validation errors)\n", skipped)
	}
	fmt.Printf("Output: %s\n", libraryOut)
	return nil
}
