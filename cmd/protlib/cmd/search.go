package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/stats"
	"github.com/fcyu/ProteomicsLibrary/pkg/writer/sqlite"
)

var (
	searchIn       string
	searchFormat   string
	searchDatabase string
	searchOut      string
	precursorPPM   float64
	maxRank        int
	fdrThreshold   float64
)

func init() {
	addDigestFlags(searchCmd)
	addScoringFlags(searchCmd)
	searchCmd.Flags().StringVarP(&searchIn, "in", "i", "", "Input spectra, MGF or mzML (required)")
	searchCmd.Flags().StringVarP(&searchFormat, "from", "f", "", "Input format: mgf or mzml (auto-detect if not specified)")
	searchCmd.Flags().StringVarP(&searchDatabase, "database", "d", "", "Protein FASTA database (required)")
	searchCmd.Flags().StringVarP(&searchOut, "out", "o", "", "Output database file (required)")
	searchCmd.Flags().Float64Var(&precursorPPM, "precursor-tolerance", 20, "Precursor mass tolerance in ppm")
	searchCmd.Flags().IntVar(&maxRank, "max-rank", 5, "Matches kept per spectrum")
	searchCmd.Flags().IntVar(&threads, "threads", runtime.NumCPU(), "Number of worker threads")
	searchCmd.Flags().Float64Var(&fdrThreshold, "fdr", 0.01, "Benjamini-Hochberg threshold for the summary")

	searchCmd.MarkFlagRequired("in")
	searchCmd.MarkFlagRequired("database")
	searchCmd.MarkFlagRequired("out")
}

// addScoringFlags registers the spectrum preparation and scoring flags.
func addScoringFlags(c *cobra.Command) {
	c.Flags().IntVar(&topN, "top-n", 6, "Peaks kept per 100 m/z window for ion matching")
	c.Flags().IntVar(&binomialTopN, "binomial-top-n", 10, "Highest top-N level tried by the binomial p-value (1-100)")
	c.Flags().IntVar(&maxFragmentCharge, "max-fragment-charge", 3, "Highest fragment charge scored")
	c.Flags().BoolVar(&flankingPeaks, "flanking-peaks", true, "Add flanking peaks in the XCorr transform")
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search spectra against a digested protein database",
	Long: `Digest a protein database and match every MS2 spectrum against the
peptides inside the precursor tolerance. Candidates are ranked by XCorr;
the top matches are annotated with ion fractions and a binomial p-value.

Examples:
  protlib search --in run.mgf --database human.fasta --out run.db
  protlib search --in run.mzML --database human.fasta --out run.db --threads 8 --precursor-tolerance 10`,
	RunE: runSearch,
}

// searchResult is what a worker hands back for one spectrum.
type searchResult struct {
	spec *core.Spectrum
	psms []sqlite.PSM
	err  error
}

type candidate struct {
	peptide string
	xcorr   float64
}

// candidates returns the peptides whose mass is within tol ppm of mass.
// peptides must be sorted by mass.
func candidates(peptides []indexedPeptide, mass, tol float64) []indexedPeptide {
	delta := mass * tol * 1e-6
	lo := sort.Search(len(peptides), func(i int) bool { return peptides[i].mass >= mass-delta })
	hi := sort.Search(len(peptides), func(i int) bool { return peptides[i].mass > mass+delta })
	return peptides[lo:hi]
}

func searchSpectrum(s *scorer, peptides []indexedPeptide, spec *core.Spectrum) ([]sqlite.PSM, error) {
	p, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}

	var ranked []candidate
	for _, pep := range candidates(peptides, p.precMass, precursorPPM) {
		x, err := s.xcorr(p, pep.sequence)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, candidate{peptide: pep.sequence, xcorr: x})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].xcorr > ranked[j].xcorr })
	if len(ranked) > maxRank {
		ranked = ranked[:maxRank]
	}

	psms := make([]sqlite.PSM, 0, len(ranked))
	for i, c := range ranked {
		psm, err := s.annotate(p, c.peptide, c.xcorr)
		if err != nil {
			return nil, err
		}
		psm.Rank = i + 1
		psms = append(psms, psm)
	}
	return psms, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if threads < 1 {
		return fmt.Errorf("--threads must be positive, got %d", threads)
	}
	if maxRank < 1 {
		return fmt.Errorf("--max-rank must be positive, got %d", maxRank)
	}
	if !(precursorPPM > 0) {
		return fmt.Errorf("--precursor-tolerance must be positive, got %v", precursorPPM)
	}

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	masses, err := newMassTable(modDB)
	if err != nil {
		return err
	}
	s, err := newScorer(masses, maxPeptideLen)
	if err != nil {
		return err
	}

	fmt.Printf("Searching %s against %s...\n", searchIn, searchDatabase)
	peptides, err := buildPeptideIndex(searchDatabase, masses)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d peptides\n", len(peptides))

	reader, closeInput, err := openSpectra(searchIn, searchFormat)
	if err != nil {
		return err
	}
	defer closeInput()

	writer, err := sqlite.NewWriter(searchOut)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	jobs := make(chan *core.Spectrum, 4*threads)
	results := make(chan searchResult, 4*threads)

	wg := new(sync.WaitGroup)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range jobs {
				psms, err := searchSpectrum(s, peptides, spec)
				results <- searchResult{spec: spec, psms: psms, err: err}
			}
		}()
	}

	source := filepath.Base(searchIn)
	go func() {
		for reader.Next() {
			spec := reader.Spectrum()
			spec.SourceFile = source
			jobs <- spec
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	count, skipped := 0, 0
	var topXCorr, pValues []float64
	var writeErr error
	for res := range results {
		if writeErr != nil {
			continue // drain so the workers can finish
		}
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipped spectrum %s: %v\n", res.spec.Name(), res.err)
			skipped++
			continue
		}
		id, err := writer.WriteSpectrum(res.spec)
		if err != nil {
			writeErr = err
			continue
		}
		for _, psm := range res.psms {
			if err := writer.WritePSM(id, psm); err != nil {
				writeErr = err
				break
			}
		}
		if len(res.psms) > 0 {
			topXCorr = append(topXCorr, res.psms[0].XCorr)
			if !math.IsNaN(res.psms[0].BinomialPValue) {
				pValues = append(pValues, res.psms[0].BinomialPValue)
			}
		}

		count++
		if count%progressEvery == 0 {
			fmt.Printf("Processed %d spectra...\n", count)
		}
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write results: %w", writeErr)
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(fmt.Sprintf("search of %s against %s", searchIn, searchDatabase)); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nSearch complete!\n")
	fmt.Printf("Processed: %d spectra\n", count)
	if skipped > 0 {
		fmt.Printf("Skipped: %d spectra (validation errors)\n", skipped)
	}
	printSummary(topXCorr, pValues)
	fmt.Printf("Output: %s\n", searchOut)
	return nil
}

// printSummary reports the top-hit XCorr distribution and how many top hits
// pass the Benjamini-Hochberg threshold on their binomial p-values.
func printSummary(topXCorr, pValues []float64) {
	if median, err := stats.Median(topXCorr); err == nil {
		fmt.Printf("Median top XCorr: %.4f\n", median)
	}
	if p95, err := stats.Percentile(topXCorr, 95); err == nil {
		fmt.Printf("95th percentile top XCorr: %.4f\n", p95)
	}
	if len(pValues) == 0 {
		return
	}
	qValues := stats.BHFDR(pValues)
	passed := 0
	for _, p := range pValues {
		if qValues[p] <= fdrThreshold {
			passed++
		}
	}
	fmt.Printf("Top hits at %.2g FDR: %d of %d\n", fdrThreshold, passed, len(pValues))
}
