package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

var (
	xcorrIn      string
	xcorrFormat  string
	xcorrScan    int
	xcorrPeptide string
)

func init() {
	addScoringFlags(xcorrCmd)
	xcorrCmd.Flags().StringVarP(&xcorrIn, "in", "i", "", "Input spectra, MGF or mzML (required)")
	xcorrCmd.Flags().StringVarP(&xcorrFormat, "from", "f", "", "Input format: mgf or mzml (auto-detect if not specified)")
	xcorrCmd.Flags().IntVar(&xcorrScan, "scan", 0, "Scan number to score (required)")
	xcorrCmd.Flags().StringVarP(&xcorrPeptide, "peptide", "p", "", "Peptide, e.g. PEPT[79.966]IDEK or K.PEPTIDEK.A (required)")

	xcorrCmd.MarkFlagRequired("in")
	xcorrCmd.MarkFlagRequired("scan")
	xcorrCmd.MarkFlagRequired("peptide")
}

var xcorrCmd = &cobra.Command{
	Use:   "xcorr",
	Short: "Score one peptide against one spectrum",
	Long: `Print the XCorr, ion fractions and binomial p-value of a peptide
against a single scan.

Example:
  protlib xcorr --in run.mgf --scan 1643 --peptide K.SDALETLGFLNHYQMK.A`,
	RunE: runXCorr,
}

func runXCorr(cmd *cobra.Command, args []string) error {
	peptide, err := core.UnifyPeptide(xcorrPeptide)
	if err != nil {
		return fmt.Errorf("invalid peptide: %w", err)
	}

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	masses, err := newMassTable(modDB)
	if err != nil {
		return err
	}
	s, err := newScorer(masses, len(core.SequenceOnly(peptide)))
	if err != nil {
		return err
	}

	reader, closeInput, err := openSpectra(xcorrIn, xcorrFormat)
	if err != nil {
		return err
	}
	defer closeInput()

	var spec *core.Spectrum
	for reader.Next() {
		if reader.Spectrum().ScanNum == xcorrScan {
			spec = reader.Spectrum()
			break
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}
	if spec == nil {
		return fmt.Errorf("scan %d not found in %s", xcorrScan, xcorrIn)
	}

	p, err := s.prepare(spec)
	if err != nil {
		return fmt.Errorf("scan %d: %w", xcorrScan, err)
	}
	x, err := s.xcorr(p, peptide)
	if err != nil {
		return err
	}
	psm, err := s.annotate(p, peptide, x)
	if err != nil {
		return err
	}

	fmt.Printf("Peptide: %s\n", psm.Peptide)
	fmt.Printf("Peptide mass: %.6f\n", psm.PeptideMass)
	fmt.Printf("Precursor mass: %.6f\n", p.precMass)
	fmt.Printf("XCorr: %.6f\n", psm.XCorr)
	fmt.Printf("Ion fraction: %.4f\n", psm.IonFraction)
	fmt.Printf("Matched highest intensity fraction: %.4f\n", psm.MatchedHighestIntensityFraction)
	fmt.Printf("Explained AA fraction: %.4f\n", psm.ExplainedAAFraction)
	fmt.Printf("Binomial p-value: %.4g\n", psm.BinomialPValue)
	return nil
}
