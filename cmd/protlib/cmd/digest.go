package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/digest"
	"github.com/fcyu/ProteomicsLibrary/pkg/reader/fasta"
	"github.com/fcyu/ProteomicsLibrary/pkg/writer/sqlite"
)

var (
	digestIn  string
	digestOut string
	chunkSize int
)

func init() {
	addDigestFlags(digestCmd)
	digestCmd.Flags().StringVarP(&digestIn, "in", "i", "", "Input FASTA file (required)")
	digestCmd.Flags().StringVarP(&digestOut, "out", "o", "", "Output database file (required)")
	digestCmd.Flags().IntVar(&chunkSize, "chunk-size", 10000, "Peptides per insert transaction")

	digestCmd.MarkFlagRequired("in")
	digestCmd.MarkFlagRequired("out")
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest a protein database into a peptide index",
	Long: `Digest every protein of a FASTA database and write the peptide index,
with masses, missed cleavages and parent proteins, to a SQLite database.

Examples:
  # Tryptic digest with two missed cleavages
  protlib digest --in human.fasta --out human.db

  # Trypsin plus Asp-N, up to three missed cleavages
  protlib digest --in human.fasta --out human.db --secondary-sites D --secondary-n-term --missed-cleavage 3`,
	RunE: runDigest,
}

// indexedPeptide is a peptide of the in-memory index, with its neutral mass.
type indexedPeptide struct {
	sequence       string
	mass           float64
	missedCleavage int
	proteins       []string
}

// buildPeptideIndex reads a FASTA file and digests it. The result is sorted
// by mass, then sequence.
func buildPeptideIndex(path string, masses *core.MassTable) ([]indexedPeptide, error) {
	dbType, err := fasta.ParseDatabaseType(databaseType)
	if err != nil {
		return nil, err
	}
	cfg, err := digestConfig()
	if err != nil {
		return nil, err
	}
	engine, err := digest.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer f.Close()
	db, err := fasta.ReadAll(f, dbType)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	fmt.Printf("Loaded %d proteins\n", len(db.Sequences))

	index := digest.BuildIndex(engine, db.Sequences)
	peptides := make([]indexedPeptide, 0, len(index))
	skipped := 0
	for _, seq := range index.Peptides() {
		if !keepLength(seq) {
			continue
		}
		mass, err := masses.PeptideMass(seq)
		if err != nil {
			skipped++
			continue
		}
		peptides = append(peptides, indexedPeptide{
			sequence:       seq,
			mass:           mass,
			missedCleavage: engine.MissedCleavageNum(seq),
			proteins:       index[seq],
		})
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d peptides with unknown residues\n", skipped)
	}

	sort.Slice(peptides, func(i, j int) bool {
		if peptides[i].mass != peptides[j].mass {
			return peptides[i].mass < peptides[j].mass
		}
		return peptides[i].sequence < peptides[j].sequence
	})
	return peptides, nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	if chunkSize < 1 {
		return fmt.Errorf("--chunk-size must be positive, got %d", chunkSize)
	}
	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	masses, err := newMassTable(modDB)
	if err != nil {
		return err
	}

	fmt.Printf("Digesting %s to %s...\n", digestIn, digestOut)
	peptides, err := buildPeptideIndex(digestIn, masses)
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(digestOut)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	batch := make([]sqlite.PeptideRecord, 0, chunkSize)
	for i, p := range peptides {
		batch = append(batch, sqlite.PeptideRecord{
			Sequence:       p.sequence,
			Mass:           p.mass,
			MissedCleavage: p.missedCleavage,
			Proteins:       p.proteins,
		})
		if len(batch) == chunkSize || i == len(peptides)-1 {
			if err := writer.WritePeptides(batch); err != nil {
				return err
			}
			batch = batch[:0]
			fmt.Printf("Processed %d peptides...\n", i+1)
		}
	}

	if err := writer.Finalize(fmt.Sprintf("digest of %s", digestIn)); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nDigestion complete!\n")
	fmt.Printf("Peptides: %d\n", len(peptides))
	fmt.Printf("Output: %s\n", digestOut)
	return nil
}
