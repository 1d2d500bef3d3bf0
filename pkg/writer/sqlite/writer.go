// Package sqlite provides SQLite database writing for peptide indexes and
// search results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"

	// schemaVersion is bumped whenever a table changes.
	schemaVersion = 1

	// Protein IDs are joined with this separator in PeptideTable.Proteins.
	proteinSeparator = ";"
)

// PeptideRecord is one row of the peptide index.
type PeptideRecord struct {
	Sequence       string // annotated sequence, n...c
	Mass           float64
	MissedCleavage int
	Proteins       []string
}

// PSM is one peptide-spectrum match.
type PSM struct {
	Rank        int
	Peptide     string
	PeptideMass float64
	XCorr       float64

	IonFraction                     float64
	MatchedHighestIntensityFraction float64
	ExplainedAAFraction             float64

	// BinomialPValue is stored as NULL when NaN.
	BinomialPValue float64
}

// Writer handles writing peptides, spectra and matches to SQLite database files
type Writer struct {
	db           *sql.DB
	outputPath   string
	peptideStmt  *sql.Stmt
	spectrumStmt *sql.Stmt
	psmStmt      *sql.Stmt

	peptideID  int64
	spectrumID int64
	psmID      int64
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		peptideID:  1,
		spectrumID: 1,
		psmID:      1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS PeptideTable (
		PeptideId INTEGER PRIMARY KEY,
		Sequence TEXT NOT NULL UNIQUE,
		Mass DOUBLE,
		MissedCleavage INTEGER,
		Proteins TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		Title TEXT,
		ScanNumber INTEGER,
		Charge INTEGER,
		PrecursorMz DOUBLE,
		RetentionTime DOUBLE,
		CollisionEnergy DOUBLE,
		FragmentationMode TEXT,
		SourceFile TEXT,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS PSMTable (
		PSMId INTEGER PRIMARY KEY,
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		Rank INTEGER,
		Peptide TEXT,
		PeptideMass DOUBLE,
		XCorr DOUBLE,
		IonFraction DOUBLE,
		MatchedHighestIntensityFraction DOUBLE,
		ExplainedAAFraction DOUBLE,
		BinomialPValue DOUBLE
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT,
		PeptideCount INTEGER,
		SpectrumCount INTEGER,
		PSMCount INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.peptideStmt, err = w.db.Prepare(`
		INSERT INTO PeptideTable (PeptideId, Sequence, Mass, MissedCleavage, Proteins)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peptide statement: %w", err)
	}

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, Title, ScanNumber, Charge, PrecursorMz, RetentionTime,
			CollisionEnergy, FragmentationMode, SourceFile, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.psmStmt, err = w.db.Prepare(`
		INSERT INTO PSMTable (
			PSMId, SpectrumId, Rank, Peptide, PeptideMass, XCorr, IonFraction,
			MatchedHighestIntensityFraction, ExplainedAAFraction, BinomialPValue
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare PSM statement: %w", err)
	}

	return nil
}

// WritePeptides writes a batch of index rows in one transaction.
func (w *Writer) WritePeptides(records []PeptideRecord) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt := tx.Stmt(w.peptideStmt)
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			w.peptideID,
			r.Sequence,
			r.Mass,
			r.MissedCleavage,
			strings.Join(r.Proteins, proteinSeparator),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert peptide %s: %w", r.Sequence, err)
		}
		w.peptideID++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit peptides: %w", err)
	}
	return nil
}

// WriteSpectrum writes a single spectrum and returns its SpectrumId.
func (w *Writer) WriteSpectrum(spec *core.Spectrum) (int64, error) {
	// Ensure peaks are sorted
	if !spec.Peaks.IsSorted() {
		spec.SortPeaks()
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)
	intBlob := encodePeaksFloat64(spec.Peaks, false)

	var rt interface{} = nil
	if spec.RetentionTime != nil {
		rt = *spec.RetentionTime
	}

	var ce interface{} = nil
	if spec.CollisionEnergy != nil {
		ce = *spec.CollisionEnergy
	}

	id := w.spectrumID
	_, err := w.spectrumStmt.Exec(
		id,
		spec.Name(),
		spec.ScanNum,
		spec.Charge,
		spec.PrecursorMZ,
		rt,
		ce,
		spec.FragmentationMode,
		spec.SourceFile,
		mzBlob,
		intBlob,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert spectrum: %w", err)
	}

	w.spectrumID++
	return id, nil
}

// WritePSM writes a match for a spectrum returned by WriteSpectrum.
func (w *Writer) WritePSM(spectrumID int64, psm PSM) error {
	var pValue interface{} = nil
	if !math.IsNaN(psm.BinomialPValue) {
		pValue = psm.BinomialPValue
	}

	_, err := w.psmStmt.Exec(
		w.psmID,
		spectrumID,
		psm.Rank,
		psm.Peptide,
		psm.PeptideMass,
		psm.XCorr,
		psm.IonFraction,
		psm.MatchedHighestIntensityFraction,
		psm.ExplainedAAFraction,
		pValue,
	)
	if err != nil {
		return fmt.Errorf("failed to insert PSM: %w", err)
	}

	w.psmID++
	return nil
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodePeaks reverses the blob encoding of WriteSpectrum.
func DecodePeaks(mzBlob, intensityBlob []byte) (core.PeakList, error) {
	if len(mzBlob)%8 != 0 || len(mzBlob) != len(intensityBlob) {
		return nil, fmt.Errorf("peak blobs of %d and %d bytes do not pair up", len(mzBlob), len(intensityBlob))
	}
	peaks := make(core.PeakList, len(mzBlob)/8)
	for i := range peaks {
		peaks[i] = core.Peak{
			MZ:        math.Float64frombits(binary.LittleEndian.Uint64(mzBlob[i*8:])),
			Intensity: math.Float64frombits(binary.LittleEndian.Uint64(intensityBlob[i*8:])),
		}
	}
	return peaks, nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize(description string) error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description, PeptideCount, SpectrumCount, PSMCount)
		VALUES (?, ?, ?, ?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), description,
		w.peptideID-1, w.spectrumID-1, w.psmID-1)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	return w.Close()
}

// Close closes the prepared statements and the database without writing a
// header. It is safe to call after Finalize.
func (w *Writer) Close() error {
	if w.db == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{w.peptideStmt, w.spectrumStmt, w.psmStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	err := w.db.Close()
	w.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
