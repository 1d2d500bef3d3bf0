// Package sptxt provides streaming readers for SPTXT (SpectraST) format spectral libraries
package sptxt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

// ErrMissingMods is returned for a name with bracketed modifications but no
// "Mods=" comment to resolve their exact masses from.
var ErrMissingMods = errors.New("inline modifications without a Mods comment")

// SpectraST writes nominal residue masses in brackets, e.g. C[160] or n[305].
var inlineMod = regexp.MustCompile(`\[[0-9.]+\]`)

// Reader provides streaming access to SPTXT format files
type Reader struct {
	scanner     *bufio.Scanner
	modDB       *core.ModDatabase
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new SPTXT reader. A nil modDB uses the default
// modification names.
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{
		scanner: scanner,
		modDB:   modDB,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// entry collects the header fields that are resolved once the whole header
// has been read.
type entry struct {
	spec       *core.Spectrum
	inlineMods bool
	modsSeen   bool
}

// readSpectrum reads a single spectrum entry from the SPTXT file
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	e := &entry{spec: &core.Spectrum{
		SourceFormat: "sptxt",
		MSLevel:      2,
	}}

	numPeaks := -1
	started := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "###") {
			continue
		}

		if numPeaks < 0 {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
			}
			started = true
			n, err := r.parseHeader(e, strings.TrimSpace(key), strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			if n >= 0 {
				numPeaks = n
				if e.inlineMods && !e.modsSeen {
					return nil, fmt.Errorf("line %d: entry %q: %w", r.lineNum, e.spec.Title, ErrMissingMods)
				}
				e.spec.Peaks = make(core.PeakList, 0, n)
				if n == 0 {
					return r.finish(e.spec)
				}
			}
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		e.spec.Peaks = append(e.spec.Peaks, peak)
		if len(e.spec.Peaks) == numPeaks {
			return r.finish(e.spec)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if !started {
		return nil, io.EOF
	}
	if numPeaks < 0 {
		return nil, fmt.Errorf("line %d: entry %q has no 'NumPeaks' line", r.lineNum, e.spec.Title)
	}
	return nil, fmt.Errorf("line %d: entry %q ends after %d of %d peaks", r.lineNum, e.spec.Title, len(e.spec.Peaks), numPeaks)
}

func (r *Reader) finish(spec *core.Spectrum) (*core.Spectrum, error) {
	spec.SortPeaks()
	return spec, nil
}

// parseHeader applies one header field. It returns the peak count for the
// "NumPeaks" field and -1 otherwise.
func (r *Reader) parseHeader(e *entry, key, value string) (int, error) {
	switch strings.ToLower(key) {
	case "name":
		e.spec.Title = value
		return -1, parseName(e, value)
	case "precursormz":
		mz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return -1, fmt.Errorf("invalid precursor m/z: %w", err)
		}
		e.spec.PrecursorMZ = mz
	case "comment":
		return -1, r.parseComment(e, value)
	case "numpeaks", "num peaks":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return -1, fmt.Errorf("invalid num peaks %q", value)
		}
		return n, nil
	}
	// MW, LibID, Status, FullName and the rest are not needed
	return -1, nil
}

// parseName extracts sequence and charge from the Name field, for example
// "n[305]AAAAQDEITGDGTTTVVC[160]LVGELLR/3". The bracketed nominal masses
// only flag modified residues; exact masses come from the Mods comment.
func parseName(e *entry, name string) error {
	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}

	e.inlineMods = inlineMod.MatchString(seq)
	seq = inlineMod.ReplaceAllString(seq, "")
	seq = strings.TrimPrefix(seq, "n")
	seq = strings.TrimSuffix(seq, "c")
	for i := 0; i < len(seq); i++ {
		if !core.IsAA(seq[i]) {
			return fmt.Errorf("invalid residue %q in name '%s'", seq[i], name)
		}
	}

	e.spec.Sequence = seq
	e.spec.Charge = charge
	return nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(e *entry, comment string) error {
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if e.spec.PrecursorMZ == 0 {
				if mz, err := strconv.ParseFloat(value, 64); err == nil {
					e.spec.PrecursorMZ = mz
				}
			}

		case "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				e.spec.CollisionEnergy = &ce
			}

		case "RetentionTime":
			// May be comma-separated list, take first value
			first, _, _ := strings.Cut(value, ",")
			if rt, err := strconv.ParseFloat(first, 64); err == nil {
				e.spec.RetentionTime = &rt
			}

		case "Mods":
			mods, err := r.parseMods(value)
			if err != nil {
				return err
			}
			e.spec.Modifications = mods
			e.modsSeen = true
		}
	}
	return nil
}

// parseMods parses "count/pos,AA,Name/pos,AA,Name". Position -1 is the
// N-terminus. Unlike MSP, every name must resolve, since the inline masses
// are only nominal.
func (r *Reader) parseMods(modsStr string) ([]core.Modification, error) {
	parts := strings.Split(modsStr, "/")
	count, err := strconv.Atoi(parts[0])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("invalid Mods field %q", modsStr)
	}
	if count != len(parts)-1 {
		return nil, fmt.Errorf("mods field %q lists %d of %d modifications", modsStr, len(parts)-1, count)
	}

	mods := make([]core.Modification, 0, count)
	for _, part := range parts[1:] {
		fields := strings.Split(part, ",")
		if len(fields) < 3 {
			return nil, fmt.Errorf("invalid modification %q", part)
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid modification position %q: %w", fields[0], err)
		}
		mass, ok := r.modDB.GetMass(fields[2])
		if !ok {
			return nil, fmt.Errorf("unknown modification '%s'", fields[2])
		}
		mods = append(mods, core.Modification{Mass: mass, Position: pos, Name: fields[2]})
	}
	return mods, nil
}

// parsePeak parses a single peak line
// Format: "mz\tintensity\tannotation\t..." or similar
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{
		MZ:        mz,
		Intensity: intensity,
	}

	// Annotation: first alternative without the mass error ("y3/0.5,b4^2/-0.1")
	if len(fields) >= 3 {
		annotation, _, _ := strings.Cut(fields[2], ",")
		annotation, _, _ = strings.Cut(annotation, "/")
		peak.Annotation = annotation
		peak.Charge = annotationCharge(annotation)
	}

	return peak, nil
}

// annotationCharge reads the "^2" charge suffix. Unannotated peaks get 0,
// annotated ones without a suffix are singly charged.
func annotationCharge(annotation string) int {
	if annotation == "" || strings.HasPrefix(annotation, "?") {
		return 0
	}
	_, chargeStr, ok := strings.Cut(annotation, "^")
	if !ok {
		return 1
	}
	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return 0
	}
	return charge
}
