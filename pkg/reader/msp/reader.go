// Package msp provides streaming readers for MSP format spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	modDB       *core.ModDatabase
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader. A nil modDB uses the default
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

// readSpectrum reads one entry. Header lines are "Key: value" until
// "Num peaks", followed by exactly that many peak lines.
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{
		SourceFormat: "msp",
		MSLevel:      2,
	}

	numPeaks := -1
	started := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		if numPeaks < 0 {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
			}
			started = true
			n, err := r.parseHeader(spec, strings.TrimSpace(key), strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			if n >= 0 {
				numPeaks = n
				spec.Peaks = make(core.PeakList, 0, n)
				if n == 0 {
					return r.finish(spec)
				}
			}
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		spec.Peaks = append(spec.Peaks, peak)
		if len(spec.Peaks) == numPeaks {
			return r.finish(spec)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if !started {
		return nil, io.EOF
	}
	if numPeaks < 0 {
		return nil, fmt.Errorf("line %d: entry %q has no 'Num peaks' line", r.lineNum, spec.Title)
	}
	return nil, fmt.Errorf("line %d: entry %q ends after %d of %d peaks", r.lineNum, spec.Title, len(spec.Peaks), numPeaks)
}

func (r *Reader) finish(spec *core.Spectrum) (*core.Spectrum, error) {
	spec.SortPeaks()
	return spec, nil
}

// parseHeader applies one header field. It returns the peak count for the
// "Num peaks" field and -1 otherwise.
func (r *Reader) parseHeader(spec *core.Spectrum, key, value string) (int, error) {
	switch strings.ToLower(key) {
	case "name":
		spec.Title = value
		return -1, parseName(spec, value)
	case "precursormz":
		mz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return -1, fmt.Errorf("invalid precursor m/z: %w", err)
		}
		spec.PrecursorMZ = mz
	case "mw":
		// Used only when neither PrecursorMZ nor Parent is given
		mw, err := strconv.ParseFloat(value, 64)
		if err == nil && spec.PrecursorMZ == 0 && spec.Charge > 0 {
			spec.PrecursorMZ = mw/float64(spec.Charge) + core.ProtonMass
		}
	case "comment":
		r.parseComment(spec, value)
	case "num peaks":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return -1, fmt.Errorf("invalid num peaks %q", value)
		}
		return n, nil
	}
	return -1, nil
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE")
func parseName(spec *core.Spectrum, name string) error {
	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	// Some libraries append "_NCE" style suffixes to the charge
	chargeStr, _, _ = strings.Cut(chargeStr, "_")
	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	spec.Sequence = seq
	spec.Charge = charge
	return nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(spec *core.Spectrum, comment string) {
	// Comment format: key=value key=value...
	// Example: Parent=414.71 Collision_energy=35 Mods=1/-1,R,TMT_Pro iRT=61.01
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				spec.PrecursorMZ = mz
			}

		case "Collision_energy", "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				spec.CollisionEnergy = &ce
			}

		case "iRT", "RetentionTime":
			if rt, err := strconv.ParseFloat(value, 64); err == nil {
				spec.RetentionTime = &rt
			}

		case "Fragmentation":
			spec.FragmentationMode = value

		case "Mods":
			// Unknown modification names leave the entry unmodified
			spec.Modifications = append(spec.Modifications, r.parseMods(value)...)
		}
	}
}

// parseMods parses the NIST "count/pos,AA,Name/pos,AA,Name" modification list.
func (r *Reader) parseMods(modsStr string) []core.Modification {
	parts := strings.Split(modsStr, "/")
	count, err := strconv.Atoi(parts[0])
	if err != nil || count == 0 {
		return nil
	}

	var mods []core.Modification
	for _, part := range parts[1:] {
		fields := strings.Split(part, ",")
		if len(fields) < 3 {
			continue
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		mass, ok := r.modDB.GetMass(fields[2])
		if !ok {
			continue
		}
		mods = append(mods, core.Modification{Mass: mass, Position: pos, Name: fields[2]})
	}
	return mods
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
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

	// Annotation: first alternative, without the mass error ("y3/0.01,b2")
	if len(fields) >= 3 {
		annotation := strings.Trim(fields[2], "\"")
		annotation, _, _ = strings.Cut(annotation, ",")
		annotation, _, _ = strings.Cut(annotation, "/")
		peak.Annotation = annotation
		peak.Charge = annotationCharge(annotation)
	}

	return peak, nil
}

// annotationCharge reads the "^2" charge suffix; unannotated charge is 1.
func annotationCharge(annotation string) int {
	if annotation == "" || annotation == "?" {
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
