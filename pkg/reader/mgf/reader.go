// Package mgf provides a streaming reader for Mascot Generic Format peak
// lists.
package mgf

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

// ErrUnknownTitleFormat is returned when no scan number can be extracted
// from a spectrum title.
var ErrUnknownTitleFormat = errors.New("unknown MGF title format")

// Title layouts written by common converters, tried in order.
var scanNumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Scan:([0-9]+) `),
	regexp.MustCompile(`(?i)scan=([0-9]+)`),
	regexp.MustCompile(`(?i)scan ([0-9]+)`),
	regexp.MustCompile(`(?i).+ [0-9]+, \+MS2\([0-9.]+\), [0-9. ]+eV, [0-9. ]+min #([0-9]+)$`),
	regexp.MustCompile(`^[^.]+\.([0-9]+)\.[0-9]+\.[0-9]`),
	regexp.MustCompile(`\.([0-9]+)\.[0-9]+\.`),
}

// ScanNumFromTitle extracts the scan number from a spectrum title.
func ScanNumFromTitle(title string) (int, error) {
	for _, p := range scanNumPatterns {
		if m := p.FindStringSubmatch(title); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, fmt.Errorf("scan number in title %q: %w", title, err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTitleFormat, title)
}

// Reader provides streaming access to MGF files
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	index       int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MGF reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
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

func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum
	scansSeen := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' || line[0] == '!' {
			continue
		}

		if spec == nil {
			if line == "BEGIN IONS" {
				r.index++
				spec = &core.Spectrum{SourceFormat: "mgf", MSLevel: 2}
			}
			// Global parameters before the first block are ignored
			continue
		}

		if line == "END IONS" {
			if !scansSeen {
				n, err := ScanNumFromTitle(spec.Title)
				if err != nil {
					return nil, fmt.Errorf("line %d: spectrum %d: %w", r.lineNum, r.index, err)
				}
				spec.ScanNum = n
			}
			spec.SortPeaks()
			return spec, nil
		}

		if key, value, ok := strings.Cut(line, "="); ok && !startsWithDigit(line) {
			seen, err := parseParam(spec, strings.ToUpper(key), value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			scansSeen = scansSeen || seen
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		spec.Peaks = append(spec.Peaks, peak)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if spec != nil {
		return nil, fmt.Errorf("line %d: spectrum %d has no END IONS", r.lineNum, r.index)
	}
	return nil, io.EOF
}

func startsWithDigit(s string) bool {
	return s[0] >= '0' && s[0] <= '9'
}

// parseParam applies one KEY=value line and reports whether it set the scan
// number.
func parseParam(spec *core.Spectrum, key, value string) (bool, error) {
	switch key {
	case "TITLE":
		spec.Title = value
	case "PEPMASS":
		// "mz" or "mz intensity"
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return false, fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return false, fmt.Errorf("invalid PEPMASS: %w", err)
		}
		spec.PrecursorMZ = mz
	case "CHARGE":
		charge, err := parseCharge(value)
		if err != nil {
			return false, err
		}
		spec.Charge = charge
	case "RTINSECONDS":
		rt, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false, fmt.Errorf("invalid RTINSECONDS: %w", err)
		}
		spec.RetentionTime = &rt
	case "SCANS":
		// A range "first-last" uses the first scan
		first, _, _ := strings.Cut(strings.TrimSpace(value), "-")
		n, err := strconv.Atoi(first)
		if err != nil {
			return false, fmt.Errorf("invalid SCANS: %w", err)
		}
		spec.ScanNum = n
		return true, nil
	}
	return false, nil
}

// parseCharge accepts "2+", "+2", "2" and the first of "2+ and 3+".
func parseCharge(value string) (int, error) {
	first := strings.Fields(strings.ReplaceAll(value, ",", " "))
	if len(first) == 0 {
		return 0, fmt.Errorf("empty CHARGE")
	}
	s := first[0]
	sign := 1
	if strings.Contains(s, "-") {
		sign = -1
	}
	s = strings.Trim(s, "+-")
	charge, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CHARGE %q: %w", value, err)
	}
	return sign * charge, nil
}

func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak %q, expected 'm/z intensity'", line)
	}
	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}
	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}
	peak := core.Peak{MZ: mz, Intensity: intensity}
	if len(fields) >= 3 {
		if charge, err := parseCharge(fields[2]); err == nil {
			peak.Charge = charge
		}
	}
	return peak, nil
}
