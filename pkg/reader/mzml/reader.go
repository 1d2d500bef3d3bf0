// Package mzml streams spectra from mzML files.
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

var scanIDPattern = regexp.MustCompile(`scan=([0-9]+)`)

// Reader decodes one <spectrum> element at a time so that large runs are
// never held in memory.
type Reader struct {
	// MSLevel keeps only spectra of this level. Zero keeps all.
	MSLevel int

	decoder     *xml.Decoder
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new mzML reader
func NewReader(r io.Reader) *Reader {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return &Reader{decoder: d}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil
	if r.err != nil {
		return false
	}

	for {
		t, err := r.decoder.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}
		start, ok := t.(xml.StartElement)
		if !ok || start.Name.Local != "spectrum" {
			continue
		}

		var xs xmlSpectrum
		if err := r.decoder.DecodeElement(&xs, &start); err != nil {
			r.err = err
			return false
		}
		spec, err := convert(&xs)
		if err != nil {
			r.err = fmt.Errorf("spectrum %q: %w", xs.ID, err)
			return false
		}
		if r.MSLevel != 0 && spec.MSLevel != r.MSLevel {
			continue
		}
		r.currentSpec = spec
		return true
	}
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func convert(xs *xmlSpectrum) (*core.Spectrum, error) {
	spec := &core.Spectrum{
		Title:        xs.ID,
		ScanNum:      xs.Index + 1,
		MSLevel:      1,
		SourceFormat: "mzml",
	}
	if m := scanIDPattern.FindStringSubmatch(xs.ID); m != nil {
		spec.ScanNum, _ = strconv.Atoi(m[1])
	}

	for _, p := range xs.CvPar {
		if p.Accession == accMSLevel {
			level, err := strconv.Atoi(p.Value)
			if err != nil {
				return nil, fmt.Errorf("ms level: %w", err)
			}
			spec.MSLevel = level
		}
	}

	for _, s := range xs.ScanList.Scan {
		for _, p := range s.CvPar {
			if p.Accession != accScanStartTime {
				continue
			}
			rt, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("scan start time: %w", err)
			}
			if p.UnitAccession == unitMinute || p.UnitAccession == unitMinuteDeprecate {
				rt *= 60
			}
			spec.RetentionTime = &rt
		}
	}

	if err := fillPrecursor(spec, xs.PrecursorList); err != nil {
		return nil, err
	}

	peaks, err := readPeaks(xs)
	if err != nil {
		return nil, err
	}
	spec.Peaks = peaks
	spec.SortPeaks()
	return spec, nil
}

// fillPrecursor uses the first selected ion of the first precursor.
func fillPrecursor(spec *core.Spectrum, lists []precursorList) error {
	if len(lists) == 0 || len(lists[0].Precursor) == 0 {
		return nil
	}
	prec := lists[0].Precursor[0]

	for _, p := range prec.Activation.CvPar {
		switch p.Accession {
		case accCID:
			spec.FragmentationMode = "CID"
		case accHCD:
			spec.FragmentationMode = "HCD"
		case accETD:
			spec.FragmentationMode = "ETD"
		case accCollisionEnergy:
			if ce, err := strconv.ParseFloat(p.Value, 64); err == nil {
				spec.CollisionEnergy = &ce
			}
		}
	}

	if len(prec.SelectedIonList.SelectedIon) == 0 {
		return nil
	}
	for _, p := range prec.SelectedIonList.SelectedIon[0].CvPar {
		switch p.Accession {
		case accSelectedIonMz:
			mz, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return fmt.Errorf("selected ion m/z: %w", err)
			}
			spec.PrecursorMZ = mz
		case accChargeState:
			charge, err := strconv.Atoi(p.Value)
			if err != nil {
				return fmt.Errorf("charge state: %w", err)
			}
			spec.Charge = charge
		}
	}
	return nil
}

func readPeaks(xs *xmlSpectrum) (core.PeakList, error) {
	var mzs, intensities []float64
	for i := range xs.BinaryDataArrayList.BinaryDataArray {
		b := &xs.BinaryDataArrayList.BinaryDataArray[i]
		values, kind, err := decodeArray(b)
		if err != nil {
			return nil, err
		}
		switch kind {
		case accMzArray:
			mzs = values
		case accIntensityArray:
			intensities = values
		}
	}
	if len(mzs) != len(intensities) {
		return nil, fmt.Errorf("%w: %d and %d", ErrArrayLength, len(mzs), len(intensities))
	}

	peaks := make(core.PeakList, len(mzs))
	for i := range mzs {
		peaks[i] = core.Peak{MZ: mzs[i], Intensity: intensities[i]}
	}
	return peaks, nil
}

// decodeArray decodes a base64 (optionally zlib compressed) little-endian
// float array. kind is the array accession, or "" for arrays other than
// m/z and intensity.
//
// Binary data CV terms:
// MS:1000574 zlib compression
// MS:1000576 no compression
// MS:1002312-1002314, MS:1002746-1002748 MS-Numpress variants
// MS:1000521 32-bit float, MS:1000523 64-bit float
func decodeArray(b *binaryDataArray) (values []float64, kind string, err error) {
	compressed := false
	bits64 := false
	for _, p := range b.CvPar {
		switch p.Accession {
		case accZlib:
			compressed = true
		case accMzArray, accIntensityArray:
			kind = p.Accession
		case acc64Bit:
			bits64 = true
		case acc32Bit:
			bits64 = false
		case "MS:1002312", "MS:1002313", "MS:1002314",
			"MS:1002746", "MS:1002747", "MS:1002748":
			return nil, "", fmt.Errorf("%w (CV term %s)", ErrUnsupportedCompression, p.Accession)
		}
	}
	if kind == "" {
		return nil, "", nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b.Binary))
	if err != nil {
		return nil, "", fmt.Errorf("base64: %w", err)
	}
	if compressed && len(data) > 0 {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("zlib: %w", err)
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return nil, "", fmt.Errorf("zlib: %w", err)
		}
	}

	if bits64 {
		values = make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	} else {
		values = make([]float64, len(data)/4)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	return values, kind, nil
}
