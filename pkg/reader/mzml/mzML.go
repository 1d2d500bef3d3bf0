package mzml

import "errors"

// XML elements of an mzML spectrum. Only what the search needs is mapped.
type xmlSpectrum struct {
	Index               int                 `xml:"index,attr"`
	ID                  string              `xml:"id,attr"`
	DefaultArrayLength  int                 `xml:"defaultArrayLength,attr"`
	CvPar               []cvParam           `xml:"cvParam"`
	ScanList            scanList            `xml:"scanList"`
	PrecursorList       []precursorList     `xml:"precursorList"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type scanList struct {
	Scan []scan `xml:"scan"`
}

type scan struct {
	CvPar []cvParam `xml:"cvParam"`
}

type precursorList struct {
	Precursor []precursor `xml:"precursor"`
}

type precursor struct {
	SelectedIonList selectedIonList `xml:"selectedIonList"`
	Activation      activation      `xml:"activation"`
}

type selectedIonList struct {
	SelectedIon []selectedIon `xml:"selectedIon"`
}

type selectedIon struct {
	CvPar []cvParam `xml:"cvParam"`
}

type activation struct {
	CvPar []cvParam `xml:"cvParam"`
}

type binaryDataArrayList struct {
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	CvPar  []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

// cvParam is a controlled vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

// CV accessions read by this package.
const (
	accMSLevel          = "MS:1000511"
	accScanStartTime    = "MS:1000016"
	accSelectedIonMz    = "MS:1000744"
	accChargeState      = "MS:1000041"
	accZlib             = "MS:1000574"
	accMzArray          = "MS:1000514"
	accIntensityArray   = "MS:1000515"
	acc64Bit            = "MS:1000523"
	acc32Bit            = "MS:1000521"
	accCID              = "MS:1000133"
	accHCD              = "MS:1000422"
	accETD              = "MS:1000598"
	accCollisionEnergy  = "MS:1000045"
	unitMinute          = "UO:0000031"
	unitMinuteDeprecate = "MS:1000038"
)

var (
	// ErrUnsupportedCompression is returned for MS-Numpress encoded arrays.
	ErrUnsupportedCompression = errors.New("mzML: unsupported binary compression")
	// ErrArrayLength means the m/z and intensity arrays differ in length.
	ErrArrayLength = errors.New("mzML: m/z and intensity arrays differ in length")
)
