package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AA is one residue of an annotated peptide: a one-letter code plus the
// inline modification delta written after it. The terminal pseudo-residues
// are 'n' and 'c'.
type AA struct {
	Code  byte
	Delta float64
}

// HasMod reports whether the delta is large enough to be part of the
// residue's identity.
func (a AA) HasMod() bool {
	return math.Abs(a.Delta) > 0.1
}

// String renders the residue as "X" or "X(12.345)".
func (a AA) String() string {
	if a.HasMod() {
		return fmt.Sprintf("%c(%.3f)", a.Code, a.Delta)
	}
	return string(a.Code)
}

// Equal compares residues by their rendered form, so deltas below 0.1 are
// ignored.
func (a AA) Equal(b AA) bool {
	return a.String() == b.String()
}

// Compare orders residues by code, then by delta.
func (a AA) Compare(b AA) int {
	switch {
	case a.Code < b.Code:
		return -1
	case a.Code > b.Code:
		return 1
	case a.Delta < b.Delta:
		return -1
	case a.Delta > b.Delta:
		return 1
	}
	return 0
}

func isResidueToken(b byte) bool {
	return (b >= 'A' && b <= 'Z') || b == 'n' || b == 'c' || b == '#' || b == '$'
}

func isDeltaByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.' || b == '-' || b == '+'
}

func closingBracket(open byte) byte {
	if open == '[' {
		return ']'
	}
	return ')'
}

// walkSequence calls fn for every residue of an annotated sequence. Every
// byte must be a residue code or part of a bracketed delta directly after
// one.
func walkSequence(seq string, fn func(code byte, delta float64) error) error {
	for i := 0; i < len(seq); i++ {
		code := seq[i]
		if code == '(' || code == '[' {
			return fmt.Errorf("%w: delta at %d follows no residue in %s", ErrInvalidDelta, i, seq)
		}
		if !isResidueToken(code) {
			return fmt.Errorf("%w %q in %s", ErrUnknownResidue, code, seq)
		}
		delta := 0.0
		if j := i + 1; j < len(seq) && (seq[j] == '(' || seq[j] == '[') {
			end := strings.IndexByte(seq[j+1:], closingBracket(seq[j]))
			if end < 0 {
				return fmt.Errorf("%w: unclosed %q in %s", ErrInvalidDelta, seq[j], seq)
			}
			k := j + 1 + end
			text := seq[j+1 : k]
			for b := 0; b < len(text); b++ {
				if !isDeltaByte(text[b]) {
					return fmt.Errorf("%w %q in %s", ErrInvalidDelta, text, seq)
				}
			}
			d, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return fmt.Errorf("%w %q in %s", ErrInvalidDelta, text, seq)
			}
			delta = d
			i = k
		}
		if err := fn(code, delta); err != nil {
			return err
		}
	}
	return nil
}

// ParseSequence splits an annotated sequence such as
// "n(144.102)SDALETLGFLN(0.984)HYQMKc" into residues.
func ParseSequence(seq string) ([]AA, error) {
	aas := make([]AA, 0, len(seq))
	err := walkSequence(seq, func(code byte, delta float64) error {
		aas = append(aas, AA{Code: code, Delta: delta})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aas, nil
}

// FormatSequence is the inverse of ParseSequence up to delta rounding.
func FormatSequence(aas []AA) string {
	var sb strings.Builder
	for _, aa := range aas {
		sb.WriteString(aa.String())
	}
	return sb.String()
}

var (
	leftFlankPattern  = regexp.MustCompile(`^[A-Z-]\.`)
	rightFlankPattern = regexp.MustCompile(`\.[A-Z-]$`)
	nonAAPattern      = regexp.MustCompile(`[^A-Z]+`)
	nonAANCPattern    = regexp.MustCompile(`[^A-Znc]+`)
	clDeltaPattern    = regexp.MustCompile(`[(\[][^A-Znc()\[\]]+[)\]]`)
)

// UnifyPeptide converts search-engine style peptides ("K.PEPT[80]IDE.R",
// "-.PEPTIDE.-") into the canonical "nPEPT(80.000)IDEc" form.
func UnifyPeptide(peptide string) (string, error) {
	peptide = leftFlankPattern.ReplaceAllString(peptide, "")
	peptide = rightFlankPattern.ReplaceAllString(peptide, "")
	if !strings.HasPrefix(peptide, "n") {
		peptide = "n" + peptide
	}
	if !strings.HasSuffix(peptide, "c") {
		peptide += "c"
	}
	aas, err := ParseSequence(peptide)
	if err != nil {
		return "", err
	}
	return FormatSequence(aas), nil
}

// L2I replaces leucine with isoleucine.
func L2I(peptide string) string {
	return strings.ReplaceAll(peptide, "L", "I")
}

// IsAA reports whether b is one of the 22 proteinogenic residue codes.
func IsAA(b byte) bool {
	switch b {
	case 'H', 'I', 'L', 'K', 'M', 'F', 'T', 'W', 'V', 'R', 'C', 'Q', 'G', 'P', 'Y', 'A', 'D', 'N', 'E', 'S', 'U', 'O':
		return true
	}
	return false
}

// ContainsNonAAAndNC reports whether seq has any byte that is neither a
// residue code nor a terminal marker.
func ContainsNonAAAndNC(seq string) bool {
	for i := 0; i < len(seq); i++ {
		if !IsAA(seq[i]) && seq[i] != 'n' && seq[i] != 'c' {
			return true
		}
	}
	return false
}

// SequenceOnly strips terminals and modification deltas.
func SequenceOnly(peptide string) string {
	return nonAAPattern.ReplaceAllString(peptide, "")
}

// PTMFreePeptide strips modification deltas but keeps the terminals.
func PTMFreePeptide(peptide string) string {
	return nonAANCPattern.ReplaceAllString(peptide, "")
}

// CLPTMFreePeptide strips bracketed deltas from a cross-linked peptide
// notation while keeping everything else.
func CLPTMFreePeptide(peptide string) string {
	return clDeltaPattern.ReplaceAllString(peptide, "")
}

// CLSequenceOnly is CLPTMFreePeptide without the terminal markers.
func CLSequenceOnly(peptide string) string {
	return strings.NewReplacer("n", "", "c", "").Replace(CLPTMFreePeptide(peptide))
}
