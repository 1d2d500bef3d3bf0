// Package digest cuts protein sequences into peptides and cross-link chains
// following enzyme cleavage rules.
package digest

import (
	"fmt"
	"strings"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

// NoProtection is the protection-site placeholder meaning "nothing blocks
// cleavage".
const NoProtection = "-"

// CleavageRule describes where an enzyme cuts.
type CleavageRule struct {
	Sites      string // residues the enzyme recognises, e.g. "KR"
	Protection string // residues that block the cut, "-" or "" for none
	FromCTerm  bool   // cut after the site residue instead of before it
}

// Trypsin cuts after K or R unless followed by P.
func Trypsin() CleavageRule {
	return CleavageRule{Sites: "KR", Protection: "P", FromCTerm: true}
}

// Validate checks that sites and protection residues are upper-case letters.
func (r CleavageRule) Validate() error {
	if r.Sites == "" {
		return &core.ValidationError{Field: "Sites", Message: "at least one cleavage site is required"}
	}
	if !upperLetters(r.Sites) {
		return &core.ValidationError{Field: "Sites", Message: fmt.Sprintf("%q must contain upper-case residues only", r.Sites)}
	}
	if r.Protection != "" && r.Protection != NoProtection && !upperLetters(r.Protection) {
		return &core.ValidationError{Field: "Protection", Message: fmt.Sprintf("%q must be %q or upper-case residues", r.Protection, NoProtection)}
	}
	return nil
}

func upperLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func (r CleavageRule) isSite(b byte) bool {
	return strings.IndexByte(r.Sites, b) >= 0
}

func (r CleavageRule) isProtection(b byte) bool {
	if r.Protection == NoProtection {
		return false
	}
	return strings.IndexByte(r.Protection, b) >= 0
}

// cut reports whether the residue at i is a cleavage site that is not
// protected by its neighbour, and where the resulting cut falls.
func (r CleavageRule) cut(seq string, i int) (int, bool) {
	if !r.isSite(seq[i]) {
		return 0, false
	}
	if r.FromCTerm {
		if i+1 < len(seq) && r.isProtection(seq[i+1]) {
			return 0, false
		}
		return i + 1, true
	}
	if i > 0 && r.isProtection(seq[i-1]) {
		return 0, false
	}
	return i, true
}

// trimLinkSite drops a terminal residue that the enzyme would have cut at,
// since a linker attached there blocks the cleavage that produced the chain.
func (r CleavageRule) trimLinkSite(chain string) string {
	if chain == "" {
		return chain
	}
	if r.FromCTerm {
		if r.isSite(chain[len(chain)-1]) {
			return chain[:len(chain)-1]
		}
		return chain
	}
	if r.isSite(chain[0]) {
		return chain[1:]
	}
	return chain
}

// MissedCleavages counts the cleavage sites inside a peptide, ignoring the
// terminal residue the peptide was cut at. Annotations are stripped first.
func (r CleavageRule) MissedCleavages(peptide string) int {
	seq := core.SequenceOnly(peptide)
	num := 0
	for i := 0; i < len(seq); i++ {
		if pos, ok := r.cut(seq, i); ok && pos > 0 && pos < len(seq) {
			num++
		}
	}
	return num
}

// FindPeptideLocation returns the start offsets of peptide in protein that
// are consistent with the rule: preceded by a site residue (or the protein
// start, or a leading Met) and not followed by a protection residue.
func (r CleavageRule) FindPeptideLocation(protein, peptide string) []int {
	seq := core.SequenceOnly(strings.TrimSpace(peptide))
	if seq == "" {
		return nil
	}

	var out []int
	for from := 0; from <= len(protein)-len(seq); {
		off := strings.Index(protein[from:], seq)
		if off < 0 {
			break
		}
		idx := from + off
		end := idx + len(seq)
		leftOK := idx == 0 || r.isSite(protein[idx-1]) || (idx == 1 && protein[0] == 'M')
		rightOK := end == len(protein) || !r.isProtection(protein[end])
		if leftOK && rightOK {
			out = append(out, idx)
		}
		from = idx + 1
	}
	return out
}
