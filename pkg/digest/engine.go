package digest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fcyu/ProteomicsLibrary/pkg/core"
)

// ErrUnknownLinker is returned for a linker type other than lysine or cysteine.
var ErrUnknownLinker = errors.New("unknown linker type")

// Linker selects the residue a cross-linker reacts with.
type Linker int

const (
	LinkerLysine   Linker = 1
	LinkerCysteine Linker = 2
)

// Residue returns the linkable residue code.
func (l Linker) Residue() (byte, error) {
	switch l {
	case LinkerLysine:
		return 'K', nil
	case LinkerCysteine:
		return 'C', nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownLinker, int(l))
}

// Config holds digestion configuration.
type Config struct {
	Primary        CleavageRule
	Secondary      *CleavageRule // optional, cut points are the union of both rules
	MissedCleavage int
}

// DefaultConfig returns trypsin with two missed cleavages.
func DefaultConfig() Config {
	return Config{Primary: Trypsin(), MissedCleavage: 2}
}

// Validate checks the rules and the missed-cleavage limit.
func (c Config) Validate() error {
	if err := c.Primary.Validate(); err != nil {
		return err
	}
	if c.Secondary != nil {
		if err := c.Secondary.Validate(); err != nil {
			return err
		}
	}
	if c.MissedCleavage < 0 {
		return &core.ValidationError{Field: "MissedCleavage", Message: fmt.Sprintf("%d must not be negative", c.MissedCleavage)}
	}
	return nil
}

// Range is a half-open [Start, End) slice of a protein sequence.
type Range struct {
	Start, End int
}

// PeptideSet is a set of n...c wrapped peptide sequences.
type PeptideSet map[string]struct{}

func (s PeptideSet) add(seq string) {
	s["n"+seq+"c"] = struct{}{}
}

// Has reports membership.
func (s PeptideSet) Has(peptide string) bool {
	_, ok := s[peptide]
	return ok
}

// Sorted returns the members in lexical order.
func (s PeptideSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Engine digests proteins. It is immutable and safe for concurrent use.
type Engine struct {
	rules          []CleavageRule
	missedCleavage int
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules := []CleavageRule{cfg.Primary}
	if cfg.Secondary != nil {
		rules = append(rules, *cfg.Secondary)
	}
	return &Engine{rules: rules, missedCleavage: cfg.MissedCleavage}, nil
}

// MissedCleavage returns the configured missed-cleavage limit.
func (e *Engine) MissedCleavage() int {
	return e.missedCleavage
}

// CutPoints returns the sorted cut positions of seq, always including 0 and
// len(seq).
func (e *Engine) CutPoints(seq string) []int {
	seen := map[int]bool{0: true, len(seq): true}
	for i := 0; i < len(seq); i++ {
		for _, r := range e.rules {
			if pos, ok := r.cut(seq, i); ok {
				seen[pos] = true
			}
		}
	}
	cuts := make([]int, 0, len(seen))
	for pos := range seen {
		cuts = append(cuts, pos)
	}
	sort.Ints(cuts)
	return cuts
}

// Digest returns, for every missed-cleavage level 0..MissedCleavage, the
// ranges spanning level+1 consecutive cut intervals in N- to C-terminal
// order.
func (e *Engine) Digest(seq string) [][]Range {
	cuts := e.CutPoints(seq)
	levels := make([][]Range, e.missedCleavage+1)
	for level := range levels {
		var ranges []Range
		for i := 0; i+1+level < len(cuts); i++ {
			ranges = append(ranges, Range{Start: cuts[i], End: cuts[i+1+level]})
		}
		levels[level] = ranges
	}
	return levels
}

// BuildPeptideSet digests a protein into n...c wrapped peptides. When the
// protein starts with Met, the N-terminal peptides of the Met-excised form
// are added as well.
func (e *Engine) BuildPeptideSet(protein string) PeptideSet {
	set := make(PeptideSet)
	for _, ranges := range e.Digest(protein) {
		for _, r := range ranges {
			set.add(protein[r.Start:r.End])
		}
	}

	if strings.HasPrefix(protein, "M") {
		truncated := protein[1:]
		for _, ranges := range e.Digest(truncated) {
			if len(ranges) > 0 {
				set.add(truncated[ranges[0].Start:ranges[0].End])
			}
		}
	}
	return set
}

// BuildChainSet digests a protein into chains that can carry a cross-linker.
// A chain qualifies when it still holds the linkable residue after dropping
// a terminal cleavage-site residue, or anywhere when it reaches the protein
// C-terminus. Lysine linkers also react with the protein N-terminus, so the
// N-terminal chain of each level is always kept for them.
func (e *Engine) BuildChainSet(protein string, linker Linker) (PeptideSet, error) {
	link, err := linker.Residue()
	if err != nil {
		return nil, err
	}

	set := make(PeptideSet)
	for _, ranges := range e.Digest(protein) {
		for _, r := range ranges {
			e.addChain(set, protein, r, link)
		}
		if linker == LinkerLysine && len(ranges) > 0 {
			set.add(protein[ranges[0].Start:ranges[0].End])
		}
	}

	if strings.HasPrefix(protein, "M") {
		truncated := protein[1:]
		for _, ranges := range e.Digest(truncated) {
			if len(ranges) == 0 {
				continue
			}
			e.addChain(set, truncated, ranges[0], link)
			if linker == LinkerLysine {
				set.add(truncated[ranges[0].Start:ranges[0].End])
			}
		}
	}
	return set, nil
}

func (e *Engine) addChain(set PeptideSet, protein string, r Range, link byte) {
	chain := protein[r.Start:r.End]
	trimmed := chain
	for _, rule := range e.rules {
		trimmed = rule.trimLinkSite(trimmed)
	}
	if strings.IndexByte(trimmed, link) >= 0 {
		set.add(chain)
		return
	}
	// no cleavage happened at the protein end, so any position can link
	if r.End == len(protein) && strings.IndexByte(chain, link) >= 0 {
		set.add(chain)
	}
}

// MissedCleavageNum counts internal cut points of a peptide under every
// configured rule.
func (e *Engine) MissedCleavageNum(peptide string) int {
	seq := core.SequenceOnly(peptide)
	num := 0
	for _, pos := range e.CutPoints(seq) {
		if pos > 0 && pos < len(seq) {
			num++
		}
	}
	return num
}
