// Package fasta reads protein databases. Header lines are split into an
// accession and a description according to the database flavour.
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownDatabaseType is returned for an unsupported header flavour.
var ErrUnknownDatabaseType = errors.New("unknown database type")

// DatabaseType selects how a header line is split.
type DatabaseType string

const (
	TAIR         DatabaseType = "tair"
	UniProt      DatabaseType = "uniprot"
	SwissProt    DatabaseType = "swissprot"
	NextProt     DatabaseType = "nextprot"
	Contaminants DatabaseType = "contaminants"
	ITAG         DatabaseType = "itag"
	RefSeq       DatabaseType = "refseq"
	// Others uses the whole header as accession and description.
	Others DatabaseType = "others"
)

var (
	tairHeader    = regexp.MustCompile(`^>([^\s]+)[\s|]*(.*)$`)
	spaceHeader   = regexp.MustCompile(`^>([^ ]+) *(.*)$`)
	wholeHeader   = regexp.MustCompile(`^>(.+)$`)
	headerPattern = map[DatabaseType]*regexp.Regexp{
		TAIR:         tairHeader,
		UniProt:      spaceHeader,
		SwissProt:    spaceHeader,
		NextProt:     spaceHeader,
		Contaminants: spaceHeader,
		ITAG:         spaceHeader,
		RefSeq:       spaceHeader,
		Others:       wholeHeader,
	}
)

// ParseDatabaseType accepts the names above in any case.
func ParseDatabaseType(s string) (DatabaseType, error) {
	t := DatabaseType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := headerPattern[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDatabaseType, s)
	}
	return t, nil
}

// Protein is one database entry.
type Protein struct {
	ID          string
	Description string
	Sequence    string
}

// Reader streams proteins from FASTA input.
type Reader struct {
	scanner *bufio.Scanner
	header  *regexp.Regexp
	whole   bool
	lineNum int

	pending *Protein
	current *Protein
	err     error
}

// NewReader returns a reader for the given header flavour.
func NewReader(r io.Reader, dbType DatabaseType) (*Reader, error) {
	p, ok := headerPattern[dbType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabaseType, dbType)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner, header: p, whole: dbType == Others}, nil
}

// Next advances to the next protein.
func (r *Reader) Next() bool {
	r.current = nil
	if r.err != nil {
		return false
	}

	var seq strings.Builder
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line[0] != '>' {
			if r.pending == nil {
				r.err = fmt.Errorf("line %d: sequence before the first header", r.lineNum)
				return false
			}
			seq.WriteString(line)
			continue
		}

		next, err := r.parseHeader(line)
		if err != nil {
			r.err = err
			return false
		}
		if r.pending != nil {
			r.pending.Sequence = seq.String()
			r.current, r.pending = r.pending, next
			return true
		}
		r.pending = next
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
		return false
	}
	if r.pending != nil {
		r.pending.Sequence = seq.String()
		r.current, r.pending = r.pending, nil
		return true
	}
	return false
}

func (r *Reader) parseHeader(line string) (*Protein, error) {
	m := r.header.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("line %d: malformed header %q", r.lineNum, line)
	}
	p := &Protein{ID: strings.TrimSpace(m[1])}
	if r.whole {
		p.Description = p.ID
	} else {
		p.Description = strings.TrimSpace(m[2])
	}
	return p, nil
}

// Protein returns the current protein.
func (r *Reader) Protein() Protein {
	if r.current == nil {
		return Protein{}
	}
	return *r.current
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Database holds a whole protein database keyed by accession.
type Database struct {
	Sequences    map[string]string
	Descriptions map[string]string
}

// ReadAll reads every protein. A repeated accession keeps the last entry.
func ReadAll(r io.Reader, dbType DatabaseType) (*Database, error) {
	reader, err := NewReader(r, dbType)
	if err != nil {
		return nil, err
	}
	db := &Database{
		Sequences:    make(map[string]string),
		Descriptions: make(map[string]string),
	}
	for reader.Next() {
		p := reader.Protein()
		db.Sequences[p.ID] = p.Sequence
		db.Descriptions[p.ID] = p.Description
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return db, nil
}

// IDs returns the accessions in sorted order.
func (db *Database) IDs() []string {
	ids := make([]string, 0, len(db.Sequences))
	for id := range db.Sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
