package fasta

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uniprot = `>sp|P02769|ALBU_BOVIN Serum albumin OS=Bos taurus
MKWVTFISLL
LLFSSAYSRG

>sp|P00761|TRY1_PIG Trypsin
IVGGYTCAAN
`

func TestReadAll(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		dbType    DatabaseType
		wantSeqs  map[string]string
		wantDescs map[string]string
	}{
		{
			name:   "uniprot",
			input:  uniprot,
			dbType: UniProt,
			wantSeqs: map[string]string{
				"sp|P02769|ALBU_BOVIN": "MKWVTFISLLLLFSSAYSRG",
				"sp|P00761|TRY1_PIG":   "IVGGYTCAAN",
			},
			wantDescs: map[string]string{
				"sp|P02769|ALBU_BOVIN": "Serum albumin OS=Bos taurus",
				"sp|P00761|TRY1_PIG":   "Trypsin",
			},
		},
		{
			name:      "tair splits on bars",
			input:     ">AT1G01010.1 | NAC domain\nMEDQVGFGFRPNDEE\n",
			dbType:    TAIR,
			wantSeqs:  map[string]string{"AT1G01010.1": "MEDQVGFGFRPNDEE"},
			wantDescs: map[string]string{"AT1G01010.1": "NAC domain"},
		},
		{
			name:      "others keeps the whole header",
			input:     ">my protein 1\nPEPTIDE\n",
			dbType:    Others,
			wantSeqs:  map[string]string{"my protein 1": "PEPTIDE"},
			wantDescs: map[string]string{"my protein 1": "my protein 1"},
		},
		{
			name:      "empty sequence",
			input:     ">a\n>b\nK\n",
			dbType:    RefSeq,
			wantSeqs:  map[string]string{"a": "", "b": "K"},
			wantDescs: map[string]string{"a": "", "b": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := ReadAll(strings.NewReader(tt.input), tt.dbType)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.wantSeqs, db.Sequences); diff != "" {
				t.Errorf("sequences mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDescs, db.Descriptions); diff != "" {
				t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReaderStreamsInOrder(t *testing.T) {
	r, err := NewReader(strings.NewReader(uniprot), SwissProt)
	require.NoError(t, err)

	var ids []string
	for r.Next() {
		ids = append(ids, r.Protein().ID)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"sp|P02769|ALBU_BOVIN", "sp|P00761|TRY1_PIG"}, ids)
	assert.Equal(t, Protein{}, r.Protein())
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), "ensembl")
	assert.ErrorIs(t, err, ErrUnknownDatabaseType)

	_, err = ReadAll(strings.NewReader("PEPTIDE\n>a\nK\n"), UniProt)
	assert.ErrorContains(t, err, "sequence before the first header")

	_, err = ReadAll(strings.NewReader(">\nK\n"), Others)
	assert.ErrorContains(t, err, "malformed header")
}

func TestParseDatabaseType(t *testing.T) {
	got, err := ParseDatabaseType(" UniProt ")
	require.NoError(t, err)
	assert.Equal(t, UniProt, got)

	_, err = ParseDatabaseType("pdb")
	assert.ErrorIs(t, err, ErrUnknownDatabaseType)
}

func TestDatabaseIDs(t *testing.T) {
	db, err := ReadAll(strings.NewReader(uniprot), UniProt)
	require.NoError(t, err)
	assert.Equal(t, []string{"sp|P00761|TRY1_PIG", "sp|P02769|ALBU_BOVIN"}, db.IDs())
}
