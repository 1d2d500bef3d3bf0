package digest

import "sort"

// Index maps each peptide to the sorted IDs of the proteins it came from.
type Index map[string][]string

// BuildIndex digests every protein. Each run of leading Met residues is
// excised one at a time and the shortened proteins are digested too.
func BuildIndex(engine *Engine, proteins map[string]string) Index {
	owners := make(map[string]map[string]struct{})
	add := func(set PeptideSet, id string) {
		for peptide := range set {
			ids, ok := owners[peptide]
			if !ok {
				ids = make(map[string]struct{})
				owners[peptide] = ids
			}
			ids[id] = struct{}{}
		}
	}

	for id, seq := range proteins {
		add(engine.BuildPeptideSet(seq), id)
		for i := 0; i < len(seq) && seq[i] == 'M'; i++ {
			add(engine.BuildPeptideSet(seq[i+1:]), id)
		}
	}

	index := make(Index, len(owners))
	for peptide, ids := range owners {
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Strings(list)
		index[peptide] = list
	}
	return index
}

// Peptides returns the indexed peptides in lexical order.
func (idx Index) Peptides() []string {
	out := make([]string, 0, len(idx))
	for p := range idx {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
