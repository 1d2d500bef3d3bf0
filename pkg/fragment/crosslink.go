package fragment

import (
	"github.com/fcyu/ProteomicsLibrary/pkg/core"
	"github.com/fcyu/ProteomicsLibrary/pkg/sparse"
)

// maxCrossLinkCharge caps fragment charges for cross-linked chains.
const maxCrossLinkCharge = 6

// BuildCrossLinkIonArray returns the b/y ladders of one chain of a
// cross-linked pair. Fragments containing the residue at linkSite carry
// linkMass (the partner chain plus linker); the full-length b and y ions
// always do. linkSite counts the N-terminal "n" as position 0 and is raised
// to 1 when smaller.
func (g *Generator) BuildCrossLinkIonArray(seq string, linkSite int, linkMass float64, maxCharge int) (IonMatrix, error) {
	if err := checkCharge(maxCharge); err != nil {
		return nil, err
	}
	res, err := g.residueMasses(seq)
	if err != nil {
		return nil, err
	}
	linkSite = max(1, linkSite)

	n := len(res)
	m := newIonMatrix(maxCharge, n-2)
	put := func(row, col int, mass float64) {
		for charge := 1; charge <= maxCharge; charge++ {
			m[2*(charge-1)+row][col] = mass/float64(charge) + core.ProtonMass
		}
	}
	shift := func(linked bool) float64 {
		if linked {
			return linkMass
		}
		return 0
	}

	b := res[0]
	for i := 1; i < n-2; i++ {
		b += res[i]
		put(0, i-1, b+shift(i >= linkSite))
	}
	b += res[n-2] + res[n-1]
	put(0, n-3, b+linkMass)

	y := b + g.masses.H2O()
	put(1, 0, y+linkMass)
	if n-2 > 1 {
		y -= res[0] + res[1]
		put(1, 1, y+shift(linkSite > 1))
	}
	for i := 2; i < n-2; i++ {
		y -= res[i]
		put(1, i, y+shift(i < linkSite))
	}
	return m, nil
}

// CrossLinkXCorr scores one chain of a cross-linked pair against the
// preprocessed spectrum using every ladder at charges
// 1..min(6, max(precursorCharge-1, 1)).
func (g *Generator) CrossLinkXCorr(seq string, linkSite int, linkMass float64, precursorCharge int, xcorrPL *sparse.Vector) (float64, error) {
	maxCharge := min(maxCrossLinkCharge, max(precursorCharge-1, 1))
	ions, err := g.BuildCrossLinkIonArray(seq, linkSite, linkMass, maxCharge)
	if err != nil {
		return 0, err
	}

	xcorr := 0.0
	for _, row := range ions {
		for _, mz := range row {
			xcorr += xcorrPL.Get(g.masses.MzToBin(mz))
		}
	}
	return xcorr * 0.005, nil
}
