package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Median returns the middle value, averaging the two central values for even
// lengths. x is not modified.
func Median(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2] + sorted[n/2-1]) / 2, nil
	}
	return sorted[n/2], nil
}

// Mean returns the arithmetic mean.
func Mean(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	return stat.Mean(x, nil), nil
}

// PopulationSD returns the population standard deviation around a known
// mean. At least three observations are required.
func PopulationSD(x []float64, mean float64) (float64, error) {
	if len(x) < 3 {
		return 0, fmt.Errorf("%w: %d observations, need at least 3", ErrTooFewSamples, len(x))
	}
	ss := 0.0
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(x))), nil
}

// Percentile returns the nearest-rank percentile (ceil(p/100 * n)-th value).
func Percentile(x []float64, percentile float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	if !(percentile > 0 && percentile <= 100) {
		return 0, fmt.Errorf("%w: percentile %v must be in (0, 100]", ErrInvalidArgument, percentile)
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	idx := int(math.Ceil(percentile / 100 * float64(len(sorted))))
	return sorted[idx-1], nil
}

// TTestTwoSides returns the two-sided one-sample t-test p-value of a sample
// summarised by mean, sd and size against mu.
func TTestTwoSides(mean, sd, mu float64, n int) (float64, error) {
	if n < 3 {
		return 0, fmt.Errorf("%w: %d observations, need at least 3", ErrTooFewSamples, n)
	}
	t := (mean - mu) * math.Sqrt(float64(n)) / sd
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	if t >= 0 {
		return 2 * dist.Survival(t), nil
	}
	return 2 * dist.CDF(t), nil
}

// BHFDR maps each p-value to its Benjamini-Hochberg adjusted value.
func BHFDR(pValues []float64) map[float64]float64 {
	out := make(map[float64]float64, len(pValues))
	if len(pValues) == 0 {
		return out
	}
	if len(pValues) == 1 {
		out[pValues[0]] = pValues[0]
		return out
	}

	sorted := append([]float64(nil), pValues...)
	sort.Float64s(sorted)
	n := float64(len(sorted))
	fdr := make([]float64, len(sorted))
	last := sorted[len(sorted)-1]
	fdr[len(fdr)-1] = last
	for i := len(sorted) - 2; i >= 0; i-- {
		q := sorted[i] * n / float64(i+1)
		if q < last {
			last = q
		}
		fdr[i] = last
	}
	for i, p := range sorted {
		out[p] = fdr[i]
	}
	return out
}

// Pearson returns the Pearson correlation coefficient, or 0 when either
// sample has no variance.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	cov, vx, vy := 0.0, 0.0, 0.0
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if cov == 0 || vx == 0 || vy == 0 {
		return 0, nil
	}
	return stat.Correlation(x, y, nil), nil
}

// LinearInterpolation fills integer positions minX..maxX from the known
// points, extrapolating linearly from the two nearest points beyond the
// data range.
func LinearInterpolation(points map[int]float64, minX, maxX int) ([]float64, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d points, need at least 2", ErrTooFewSamples, len(points))
	}
	if maxX < minX {
		return nil, fmt.Errorf("%w: maxX %d < minX %d", ErrInvalidArgument, maxX, minX)
	}
	xs := make([]int, 0, len(points))
	for x := range points {
		xs = append(xs, x)
	}
	sort.Ints(xs)

	line := func(x0, x1, x int) float64 {
		y0, y1 := points[x0], points[x1]
		return y0 + float64(x-x0)*(y1-y0)/float64(x1-x0)
	}

	out := make([]float64, maxX-minX+1)
	for i := range out {
		x := minX + i
		j := sort.SearchInts(xs, x) // first xs[j] >= x
		switch {
		case j < len(xs) && xs[j] == x:
			out[i] = points[x]
		case j == 0:
			out[i] = line(xs[0], xs[1], x)
		case j == len(xs):
			out[i] = line(xs[len(xs)-2], xs[len(xs)-1], x)
		default:
			out[i] = line(xs[j-1], xs[j], x)
		}
	}
	return out, nil
}

// Alternative selects the tail of Fisher's exact test.
type Alternative int

const (
	TwoSided Alternative = iota
	Less                 // case proportion below control
	Greater              // case proportion above control
)

// FisherExactTest tests the 2x2 table
//
//	a b  (case)
//	c d  (control)
//
// The two-sided p-value sums all tables no more likely than the observed one.
func FisherExactTest(a, b, c, d int, alt Alternative) (float64, error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, fmt.Errorf("%w: counts a = %d, b = %d, c = %d, d = %d must not be negative", ErrInvalidArgument, a, b, c, d)
	}
	return fisherExactTest(NewHypergeometric(a+b+c+d+1), a, b, c, d, alt)
}

func fisherExactTest(h *Hypergeometric, a, b, c, d int, alt Alternative) (float64, error) {
	var pmfErr error
	pmf := func(a, b, c, d int) float64 {
		p, err := h.PMF(a, b, c, d)
		if err != nil && pmfErr == nil {
			pmfErr = err
		}
		return p
	}
	base := pmf(a, b, c, d)

	greater := func(keep func(float64) bool) float64 {
		sum := 0.0
		for a, b, c, d := a, b, c, d; b > 0 && c > 0; {
			a, b, c, d = a+1, b-1, c-1, d+1
			if p := pmf(a, b, c, d); keep(p) {
				sum += p
			}
		}
		return sum
	}
	less := func(keep func(float64) bool) float64 {
		sum := 0.0
		for a, b, c, d := a, b, c, d; a > 0 && d > 0; {
			a, b, c, d = a-1, b+1, c+1, d-1
			if p := pmf(a, b, c, d); keep(p) {
				sum += p
			}
		}
		return sum
	}
	all := func(float64) bool { return true }

	var p float64
	switch alt {
	case Greater:
		p = base + greater(all)
	case Less:
		p = base + less(all)
	default:
		extreme := func(p float64) bool { return p <= base }
		p = math.Min(1, base+greater(extreme)+less(extreme))
	}
	if pmfErr != nil {
		return 0, fmt.Errorf("fisher exact test: %w", pmfErr)
	}
	return p, nil
}

// ChiSquareTest returns the p-value of Pearson's chi-square test (one degree
// of freedom) on a 2x2 table. lowCounts reports a cell below 5, where the
// approximation is poor and FisherExactTest should be preferred.
func ChiSquareTest(a, b, c, d int) (p float64, lowCounts bool, err error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, false, fmt.Errorf("%w: counts a = %d, b = %d, c = %d, d = %d must not be negative", ErrInvalidArgument, a, b, c, d)
	}
	obs := []float64{float64(a), float64(b), float64(c), float64(d)}
	total := floats.Sum(obs)
	if total == 0 {
		return 0, false, ErrEmptyInput
	}
	if a+b == 0 || c+d == 0 || a+c == 0 || b+d == 0 {
		return 0, false, fmt.Errorf("%w: a row or column of (a = %d, b = %d, c = %d, d = %d) is empty", ErrInvalidArgument, a, b, c, d)
	}
	lowCounts = a < 5 || b < 5 || c < 5 || d < 5
	exp := []float64{
		float64(a+b) * float64(a+c) / total,
		float64(a+b) * float64(b+d) / total,
		float64(c+d) * float64(a+c) / total,
		float64(c+d) * float64(b+d) / total,
	}
	return distuv.ChiSquared{K: 1}.Survival(stat.ChiSquare(obs, exp)), lowCounts, nil
}

// MaxQuantProteinPValue returns the significance-B style p-value of ratio r
// against the percentile ratios r-1, r0 and r1.
func MaxQuantProteinPValue(r, rMinus1, r0, r1 float64) float64 {
	var z float64
	if r >= r0 {
		z = (r - r0) / (r1 - r0)
	} else {
		z = (r0 - r) / (r0 - rMinus1)
	}
	return distuv.UnitNormal.Survival(z)
}
