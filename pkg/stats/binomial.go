// Package stats holds exact discrete distributions built on log10-factorial
// tables, and the descriptive statistics and tests used to summarise search
// results.
package stats

import (
	"fmt"
	"math"
)

// log10Factorials returns log10(i!) for i in [0, capacity).
func log10Factorials(capacity int) []float64 {
	if capacity < 1 {
		capacity = 1
	}
	table := make([]float64, capacity)
	sum := 0.0
	for i := 1; i < capacity; i++ {
		sum += math.Log10(float64(i))
		table[i] = sum
	}
	return table
}

// Binomial computes binomial tail probabilities exactly by summing the PMF in
// log space. A Binomial is immutable and safe for concurrent use.
type Binomial struct {
	log10Factorial []float64
}

// NewBinomial builds a table supporting N < capacity.
func NewBinomial(capacity int) *Binomial {
	return &Binomial{log10Factorial: log10Factorials(capacity)}
}

// Capacity returns the exclusive upper bound on N.
func (b *Binomial) Capacity() int {
	return len(b.log10Factorial)
}

func (b *Binomial) check(n, k int) error {
	if k > n {
		return fmt.Errorf("%w: k = %d is larger than N = %d", ErrInvalidArgument, k, n)
	}
	if n < 0 || k < 0 {
		return fmt.Errorf("%w: N = %d and k = %d must not be negative", ErrInvalidArgument, n, k)
	}
	if n >= len(b.log10Factorial) {
		return &OutOfRangeError{Index: n, Capacity: len(b.log10Factorial)}
	}
	return nil
}

func checkProbability(p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: p = %v is not a probability", ErrInvalidArgument, p)
	}
	return nil
}

// ProbLargerThanOrEqualTo returns P(X >= k) for X ~ Binomial(n, p).
func (b *Binomial) ProbLargerThanOrEqualTo(n, k int, p float64) (float64, error) {
	if err := b.check(n, k); err != nil {
		return 0, err
	}
	if err := checkProbability(p); err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}
	sum := 0.0
	for i := k; i <= n; i++ {
		sum += math.Pow(10, b.log10PMF(n, i, p))
	}
	return sum, nil
}

// ProbSmallerThanOrEqualTo returns P(X <= k) for X ~ Binomial(n, p).
func (b *Binomial) ProbSmallerThanOrEqualTo(n, k int, p float64) (float64, error) {
	if err := b.check(n, k); err != nil {
		return 0, err
	}
	if err := checkProbability(p); err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}
	sum := 0.0
	for i := 0; i <= k; i++ {
		sum += math.Pow(10, b.log10PMF(n, i, p))
	}
	return sum, nil
}

func (b *Binomial) log10PMF(n, i int, p float64) float64 {
	// degenerate p would give 0 * -Inf
	switch {
	case p == 0 && i == 0, p == 1 && i == n:
		return 0
	case p == 0, p == 1:
		return math.Inf(-1)
	}
	f := b.log10Factorial
	return f[n] - f[i] - f[n-i] + float64(i)*math.Log10(p) + float64(n-i)*math.Log10(1-p)
}
