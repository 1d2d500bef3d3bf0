package stats

import (
	"fmt"
	"math"
)

// Hypergeometric evaluates the probability of a 2x2 contingency table with
// fixed margins. It is immutable and safe for concurrent use.
type Hypergeometric struct {
	log10Factorial []float64
}

// NewHypergeometric builds a table supporting a+b+c+d < capacity.
func NewHypergeometric(capacity int) *Hypergeometric {
	return &Hypergeometric{log10Factorial: log10Factorials(capacity)}
}

// Capacity returns the exclusive upper bound on the table total.
func (h *Hypergeometric) Capacity() int {
	return len(h.log10Factorial)
}

// PMF returns C(a+b, a) * C(c+d, c) / C(a+b+c+d, a+c).
func (h *Hypergeometric) PMF(a, b, c, d int) (float64, error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, fmt.Errorf("%w: a = %d, b = %d, c = %d, d = %d must not be negative", ErrInvalidArgument, a, b, c, d)
	}
	total := a + b + c + d
	if total >= len(h.log10Factorial) {
		return 0, &OutOfRangeError{Index: total, Capacity: len(h.log10Factorial)}
	}
	f := h.log10Factorial
	return math.Pow(10, f[a+b]+f[c+d]+f[a+c]+f[b+d]-f[total]-f[a]-f[b]-f[c]-f[d]), nil
}
