// Package sparse provides sparse float and boolean vectors indexed by
// fragment bin.
package sparse

import (
	"math"
	"sort"
)

// Epsilon is the magnitude at or below which a value is treated as zero and
// not stored.
const Epsilon = 1e-6

// Vector is a sparse float64 vector. Absent indices read as zero. A Vector is
// not safe for concurrent mutation.
type Vector struct {
	m map[int]float64
}

// NewVector returns an empty vector.
func NewVector() *Vector {
	return &Vector{m: make(map[int]float64)}
}

// FromMap copies m into a new vector, dropping near-zero entries.
func FromMap(m map[int]float64) *Vector {
	v := &Vector{m: make(map[int]float64, len(m))}
	for i, x := range m {
		v.Put(i, x)
	}
	return v
}

// Add accumulates x into index i. Near-zero increments are ignored and an
// entry whose sum becomes near zero is removed.
func (v *Vector) Add(i int, x float64) {
	if math.Abs(x) <= Epsilon {
		return
	}
	sum := v.m[i] + x
	if math.Abs(sum) <= Epsilon {
		delete(v.m, i)
		return
	}
	v.m[i] = sum
}

// Put overwrites index i. Near-zero values are ignored.
func (v *Vector) Put(i int, x float64) {
	if math.Abs(x) <= Epsilon {
		return
	}
	v.m[i] = x
}

// Get returns the value at i, or 0.
func (v *Vector) Get(i int) float64 {
	return v.m[i]
}

// IsNonzero reports whether i is stored.
func (v *Vector) IsNonzero(i int) bool {
	_, ok := v.m[i]
	return ok
}

// Len is the number of stored entries.
func (v *Vector) Len() int {
	return len(v.m)
}

// IsEmpty reports whether no entries are stored.
func (v *Vector) IsEmpty() bool {
	return len(v.m) == 0
}

// Indices returns the stored indices in ascending order.
func (v *Vector) Indices() []int {
	idx := make([]int, 0, len(v.m))
	for i := range v.m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Values returns the stored values in index order.
func (v *Vector) Values() []float64 {
	idx := v.Indices()
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v.m[i]
	}
	return out
}

// Max returns the largest stored value. ok is false for an empty vector.
func (v *Vector) Max() (max float64, ok bool) {
	for _, x := range v.m {
		if !ok || x > max {
			max, ok = x, true
		}
	}
	return max, ok
}

// Min returns the smallest stored value. ok is false for an empty vector.
func (v *Vector) Min() (min float64, ok bool) {
	for _, x := range v.m {
		if !ok || x < min {
			min, ok = x, true
		}
	}
	return min, ok
}

// Norm2Square returns the squared Euclidean norm, summed in index order.
func (v *Vector) Norm2Square() float64 {
	out := 0.0
	for _, i := range v.Indices() {
		x := v.m[i]
		out += x * x
	}
	return out
}

// Dot returns the inner product with other. Products are summed in ascending
// index order, so a.Dot(b) == b.Dot(a) exactly.
func (v *Vector) Dot(other *Vector) float64 {
	out := 0.0
	for _, i := range intersect(v.m, other.m) {
		out += v.m[i] * other.m[i]
	}
	return out
}

// intersect returns the indices stored in both maps, ascending.
func intersect[T, U any](a map[int]T, b map[int]U) []int {
	var idx []int
	if len(a) <= len(b) {
		for i := range a {
			if _, ok := b[i]; ok {
				idx = append(idx, i)
			}
		}
	} else {
		for i := range b {
			if _, ok := a[i]; ok {
				idx = append(idx, i)
			}
		}
	}
	sort.Ints(idx)
	return idx
}

// Map returns a copy of the stored entries.
func (v *Vector) Map() map[int]float64 {
	out := make(map[int]float64, len(v.m))
	for i, x := range v.m {
		out[i] = x
	}
	return out
}
