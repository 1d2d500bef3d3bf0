package sparse

import (
	"sort"
	"strconv"
	"strings"
)

// BoolVector is a sparse 0/1 vector stored as a set of indices.
type BoolVector struct {
	set map[int]struct{}
}

// NewBoolVector returns a vector with the given indices set.
func NewBoolVector(indices ...int) *BoolVector {
	b := &BoolVector{set: make(map[int]struct{}, len(indices))}
	for _, i := range indices {
		b.set[i] = struct{}{}
	}
	return b
}

// Set marks index i.
func (b *BoolVector) Set(i int) {
	b.set[i] = struct{}{}
}

// Norm2Square equals the number of set indices.
func (b *BoolVector) Norm2Square() float64 {
	return float64(len(b.set))
}

// Dot sums other over the set indices in ascending order.
func (b *BoolVector) Dot(other *Vector) float64 {
	out := 0.0
	for _, i := range intersect(b.set, other.m) {
		out += other.m[i]
	}
	return out
}

// FastDot is Dot that also drops every index not stored in other. The
// receiver is modified.
func (b *BoolVector) FastDot(other *Vector) float64 {
	for i := range b.set {
		if _, ok := other.m[i]; !ok {
			delete(b.set, i)
		}
	}
	return b.Dot(other)
}

// DotBool returns the size of the intersection.
func (b *BoolVector) DotBool(other *BoolVector) float64 {
	small, large := b.set, other.set
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for i := range small {
		if _, ok := large[i]; ok {
			n++
		}
	}
	return float64(n)
}

// Clone returns an independent copy.
func (b *BoolVector) Clone() *BoolVector {
	c := &BoolVector{set: make(map[int]struct{}, len(b.set))}
	for i := range b.set {
		c.set[i] = struct{}{}
	}
	return c
}

// IsZero reports whether index i is unset.
func (b *BoolVector) IsZero(i int) bool {
	_, ok := b.set[i]
	return !ok
}

// Delete unsets index i.
func (b *BoolVector) Delete(i int) {
	delete(b.set, i)
}

// Len returns the number of set indices.
func (b *BoolVector) Len() int {
	return len(b.set)
}

// Indices returns the set indices in ascending order.
func (b *BoolVector) Indices() []int {
	idx := make([]int, 0, len(b.set))
	for i := range b.set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (b *BoolVector) String() string {
	var sb strings.Builder
	for _, i := range b.Indices() {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(';')
	}
	return sb.String()
}
