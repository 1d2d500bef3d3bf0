package score

import (
	"fmt"
	"sort"
)

// Coordinate is a half-open residue interval [X, Y) of an annotated peptide
// where position 0 is the N-terminus.
type Coordinate struct {
	X int
	Y int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d-%d)", c.X, c.Y)
}

// Less orders by X, then Y.
func (c Coordinate) Less(other Coordinate) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

// PTMMap places variable modification masses on residue intervals.
type PTMMap map[Coordinate]float64

// Coordinates returns the keys in order.
func (m PTMMap) Coordinates() []Coordinate {
	out := make([]Coordinate, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
