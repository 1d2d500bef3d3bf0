package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinomialTails(t *testing.T) {
	b := NewBinomial(100)
	assert.Equal(t, 100, b.Capacity())

	tests := []struct {
		name         string
		n, k         int
		p            float64
		upper, lower float64
	}{
		{"typical", 5, 2, 0.1, 0.08146, 0.99144},
		{"all successes", 6, 6, 0.01, 0, 1},
		{"no successes", 7, 0, 0.03, 1, 0.80798},
		{"empty trial", 0, 0, 0.1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upper, err := b.ProbLargerThanOrEqualTo(tt.n, tt.k, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.upper, upper, 1e-4)

			lower, err := b.ProbSmallerThanOrEqualTo(tt.n, tt.k, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.lower, lower, 1e-4)
		})
	}
}

func TestBinomialDegenerateProbability(t *testing.T) {
	b := NewBinomial(20)

	got, err := b.ProbLargerThanOrEqualTo(10, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = b.ProbLargerThanOrEqualTo(10, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = b.ProbSmallerThanOrEqualTo(10, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestBinomialErrors(t *testing.T) {
	b := NewBinomial(10)

	tests := []struct {
		name    string
		n, k    int
		p       float64
		wantErr error
	}{
		{"N beyond capacity", 11, 2, 0.01, ErrOutOfRange},
		{"N equal to capacity", 10, 5, 0.01, ErrOutOfRange},
		{"k larger than N", 6, 7, 0.01, ErrInvalidArgument},
		{"k much larger than N", 6, 8, 0.01, ErrInvalidArgument},
		{"negative k", 6, -1, 0.01, ErrInvalidArgument},
		{"p above one", 6, 2, 1.5, ErrInvalidArgument},
		{"negative p", 6, 2, -0.1, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.ProbLargerThanOrEqualTo(tt.n, tt.k, tt.p)
			assert.ErrorIs(t, err, tt.wantErr)
			_, err = b.ProbSmallerThanOrEqualTo(tt.n, tt.k, tt.p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOutOfRangeErrorDetails(t *testing.T) {
	_, err := NewBinomial(10).ProbLargerThanOrEqualTo(12, 2, 0.1)

	var rangeErr *OutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 12, rangeErr.Index)
	assert.Equal(t, 10, rangeErr.Capacity)
	assert.Contains(t, err.Error(), "capacity 10")
}
