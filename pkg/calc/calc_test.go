package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperations(t *testing.T) {
	tests := []struct {
		op   string
		a, b int64
		want int64
	}{
		{"add", 10, 5, 15},
		{"subtract", 10, 5, 5},
		{"subtract", 5, 10, -5},
		{"multiply", 10, 5, 50},
		{"divide", 10, 5, 2},
		{"divide", 7, 2, 3},
		{"divide", -7, 2, -3},
	}

	ops := Operations()
	for _, tc := range tests {
		got, err := ops[tc.op](tc.a, tc.b)
		require.NoError(t, err, "%s(%d, %d)", tc.op, tc.a, tc.b)
		assert.Equal(t, tc.want, got, "%s(%d, %d)", tc.op, tc.a, tc.b)
	}
}

func TestDivide_ByZero(t *testing.T) {
	_, err := Divide(10, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAdd_Wraps(t *testing.T) {
	got, err := Add(math.MaxInt64, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}
