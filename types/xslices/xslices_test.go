package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceWithValue(t *testing.T) {
	assert.Equal(t, []int{7, 7, 7}, SliceWithValue(3, 7))
	assert.Empty(t, SliceWithValue[int](0, 1))
}

func TestIota(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, Iota(3, 3))
	assert.Equal(t, []float64{3.0, 4.0}, Iota(3.0, 2))
}

func TestMap(t *testing.T) {
	double := func(v int) int { return 2 * v }
	assert.Equal(t, []int{2, 4, 6}, Map([]int{1, 2, 3}, double))
	assert.Equal(t, Map(Iota(0, 100), double), MapParallel(Iota(0, 100), double))
}

func TestProduct(t *testing.T) {
	assert.Equal(t, 24, Product([]int{2, 3, 4}))
	assert.Equal(t, 1, Product[int](nil))
}

func TestAny(t *testing.T) {
	nonZero := func(v int) bool { return v != 0 }
	assert.True(t, Any([]int{0, 0, 1}, nonZero))
	assert.False(t, Any([]int{0, 0}, nonZero))
	assert.False(t, Any(nil, nonZero))
}
