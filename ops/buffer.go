// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops implements reference sliding-window operators -- pooling and a
// single-channel convolution -- on top of the patches indexing engine. It is
// both the library's smoke test and a template for backends integrating the
// engine: the valid output zone runs on the unchecked fast path, the border
// shells on the range-checked one, and missing taps are treated as implicit
// zeros.
package ops

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/patches/types/xslices"
	"github.com/pkg/errors"
)

// Buffer is a dense row-major N-dimensional array: a dtype, the per-axis
// dimensions and the flat backing slice (always a slice of the dtype's Go type).
type Buffer struct {
	dtype dtypes.DType
	dims  []int
	flat  any
}

// New returns a zero-initialized Buffer with the given dimensions.
func New[T dtypes.Supported](dims ...int) *Buffer {
	size := xslices.Product(dims)
	return &Buffer{
		dtype: dtypes.FromGenericsType[T](),
		dims:  slices.Clone(dims),
		flat:  make([]T, size),
	}
}

// FromFlat wraps an existing flat slice as a Buffer with the given
// dimensions. The slice is not copied; it must have exactly the product of
// the dimensions elements.
func FromFlat[T dtypes.Supported](flat []T, dims ...int) (*Buffer, error) {
	size := xslices.Product(dims)
	if len(flat) != size {
		return nil, errors.Errorf("ops: flat slice has %d elements, dimensions %v require %d", len(flat), dims, size)
	}
	return &Buffer{
		dtype: dtypes.FromGenericsType[T](),
		dims:  slices.Clone(dims),
		flat:  flat,
	}, nil
}

// DType returns the buffer's element type.
func (b *Buffer) DType() dtypes.DType { return b.dtype }

// Dims returns the buffer's dimensions. Read-only: owned by the buffer.
func (b *Buffer) Dims() []int { return b.dims }

// Rank returns the buffer's number of axes.
func (b *Buffer) Rank() int { return len(b.dims) }

// Size returns the buffer's number of elements.
func (b *Buffer) Size() int { return xslices.Product(b.dims) }

// Flat returns the buffer's flat data slice.
// It panics if T doesn't match the buffer's dtype.
func Flat[T dtypes.Supported](b *Buffer) []T {
	want := dtypes.FromGenericsType[T]()
	if b.dtype != want {
		exceptions.Panicf("ops: Flat[%s] called on a %s buffer", want, b.dtype)
	}
	return b.flat.([]T)
}

// rowMajorStrides returns the flat strides of a dense row-major layout.
func rowMajorStrides(dims []int) []int {
	strides := make([]int, len(dims))
	stride := 1
	for axis := len(dims) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= dims[axis]
	}
	return strides
}

func flatOffset(coords, strides []int) int {
	offset := 0
	for axis, c := range coords {
		offset += c * strides[axis]
	}
	return offset
}
