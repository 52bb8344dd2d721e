// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package patches

import (
	"fmt"

	"github.com/gomlx/patches/paddings"
	"github.com/gomlx/patches/types/xslices"
	"github.com/pkg/errors"
)

// PatchSpec describes a sliding window over an N-dimensional input: the input
// spatial shape, the kernel (window) shape, per-axis strides and dilations,
// the padding policy, and the inner strides of the backing buffers.
//
// All per-axis slices must have the same length, the spatial rank. Build one
// with ForShape and the chainable With* methods, then call Build to obtain
// the immutable Patch:
//
//	patch, err := patches.ForShape(28, 28).
//		WithKernelShape(3, 3).
//		WithStrides(2, 2).
//		WithPadding(paddings.SameUpper()).
//		Build()
type PatchSpec struct {
	// InputShape is the extent of each spatial axis of the input.
	InputShape []int

	// InputInnerStride is the stride, in flat elements, of the innermost
	// input axis. It is > 1 when the innermost spatial axis is interleaved
	// with another axis (e.g. channels-last layouts).
	InputInnerStride int

	// OutputInnerStride is the equivalent stride for the output buffer.
	// The Patch itself never addresses the output; the value is carried for
	// the operator layer that does.
	OutputInnerStride int

	KernelShape []int
	Strides     []int
	Dilations   []int
	Padding     paddings.Padding
}

// ForShape returns a PatchSpec over the given input spatial shape with a 1x...x1
// kernel, unit strides and dilations, unit inner strides and Valid padding.
// Refine it with the With* methods.
func ForShape(inputShape ...int) PatchSpec {
	rank := len(inputShape)
	return PatchSpec{
		InputShape:        inputShape,
		InputInnerStride:  1,
		OutputInnerStride: 1,
		KernelShape:       xslices.SliceWithValue(rank, 1),
		Strides:           xslices.SliceWithValue(rank, 1),
		Dilations:         xslices.SliceWithValue(rank, 1),
		Padding:           paddings.Valid(),
	}
}

// WithKernelShape returns a copy of the spec with the given kernel (window) shape.
func (s PatchSpec) WithKernelShape(kernelShape ...int) PatchSpec {
	s.KernelShape = kernelShape
	return s
}

// WithStrides returns a copy of the spec with the given per-axis strides.
func (s PatchSpec) WithStrides(strides ...int) PatchSpec {
	s.Strides = strides
	return s
}

// WithDilations returns a copy of the spec with the given per-axis kernel dilations.
func (s PatchSpec) WithDilations(dilations ...int) PatchSpec {
	s.Dilations = dilations
	return s
}

// WithPadding returns a copy of the spec with the given padding policy.
func (s PatchSpec) WithPadding(padding paddings.Padding) PatchSpec {
	s.Padding = padding
	return s
}

// WithInputInnerStride returns a copy of the spec with the given innermost input axis stride.
func (s PatchSpec) WithInputInnerStride(stride int) PatchSpec {
	s.InputInnerStride = stride
	return s
}

// WithOutputInnerStride returns a copy of the spec with the given innermost output axis stride.
func (s PatchSpec) WithOutputInnerStride(stride int) PatchSpec {
	s.OutputInnerStride = stride
	return s
}

// Rank returns the number of spatial axes of the window.
func (s PatchSpec) Rank() int { return len(s.InputShape) }

// String implements fmt.Stringer with a canonical rendering of the spec:
// two specs describe the same window iff their strings are equal.
// Cache relies on this.
func (s PatchSpec) String() string {
	return fmt.Sprintf("input=%v inner=%d/%d kernel=%v strides=%v dilations=%v padding=%s",
		s.InputShape, s.InputInnerStride, s.OutputInnerStride,
		s.KernelShape, s.Strides, s.Dilations, s.Padding)
}

// validate checks the rank and range invariants on the spec.
// A mismatched sequence is always an error, never silently truncated.
func (s PatchSpec) validate() error {
	rank := s.Rank()
	if rank == 0 {
		return errors.Errorf("PatchSpec has no spatial axes: %s", s)
	}
	if len(s.KernelShape) != rank || len(s.Strides) != rank || len(s.Dilations) != rank {
		return errors.Errorf(
			"PatchSpec sequences must all have rank %d: kernel has %d, strides has %d, dilations has %d",
			rank, len(s.KernelShape), len(s.Strides), len(s.Dilations))
	}
	for axis := 0; axis < rank; axis++ {
		if s.InputShape[axis] <= 0 {
			return errors.Errorf("PatchSpec input extent must be > 0, axis %d has %d", axis, s.InputShape[axis])
		}
		if s.KernelShape[axis] <= 0 {
			return errors.Errorf("PatchSpec kernel extent must be > 0, axis %d has %d", axis, s.KernelShape[axis])
		}
		if s.Strides[axis] < 1 || s.Dilations[axis] < 1 {
			return errors.Errorf("PatchSpec strides and dilations must be >= 1, axis %d has stride=%d, dilation=%d",
				axis, s.Strides[axis], s.Dilations[axis])
		}
	}
	if s.InputInnerStride < 1 || s.OutputInnerStride < 1 {
		return errors.Errorf("PatchSpec inner strides must be >= 1, got input=%d, output=%d",
			s.InputInnerStride, s.OutputInnerStride)
	}
	return nil
}
