// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package paddings resolves symbolic padding policies for sliding-window
// operations (convolutions and pooling) into explicit per-axis amounts.
//
// A Padding value plus the per-axis input extent, kernel extent, dilation and
// stride determine the output extent and how much implicit zero-padding is
// added before and after the axis. The policies follow the usual convention:
//
//   - Valid: no padding, the output shrinks.
//   - SameUpper / SameLower: output size is ceil(input/stride); for odd total
//     padding the extra element goes after (Upper) or before (Lower) the axis.
//   - Explicit: caller-provided per-axis before/after amounts.
package paddings

import (
	"fmt"

	"github.com/pkg/errors"
)

type kind int

const (
	kindValid kind = iota
	kindSameUpper
	kindSameLower
	kindExplicit
)

// Padding is a symbolic padding policy. The zero value is Valid (no padding).
//
// Use Valid, SameUpper, SameLower or Explicit to construct one.
type Padding struct {
	kind          kind
	before, after []int
}

// Valid returns the policy that adds no padding: every kernel tap must fall
// inside the input, so the output shrinks by the effective kernel size minus one.
func Valid() Padding { return Padding{kind: kindValid} }

// SameUpper returns the "same" policy with any extra (odd) padding placed
// after the axis. With stride 1 it preserves the input extent.
// This is the usual TensorFlow/ONNX "SAME" convention.
func SameUpper() Padding { return Padding{kind: kindSameUpper} }

// SameLower returns the "same" policy with any extra (odd) padding placed
// before the axis.
func SameLower() Padding { return Padding{kind: kindSameLower} }

// Explicit returns a policy with the given per-axis padding amounts.
// before and after must have one entry per spatial axis.
func Explicit(before, after []int) Padding {
	return Padding{kind: kindExplicit, before: before, after: after}
}

// ComputedPaddedDim is the resolution of a policy for one axis.
type ComputedPaddedDim struct {
	Output, PadBefore, PadAfter int
}

// String implements fmt.Stringer.
func (p Padding) String() string {
	switch p.kind {
	case kindValid:
		return "Valid"
	case kindSameUpper:
		return "SameUpper"
	case kindSameLower:
		return "SameLower"
	case kindExplicit:
		return fmt.Sprintf("Explicit(%v, %v)", p.before, p.after)
	}
	return "InvalidPadding"
}

// Compute resolves the policy for every axis at once.
// All slices must have the same length (the spatial rank); for Explicit
// policies the before/after amounts must also match that rank.
func (p Padding) Compute(input, kernel, dilations, strides []int) ([]ComputedPaddedDim, error) {
	rank := len(input)
	if len(kernel) != rank || len(dilations) != rank || len(strides) != rank {
		return nil, errors.Errorf(
			"paddings: input (%d), kernel (%d), dilations (%d) and strides (%d) must all have the same rank",
			len(input), len(kernel), len(dilations), len(strides))
	}
	if p.kind == kindExplicit && (len(p.before) != rank || len(p.after) != rank) {
		return nil, errors.Errorf(
			"paddings: Explicit padding has %d/%d entries for before/after, but the spatial rank is %d",
			len(p.before), len(p.after), rank)
	}
	dims := make([]ComputedPaddedDim, rank)
	for axis := range dims {
		var err error
		dims[axis], err = p.ComputeOneDim(axis, input[axis], kernel[axis], dilations[axis], strides[axis])
		if err != nil {
			return nil, err
		}
	}
	return dims, nil
}

// ComputeOneDim resolves the policy for a single axis. The axis index is only
// used to select the amounts of an Explicit policy (and in error messages).
func (p Padding) ComputeOneDim(axis, input, kernel, dilation, stride int) (ComputedPaddedDim, error) {
	if stride < 1 || dilation < 1 {
		return ComputedPaddedDim{}, errors.Errorf(
			"paddings: stride (%d) and dilation (%d) must be >= 1 on axis %d", stride, dilation, axis)
	}
	effectiveKernel := (kernel-1)*dilation + 1
	switch p.kind {
	case kindValid:
		if effectiveKernel > input {
			return ComputedPaddedDim{}, errors.Errorf(
				"paddings: axis %d has effective kernel size %d larger than the input extent %d and no padding",
				axis, effectiveKernel, input)
		}
		return ComputedPaddedDim{Output: (input-effectiveKernel)/stride + 1}, nil

	case kindSameUpper, kindSameLower:
		output := ceilDiv(input, stride)
		pad := (output-1)*stride + effectiveKernel - input
		if pad < 0 {
			pad = 0
		}
		dim := ComputedPaddedDim{Output: output}
		if p.kind == kindSameUpper {
			dim.PadBefore = pad / 2
			dim.PadAfter = pad - dim.PadBefore
		} else {
			dim.PadAfter = pad / 2
			dim.PadBefore = pad - dim.PadAfter
		}
		return dim, nil

	case kindExplicit:
		before, after := p.before[axis], p.after[axis]
		if before < 0 || after < 0 {
			return ComputedPaddedDim{}, errors.Errorf(
				"paddings: negative padding (%d, %d) on axis %d", before, after, axis)
		}
		padded := input + before + after
		if effectiveKernel > padded {
			return ComputedPaddedDim{}, errors.Errorf(
				"paddings: axis %d has effective kernel size %d larger than the padded input extent %d",
				axis, effectiveKernel, padded)
		}
		return ComputedPaddedDim{
			Output:    (padded-effectiveKernel)/stride + 1,
			PadBefore: before,
			PadAfter:  after,
		}, nil
	}
	return ComputedPaddedDim{}, errors.Errorf("paddings: invalid padding policy %q", p)
}

func ceilDiv(a, b int) int {
	if a > 0 {
		return (a-1)/b + 1
	}
	return a / b
}
