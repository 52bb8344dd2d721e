// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/patches"
	"github.com/gomlx/patches/paddings"
	"github.com/pkg/errors"
)

// Convolve computes the single-channel cross-correlation of input with
// kernel: output[o] = sum over taps t of input[o*stride + t*dilation - padBefore] * kernel[t],
// with taps falling in the padding area contributing zero.
//
// input and kernel must have the same rank and dtype. Pass nil strides or
// dilations for all-ones.
func Convolve(input, kernel *Buffer, strides, dilations []int, padding paddings.Padding) (*Buffer, error) {
	if kernel.Rank() != input.Rank() {
		return nil, errors.Errorf("ops: Convolve input (rank %d) and kernel (rank %d) must have the same rank",
			input.Rank(), kernel.Rank())
	}
	if kernel.DType() != input.DType() {
		return nil, errors.Errorf("ops: Convolve input (%s) and kernel (%s) must have the same dtype",
			input.DType(), kernel.DType())
	}
	spec := patches.ForShape(input.Dims()...).
		WithKernelShape(kernel.Dims()...).
		WithPadding(padding)
	if strides != nil {
		spec = spec.WithStrides(strides...)
	}
	if dilations != nil {
		spec = spec.WithDilations(dilations...)
	}
	p, err := spec.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "ops: Convolve kernel %v over input %v", kernel.Dims(), input.Dims())
	}
	switch input.DType() {
	case dtypes.Float32:
		return convolvePatch[float32](p, input, kernel), nil
	case dtypes.Float64:
		return convolvePatch[float64](p, input, kernel), nil
	default:
		return nil, errors.Errorf("ops: Convolve does not support dtype %s", input.DType())
	}
}

func convolvePatch[T dtypes.GoFloat](p *patches.Patch, input, kernel *Buffer) *Buffer {
	in := Flat[T](input)
	// The patch's taps are in row-major kernel order, which is exactly the
	// kernel buffer's flat layout: tap index == kernel flat index.
	k := Flat[T](kernel)
	output := New[T](p.OutputShape...)
	out := Flat[T](output)
	outStrides := rowMajorStrides(p.OutputShape)
	for coords, hint := range p.VisitAll() {
		it := p.AtHint(coords, hint)
		var acc T
		for tap := 0; ; tap++ {
			offset, present, ok := it.Next()
			if !ok {
				break
			}
			if present {
				acc += in[offset] * k[tap]
			}
		}
		out[flatOffset(coords, outStrides)] = acc
	}
	return output
}
