// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/patches"
	"github.com/gomlx/patches/paddings"
	"github.com/gomlx/patches/types/xslices"
	"github.com/pkg/errors"
)

type reduceKind int

const (
	reduceMax reduceKind = iota
	reduceSum
	reduceAvg
)

func (k reduceKind) String() string {
	switch k {
	case reduceMax:
		return "MaxPool"
	case reduceSum:
		return "SumPool"
	default:
		return "AvgPool"
	}
}

// MaxPool computes the maximum over each window of the input.
// Padding positions don't participate; an output position whose window holds
// no input element at all (possible only with padding wider than the window)
// is set to zero.
func MaxPool(input *Buffer, window, strides []int, padding paddings.Padding) (*Buffer, error) {
	return pool(input, window, strides, padding, reduceMax)
}

// SumPool computes the sum over each window of the input, counting padding
// positions as zero.
func SumPool(input *Buffer, window, strides []int, padding paddings.Padding) (*Buffer, error) {
	return pool(input, window, strides, padding, reduceSum)
}

// AvgPool computes the mean over each window of the input. The divisor is the
// number of input elements actually present in the window, so it shrinks at
// padded borders.
func AvgPool(input *Buffer, window, strides []int, padding paddings.Padding) (*Buffer, error) {
	return pool(input, window, strides, padding, reduceAvg)
}

func pool(input *Buffer, window, strides []int, padding paddings.Padding, kind reduceKind) (*Buffer, error) {
	spec := patches.ForShape(input.Dims()...).
		WithKernelShape(window...).
		WithStrides(strides...).
		WithPadding(padding)
	p, err := spec.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "ops: %s window %v over input %v", kind, window, input.Dims())
	}
	switch input.DType() {
	case dtypes.Float32:
		return poolPatch[float32](p, input, kind), nil
	case dtypes.Float64:
		return poolPatch[float64](p, input, kind), nil
	default:
		return nil, errors.Errorf("ops: %s does not support dtype %s", kind, input.DType())
	}
}

func poolPatch[T dtypes.GoFloat](p *patches.Patch, input *Buffer, kind reduceKind) *Buffer {
	in := Flat[T](input)
	output := New[T](p.OutputShape...)
	out := Flat[T](output)
	outStrides := rowMajorStrides(p.OutputShape)
	for coords, hint := range p.VisitAll() {
		it := p.AtHint(coords, hint)
		var acc T
		count := 0
		for {
			offset, present, ok := it.Next()
			if !ok {
				break
			}
			if !present {
				continue
			}
			value := in[offset]
			switch {
			case count == 0:
				acc = value
			case kind == reduceMax:
				acc = max(acc, value)
			default:
				acc += value
			}
			count++
		}
		if kind == reduceAvg && count > 0 {
			acc /= T(count)
		}
		out[flatOffset(coords, outStrides)] = acc
	}
	return output
}

// PoolBatch applies poolFn to every buffer of the batch, spreading the work
// over up to runtime.NumCPU goroutines. Each element references only its own
// Patch iterators, so no synchronization beyond the final join is needed.
func PoolBatch(batch []*Buffer, poolFn func(*Buffer) (*Buffer, error)) ([]*Buffer, error) {
	type result struct {
		out *Buffer
		err error
	}
	results := xslices.MapParallel(batch, func(b *Buffer) result {
		out, err := poolFn(b)
		return result{out, err}
	})
	outputs := make([]*Buffer, len(results))
	for ii, r := range results {
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "ops: pooling batch element %d", ii)
		}
		outputs[ii] = r.out
	}
	return outputs, nil
}
