// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package patches precomputes output-to-input index mappings for N-dimensional
// sliding-window operations (convolutions and pooling) with arbitrary rank,
// strides, dilations and padding.
//
// The entry point is PatchSpec: it describes the window geometry, and Build
// turns it into an immutable Patch. The Patch partitions the output index
// space into one "valid" hyper-rectangle -- positions whose window can never
// touch padding -- and a set of disjoint "invalid" shells covering the border
// positions. Numeric kernels iterate output positions with the zone visitors
// (VisitValid, VisitInvalid, VisitAll) and, for each position, enumerate the
// flat input offset of every kernel tap with a PatchIterator obtained from
// At or AtHint:
//
//   - Inside the valid zone the iterator uses an unchecked arithmetic fast
//     path: one precomputed signed delta per tap added to the position's
//     center offset.
//   - On the shells every tap is range-checked independently, and taps that
//     fall into the padding area are reported as missing (typically treated
//     as an implicit zero by the caller).
//
// A Patch is built once per operator shape-specialization and is strictly
// read-only afterwards: any number of goroutines may visit zones and request
// iterators concurrently. Use Cache to memoize Patches per distinct spec.
package patches

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/patches/types/xslices"
	"github.com/pkg/errors"
)

// Patch is the precomputed, immutable index-mapping descriptor for one window
// specification. Build one with PatchSpec.Build.
//
// All fields are exported for the benefit of operator implementations, but
// they must be treated as read-only: iterators and visitors borrow them.
type Patch struct {
	// Spec is the window specification this Patch was built from.
	Spec PatchSpec

	// PadBefore and PadAfter are the resolved per-axis padding amounts.
	PadBefore, PadAfter []int

	// Padded is true iff any padding amount is nonzero. When false, every
	// output position is valid and the fast path is unconditionally sound.
	Padded bool

	// OutputShape is the per-axis extent of the output index space.
	OutputShape []int

	// DataField holds, for every kernel tap in row-major kernel order, its
	// signed per-axis offset into the input relative to an output position's
	// window origin: tap*dilation - padBefore. It is a flattened
	// [NumTaps()][Rank()] array: DataField[tap*Rank()+axis].
	DataField []int

	// DataFieldMinMax is the per-axis minimum and maximum of DataField
	// across all taps. The per-axis validity test only needs these extremes.
	DataFieldMinMax [][2]int

	// StandardLayoutDataField is DataField collapsed to one flat signed
	// delta per tap in the input buffer's linear address space.
	StandardLayoutDataField []int

	// OpStridesTimesInputStorageStrides is, per axis, the flat-address delta
	// incurred by moving one output position along that axis:
	// Strides[axis] * inputLayoutStrides[axis].
	OpStridesTimesInputStorageStrides []int

	// ValidOutputZone is the hyper-rectangle of output positions whose
	// window never touches padding, for any tap.
	ValidOutputZone Zone

	// InvalidOutputZones are disjoint hyper-rectangles covering every output
	// position outside ValidOutputZone. Their union with ValidOutputZone
	// tiles the output index space exactly once.
	InvalidOutputZones []Zone
}

// Build resolves the padding policy and computes the Patch: the data field,
// its flat-layout projection and the valid/invalid output zone partition.
// It fails on rank mismatches between the spec sequences and on padding
// resolution errors; it never fails afterwards.
func (s PatchSpec) Build() (*Patch, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	rank := s.Rank()
	dims, err := s.Padding.Compute(s.InputShape, s.KernelShape, s.Dilations, s.Strides)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving padding for %s", s)
	}
	p := &Patch{
		Spec:        s,
		OutputShape: make([]int, rank),
		PadBefore:   make([]int, rank),
		PadAfter:    make([]int, rank),
	}
	for axis, dim := range dims {
		p.OutputShape[axis] = dim.Output
		p.PadBefore[axis] = dim.PadBefore
		p.PadAfter[axis] = dim.PadAfter
	}
	p.Padded = xslices.Any(p.PadBefore, isNonZero) || xslices.Any(p.PadAfter, isNonZero)

	// Data field: per-axis signed offsets of every kernel tap, row-major.
	numTaps := xslices.Product(s.KernelShape)
	p.DataField = make([]int, 0, numTaps*rank)
	tap := make([]int, rank)
	for {
		for axis, t := range tap {
			p.DataField = append(p.DataField, t*s.Dilations[axis]-p.PadBefore[axis])
		}
		if !nextIndices(tap, s.KernelShape) {
			break
		}
	}
	p.DataFieldMinMax = make([][2]int, rank)
	for axis := 0; axis < rank; axis++ {
		minOffset, maxOffset := p.DataField[axis], p.DataField[axis]
		for tapIdx := 1; tapIdx < numTaps; tapIdx++ {
			offset := p.DataField[tapIdx*rank+axis]
			minOffset = min(minOffset, offset)
			maxOffset = max(maxOffset, offset)
		}
		p.DataFieldMinMax[axis] = [2]int{minOffset, maxOffset}
	}

	// Flat-layout projection: row-major physical layout with a configurable
	// innermost stride.
	inputLayoutStrides := make([]int, rank)
	inputLayoutStrides[rank-1] = s.InputInnerStride
	for axis := rank - 2; axis >= 0; axis-- {
		inputLayoutStrides[axis] = inputLayoutStrides[axis+1] * s.InputShape[axis+1]
	}
	p.StandardLayoutDataField = make([]int, numTaps)
	for tapIdx := 0; tapIdx < numTaps; tapIdx++ {
		flat := 0
		for axis := 0; axis < rank; axis++ {
			flat += p.DataField[tapIdx*rank+axis] * inputLayoutStrides[axis]
		}
		p.StandardLayoutDataField[tapIdx] = flat
	}
	p.OpStridesTimesInputStorageStrides = make([]int, rank)
	for axis := 0; axis < rank; axis++ {
		p.OpStridesTimesInputStorageStrides[axis] = s.Strides[axis] * inputLayoutStrides[axis]
	}

	p.computeZones()
	return p, nil
}

// Rank returns the number of spatial axes of the window.
func (p *Patch) Rank() int { return len(p.Spec.InputShape) }

// NumTaps returns the number of kernel taps, the product of the kernel shape.
func (p *Patch) NumTaps() int { return len(p.StandardLayoutDataField) }

// IsValid reports whether the window at the given output position lies fully
// inside the input, for every kernel tap. It is the direct per-axis
// evaluation of the test that defines ValidOutputZone and agrees with zone
// membership exactly.
//
// It panics if len(coords) != Rank().
func (p *Patch) IsValid(coords []int) bool {
	p.assertRank(coords)
	for axis, c := range coords {
		pos := c * p.Spec.Strides[axis]
		minMax := p.DataFieldMinMax[axis]
		if pos+minMax[0] < 0 || pos+minMax[1] >= p.Spec.InputShape[axis] {
			return false
		}
	}
	return true
}

// GlobalOffsetFor returns the flat input offset of one kernel tap at one
// output position: the same value the iterators produce for that tap, useful
// for random access (e.g. backward passes) without a full enumeration.
//
// The tap must be present (in-range) at that position; for positions outside
// the valid zone check with the safe iterator first.
// It panics if len(coords) != Rank() or tap is out of range.
func (p *Patch) GlobalOffsetFor(coords []int, tap int) int {
	p.assertRank(coords)
	if tap < 0 || tap >= p.NumTaps() {
		exceptions.Panicf("patches: GlobalOffsetFor tap %d out of range, patch has %d taps", tap, p.NumTaps())
	}
	center := 0
	for axis, c := range coords {
		center += c * p.OpStridesTimesInputStorageStrides[axis]
	}
	return center + p.StandardLayoutDataField[tap]
}

func (p *Patch) assertRank(coords []int) {
	if len(coords) != p.Rank() {
		exceptions.Panicf("patches: got %d coordinates for a rank %d patch (spec %s)",
			len(coords), p.Rank(), p.Spec)
	}
}

// nextIndices advances indices to the next position of the row-major
// enumeration of shape (last axis fastest). It returns false after wrapping
// past the last position.
func nextIndices(indices, shape []int) bool {
	for axis := len(indices) - 1; axis >= 0; axis-- {
		indices[axis]++
		if indices[axis] < shape[axis] {
			return true
		}
		indices[axis] = 0
	}
	return false
}

func isNonZero(v int) bool { return v != 0 }

func ceilDiv(a, b int) int {
	if a > 0 {
		return (a-1)/b + 1
	}
	return a / b
}
