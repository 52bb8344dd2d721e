// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package patches

import (
	"iter"

	"github.com/gomlx/exceptions"
)

// Range is a half-open [Start, End) interval of output indices along one axis.
type Range struct {
	Start, End int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range holds no index.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Zone is an axis-aligned hyper-rectangle of output positions, one Range per axis.
type Zone []Range

// Size returns the number of output positions inside the zone.
func (z Zone) Size() int {
	size := 1
	for _, r := range z {
		size *= r.Len()
	}
	return size
}

// Contains reports whether the given output position lies inside the zone.
func (z Zone) Contains(coords []int) bool {
	for axis, r := range z {
		if coords[axis] < r.Start || coords[axis] >= r.End {
			return false
		}
	}
	return true
}

// Hint is what a zone visitor knows about the output positions it yields.
type Hint int8

const (
	// NoHint means validity is unknown; At will evaluate IsValid if needed.
	NoHint Hint = iota

	// HintValid asserts every kernel tap is in-bounds: the unchecked fast
	// path is sound. Only pass it for positions inside ValidOutputZone.
	HintValid

	// HintInvalid asserts some tap may be out-of-bounds, forcing the
	// range-checked path.
	HintInvalid
)

// String implements fmt.Stringer.
func (h Hint) String() string {
	switch h {
	case HintValid:
		return "HintValid"
	case HintInvalid:
		return "HintInvalid"
	default:
		return "NoHint"
	}
}

// computeZones partitions the output index space into ValidOutputZone and the
// InvalidOutputZones shells.
//
// Per axis, the valid output indices i are those with
// i*stride+min >= 0 and i*stride+max < inputExtent, where (min, max) is the
// data field extreme for the axis; both bounds reduce to a ceiling division.
// Each axis whose valid range excludes a low prefix or a high suffix emits
// one shell using that prefix/suffix on this axis, the already-established
// valid ranges on earlier axes and the full output extent on later axes.
// Assigning every border position to the first axis (in axis order) where it
// departs from validity keeps the shells pairwise disjoint and makes them
// tile the output space together with the valid zone. The shells' particular
// shapes are an implementation detail; only the tiling is contractual.
func (p *Patch) computeZones() {
	rank := p.Rank()
	valid := make(Zone, 0, rank)
	for axis := 0; axis < rank; axis++ {
		output := p.OutputShape[axis]
		minMax := p.DataFieldMinMax[axis]
		lower := ceilDiv(-minMax[0], p.Spec.Strides[axis])
		upper := ceilDiv(p.Spec.InputShape[axis]-minMax[1], p.Spec.Strides[axis])
		// Clamp to the output extent; an oversized window can make the valid
		// range empty, the shells below still tile.
		lower = max(0, min(lower, output))
		upper = max(lower, min(upper, output))
		if lower > 0 {
			p.InvalidOutputZones = append(p.InvalidOutputZones, shellZone(valid, Range{0, lower}, p.OutputShape))
		}
		if upper < output {
			p.InvalidOutputZones = append(p.InvalidOutputZones, shellZone(valid, Range{upper, output}, p.OutputShape))
		}
		valid = append(valid, Range{lower, upper})
	}
	p.ValidOutputZone = valid
}

// shellZone builds one invalid shell: the valid prefix ranges, then the
// departing range, then full extents for the remaining axes.
func shellZone(validPrefix Zone, departing Range, outputShape []int) Zone {
	shell := make(Zone, 0, len(outputShape))
	shell = append(shell, validPrefix...)
	shell = append(shell, departing)
	for axis := len(shell); axis < len(outputShape); axis++ {
		shell = append(shell, Range{0, outputShape[axis]})
	}
	return shell
}

// VisitZone enumerates every output position inside the zone in row-major
// order, tagged with the given hint. The yielded coordinates slice is owned
// by the iterator and reused between yields: don't retain or modify it.
// The sequence is finite, restartable and side-effect free.
//
// It panics if the zone's rank differs from the patch's.
func (p *Patch) VisitZone(zone Zone, hint Hint) iter.Seq2[[]int, Hint] {
	if len(zone) != p.Rank() {
		exceptions.Panicf("patches: VisitZone got a rank %d zone for a rank %d patch", len(zone), p.Rank())
	}
	return func(yield func([]int, Hint) bool) {
		for _, r := range zone {
			if r.IsEmpty() {
				return
			}
		}
		coords := make([]int, len(zone))
		for axis, r := range zone {
			coords[axis] = r.Start
		}
		for {
			if !yield(coords, hint) {
				return
			}
			axis := len(zone) - 1
			for ; axis >= 0; axis-- {
				coords[axis]++
				if coords[axis] < zone[axis].End {
					break
				}
				coords[axis] = zone[axis].Start
			}
			if axis < 0 {
				return
			}
		}
	}
}

// VisitValid enumerates the positions of ValidOutputZone with HintValid.
func (p *Patch) VisitValid() iter.Seq2[[]int, Hint] {
	return p.VisitZone(p.ValidOutputZone, HintValid)
}

// VisitInvalid enumerates the positions of each invalid shell in turn, each
// with HintInvalid.
func (p *Patch) VisitInvalid() iter.Seq2[[]int, Hint] {
	return func(yield func([]int, Hint) bool) {
		for _, zone := range p.InvalidOutputZones {
			for coords, hint := range p.VisitZone(zone, HintInvalid) {
				if !yield(coords, hint) {
					return
				}
			}
		}
	}
}

// VisitAll enumerates every output position exactly once: first the valid
// zone, then each invalid shell. Callers may exploit that ordering for
// locality but must not assume a globally row-major order.
func (p *Patch) VisitAll() iter.Seq2[[]int, Hint] {
	return func(yield func([]int, Hint) bool) {
		for coords, hint := range p.VisitValid() {
			if !yield(coords, hint) {
				return
			}
		}
		for coords, hint := range p.VisitInvalid() {
			if !yield(coords, hint) {
				return
			}
		}
	}
}

// VisitZone1 is the rank-1 specialization of VisitZone, yielding plain ints.
func (p *Patch) VisitZone1(zone Zone, hint Hint) iter.Seq2[int, Hint] {
	if p.Rank() != 1 || len(zone) != 1 {
		exceptions.Panicf("patches: VisitZone1 requires a rank-1 patch and zone, got rank %d and zone %v", p.Rank(), zone)
	}
	return func(yield func(int, Hint) bool) {
		for i := zone[0].Start; i < zone[0].End; i++ {
			if !yield(i, hint) {
				return
			}
		}
	}
}

// VisitValid1 is the rank-1 specialization of VisitValid.
func (p *Patch) VisitValid1() iter.Seq2[int, Hint] {
	return p.VisitZone1(p.ValidOutputZone, HintValid)
}

// VisitInvalid1 is the rank-1 specialization of VisitInvalid.
func (p *Patch) VisitInvalid1() iter.Seq2[int, Hint] {
	return func(yield func(int, Hint) bool) {
		for _, zone := range p.InvalidOutputZones {
			for i, hint := range p.VisitZone1(zone, HintInvalid) {
				if !yield(i, hint) {
					return
				}
			}
		}
	}
}

// VisitAll1 is the rank-1 specialization of VisitAll.
func (p *Patch) VisitAll1() iter.Seq2[int, Hint] {
	return func(yield func(int, Hint) bool) {
		for i, hint := range p.VisitValid1() {
			if !yield(i, hint) {
				return
			}
		}
		for i, hint := range p.VisitInvalid1() {
			if !yield(i, hint) {
				return
			}
		}
	}
}

// VisitZone2 is the rank-2 specialization of VisitZone, yielding coordinate pairs.
func (p *Patch) VisitZone2(zone Zone, hint Hint) iter.Seq2[[2]int, Hint] {
	if p.Rank() != 2 || len(zone) != 2 {
		exceptions.Panicf("patches: VisitZone2 requires a rank-2 patch and zone, got rank %d and zone %v", p.Rank(), zone)
	}
	return func(yield func([2]int, Hint) bool) {
		for i := zone[0].Start; i < zone[0].End; i++ {
			for j := zone[1].Start; j < zone[1].End; j++ {
				if !yield([2]int{i, j}, hint) {
					return
				}
			}
		}
	}
}

// VisitValid2 is the rank-2 specialization of VisitValid.
func (p *Patch) VisitValid2() iter.Seq2[[2]int, Hint] {
	return p.VisitZone2(p.ValidOutputZone, HintValid)
}

// VisitInvalid2 is the rank-2 specialization of VisitInvalid.
func (p *Patch) VisitInvalid2() iter.Seq2[[2]int, Hint] {
	return func(yield func([2]int, Hint) bool) {
		for _, zone := range p.InvalidOutputZones {
			for ij, hint := range p.VisitZone2(zone, HintInvalid) {
				if !yield(ij, hint) {
					return
				}
			}
		}
	}
}

// VisitAll2 is the rank-2 specialization of VisitAll.
func (p *Patch) VisitAll2() iter.Seq2[[2]int, Hint] {
	return func(yield func([2]int, Hint) bool) {
		for ij, hint := range p.VisitValid2() {
			if !yield(ij, hint) {
				return
			}
		}
		for ij, hint := range p.VisitInvalid2() {
			if !yield(ij, hint) {
				return
			}
		}
	}
}
