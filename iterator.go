// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package patches

// PatchIterator enumerates the flat input offset of every kernel tap for one
// fixed output position. It has two internal variants, selected once when the
// iterator is created and fixed for the whole enumeration:
//
//   - fast: the position is known valid, each offset is center plus the
//     precomputed per-tap delta, with no bounds test. Its soundness rests on
//     the zone partition, so it must only be forced (via HintValid) for
//     positions inside ValidOutputZone.
//   - safe: each tap's absolute per-axis position is recomputed and range
//     checked; out-of-range taps are reported as not present. Within one
//     output position some taps may be present and others not -- that is the
//     normal situation on the border of the valid zone.
//
// Both variants produce bit-identical offsets for every tap the fast path
// would accept.
type PatchIterator struct {
	patch  *Patch
	item   int
	center int
	fast   bool

	// inputCenter is coords[axis]*stride[axis] per axis; only set for the
	// safe variant.
	inputCenter []int
}

// At returns an iterator over the kernel taps of the given output position.
// Validity is decided here: unpadded patches always take the fast path,
// padded ones evaluate IsValid.
//
// It panics if len(coords) != Rank().
func (p *Patch) At(coords []int) *PatchIterator {
	return p.AtHint(coords, NoHint)
}

// AtHint is At with the validity decision supplied by the caller, typically
// forwarded from a zone visitor. The hint is trusted: HintValid on a position
// outside the valid zone produces out-of-range offsets.
//
// It panics if len(coords) != Rank().
func (p *Patch) AtHint(coords []int, hint Hint) *PatchIterator {
	p.assertRank(coords)
	center := 0
	for axis, c := range coords {
		center += c * p.OpStridesTimesInputStorageStrides[axis]
	}
	var valid bool
	switch hint {
	case HintValid:
		valid = true
	case HintInvalid:
		valid = false
	default:
		valid = !p.Padded || p.IsValid(coords)
	}
	it := &PatchIterator{patch: p, center: center, fast: valid}
	if !valid {
		it.inputCenter = make([]int, len(coords))
		for axis, c := range coords {
			it.inputCenter[axis] = c * p.Spec.Strides[axis]
		}
	}
	return it
}

// Next returns the flat input offset of the next kernel tap.
// present is false when the tap falls outside the input (in the padding
// area); the offset is meaningless then. ok is false once all NumTaps() taps
// have been enumerated.
func (it *PatchIterator) Next() (offset int, present, ok bool) {
	p := it.patch
	if it.item >= len(p.StandardLayoutDataField) {
		return 0, false, false
	}
	item := it.item
	it.item++
	if it.fast {
		return it.center + p.StandardLayoutDataField[item], true, true
	}
	rank := len(it.inputCenter)
	field := p.DataField[item*rank : (item+1)*rank]
	for axis, delta := range field {
		pos := it.inputCenter[axis] + delta
		if pos < 0 || pos >= p.Spec.InputShape[axis] {
			return 0, false, true
		}
	}
	return it.center + p.StandardLayoutDataField[item], true, true
}

// Reset rewinds the iterator to the first tap, keeping the variant chosen at
// construction.
func (it *PatchIterator) Reset() { it.item = 0 }

// Fast reports whether the unchecked variant was selected.
func (it *PatchIterator) Fast() bool { return it.fast }

// NumTaps returns the number of kernel taps the iterator enumerates.
func (it *PatchIterator) NumTaps() int { return it.patch.NumTaps() }
