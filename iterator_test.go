package patches

import (
	"sync"
	"testing"

	"github.com/gomlx/patches/paddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains the iterator into parallel offset/present slices.
func collect(it *PatchIterator) (offsets []int, present []bool) {
	for {
		offset, tapPresent, ok := it.Next()
		if !ok {
			return
		}
		offsets = append(offsets, offset)
		present = append(present, tapPresent)
	}
}

func TestFastSafeEquivalence(t *testing.T) {
	// For every valid position the safe path, even when forced via
	// HintInvalid, must yield the exact offsets of the fast path, with no
	// missing tap.
	specs := []PatchSpec{
		ForShape(7, 8).WithKernelShape(3, 3).WithPadding(paddings.SameUpper()),
		ForShape(7, 8).WithKernelShape(2, 3).WithStrides(2, 1).WithPadding(paddings.SameLower()),
		ForShape(9).WithKernelShape(3).WithDilations(2).WithPadding(paddings.Explicit([]int{2}, []int{2})),
		ForShape(5, 5, 5).WithKernelShape(2, 2, 2).WithPadding(paddings.SameUpper()),
	}
	for _, spec := range specs {
		t.Run(spec.String(), func(t *testing.T) {
			p, err := spec.Build()
			require.NoError(t, err)
			for coords, hint := range p.VisitValid() {
				fast := p.AtHint(coords, hint)
				require.True(t, fast.Fast())
				safe := p.AtHint(coords, HintInvalid)
				require.False(t, safe.Fast())
				fastOffsets, fastPresent := collect(fast)
				safeOffsets, safePresent := collect(safe)
				require.Equal(t, fastOffsets, safeOffsets, "offsets diverge at %v", coords)
				require.Equal(t, fastPresent, safePresent, "safe path dropped a tap at %v", coords)
				for _, present := range safePresent {
					require.True(t, present)
				}
			}
		})
	}
}

func TestGlobalOffsetAgreesWithIterator(t *testing.T) {
	p, err := ForShape(6, 7).
		WithKernelShape(3, 2).
		WithStrides(2, 1).
		WithPadding(paddings.SameUpper()).
		Build()
	require.NoError(t, err)
	for coords := range p.VisitAll() {
		it := p.At(coords)
		for tap := 0; ; tap++ {
			offset, present, ok := it.Next()
			if !ok {
				break
			}
			if present {
				assert.Equal(t, offset, p.GlobalOffsetFor(coords, tap),
					"tap %d at %v", tap, coords)
			}
		}
	}
}

func TestSafeIteratorMissingTaps(t *testing.T) {
	// Input 5, kernel 3, pad 1/1: position 0 misses its first tap, position
	// 4 misses its last, the interior misses none.
	p, err := ForShape(5).
		WithKernelShape(3).
		WithPadding(paddings.Explicit([]int{1}, []int{1})).
		Build()
	require.NoError(t, err)
	require.Equal(t, []int{5}, p.OutputShape)

	it := p.At([]int{0})
	assert.False(t, it.Fast())
	offsets, present := collect(it)
	assert.Equal(t, []bool{false, true, true}, present)
	assert.Equal(t, []int{0, 1}, []int{offsets[1], offsets[2]})

	it = p.At([]int{4})
	_, present = collect(it)
	assert.Equal(t, []bool{true, true, false}, present)

	it = p.At([]int{2})
	assert.True(t, it.Fast())
	offsets, _ = collect(it)
	assert.Equal(t, []int{1, 2, 3}, offsets)
}

func TestIteratorReset(t *testing.T) {
	p, err := ForShape(5).WithKernelShape(3).WithPadding(paddings.SameUpper()).Build()
	require.NoError(t, err)
	it := p.At([]int{0})
	first, firstPresent := collect(it)
	it.Reset()
	second, secondPresent := collect(it)
	assert.Equal(t, first, second)
	assert.Equal(t, firstPresent, secondPresent)
	assert.Equal(t, 3, it.NumTaps())
}

func TestUnpaddedAlwaysFast(t *testing.T) {
	p, err := ForShape(6).WithKernelShape(3).WithStrides(2).Build()
	require.NoError(t, err)
	assert.False(t, p.Padded)
	for coords := range p.VisitAll() {
		assert.True(t, p.At(coords).Fast())
	}
}

// TestConcurrentReaders iterates disjoint zones of a shared Patch from
// multiple goroutines; run with -race to check the Patch is read-only.
func TestConcurrentReaders(t *testing.T) {
	p, err := ForShape(64, 64).
		WithKernelShape(3, 3).
		WithPadding(paddings.SameUpper()).
		Build()
	require.NoError(t, err)

	sumZone := func(zone Zone, hint Hint) (sum int64) {
		for coords := range p.VisitZone(zone, hint) {
			it := p.AtHint(coords, hint)
			for {
				offset, present, ok := it.Next()
				if !ok {
					break
				}
				if present {
					sum += int64(offset)
				}
			}
		}
		return
	}

	serial := sumZone(p.ValidOutputZone, HintValid)
	for _, zone := range p.InvalidOutputZones {
		serial += sumZone(zone, HintInvalid)
	}

	var wg sync.WaitGroup
	results := make([]int64, 1+len(p.InvalidOutputZones))
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = sumZone(p.ValidOutputZone, HintValid)
	}()
	for ii, zone := range p.InvalidOutputZones {
		wg.Add(1)
		go func(ii int, zone Zone) {
			defer wg.Done()
			results[ii+1] = sumZone(zone, HintInvalid)
		}(ii, zone)
	}
	wg.Wait()

	var parallel int64
	for _, r := range results {
		parallel += r
	}
	assert.Equal(t, serial, parallel)
}
