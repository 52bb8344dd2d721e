package patches

import (
	"fmt"
	"testing"

	"github.com/gomlx/patches/paddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullOutputZone returns the zone covering the whole output index space.
func fullOutputZone(p *Patch) Zone {
	zone := make(Zone, p.Rank())
	for axis, dim := range p.OutputShape {
		zone[axis] = Range{0, dim}
	}
	return zone
}

// checkZoning verifies, for every output position, the tiling property: the
// position is either in the valid zone and in no invalid shell, or in exactly
// one invalid shell; and that zone membership agrees with the direct IsValid
// test.
func checkZoning(t *testing.T, p *Patch) {
	for coords := range p.VisitZone(fullOutputZone(p), NoHint) {
		insideValid := p.ValidOutputZone.Contains(coords)
		invalidCount := 0
		for _, zone := range p.InvalidOutputZones {
			if zone.Contains(coords) {
				invalidCount++
			}
		}
		require.Equal(t, insideValid, p.IsValid(coords),
			"IsValid disagrees with valid zone membership at %v (valid zone %v)", coords, p.ValidOutputZone)
		if insideValid {
			require.Equal(t, 0, invalidCount, "valid position %v also in an invalid zone", coords)
		} else {
			require.Equal(t, 1, invalidCount,
				"invalid position %v covered by %d shells (valid zone %v, shells %v)",
				coords, invalidCount, p.ValidOutputZone, p.InvalidOutputZones)
		}
	}
}

// checkVisitAll verifies VisitAll yields every output position exactly once
// with a hint matching IsValid.
func checkVisitAll(t *testing.T, p *Patch) {
	seen := make(map[string]bool)
	count := 0
	for coords, hint := range p.VisitAll() {
		key := fmt.Sprint(coords)
		require.False(t, seen[key], "position %v visited twice", coords)
		seen[key] = true
		count++
		if hint == HintValid {
			require.True(t, p.IsValid(coords))
		} else {
			require.Equal(t, HintInvalid, hint)
			require.False(t, p.IsValid(coords))
		}
	}
	total := 1
	for _, dim := range p.OutputShape {
		total *= dim
	}
	require.Equal(t, total, count, "VisitAll skipped positions")
}

func TestZoningGrid2D(t *testing.T) {
	// Exhaustive small-parameter grid instead of random specs: every
	// combination of kernel, stride, dilation and padding policy below.
	policies := []paddings.Padding{
		paddings.Valid(),
		paddings.SameUpper(),
		paddings.SameLower(),
		paddings.Explicit([]int{2, 0}, []int{0, 2}),
	}
	for _, kernel := range [][]int{{1, 1}, {2, 2}, {3, 2}, {3, 3}} {
		for _, strides := range [][]int{{1, 1}, {2, 1}, {2, 3}} {
			for _, dilations := range [][]int{{1, 1}, {2, 1}} {
				for _, padding := range policies {
					for _, input := range [][]int{{6, 7}, {8, 8}} {
						spec := ForShape(input...).
							WithKernelShape(kernel...).
							WithStrides(strides...).
							WithDilations(dilations...).
							WithPadding(padding)
						t.Run(spec.String(), func(t *testing.T) {
							p, err := spec.Build()
							require.NoError(t, err)
							checkZoning(t, p)
							checkVisitAll(t, p)
						})
					}
				}
			}
		}
	}
}

func TestZoning1D(t *testing.T) {
	p, err := ForShape(7).
		WithKernelShape(3).
		WithStrides(2).
		WithPadding(paddings.Explicit([]int{1}, []int{1})).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []int{4}, p.OutputShape)
	// Coord 0 reaches position -1, coord 3 reaches position 7: both invalid.
	assert.Equal(t, Zone{{1, 3}}, p.ValidOutputZone)
	assert.Equal(t, []Zone{{{0, 1}}, {{3, 4}}}, p.InvalidOutputZones)
	checkZoning(t, p)

	seen := make(map[int]bool)
	for i, hint := range p.VisitAll1() {
		assert.False(t, seen[i])
		seen[i] = true
		assert.Equal(t, hint == HintValid, p.IsValid([]int{i}))
	}
	assert.Len(t, seen, 4)
}

func TestZoning3D(t *testing.T) {
	p, err := ForShape(5, 6, 7).
		WithKernelShape(3, 3, 3).
		WithStrides(1, 2, 1).
		WithPadding(paddings.SameUpper()).
		Build()
	require.NoError(t, err)
	checkZoning(t, p)
	checkVisitAll(t, p)
}

func TestZoneVisitorSameLower(t *testing.T) {
	// 2x2 input, kernel [2,1], same-lower padding, strides [1,2]: the whole
	// output must still be visited exactly once.
	p, err := ForShape(2, 2).
		WithKernelShape(2, 1).
		WithPadding(paddings.SameLower()).
		WithStrides(1, 2).
		Build()
	require.NoError(t, err)
	var visited [2][1]int
	for ij := range p.VisitAll2() {
		visited[ij[0]][ij[1]]++
	}
	for i := range visited {
		for j := range visited[i] {
			assert.Equal(t, 1, visited[i][j], "position (%d, %d)", i, j)
		}
	}
}

func TestVisitOrder(t *testing.T) {
	// Within one zone positions come in row-major order, and VisitAll starts
	// with the whole valid zone.
	p, err := ForShape(5, 5).
		WithKernelShape(3, 3).
		WithPadding(paddings.SameUpper()).
		Build()
	require.NoError(t, err)
	require.Equal(t, Zone{{1, 4}, {1, 4}}, p.ValidOutputZone)
	var got [][2]int
	for ij := range p.VisitValid2() {
		got = append(got, ij)
	}
	assert.Equal(t, [][2]int{
		{1, 1}, {1, 2}, {1, 3},
		{2, 1}, {2, 2}, {2, 3},
		{3, 1}, {3, 2}, {3, 3},
	}, got)
}

func TestVisitZoneCoordsReused(t *testing.T) {
	// The yielded slice is owned by the iterator: capturing it without
	// copying observes later positions.
	p, err := ForShape(3, 3).Build()
	require.NoError(t, err)
	var first []int
	for coords := range p.VisitAll() {
		if first == nil {
			first = coords
		}
	}
	assert.Equal(t, []int{2, 2}, first)
}

func TestZoneHelpers(t *testing.T) {
	zone := Zone{{1, 4}, {0, 2}}
	assert.Equal(t, 6, zone.Size())
	assert.True(t, zone.Contains([]int{1, 0}))
	assert.True(t, zone.Contains([]int{3, 1}))
	assert.False(t, zone.Contains([]int{4, 0}))
	assert.False(t, zone.Contains([]int{0, 0}))
	assert.True(t, Range{2, 2}.IsEmpty())
	assert.Equal(t, 3, Range{1, 4}.Len())
}
