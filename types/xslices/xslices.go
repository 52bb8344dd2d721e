// Package xslices provides the small set of generic slice helpers used across
// the patches library, mostly when normalizing per-axis parameter sequences.
package xslices

import (
	"runtime"
	"sync"

	"golang.org/x/exp/constraints"
)

// SliceWithValue creates a slice of given size filled with given value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}

// Iota returns a slice of incremental values, starting with start and of length len.
// Eg: Iota(3.0, 2) -> []float64{3.0, 4.0}
func Iota[T interface {
	constraints.Integer | constraints.Float
}](start T, len int) (slice []T) {
	slice = make([]T, len)
	for ii := range slice {
		slice[ii] = start + T(ii)
	}
	return
}

// Map executes the given function sequentially for every element on in, and returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// MapParallel executes the given function for every element of `in` with at most `runtime.NumCPU` goroutines.
// The execution order is not guaranteed, but in the end `out[ii] = fn(in[ii])` for every element.
func MapParallel[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	if len(in) <= 1 {
		return Map(in, fn)
	}
	out = make([]Out, len(in))
	goroutines := runtime.NumCPU()
	if goroutines > len(in) {
		goroutines = len(in)
	}
	var wg sync.WaitGroup
	chunkSize := (len(in) + goroutines - 1) / goroutines
	for start := 0; start < len(in); start += chunkSize {
		end := start + chunkSize
		if end > len(in) {
			end = len(in)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for ii := start; ii < end; ii++ {
				out[ii] = fn(in[ii])
			}
		}(start, end)
	}
	wg.Wait()
	return
}

// Product returns the product of all elements of the slice, 1 for an empty slice.
func Product[T constraints.Integer](slice []T) (p T) {
	p = 1
	for _, v := range slice {
		p *= v
	}
	return
}

// Any returns whether fn evaluates to true for any element of the slice.
func Any[T any](slice []T, fn func(e T) bool) bool {
	for _, v := range slice {
		if fn(v) {
			return true
		}
	}
	return false
}
