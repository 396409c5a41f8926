package hrrr

import (
	"fmt"
	"math"
)

// expandBitmap scatters packed values over a grid of total points using a
// Section 6 bitmap: bit k set means grid point k carries the next packed
// value, bit k clear means the point is missing and becomes NaN.
//
// Bits are MSB-first, so grid point 0 is bit 7 of byte 0.
func expandBitmap(packed []float64, bitmap []byte, total int) ([]float64, error) {
	if set := popcount(bitmap, total); set != len(packed) {
		return nil, fmt.Errorf("bitmap: %d points flagged present but %d values packed", set, len(packed))
	}
	out := make([]float64, total)
	next := 0
	for k := range out {
		if !bitSet(bitmap, k) {
			out[k] = math.NaN()
			continue
		}
		out[k] = packed[next]
		next++
	}
	return out, nil
}

// bitSet reports whether grid point k is flagged present. Points beyond the
// end of the bitmap are missing.
func bitSet(bitmap []byte, k int) bool {
	if k/8 >= len(bitmap) {
		return false
	}
	return bitmap[k/8]&(0x80>>(k%8)) != 0
}

// popcount counts present points among the first total.
func popcount(bitmap []byte, total int) int {
	n := 0
	for k := 0; k < total; k++ {
		if bitSet(bitmap, k) {
			n++
		}
	}
	return n
}
