package math

import (
	"fmt"
	"strconv"
	"unicode/utf16"
)

// Format formats a float based on the given precision
func Format(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Zeros returns a new vector of the given size with all elements set to zero.
// It is the additive identity for all the vector accumulations.
func Zeros(n int) []float64 {
	if n < 0 {
		n = 0
	}
	return make([]float64, n)
}

// Cksum computes a cheap reproducible fingerprint of the textual representation of the given value.
// NOTE : this is a 32-bit polynomial rolling hash, collisions are expected.
func Cksum(v interface{}) uint32 {
	var h int32
	for _, c := range utf16.Encode([]rune(fmt.Sprint(v))) {
		h = (h << 5) - h + int32(c)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// ToFloat converts the given ints to floats.
func ToFloat(ii []int) []float64 {
	ff := make([]float64, len(ii))
	for f, i := range ii {
		ff[f] = float64(i)
	}
	return ff
}
