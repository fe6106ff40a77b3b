// Package byteutil holds the pure byte-manipulation helpers that bridge the
// wire's little-endian convention and the arithmetic library's big-endian
// convention. Every function here returns a new slice; none mutate their
// arguments in place.
package byteutil

import "fmt"

// Reverse returns a copy of buf with the byte order reversed.
func Reverse(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}

// Combine interleaves a and b byte-by-byte: a[0], b[0], a[1], b[1], ...
// It returns an error if the two slices differ in length.
func Combine(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("byteutil: combine: length mismatch: %d != %d", len(a), len(b))
	}
	out := make([]byte, len(a)+len(b))
	for i := range a {
		out[2*i] = a[i]
		out[2*i+1] = b[i]
	}
	return out, nil
}

// Split de-interleaves buf into its even-indexed and odd-indexed bytes.
// It returns an error if buf has odd length.
func Split(buf []byte) (even, odd []byte, err error) {
	if len(buf)%2 != 0 {
		return nil, nil, fmt.Errorf("byteutil: split: odd length %d", len(buf))
	}
	half := len(buf) / 2
	even = make([]byte, half)
	odd = make([]byte, half)
	for i := 0; i < half; i++ {
		even[i] = buf[2*i]
		odd[i] = buf[2*i+1]
	}
	return even, odd, nil
}

// PadRight returns buf right-padded with zero bytes to length n. It panics
// if buf is already longer than n, since that indicates a caller bug rather
// than a recoverable condition.
func PadRight(buf []byte, n int) []byte {
	if len(buf) > n {
		panic(fmt.Sprintf("byteutil: padright: buf longer than target: %d > %d", len(buf), n))
	}
	out := make([]byte, n)
	copy(out, buf)
	return out
}
