/*
Package bitint provides the power-of-two helpers used to size sample blocks
and FFT frames. All functions are branch-light, allocation free and safe to
call from the per-frame path.

Usage:

	// Suggest a fast block size for a user supplied one.
	size := bitint.NextPowerOfTwo(1000) // 1024

	// Check whether the FFT can run at radix-2 speed.
	fast := bitint.IsPowerOfTwo(blockSize)

NextPowerOfTwo subtracts one before measuring the bit length so that exact
powers of two map to themselves: for 8 (0b1000), 7 is 0b0111, bits.Len is 3
and 1<<3 is 8 again. Without the subtraction 8 would become 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Zero and
// negative inputs return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. Powers of two
// have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
