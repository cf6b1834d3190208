/*
Package bitint provides the bit manipulation helpers used to size and index
radix-2 transforms.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Reject frame sizes the transform cannot handle
	if !bitint.IsPowerOfTwo(frameSize) { ... }

	// Number of butterfly stages for a 1024 point transform
	stages := bitint.Log2(1024) // Returns 10

	// Position of sample 3 after the bit-reversal permutation of 8 points
	j := bitint.ReverseBits(3, 3) // Returns 6 (011 -> 110)

----------------------------------------------------------------------

What this code does:

	NextPowerOfTwo returns the next power of 2 greater than or
	equal to size. The subtraction (size-1) keeps exact powers of
	two unchanged: bits.Len(7) = 3 so 8 maps to 1<<3 = 8, while
	bits.Len(8) = 4 would have doubled it.

	ReverseBits mirrors the lowest width bits of i. The iterative
	transform swaps element i with element ReverseBits(i, log2(N))
	before the first butterfly stage.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// The expression (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//   - AND operation will be 0 only for powers of 2
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of a power of two, which is the number of
// butterfly stages a radix-2 transform of that size needs. For other inputs it
// returns the floor of the logarithm, and 0 for n <= 1.
func Log2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// ReverseBits reverses the lowest width bits of i. Bits above width are
// discarded. A width of 0 always yields 0.
func ReverseBits(i uint, width int) uint {
	if width <= 0 {
		return 0
	}
	return bits.Reverse(i) >> (bits.UintSize - width)
}
