// Package sizing rounds GPU buffer capacities to alignment-friendly sizes.
package sizing

import "math/bits"

// MinCapacity is the smallest capacity NextPow2 returns.
const MinCapacity = 8

// NextPow2 returns the smallest power of two that is >= n and >= MinCapacity.
// Inputs above 1<<62 overflow.
func NextPow2(n int) int {
	if n <= MinCapacity {
		return MinCapacity
	}
	return 1 << bits.Len(uint(n-1))
}
