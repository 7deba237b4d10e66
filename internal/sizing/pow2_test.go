package sizing

import (
	"math/bits"
	"testing"
)

func TestNextPow2(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
		{0, 8},
		{-5, 8},
	}

	for _, tt := range tests {
		if got := NextPow2(tt.n); got != tt.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNextPow2IsSmallestPowerOfTwo(t *testing.T) {
	for n := 1; n <= 1<<16; n++ {
		got := NextPow2(n)
		if bits.OnesCount(uint(got)) != 1 {
			t.Fatalf("NextPow2(%d) = %d is not a power of two", n, got)
		}
		if got < n || got < MinCapacity {
			t.Fatalf("NextPow2(%d) = %d is too small", n, got)
		}
		if half := got / 2; half >= n && half >= MinCapacity {
			t.Fatalf("NextPow2(%d) = %d is not the smallest candidate (%d fits)", n, got, half)
		}
	}
}
