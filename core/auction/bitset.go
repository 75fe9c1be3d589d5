package auction

import "math/bits"

// bitset is a fixed-size set of small integers. Search nodes share bitsets,
// so every mutating helper returns a fresh copy.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

func (b bitset) with(i int) bitset {
	c := append(bitset(nil), b...)
	c.set(i)
	return c
}

func (b bitset) union(o bitset) bitset {
	c := append(bitset(nil), b...)
	for i := range c {
		c[i] |= o[i]
	}
	return c
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// members returns the set elements in increasing order.
func (b bitset) members() []int {
	out := make([]int, 0, b.count())
	for wi, w := range b {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*64+tz)
			w &= w - 1
		}
	}
	return out
}
