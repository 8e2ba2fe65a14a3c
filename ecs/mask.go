package ecs

import (
	"math/bits"
	"strings"
)

const bitsPerWord = 64

// Mask is a fixed-width membership vector. Bit i is set when the owner holds
// the component kind assigned to bit index i. The width is decided by the
// ComponentRegistry that created the mask and never changes.
type Mask []uint64

func newMask(words int) Mask {
	return make(Mask, words)
}

func wordsFor(capacity int) int {
	return (capacity + bitsPerWord - 1) / bitsPerWord
}

// Set turns on the bit for id.
func (m Mask) Set(id ComponentID) {
	m[int(id)/bitsPerWord] |= 1 << (uint(id) % bitsPerWord)
}

// Clear turns off the bit for id.
func (m Mask) Clear(id ComponentID) {
	m[int(id)/bitsPerWord] &^= 1 << (uint(id) % bitsPerWord)
}

// Has reports whether the bit for id is set. Ids beyond the mask width are
// never set.
func (m Mask) Has(id ComponentID) bool {
	word := int(id) / bitsPerWord
	if word >= len(m) {
		return false
	}
	return m[word]&(1<<(uint(id)%bitsPerWord)) != 0
}

// ContainsAll reports whether every bit of sub is also set in m.
func (m Mask) ContainsAll(sub Mask) bool {
	for i, w := range sub {
		if i >= len(m) {
			if w != 0 {
				return false
			}
			continue
		}
		if m[i]&w != w {
			return false
		}
	}
	return true
}

// Intersects reports whether m and other share at least one bit.
func (m Mask) Intersects(other Mask) bool {
	n := min(len(m), len(other))
	for i := 0; i < n; i++ {
		if m[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

// Or sets every bit of other in m.
func (m Mask) Or(other Mask) {
	n := min(len(m), len(other))
	for i := 0; i < n; i++ {
		m[i] |= other[i]
	}
}

// Equal reports whether both masks have the same bits set.
func (m Mask) Equal(other Mask) bool {
	n := max(len(m), len(other))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(m) {
			a = m[i]
		}
		if i < len(other) {
			b = other[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn for every set bit in ascending order.
func (m Mask) ForEach(fn func(id ComponentID)) {
	for wordIdx, word := range m {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			fn(ComponentID(wordIdx*bitsPerWord + bit))
			word &^= 1 << bit
		}
	}
}

// Clone returns an independent copy of m.
func (m Mask) Clone() Mask {
	c := make(Mask, len(m))
	copy(c, m)
	return c
}

func (m Mask) reset() {
	for i := range m {
		m[i] = 0
	}
}

// String renders the mask in binary with the lowest bit rightmost, trimmed to
// the highest set bit ("0" for an empty mask).
func (m Mask) String() string {
	highest := -1
	m.ForEach(func(id ComponentID) { highest = int(id) })
	if highest < 0 {
		return "0"
	}

	var sb strings.Builder
	sb.Grow(highest + 1)
	for i := highest; i >= 0; i-- {
		if m.Has(ComponentID(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
