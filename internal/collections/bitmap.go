package collections

import "math/bits"

// BitmapAllocator hands out small non-negative integers, reusing freed
// ones at the lowest available number. It backs the client-assignable
// protocol object id range (spec.md §3, [1, 2^31)), where clients tend
// to reuse small ids densely.
type BitmapAllocator struct {
	words []uint64
	next  uint32 // hint: lowest word index that might have a free bit
}

// Alloc returns the lowest unset bit, sets it, and returns its index.
func (b *BitmapAllocator) Alloc() uint32 {
	for i := int(b.next); i < len(b.words); i++ {
		if b.words[i] != ^uint64(0) {
			bit := bits.TrailingZeros64(^b.words[i])
			b.words[i] |= 1 << uint(bit)
			b.next = uint32(i)
			return uint32(i)*64 + uint32(bit)
		}
	}
	idx := len(b.words)
	b.words = append(b.words, 1)
	b.next = uint32(idx)
	return uint32(idx) * 64
}

// Free releases n for reuse.
func (b *BitmapAllocator) Free(n uint32) {
	word := n / 64
	bit := n % 64
	if int(word) >= len(b.words) {
		return
	}
	b.words[word] &^= 1 << bit
	if word < b.next {
		b.next = word
	}
}

// IsSet reports whether n is currently allocated.
func (b *BitmapAllocator) IsSet(n uint32) bool {
	word := n / 64
	bit := n % 64
	if int(word) >= len(b.words) {
		return false
	}
	return b.words[word]&(1<<bit) != 0
}
