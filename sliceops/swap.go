// Package sliceops holds the byte-slice helpers shared by the crypto
// shim and the persistence layer, mostly endianness flips between the
// air order and what Go's crypto wants.
package sliceops

// SwapBuf returns in reversed. The input is never modified; callers hand
// in buffers they do not own.
func SwapBuf(in []byte) []byte {
	a := make([]byte, 0, len(in))
	a = append(a, in...)
	for i := len(a)/2 - 1; i >= 0; i-- {
		opp := len(a) - 1 - i
		a[i], a[opp] = a[opp], a[i]
	}

	return a
}

// Clone returns a copy of in that shares no storage with it. A nil input
// stays nil.
func Clone(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

// SwapInto reverses src into dst and reports how many bytes landed.
// dst shorter than src truncates from src's tail.
func SwapInto(dst, src []byte) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = src[len(src)-1-i]
	}
	return n
}
