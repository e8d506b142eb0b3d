// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package rope provides an ordered sequence of byte chunks treated as a
// single logical byte string, for callers that want to avoid large
// contiguous copies.  Chunk boundaries carry no meaning.
package rope

// Rope is a sequence of byte chunks.  The zero value and the nil
// pointer are both empty ropes.
type Rope struct {
	chunks [][]byte
	size   int
}

// New constructs a rope spanning chunks in order.  The rope shares the
// chunks' storage; empty chunks are dropped.
func New(chunks ...[]byte) *Rope {
	r := new(Rope)
	for _, c := range chunks {
		r.Append(c)
	}
	return r
}

// Len returns the total number of bytes in the rope.
func (r *Rope) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

// Chunks returns the rope's chunks in order.  The slices alias the
// rope's storage and must not be mutated.
func (r *Rope) Chunks() [][]byte {
	if r == nil {
		return nil
	}
	return r.chunks
}

// Append adds chunk to the end of the rope without copying.  Empty
// chunks are dropped.
func (r *Rope) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.chunks = append(r.chunks, chunk)
	r.size += len(chunk)
}

// Slice returns the sub-rope covering bytes [lo, hi).  The result
// shares the rope's storage.
func (r *Rope) Slice(lo, hi int) *Rope {
	if lo < 0 || hi > r.Len() || lo > hi {
		panic("rope: slice bounds out of range")
	}

	out := new(Rope)
	need := hi - lo
	skip := lo
	for _, c := range r.Chunks() {
		if need == 0 {
			break
		}
		if skip >= len(c) {
			skip -= len(c)
			continue
		}
		take := len(c) - skip
		if take > need {
			take = need
		}
		out.Append(c[skip : skip+take])
		need -= take
		skip = 0
	}

	return out
}

// Concat returns a rope spanning rs in order, sharing the inputs'
// storage.
func Concat(rs ...*Rope) *Rope {
	out := new(Rope)
	for _, r := range rs {
		for _, c := range r.Chunks() {
			out.Append(c)
		}
	}
	return out
}

// Bytes returns a contiguous copy of the rope's contents.
func (r *Rope) Bytes() []byte {
	out := make([]byte, 0, r.Len())
	for _, c := range r.Chunks() {
		out = append(out, c...)
	}
	return out
}
