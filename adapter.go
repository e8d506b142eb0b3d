// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

package ropegcm

import (
	"gitlab.com/yawning/slice.git"

	"gitlab.com/yawning/ropegcm.git/rope"
)

// The cipher primitive is one-shot, so rope traffic is gathered into a
// single scratch buffer on the way in and re-chunked on the way out.

// flatChunkSize is the chunk granularity of ropes produced by this
// package.
const flatChunkSize = 4096

// flatten returns the rope's bytes as one contiguous slice, in chunk
// order.  A single-chunk rope is returned without copying; the result
// must be treated as read-only.
func flatten(r *rope.Rope) []byte {
	chunks := r.Chunks()
	if len(chunks) == 1 {
		return chunks[0]
	}

	_, flat := slice.ForAppend(nil, r.Len())
	n := 0
	for _, c := range chunks {
		n += copy(flat[n:], c)
	}

	return flat
}

// rechunk wraps b in a rope, splitting it into chunks of at most
// flatChunkSize bytes.  The chunks share b's storage.
func rechunk(b []byte) *rope.Rope {
	r := rope.New()
	for len(b) > flatChunkSize {
		r.Append(b[:flatChunkSize])
		b = b[flatChunkSize:]
	}
	r.Append(b)

	return r
}
