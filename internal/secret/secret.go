// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package secret provides a fixed-length container for key material
// that is wiped before its storage is reclaimed.
package secret

import "runtime"

// Bytes is a fixed-length byte buffer holding sensitive material.  The
// contents are copied in at construction and never resized.
type Bytes struct {
	buf []byte
}

// New copies b into a new Bytes.  The caller's buffer is not retained.
func New(b []byte) *Bytes {
	s := &Bytes{
		buf: append([]byte(nil), b...),
	}
	runtime.SetFinalizer(s, (*Bytes).Wipe)

	return s
}

// Len returns the length in bytes.
func (s *Bytes) Len() int {
	return len(s.buf)
}

// Bytes returns the backing storage.  Callers must not mutate or retain
// the returned slice.
func (s *Bytes) Bytes() []byte {
	return s.buf
}

// Wipe overwrites the contents with zeros.  Wipe is idempotent.
func (s *Bytes) Wipe() {
	for i := range s.buf {
		s.buf[i] = 0
	}
}
