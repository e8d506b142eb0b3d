// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package envelope implements envelope encryption over ropes.  Each
// message is encrypted under a fresh data-encryption key (DEK), and the
// DEK travels with the message, wrapped by a long-lived key-encryption
// AEAD such as one backed by a KMS.
//
// The wire format is:
//
//	envelope := be32(len(wrappedDEK)) || wrappedDEK || frame
//
// where frame is the ropegcm ciphertext frame of the payload under the
// DEK.
package envelope

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	ropegcm "gitlab.com/yawning/ropegcm.git"
	"gitlab.com/yawning/ropegcm.git/rope"
)

// lenPrefixSize is the size of the wrapped key length prefix in bytes.
const lenPrefixSize = 4

var (
	// ErrInvalidKeySize is the error returned when the data key size is
	// not a valid AES key size.
	ErrInvalidKeySize = errors.New("envelope: invalid data key size")

	// ErrMalformedEnvelope is the error returned when the envelope
	// header is truncated or inconsistent.
	ErrMalformedEnvelope = errors.New("envelope: malformed envelope")
)

// Aead is the rope AEAD surface required of a key-encryption key.  It
// is satisfied by *ropegcm.Engine and by remote implementations.
type Aead interface {
	Encrypt(plaintext *rope.Rope, additionalData []byte) (*rope.Rope, error)
	Decrypt(ciphertext *rope.Rope, additionalData []byte) (*rope.Rope, error)
}

// Envelope is an AEAD that encrypts each message under a fresh data
// key, wrapping the data key with a key-encryption AEAD.  An Envelope
// is safe for concurrent use if its key-encryption AEAD is.
type Envelope struct {
	kek     Aead
	dekSize int
	rand    io.Reader
}

var _ Aead = (*Envelope)(nil)

// New creates a new Envelope wrapping fresh dekSize byte data keys with
// kek.  dekSize selects the payload cipher the same way ropegcm.New
// does: 16 bytes for AES-128-GCM, 32 bytes for AES-256-GCM.
func New(kek Aead, dekSize int) (*Envelope, error) {
	if dekSize != ropegcm.KeySize128 && dekSize != ropegcm.KeySize256 {
		return nil, ErrInvalidKeySize
	}

	return &Envelope{
		kek:     kek,
		dekSize: dekSize,
		rand:    rand.Reader,
	}, nil
}

// Encrypt encrypts plaintext under a fresh data key.  The data key is
// wrapped with no additional data; additionalData binds the payload
// only.
func (e *Envelope) Encrypt(plaintext *rope.Rope, additionalData []byte) (*rope.Rope, error) {
	dek := make([]byte, e.dekSize)
	if _, err := io.ReadFull(e.rand, dek); err != nil {
		return nil, fmt.Errorf("%w: %v", ropegcm.ErrEntropy, err)
	}

	inner, err := ropegcm.New(dek)
	if err != nil {
		return nil, err
	}
	defer inner.Reset()

	wrapped, err := e.kek.Encrypt(rope.New(dek), nil)
	wipe(dek)
	if err != nil {
		return nil, err
	}

	payload, err := inner.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}

	header := make([]byte, lenPrefixSize)
	binary.BigEndian.PutUint32(header, uint32(wrapped.Len()))

	return rope.Concat(rope.New(header), wrapped, payload), nil
}

// Decrypt unwraps the data key and authenticates and decrypts the
// payload, returning the plaintext as a new rope.
func (e *Envelope) Decrypt(ciphertext *rope.Rope, additionalData []byte) (*rope.Rope, error) {
	total := ciphertext.Len()
	if total < lenPrefixSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, total, lenPrefixSize)
	}

	wrappedLen := int(binary.BigEndian.Uint32(ciphertext.Slice(0, lenPrefixSize).Bytes()))
	if wrappedLen <= 0 || wrappedLen > total-lenPrefixSize {
		return nil, fmt.Errorf("%w: wrapped key length %d exceeds envelope", ErrMalformedEnvelope, wrappedLen)
	}

	wrapped := ciphertext.Slice(lenPrefixSize, lenPrefixSize+wrappedLen)
	payload := ciphertext.Slice(lenPrefixSize+wrappedLen, total)

	dekRope, err := e.kek.Decrypt(wrapped, nil)
	if err != nil {
		return nil, err
	}
	dek := dekRope.Bytes()

	inner, err := ropegcm.New(dek)
	wipe(dek)
	for _, c := range dekRope.Chunks() {
		wipe(c)
	}
	if err != nil {
		return nil, err
	}
	defer inner.Reset()

	return inner.Decrypt(payload, additionalData)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
