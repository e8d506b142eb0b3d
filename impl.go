// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package ropegcm implements AES-GCM authenticated encryption over
// ropes, so that callers holding plaintext or ciphertext as a sequence
// of discontiguous chunks get the full AEAD contract without flattening
// their data first.
//
// Each encryption draws a fresh random 96 bit nonce and produces a
// frame of the form nonce || ciphertext || tag.  Associated data is
// authenticated but never transmitted; the caller must present the
// identical bytes again at decryption time.
package ropegcm

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"gitlab.com/yawning/ropegcm.git/internal/api"
	"gitlab.com/yawning/ropegcm.git/internal/gcm"
	"gitlab.com/yawning/ropegcm.git/rope"
)

const (
	// KeySize128 is the AES-128-GCM key size in bytes.
	KeySize128 = 16

	// KeySize256 is the AES-256-GCM key size in bytes.
	KeySize256 = 32

	// NonceSize is the nonce size in bytes.
	NonceSize = api.NonceSize

	// TagSize is the authentication tag size in bytes.
	TagSize = api.TagSize

	// Overhead is the number of bytes a ciphertext frame adds on top
	// of the plaintext length.
	Overhead = NonceSize + TagSize

	// GCM encodes a 32 bit block counter, capping a single invocation
	// at 2^32 - 2 blocks of text and 2^61 - 1 bytes of additional data.
	maxTextBytes           = uint64(1<<32-2) * api.BlockSize
	maxAdditionalDataBytes = uint64(1<<61 - 1)
)

var (
	// ErrNoImplementations is the error returned when there are no working
	// implementations.
	ErrNoImplementations = errors.New("ropegcm: no working implementations")

	// ErrInvalidKeySize is the error returned when the key size is invalid.
	ErrInvalidKeySize = errors.New("ropegcm: invalid key size")

	// ErrMalformedCiphertext is the error returned when a ciphertext
	// frame is too short to contain a nonce and tag.
	ErrMalformedCiphertext = errors.New("ropegcm: malformed ciphertext")

	// ErrOpen is the error returned when the message authentication fails
	// durring a Decrypt call.
	ErrOpen = errors.New("ropegcm: message authentication failure")

	// ErrEntropy is the error returned when the entropy source fails.
	ErrEntropy = errors.New("ropegcm: entropy source failure")

	// ErrOversized is the error returned when the plaintext, ciphertext
	// and or additional data are beyond the maximum allowed.
	ErrOversized = errors.New("ropegcm: data is over limit")

	chosenFactory      api.Factory
	supportedFactories []api.Factory
)

// NonceSource draws fresh 96 bit nonces from a cryptographically secure
// entropy source.  A NonceSource is safe for concurrent use if and only
// if the underlying reader is; crypto/rand.Reader is.
type NonceSource struct {
	rand io.Reader
}

// NewNonceSource constructs a NonceSource drawing from r, or from the
// system entropy source if r is nil.
func NewNonceSource(r io.Reader) *NonceSource {
	if r == nil {
		r = rand.Reader
	}
	return &NonceSource{rand: r}
}

// Generate returns a fresh random nonce.  There is no fallback: if the
// entropy source fails, so does the call.
func (s *NonceSource) Generate() ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return nonce, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return nonce, nil
}

// Engine is a reusable AES-GCM AEAD over ropes.  An Engine is immutable
// after construction and safe for concurrent use.
type Engine struct {
	inner  api.Instance
	nonces *NonceSource
}

// New creates a new Engine with the provided key.  The key length
// selects the cipher: 16 bytes for AES-128-GCM, 32 bytes for
// AES-256-GCM.  The key bytes are copied; the caller's buffer is not
// retained.
func New(key []byte) (*Engine, error) {
	return NewWithEntropy(key, nil)
}

// NewWithEntropy is New with an explicit entropy source for nonce
// generation.  r must be cryptographically secure outside of tests.
func NewWithEntropy(key []byte, r io.Reader) (*Engine, error) {
	if chosenFactory == nil {
		return nil, ErrNoImplementations
	}
	if len(key) != KeySize128 && len(key) != KeySize256 {
		return nil, ErrInvalidKeySize
	}

	inner, err := chosenFactory.New(key)
	if err != nil {
		return nil, err
	}

	return &Engine{
		inner:  inner,
		nonces: NewNonceSource(r),
	}, nil
}

// Encrypt encrypts and authenticates plaintext, authenticates
// additionalData, and returns the frame nonce || ciphertext || tag as a
// new rope.  The chunk boundaries of plaintext carry no meaning and do
// not influence the output bytes.
func (e *Engine) Encrypt(plaintext *rope.Rope, additionalData []byte) (*rope.Rope, error) {
	if err := checkLimits(plaintext.Len(), len(additionalData)); err != nil {
		return nil, err
	}

	nonce, err := e.nonces.Generate()
	if err != nil {
		return nil, err
	}

	flat := flatten(plaintext)
	frame := make([]byte, NonceSize, NonceSize+len(flat)+TagSize)
	copy(frame, nonce[:])
	frame = e.inner.Seal(frame, nonce[:], flat, additionalData)

	return rechunk(frame), nil
}

// Decrypt authenticates and decrypts a frame produced by Encrypt,
// returning the plaintext as a new rope.  additionalData must be the
// identical bytes supplied to Encrypt.  No plaintext is ever returned,
// in whole or in part, unless the authentication tag verifies.
func (e *Engine) Decrypt(ciphertext *rope.Rope, additionalData []byte) (*rope.Rope, error) {
	total := ciphertext.Len()
	if total < Overhead {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedCiphertext, total, Overhead)
	}
	if err := checkLimits(total-Overhead, len(additionalData)); err != nil {
		return nil, err
	}

	nonce := flatten(ciphertext.Slice(0, NonceSize))
	body := flatten(ciphertext.Slice(NonceSize, total))

	plaintext, ok := e.inner.Open(nil, nonce, body, additionalData)
	if !ok {
		for i := range plaintext {
			plaintext[i] = 0
		}
		return nil, ErrOpen
	}

	return rechunk(plaintext), nil
}

// Reset attempts to clear the Engine of key material.  The Engine must
// not be used after Reset.
func (e *Engine) Reset() {
	e.inner.Reset()
}

func checkLimits(textLen, adLen int) error {
	if uint64(textLen) > maxTextBytes || uint64(adLen) > maxAdditionalDataBytes {
		return ErrOversized
	}

	return nil
}

func init() {
	if gcm.Factory != nil {
		supportedFactories = append([]api.Factory{gcm.Factory}, supportedFactories...)
	}

	if len(supportedFactories) > 0 {
		chosenFactory = supportedFactories[0]
	}
}
