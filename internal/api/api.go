// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package api provides the AES-GCM implementation abstract interface.
package api

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = 16

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16
)

// Factory is a Instance factory.
type Factory interface {
	// Name returns the name of the implementation.
	Name() string

	// New constructs a new keyed instance.  The key length selects
	// between AES-128 and AES-256.
	New(key []byte) (Instance, error)
}

// Instance is a keyed AES-GCM instance.
type Instance interface {
	// Reset attempts to clear the instance of sensitive data.
	Reset()

	// Seal encrypts and authenticates plaintext and additional data and
	// appends the result to dst, returning the updated slice.
	Seal(dst, nonce, plaintext, additionalData []byte) []byte

	// Open decrypts and authenticates ciphertext, authenticates the additional
	// data and, if successful, appends the resulting plaintext to dst.
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, bool)
}
