// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package gcm provides AES-GCM instances backed by the runtime
// library's vetted constant-time implementation.
package gcm

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"gitlab.com/yawning/ropegcm.git/internal/api"
	"gitlab.com/yawning/ropegcm.git/internal/secret"
)

// Factory is a factory that will construct AES-GCM instances.
var Factory api.Factory = &gcmFactory{}

// accelerated is set when the CPU accelerates AES and carry-less
// multiplication.
var accelerated bool

type gcmFactory struct{}

func (f *gcmFactory) Name() string {
	if accelerated {
		return "stdlib-aesni"
	}
	return "stdlib-generic"
}

func (f *gcmFactory) New(key []byte) (api.Instance, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("gcm: failed to initialize AES: %w", err)
	}
	aead, err := cipher.NewGCM(blk)
	if err != nil {
		return nil, fmt.Errorf("gcm: failed to initialize GCM: %w", err)
	}

	return &gcmInstance{
		key:  secret.New(key),
		aead: aead,
	}, nil
}

type gcmInstance struct {
	key  *secret.Bytes
	aead cipher.AEAD
}

func (inst *gcmInstance) Reset() {
	inst.key.Wipe()
	inst.aead = nil
}

func (inst *gcmInstance) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	return inst.aead.Seal(dst, nonce, plaintext, additionalData)
}

func (inst *gcmInstance) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, bool) {
	out, err := inst.aead.Open(dst, nonce, ciphertext, additionalData)
	if err != nil {
		return out, false
	}

	return out, true
}
