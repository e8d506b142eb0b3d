// Copryright (C) 2019 Yawning Angel
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package envelope

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	ropegcm "gitlab.com/yawning/ropegcm.git"
	"gitlab.com/yawning/ropegcm.git/rope"
)

func newTestKek(t *testing.T) *ropegcm.Engine {
	key := make([]byte, ropegcm.KeySize256)
	_, err := rand.Read(key)
	require.NoError(t, err, "Generate random KEK")
	kek, err := ropegcm.New(key)
	require.NoError(t, err, "ropegcm.New()")
	return kek
}

func TestEnvelope(t *testing.T) {
	require := require.New(t)

	kek := newTestKek(t)

	// Invalid data key sizes should fail.
	for _, sz := range []int{0, 15, 24, 33} {
		_, err := New(kek, sz)
		require.ErrorIs(err, ErrInvalidKeySize, "New() - %d byte data key", sz)
	}

	env, err := New(kek, ropegcm.KeySize128)
	require.NoError(err, "New()")

	plaintext := make([]byte, 300)
	_, err = rand.Read(plaintext)
	require.NoError(err, "Generate random plaintext")
	aad := []byte("envelope aad")

	pt := rope.New(plaintext[:100], plaintext[100:])
	sealed, err := env.Encrypt(pt, aad)
	require.NoError(err, "Encrypt()")

	// be32 prefix, wrapped 16 byte DEK, payload frame.
	wrappedLen := ropegcm.KeySize128 + ropegcm.Overhead
	require.Equal(lenPrefixSize+wrappedLen+len(plaintext)+ropegcm.Overhead, sealed.Len(), "Encrypt() - envelope length")
	require.Equal(uint32(wrappedLen), binary.BigEndian.Uint32(sealed.Slice(0, lenPrefixSize).Bytes()), "Encrypt() - length prefix")

	opened, err := env.Decrypt(sealed, aad)
	require.NoError(err, "Decrypt()")
	require.EqualValues(plaintext, opened.Bytes(), "Encrypt()/Decrypt() - round trips")

	// Each call wraps a fresh data key.
	resealed, err := env.Encrypt(pt, aad)
	require.NoError(err, "Encrypt() - again")
	require.NotEqual(sealed.Bytes(), resealed.Bytes(), "Encrypt() - fresh data key per call")
	opened, err = env.Decrypt(resealed, aad)
	require.NoError(err, "Decrypt() - again")
	require.EqualValues(plaintext, opened.Bytes(), "Decrypt() - second envelope round trips")
}

func TestEnvelopeTamper(t *testing.T) {
	require := require.New(t)

	kek := newTestKek(t)
	env, err := New(kek, ropegcm.KeySize256)
	require.NoError(err, "New()")

	aad := []byte("bound")
	sealed, err := env.Encrypt(rope.New([]byte("payload bytes")), aad)
	require.NoError(err, "Encrypt()")
	flat := sealed.Bytes()

	wrappedEnd := lenPrefixSize + ropegcm.KeySize256 + ropegcm.Overhead
	for _, v := range []struct {
		n    string
		offs int
	}{
		{"wrapped key", lenPrefixSize + 1},
		{"payload nonce", wrappedEnd},
		{"payload ciphertext", wrappedEnd + ropegcm.NonceSize},
		{"payload tag", len(flat) - 1},
	} {
		bad := append([]byte{}, flat...)
		bad[v.offs] ^= 0xa5
		_, err = env.Decrypt(rope.New(bad), aad)
		require.ErrorIs(err, ropegcm.ErrOpen, "Decrypt() - tampered %s", v.n)
	}

	_, err = env.Decrypt(sealed, []byte("unbound"))
	require.ErrorIs(err, ropegcm.ErrOpen, "Decrypt() - wrong aad")
}

func TestEnvelopeMalformed(t *testing.T) {
	require := require.New(t)

	kek := newTestKek(t)
	env, err := New(kek, ropegcm.KeySize128)
	require.NoError(err, "New()")

	sealed, err := env.Encrypt(rope.New([]byte("payload")), nil)
	require.NoError(err, "Encrypt()")
	flat := sealed.Bytes()

	// Truncated header.
	for _, sz := range []int{0, 1, lenPrefixSize - 1} {
		_, err = env.Decrypt(rope.New(flat[:sz]), nil)
		require.ErrorIs(err, ErrMalformedEnvelope, "Decrypt() - %d byte envelope", sz)
	}

	// Zero and oversized wrapped key lengths.
	for _, lie := range []uint32{0, uint32(len(flat)), 0xffffffff} {
		bad := append([]byte{}, flat...)
		binary.BigEndian.PutUint32(bad, lie)
		_, err = env.Decrypt(rope.New(bad), nil)
		require.ErrorIs(err, ErrMalformedEnvelope, "Decrypt() - wrapped key length %d", lie)
	}

	// A wrapped key region that parses but fails to unwrap.
	shifted := append([]byte{}, flat...)
	binary.BigEndian.PutUint32(shifted, uint32(ropegcm.KeySize128+ropegcm.Overhead-1))
	_, err = env.Decrypt(rope.New(shifted), nil)
	require.Error(err, "Decrypt() - misaligned wrapped key")
}
