package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestParsePrivateKey(t *testing.T) {
	seed := testSeed()
	want, err := NewKeypairSigner(seed)
	require.NoError(t, err)

	encoded, err := EncodePrivateKey(seed)
	require.NoError(t, err)
	require.Contains(t, encoded, "suiprivkey1")

	inputs := map[string]string{
		"bech32":         encoded,
		"hex":            hex.EncodeToString(seed),
		"0x-hex":         "0x" + hex.EncodeToString(seed),
		"base64":         base64.StdEncoding.EncodeToString(seed),
		"flagged-base64": base64.StdEncoding.EncodeToString(append([]byte{0}, seed...)),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePrivateKey(in)
			require.NoError(t, err)
			assert.Equal(t, want.Address(), got.Address())
		})
	}

	t.Run("不正な入力", func(t *testing.T) {
		for _, in := range []string{"", "suiprivkey1invalid", "deadbeef", "!!!"} {
			_, err := ParsePrivateKey(in)
			assert.ErrorIs(t, err, ErrInvalidKey, in)
		}
	})
}

func TestKeypairSigner_SignTransaction(t *testing.T) {
	s, err := NewKeypairSigner(testSeed())
	require.NoError(t, err)

	txBytes := []byte{0, 0, 1, 2, 3}
	encoded, err := s.SignTransaction(txBytes)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, raw, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	assert.Equal(t, byte(0x00), raw[0], "Ed25519 のフラグ")

	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
	assert.Equal(t, s.PublicKey(), pub)

	digest := SigningDigest(txBytes)
	assert.True(t, ed25519.Verify(pub, digest[:], sig), "intent 付きダイジェストへの署名であるべきです")
	assert.False(t, ed25519.Verify(pub, txBytes, sig))
}

func TestDeriveAddress(t *testing.T) {
	s, err := NewKeypairSigner(testSeed())
	require.NoError(t, err)
	assert.Equal(t, DeriveAddress(s.PublicKey()), s.Address())
	assert.False(t, s.Address().IsZero())

	other, err := NewKeypairSigner(make([]byte, ed25519.SeedSize))
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), other.Address())
}
