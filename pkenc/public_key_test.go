package pkenc

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKeyA    *PrivateKey
	testKeyB    *PrivateKey
)

// testKeys returns two distinct 2048-bit key pairs shared across tests.
// The handles are only read, never mutated.
func testKeys(t *testing.T) (*PrivateKey, *PrivateKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKeyA, err = GenerateKey(DefaultKeyBits, nil)
		if err != nil {
			t.Fatalf("generating test key A: %v", err)
		}
		testKeyB, err = GenerateKey(DefaultKeyBits, nil)
		if err != nil {
			t.Fatalf("generating test key B: %v", err)
		}
	})
	return testKeyA, testKeyB
}

func TestSerializeDecodeRoundTrip(t *testing.T) {
	priv, _ := testKeys(t)

	pub, err := priv.Public()
	require.NoError(t, err)

	serialized, err := pub.Serialize()
	require.NoError(t, err)
	assert.Contains(t, string(serialized), "-----BEGIN RSA PUBLIC KEY-----")
	assert.Contains(t, string(serialized), "-----END RSA PUBLIC KEY-----")
	assert.NotContains(t, string(serialized), "\x00")

	decoded, err := ParsePublicKey(serialized)
	require.NoError(t, err)

	reserialized, err := decoded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, serialized, reserialized)

	// Serialization is deterministic on the same handle too.
	again, err := pub.Serialize()
	require.NoError(t, err)
	assert.Equal(t, serialized, again)
}

func TestSerializeUninitialized(t *testing.T) {
	var pub PublicKey
	_, err := pub.Serialize()
	require.Error(t, err)
	assert.True(t, IsResourceError(err))
}

func TestEncryptBounds(t *testing.T) {
	priv, _ := testKeys(t)
	pub, err := priv.Public()
	require.NoError(t, err)

	size := pub.Size()
	max := pub.MaxPlaintext()
	require.Equal(t, size-42, max, "OAEP-SHA1 overhead is 42 bytes")

	testCases := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"single byte", 1, false},
		{"half of maximum", max / 2, false},
		{"exactly maximum", max, false},
		{"empty message", 0, true},
		{"one over maximum", max + 1, true},
		{"full modulus size", size, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			message := bytes.Repeat([]byte{0xA5}, tc.length)
			ciphertext, err := pub.Encrypt(message)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsResourceError(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, ciphertext, size)

			plaintext, err := priv.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, message, plaintext)
		})
	}
}

func TestEncryptRandomizedPadding(t *testing.T) {
	priv, _ := testKeys(t)
	pub, err := priv.Public()
	require.NoError(t, err)

	message := []byte("the same plaintext, sealed twice")

	first, err := pub.Encrypt(message)
	require.NoError(t, err)
	second, err := pub.Encrypt(message)
	require.NoError(t, err)

	// OAEP padding is randomized, so the ciphertexts must differ while both
	// still decrypt to the original message.
	assert.NotEqual(t, first, second)

	for _, ciphertext := range [][]byte{first, second} {
		plaintext, err := priv.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, message, plaintext)
	}
}

func TestEncryptWrongKeyPair(t *testing.T) {
	privA, privB := testKeys(t)
	pub, err := privA.Public()
	require.NoError(t, err)

	ciphertext, err := pub.Encrypt([]byte("for key A only"))
	require.NoError(t, err)

	_, err = privB.Decrypt(ciphertext)
	require.Error(t, err)
	assert.True(t, IsResourceError(err))

	plaintext, err := privA.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("for key A only"), plaintext)
}

func TestEncryptUninitialized(t *testing.T) {
	var pub PublicKey
	_, err := pub.Encrypt([]byte("message"))
	require.Error(t, err)
	assert.True(t, IsResourceError(err))
}

func TestCloneIsolation(t *testing.T) {
	privA, privB := testKeys(t)

	pub, err := privA.Public()
	require.NoError(t, err)
	original, err := pub.Serialize()
	require.NoError(t, err)

	clone, err := pub.Clone()
	require.NoError(t, err)

	// Re-decoding the clone with a different key must not affect the
	// original handle.
	otherPub, err := privB.Public()
	require.NoError(t, err)
	otherSerialized, err := otherPub.Serialize()
	require.NoError(t, err)
	require.NoError(t, clone.Decode(otherSerialized))

	afterMutation, err := pub.Serialize()
	require.NoError(t, err)
	assert.Equal(t, original, afterMutation)

	cloneSerialized, err := clone.Serialize()
	require.NoError(t, err)
	assert.Equal(t, otherSerialized, cloneSerialized)
}

func TestCloneEmpty(t *testing.T) {
	var pub PublicKey
	clone, err := pub.Clone()
	require.NoError(t, err)
	assert.False(t, clone.Initialized())
}

func TestDecodeMalformed(t *testing.T) {
	priv, _ := testKeys(t)
	pub, err := priv.Public()
	require.NoError(t, err)
	serialized, err := pub.Serialize()
	require.NoError(t, err)

	testCases := []struct {
		name    string
		encoded []byte
	}{
		{"not PEM at all", []byte("definitely not a key")},
		{"empty input", nil},
		{"truncated PEM", serialized[:len(serialized)/2]},
		{"wrong block type", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{0x30, 0x00}})},
		{"garbage DER body", pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: []byte{0xde, 0xad, 0xbe, 0xef}})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePublicKey(tc.encoded)
			require.Error(t, err)
			assert.True(t, IsValueError(err), "malformed input must be a value error, got: %v", err)
			assert.False(t, IsResourceError(err))
		})
	}
}

func TestDecodeFailureKeepsPriorState(t *testing.T) {
	priv, _ := testKeys(t)
	pub, err := priv.Public()
	require.NoError(t, err)
	before, err := pub.Serialize()
	require.NoError(t, err)

	require.Error(t, pub.Decode([]byte("not a PEM block")))

	after, err := pub.Serialize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTakeFrom(t *testing.T) {
	priv, _ := testKeys(t)

	t.Run("populated source", func(t *testing.T) {
		src, err := priv.Public()
		require.NoError(t, err)
		expected, err := src.Serialize()
		require.NoError(t, err)

		var dst PublicKey
		dst.TakeFrom(src)

		assert.False(t, src.Initialized())
		got, err := dst.Serialize()
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("empty source yields empty destination", func(t *testing.T) {
		dst, err := priv.Public()
		require.NoError(t, err)
		var src PublicKey
		dst.TakeFrom(&src)
		assert.False(t, dst.Initialized())
	})

	t.Run("self transfer is a no-op", func(t *testing.T) {
		pk, err := priv.Public()
		require.NoError(t, err)
		pk.TakeFrom(pk)
		assert.True(t, pk.Initialized())
	})
}

// Test2048BitScenario pins down the exact wire behavior for the standard
// 2048-bit worker key: the PEM body is a DER SEQUENCE of two integers, and
// a 32-byte message seals to a 256-byte ciphertext.
func Test2048BitScenario(t *testing.T) {
	priv, _ := testKeys(t)
	pub, err := priv.Public()
	require.NoError(t, err)
	require.Equal(t, 256, pub.Size())

	serialized, err := pub.Serialize()
	require.NoError(t, err)

	block, rest := pem.Decode(serialized)
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "RSA PUBLIC KEY", block.Type)

	var seq struct {
		N *big.Int
		E *big.Int
	}
	rest2, err := asn1.Unmarshal(block.Bytes, &seq)
	require.NoError(t, err, "PEM body must be a DER SEQUENCE of two integers")
	assert.Empty(t, rest2)
	assert.Positive(t, seq.N.Sign())
	assert.Positive(t, seq.E.Sign())

	parsed, err := x509.ParsePKCS1PublicKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 256, parsed.Size())

	message := bytes.Repeat([]byte{0x42}, 32)
	ciphertext, err := pub.Encrypt(message)
	require.NoError(t, err)
	assert.Len(t, ciphertext, 256)
}
