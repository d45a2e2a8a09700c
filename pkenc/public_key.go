package pkenc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// PublicKey is an owning handle around the public parameters (n, e) of an
// RSA key pair. The zero value is the empty, uninitialized state. A handle
// never shares its underlying parameter record with any other handle: every
// construction and copy deep-duplicates, and derivation from a PrivateKey
// copies only the public components.
//
// A single handle must not be mutated (Decode, TakeFrom) concurrently with
// any other use. Read-only operations (Serialize, Encrypt) are safe to call
// from multiple goroutines as long as no mutation is in flight.
type PublicKey struct {
	key *rsa.PublicKey
}

// Initialized reports whether the handle holds key material.
func (pk *PublicKey) Initialized() bool {
	return pk != nil && pk.key != nil
}

// PublicKeyFromPrivate derives a public key handle from a key pair,
// duplicating the public components without retaining any reference into
// the private key's material.
func PublicKeyFromPrivate(priv *PrivateKey) (*PublicKey, error) {
	const op = "PublicKeyFromPrivate"
	if !priv.Initialized() {
		return nil, resourceError(op, errNotInitialized)
	}
	return &PublicKey{key: dupPublicKey(&priv.key.PublicKey)}, nil
}

// ParsePublicKey decodes a PEM-encoded PKCS#1 RSAPublicKey blob into a new
// populated handle. Malformed input yields a value error.
func ParsePublicKey(encoded []byte) (*PublicKey, error) {
	key, err := decodeRSAPublicKey("ParsePublicKey", encoded)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: key}, nil
}

// Decode replaces the handle's key material with the key parsed from the
// PEM-encoded PKCS#1 blob. On failure the prior state is left untouched.
func (pk *PublicKey) Decode(encoded []byte) error {
	key, err := decodeRSAPublicKey("Decode", encoded)
	if err != nil {
		return err
	}
	pk.key = key
	return nil
}

// Serialize renders the key as PEM-encoded PKCS#1 RSAPublicKey text.
// Encoding the same key twice yields byte-identical output. Fails with a
// resource error when the handle is empty.
func (pk *PublicKey) Serialize() ([]byte, error) {
	const op = "Serialize"
	if !pk.Initialized() {
		return nil, resourceError(op, errNotInitialized)
	}
	der := x509.MarshalPKCS1PublicKey(pk.key)
	block := pem.EncodeToMemory(&pem.Block{Type: pemPublicKeyType, Bytes: der})
	if block == nil {
		return nil, resourceError(op, errors.New("could not encode PEM block"))
	}
	return block, nil
}

// Clone returns an independent deep copy of the handle. Mutating the clone
// never affects the original. Cloning an empty handle yields an empty
// handle.
func (pk *PublicKey) Clone() (*PublicKey, error) {
	if !pk.Initialized() {
		return &PublicKey{}, nil
	}
	return &PublicKey{key: dupPublicKey(pk.key)}, nil
}

// TakeFrom transfers ownership of src's key material into the receiver,
// releasing the receiver's prior material. src is empty afterwards. Taking
// from an empty source leaves the receiver empty rather than failing.
func (pk *PublicKey) TakeFrom(src *PublicKey) {
	if pk == src {
		return
	}
	if src == nil {
		pk.key = nil
		return
	}
	pk.key = src.key
	src.key = nil
}

// Size returns the modulus length in bytes, which is also the exact
// ciphertext length produced by Encrypt. Returns 0 for an empty handle.
func (pk *PublicKey) Size() int {
	if !pk.Initialized() {
		return 0
	}
	return pk.key.Size()
}

// MaxPlaintext returns the maximum message length Encrypt accepts for this
// key, determined by the modulus size and the OAEP overhead.
func (pk *PublicKey) MaxPlaintext() int {
	if !pk.Initialized() {
		return 0
	}
	return MaxPlaintextFor(pk.key.Size())
}

// Encrypt encrypts message with RSA-OAEP under this key. The message must
// be non-empty and no longer than MaxPlaintext(). The ciphertext is exactly
// Size() bytes. Padding is randomized, so repeated encryption of the same
// message yields different ciphertexts.
func (pk *PublicKey) Encrypt(message []byte) ([]byte, error) {
	const op = "Encrypt"
	if !pk.Initialized() {
		return nil, resourceError(op, errNotInitialized)
	}
	if len(message) == 0 {
		return nil, resourceError(op, errors.New("plaintext cannot be empty"))
	}
	if max := pk.MaxPlaintext(); len(message) > max {
		return nil, resourceError(op, fmt.Errorf("plaintext size %d exceeds maximum %d", len(message), max))
	}

	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pk.key, message, nil)
	if err != nil {
		return nil, resourceError(op, fmt.Errorf("rsa encryption failed: %w", err))
	}
	return ciphertext, nil
}

// decodeRSAPublicKey parses a PEM PKCS#1 RSAPublicKey blob into a fresh
// parameter record.
func decodeRSAPublicKey(op string, encoded []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(encoded)
	if block == nil {
		return nil, valueError(op, errors.New("input is not a PEM block"))
	}
	if block.Type != pemPublicKeyType {
		return nil, valueError(op, fmt.Errorf("unexpected PEM block type %q", block.Type))
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, valueError(op, fmt.Errorf("could not parse RSA public key: %w", err))
	}
	return key, nil
}

func dupPublicKey(src *rsa.PublicKey) *rsa.PublicKey {
	return &rsa.PublicKey{
		N: new(big.Int).Set(src.N),
		E: src.E,
	}
}
