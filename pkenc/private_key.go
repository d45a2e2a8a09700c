package pkenc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// PrivateKey is an owning handle around a full RSA key pair. It is the
// decrypting counterpart of PublicKey and follows the same ownership and
// error semantics: the zero value is empty, copies are deep, and no two
// handles ever share a parameter record.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// Initialized reports whether the handle holds key material.
func (pk *PrivateKey) Initialized() bool {
	return pk != nil && pk.key != nil
}

// GenerateKey creates a new key pair with the given modulus size. When
// random is nil the operating system's randomness source is used; callers
// that derive keys from a seed pass their own stream.
func GenerateKey(bits int, random io.Reader) (*PrivateKey, error) {
	const op = "GenerateKey"
	if random == nil {
		random = rand.Reader
	}
	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, resourceError(op, fmt.Errorf("rsa key generation failed: %w", err))
	}
	return &PrivateKey{key: key}, nil
}

// ParsePrivateKey decodes a PEM-encoded PKCS#1 RSAPrivateKey blob into a
// new populated handle. Malformed input yields a value error.
func ParsePrivateKey(encoded []byte) (*PrivateKey, error) {
	key, err := decodeRSAPrivateKey("ParsePrivateKey", encoded)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// Decode replaces the handle's key material with the key parsed from the
// PEM-encoded PKCS#1 blob. On failure the prior state is left untouched.
func (pk *PrivateKey) Decode(encoded []byte) error {
	key, err := decodeRSAPrivateKey("Decode", encoded)
	if err != nil {
		return err
	}
	pk.key = key
	return nil
}

// Serialize renders the key pair as PEM-encoded PKCS#1 RSAPrivateKey text.
// Fails with a resource error when the handle is empty.
func (pk *PrivateKey) Serialize() ([]byte, error) {
	const op = "Serialize"
	if !pk.Initialized() {
		return nil, resourceError(op, errNotInitialized)
	}
	der := x509.MarshalPKCS1PrivateKey(pk.key)
	block := pem.EncodeToMemory(&pem.Block{Type: pemPrivateKeyType, Bytes: der})
	if block == nil {
		return nil, resourceError(op, errors.New("could not encode PEM block"))
	}
	return block, nil
}

// Clone returns an independent deep copy of the handle.
func (pk *PrivateKey) Clone() (*PrivateKey, error) {
	if !pk.Initialized() {
		return &PrivateKey{}, nil
	}
	serialized := x509.MarshalPKCS1PrivateKey(pk.key)
	key, err := x509.ParsePKCS1PrivateKey(serialized)
	if err != nil {
		return nil, resourceError("Clone", fmt.Errorf("could not duplicate key pair: %w", err))
	}
	return &PrivateKey{key: key}, nil
}

// TakeFrom transfers ownership of src's key material into the receiver;
// src is empty afterwards. Taking from an empty source leaves the receiver
// empty.
func (pk *PrivateKey) TakeFrom(src *PrivateKey) {
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

// Public returns a new PublicKey handle holding an independent copy of the
// key pair's public components.
func (pk *PrivateKey) Public() (*PublicKey, error) {
	return PublicKeyFromPrivate(pk)
}

// Size returns the modulus length in bytes. Returns 0 for an empty handle.
func (pk *PrivateKey) Size() int {
	if !pk.Initialized() {
		return 0
	}
	return pk.key.Size()
}

// Decrypt decrypts an RSA-OAEP ciphertext produced under the matching
// public key and returns the plaintext.
func (pk *PrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	const op = "Decrypt"
	if !pk.Initialized() {
		return nil, resourceError(op, errNotInitialized)
	}
	if len(ciphertext) == 0 {
		return nil, resourceError(op, errors.New("ciphertext cannot be empty"))
	}
	plaintext, err := rsa.DecryptOAEP(sha1.New(), nil, pk.key, ciphertext, nil)
	if err != nil {
		return nil, resourceError(op, fmt.Errorf("rsa decryption failed: %w", err))
	}
	return plaintext, nil
}

func decodeRSAPrivateKey(op string, encoded []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(encoded)
	if block == nil {
		return nil, valueError(op, errors.New("input is not a PEM block"))
	}
	if block.Type != pemPrivateKeyType {
		return nil, valueError(op, fmt.Errorf("unexpected PEM block type %q", block.Type))
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, valueError(op, fmt.Errorf("could not parse RSA private key: %w", err))
	}
	return key, nil
}
