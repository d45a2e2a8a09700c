// Package interfaces defines the core types and contracts shared by the
// workload encryption system's components. It provides the boundary between
// the key management, storage, and API layers without implementation
// details.
package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tcforge/workload-encryption/pkenc"
)

// Attestation is a cryptographic attestation binding key material to a TEE
// identity. Its format depends on the attestation provider that produced it.
type Attestation []byte

// WorkerID identifies a workload in the registry. It is the Keccak-256
// digest of the worker's registered name, so identifiers are stable across
// services without coordination.
type WorkerID [32]byte

// NewWorkerIDFromName derives the canonical identifier for a worker name.
func NewWorkerIDFromName(name string) WorkerID {
	return WorkerID(crypto.Keccak256Hash([]byte(name)))
}

// NewWorkerIDFromBytes creates a worker ID from raw bytes.
func NewWorkerIDFromBytes(source []byte) (WorkerID, error) {
	if len(source) != 32 {
		return WorkerID{}, errors.New("invalid worker ID length: must be 32 bytes")
	}

	var id WorkerID
	copy(id[:], source)
	return id, nil
}

// NewWorkerIDFromHex creates a worker ID from a 64-character hex string.
func NewWorkerIDFromHex(source string) (WorkerID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return WorkerID{}, errors.New("invalid worker ID length: hex string must be 64 characters")
	}

	idBytes, err := hex.DecodeString(clean)
	if err != nil {
		return WorkerID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewWorkerIDFromBytes(idBytes)
}

// String returns the hex representation of the worker ID.
func (id WorkerID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte identifier.
func (id WorkerID) Bytes() []byte {
	return id[:]
}

// Equal compares two worker IDs.
func (id WorkerID) Equal(other WorkerID) bool {
	return id == other
}

// EncryptionPubkey is a worker's serialized encryption public key in PEM
// PKCS#1 form, the representation exchanged over the API and stored in
// backends.
type EncryptionPubkey []byte

// NewEncryptionPubkey creates a new public key object from PEM-encoded data
// with validation.
func NewEncryptionPubkey(data []byte) (EncryptionPubkey, error) {
	if _, err := pkenc.ParsePublicKey(data); err != nil {
		return nil, fmt.Errorf("invalid encryption public key: %w", err)
	}
	return EncryptionPubkey(data), nil
}

// Validate checks if the public key is properly formed.
func (pub EncryptionPubkey) Validate() error {
	_, err := NewEncryptionPubkey(pub)
	return err
}

// Handle returns a populated pkenc handle for the key.
func (pub EncryptionPubkey) Handle() (*pkenc.PublicKey, error) {
	return pkenc.ParsePublicKey(pub)
}

// Fingerprint returns the Keccak-256 digest of the serialized key, used for
// logging and content addressing.
func (pub EncryptionPubkey) Fingerprint() string {
	return crypto.Keccak256Hash(pub).Hex()
}

// EncryptionPrivkey is a worker's serialized key pair in PEM PKCS#1 form.
// It never leaves the KMS unencrypted except toward the attested workload
// itself.
type EncryptionPrivkey []byte

// Validate checks if the private key is properly formed.
func (priv EncryptionPrivkey) Validate() error {
	_, err := pkenc.ParsePrivateKey(priv)
	return err
}

// Handle returns a populated pkenc handle for the key pair.
func (priv EncryptionPrivkey) Handle() (*pkenc.PrivateKey, error) {
	return pkenc.ParsePrivateKey(priv)
}
