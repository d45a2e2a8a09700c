package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ContentID is a 32-byte SHA-256 hash uniquely identifying stored content.
type ContentID [32]byte

// NewContentIDFromBytes creates a content ID from a raw 32-byte hash.
func NewContentIDFromBytes(source []byte) (ContentID, error) {
	if len(source) != 32 {
		return ContentID{}, errors.New("invalid ContentID conversion from bytes: incorrect length")
	}

	var hash [32]byte
	copy(hash[:], source)
	return ContentID(hash), nil
}

// NewContentIDFromHex creates a content ID from a 64-character hex string.
func NewContentIDFromHex(source string) (ContentID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ContentID{}, errors.New("invalid content ID length: hex string must be 64 characters")
	}

	hashBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var hash [32]byte
	copy(hash[:], hashBytes)
	return ContentID(hash), nil
}

// ComputeID calculates the content ID for data.
func ComputeID(data []byte) ContentID {
	hash := sha256.Sum256(data)
	return ContentID(hash)
}

// String returns the hex representation.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte hash.
func (id ContentID) Bytes() []byte {
	return id[:]
}

// Equal compares two content IDs.
func (id ContentID) Equal(other ContentID) bool {
	return bytes.Equal(id[:], other[:])
}

// ContentType indicates the storage namespace.
type ContentType int

const (
	// KeyType for serialized worker public keys
	KeyType ContentType = iota
	// SealedSecretType for ciphertexts sealed to a worker key
	SealedSecretType
)

// String returns the type name.
func (ct ContentType) String() string {
	switch ct {
	case KeyType:
		return "key"
	case SealedSecretType:
		return "sealed"
	default:
		return "unknown"
	}
}

// StorageBackendLocation is the URI identifying a storage backend, in the
// form [scheme]://[auth@]host[:port][/path][?params].
type StorageBackendLocation string

var (
	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend provides content-addressed data storage for serialized
// keys and sealed secrets.
type StorageBackend interface {
	// Fetch retrieves data by content ID and type.
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)

	// Store saves data and returns its content ID.
	Store(ctx context.Context, data []byte, contentType ContentType) (ContentID, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends from location URIs.
type StorageBackendFactory interface {
	// StorageBackendFor creates a backend from a URI.
	// Supports file://, s3://, ipfs://, vault://, github://
	StorageBackendFor(locationURI StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend creates an aggregated backend with fallback.
	CreateMultiBackend(locationURIs []StorageBackendLocation) (StorageBackend, error)
}
