package api

import (
	"github.com/tcforge/workload-encryption/interfaces"
)

// KeyProvider is the client-side interface for fetching attested worker keys.
type KeyProvider interface {
	// WorkerKey returns the attested public key for a worker.
	WorkerKey(id interfaces.WorkerID) (*WorkerKeyResponse, error)
}

// WorkerKeyResponse is returned by the worker key endpoint.
type WorkerKeyResponse struct {
	// Pubkey is the worker's public key, PEM encoded.
	Pubkey interfaces.EncryptionPubkey `json:"pubkey"`

	// Attestation is the quote over WorkerID||sha256(Pubkey) (64 bytes of
	// report data), produced by the KMS attestation provider.
	Attestation interfaces.Attestation `json:"attestation"`

	// AttestationType names the provider that produced the quote
	// (e.g. "qemu-tdx", "dummy").
	AttestationType string `json:"attestation_type"`
}

// SealedSecretResponse is returned after a sealed secret is stored.
type SealedSecretResponse struct {
	// ContentID is the content address of the stored ciphertext.
	ContentID string `json:"content_id"`

	// Locations lists the storage backends holding the ciphertext.
	Locations string `json:"locations"`
}
