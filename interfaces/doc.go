// Package interfaces provides the type definitions and interfaces that
// connect the workload encryption system's components.
//
// # Core Types
//
//   - WorkerID - 32-byte Keccak-256 identifier for a registered workload
//   - EncryptionPubkey - PEM PKCS#1 serialized worker public key
//   - EncryptionPrivkey - PEM PKCS#1 serialized worker key pair
//   - Attestation - TEE attestation evidence for key material
//   - ContentID - 32-byte SHA-256 content identifier for storage
//
// # Key Interfaces
//
//   - KMS - worker key pair management and attestation
//   - StorageBackend - content-addressed storage for keys and sealed
//     secrets
//   - StorageBackendFactory - backend creation from URI strings
//
// The PEM key types wrap validation and conversion to pkenc handles, so
// components can pass serialized keys around and only materialize a handle
// at the point of use.
package interfaces
