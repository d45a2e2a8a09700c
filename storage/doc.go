// Package storage provides content-addressed storage with pluggable backends
// for distributing worker public keys and sealed secrets.
//
// Content is identified by the SHA-256 hash of its bytes, so any party
// holding a content ID can verify what it fetched. Worker keys and sealed
// secrets live in separate namespaces (interfaces.KeyType and
// interfaces.SealedSecretType).
//
// Available backends:
//
//   - File system storage for local development and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage for decentralized content
//   - GitHub storage for audited read-only key distribution
//   - Vault storage for sealed secrets, token authenticated
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/workload-keys/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/
//   - github://owner/repo
//   - vault://TOKEN@vault.example.com:8200/secret/workload-keys
//
// # Multi-Backend Redundancy
//
// MultiStorageBackend aggregates several backends behind the same interface.
// Stores are replicated to every available backend, fetches return from the
// first backend that has the content. A deployment typically publishes
// worker keys to S3 and IPFS while keeping sealed secrets in Vault.
package storage
