// Package kms manages the encryption key pairs of registered workloads.
//
// It implements the interfaces.KMS contract:
//
//	type KMS interface {
//	    // GetWorkerKey returns the worker's attested public key.
//	    GetWorkerKey(id WorkerID) (EncryptionPubkey, Attestation, error)
//
//	    // GetWorkerPrivkey returns the worker's key pair.
//	    GetWorkerPrivkey(id WorkerID) (EncryptionPrivkey, error)
//	}
//
// # SimpleKMS
//
// SimpleKMS creates a worker's RSA-2048 key pair on first use and keeps it
// in memory. With a key directory configured, key pairs are persisted
// sealed: AES-GCM encrypted under a per-worker key derived from the master
// seed with HKDF-SHA256, with the worker ID as additional data. A restarted
// KMS holding the same master seed restores the same key pairs.
//
// # Master Seed Protection
//
// The master seed can be split into Shamir shares (SplitSeed) distributed
// to administrators. At startup, a threshold of shares reconstructs the
// seed in memory (CombineSeed); the seed never rests on persistent storage.
//
// # Attestation
//
// Every public key handed out is attested: the report data commits to the
// worker ID and the SHA-256 of the serialized key, so clients verifying the
// quote know which TEE produced the key and for which workload.
package kms
