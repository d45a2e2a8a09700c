package interfaces

// KMS manages the encryption key pairs of registered workloads.
type KMS interface {
	// GetWorkerKey returns the worker's serialized public key together with
	// attestation evidence binding it to the KMS's TEE identity.
	GetWorkerKey(id WorkerID) (EncryptionPubkey, Attestation, error)

	// GetWorkerPrivkey returns the worker's serialized key pair. Only the
	// attested workload itself may receive this material; callers enforce
	// that policy.
	GetWorkerPrivkey(id WorkerID) (EncryptionPrivkey, error)
}
