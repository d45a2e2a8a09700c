// Package keyhandler implements the worker key endpoint and its client.
//
// The handler serves attested worker public keys from the KMS and accepts
// sealed secrets for content-addressed storage. The client helpers fetch a
// worker's key, verify the attestation binding, and seal secrets locally so
// plaintext never crosses the wire:
//
//	ciphertext, err := keyhandler.SealForWorker(url, workerID, secret)
//
// Sealing uses RSA-OAEP via the pkenc package; only the worker holding the
// matching private key (obtained from the KMS inside its TEE) can recover
// the plaintext.
package keyhandler
