// Package pkenc implements the asymmetric encryption keys used to seal
// secrets for TEE workloads.
//
// The package provides two owning handle types around RSA key material:
//
//   - PublicKey - the encrypting half, distributed to anyone who needs to
//     seal a message for a workload
//   - PrivateKey - the full key pair, held only by the workload (or the KMS
//     acting on its behalf)
//
// Handles have value-like semantics: deep copies via Clone, ownership
// transfer via TakeFrom, and an empty zero value distinct from a populated
// one. No two handles ever alias the same underlying parameter record, so
// mutating one handle cannot corrupt another.
//
// # Wire Format
//
// Keys serialize to PEM-wrapped PKCS#1 (RSAPublicKey / RSAPrivateKey)
// blocks, bit-compatible with standard openssl tooling:
//
//	-----BEGIN RSA PUBLIC KEY-----
//	...base64 DER SEQUENCE{n, e}...
//	-----END RSA PUBLIC KEY-----
//
// Serialization is deterministic: the same key always produces byte-identical
// text, which makes serialized keys safe to content-address in storage.
//
// # Encryption
//
// Encrypt and Decrypt use RSA-OAEP with SHA-1, interoperable with OpenSSL's
// RSA_PKCS1_OAEP_PADDING. For a key with modulus length L bytes the maximum
// plaintext is L minus the fixed padding overhead (MaxPlaintext), and every
// ciphertext is exactly L bytes. OAEP padding is randomized: encrypting the
// same message twice yields different ciphertexts that both decrypt to the
// original.
//
// Messages larger than MaxPlaintext cannot be encrypted directly; callers
// seal a symmetric key instead and encrypt the payload with it.
//
// # Errors
//
// Every failure is an *Error carrying one of two kinds:
//
//   - KindValue - the caller supplied malformed input (unparseable PEM).
//     Fix the input and retry.
//   - KindResource - an internal condition: uninitialized handle, bounds
//     violation, or a failure reported by the crypto primitives.
//
// Use IsValueError / IsResourceError to distinguish them. Failed operations
// never leave a handle in a partially-updated state.
package pkenc
