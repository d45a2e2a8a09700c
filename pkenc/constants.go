package pkenc

import "crypto/sha1"

// DefaultKeyBits is the RSA modulus size used for worker encryption keys.
const DefaultKeyBits = 2048

// PEM block types for the PKCS#1 encodings exchanged with other system
// components. These must stay bit-compatible with standard PEM/DER tooling.
const (
	pemPublicKeyType  = "RSA PUBLIC KEY"
	pemPrivateKeyType = "RSA PRIVATE KEY"
)

// oaepOverhead is the fixed OAEP padding overhead in bytes. The scheme uses
// SHA-1, matching OpenSSL's RSA_PKCS1_OAEP_PADDING that existing workers
// encrypt and decrypt with.
const oaepOverhead = 2*sha1.Size + 2

// MaxPlaintextFor returns the maximum OAEP plaintext length in bytes for a
// key with the given modulus byte length.
func MaxPlaintextFor(modulusBytes int) int {
	return modulusBytes - oaepOverhead
}
