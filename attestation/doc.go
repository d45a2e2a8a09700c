// Package attestation binds worker encryption keys to TEE identities.
//
// The KMS attests every public key it hands out: the attestation's report
// data commits to the worker ID and the serialized key, so a client that
// verifies the quote knows the key was produced inside the expected TEE and
// for the expected workload.
//
// # Providers
//
//   - DCAPProvider - raw TDX quotes from the local quoting device
//   - RemoteProvider - quotes fetched from a host-side quote service
//   - DummyProvider - placeholder evidence for development
//
// Attestation types carry both an OID (for embedding in certificate
// extensions) and a string identifier (for HTTP headers and CLI flags).
//
// VerifyDCAPQuote checks a quote's signature chain and report data and
// returns its measurement registers for policy evaluation by the caller.
package attestation
