package keyhandler

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tcforge/workload-encryption/api"
	"github.com/tcforge/workload-encryption/attestation"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/kms"
)

// WorkerKey retrieves the attested public key for a worker from a remote key
// service. The returned key is validated to be a well-formed PEM public key;
// attestation verification is left to the caller (see VerifyWorkerKey).
//
// Parameters:
//   - url: Base URL of the key service (e.g. "https://keys.example.com")
//   - id: Worker identity
func WorkerKey(url string, id interfaces.WorkerID) (*api.WorkerKeyResponse, error) {
	req, err := http.NewRequest(
		http.MethodGet,
		fmt.Sprintf("%s/api/public/worker_key/%s", url, id.String()),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request worker key: %w", err)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read worker key response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker key request failed: %s, %s", resp.Status, string(body))
	}

	var keyResp api.WorkerKeyResponse
	if err := json.Unmarshal(body, &keyResp); err != nil {
		return nil, fmt.Errorf("could not parse worker key response: %w", err)
	}

	if err := keyResp.Pubkey.Validate(); err != nil {
		return nil, fmt.Errorf("key service returned an invalid public key: %w", err)
	}

	return &keyResp, nil
}

// VerifyWorkerKey checks that the attestation quote binds the returned key
// to the worker identity. DCAP quotes are fully verified; dummy attestations
// only have their report data checked.
func VerifyWorkerKey(resp *api.WorkerKeyResponse, id interfaces.WorkerID) error {
	expectedReportData := kms.WorkerKeyReportData(id, resp.Pubkey)

	attType, err := attestation.TypeFromString(resp.AttestationType)
	if err != nil {
		return err
	}

	switch attType.StringID {
	case attestation.DCAPAttestation.StringID:
		_, err := attestation.VerifyDCAPQuote(expectedReportData, resp.Attestation)
		return err
	case attestation.DummyAttestation.StringID:
		if !bytes.Contains(resp.Attestation, []byte(hex.EncodeToString(expectedReportData[:]))) {
			return fmt.Errorf("dummy attestation does not commit to the worker key")
		}
		return nil
	default:
		return fmt.Errorf("unsupported attestation type: %s", resp.AttestationType)
	}
}

// SealForWorker fetches a worker's public key and encrypts plaintext to it.
// The plaintext never leaves the caller; only the resulting ciphertext can
// be distributed. The key's attestation is verified before use.
func SealForWorker(url string, id interfaces.WorkerID, plaintext []byte) ([]byte, error) {
	keyResp, err := WorkerKey(url, id)
	if err != nil {
		return nil, err
	}

	if err := VerifyWorkerKey(keyResp, id); err != nil {
		return nil, fmt.Errorf("worker key attestation rejected: %w", err)
	}

	pub, err := keyResp.Pubkey.Handle()
	if err != nil {
		return nil, err
	}

	ciphertext, err := pub.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("could not seal secret for worker %s: %w", id, err)
	}

	return ciphertext, nil
}

// StoreSealedSecret uploads a ciphertext to the key service's storage
// backend and returns its content address.
func StoreSealedSecret(url string, ciphertext []byte) (*api.SealedSecretResponse, error) {
	resp, err := http.Post(
		fmt.Sprintf("%s/api/public/sealed_secret", url),
		"application/octet-stream",
		bytes.NewReader(ciphertext),
	)
	if err != nil {
		return nil, fmt.Errorf("could not store sealed secret: %w", err)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read sealed secret response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sealed secret request failed: %s, %s", resp.Status, string(body))
	}

	var storeResp api.SealedSecretResponse
	if err := json.Unmarshal(body, &storeResp); err != nil {
		return nil, fmt.Errorf("could not parse sealed secret response: %w", err)
	}

	return &storeResp, nil
}
