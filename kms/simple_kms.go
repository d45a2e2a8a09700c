package kms

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/tcforge/workload-encryption/attestation"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/pkenc"
)

// SimpleKMS manages worker encryption key pairs in memory, sealing them to
// disk with keys derived from a master seed. Suitable for development and
// single-instance deployments; the master seed can be bootstrapped from
// Shamir shares (see SplitSeed / CombineSeed).
type SimpleKMS struct {
	masterSeed []byte
	keyDir     string

	mu   sync.RWMutex
	keys map[interfaces.WorkerID]*pkenc.PrivateKey

	attestationProvider attestation.Provider
}

// NewSimpleKMS creates a new instance with the provided master seed.
// The seed must be at least 32 bytes long.
func NewSimpleKMS(masterSeed []byte) (*SimpleKMS, error) {
	if len(masterSeed) < 32 {
		return nil, errors.New("master seed must be at least 32 bytes")
	}

	return &SimpleKMS{
		masterSeed:          masterSeed,
		keys:                make(map[interfaces.WorkerID]*pkenc.PrivateKey),
		attestationProvider: &attestation.DummyProvider{},
	}, nil
}

// WithAttestationProvider creates a new SimpleKMS with the specified
// attestation provider. Used to customize attestation generation.
func (k *SimpleKMS) WithAttestationProvider(provider attestation.Provider) *SimpleKMS {
	return &SimpleKMS{
		masterSeed:          k.masterSeed,
		keyDir:              k.keyDir,
		keys:                make(map[interfaces.WorkerID]*pkenc.PrivateKey),
		attestationProvider: provider,
	}
}

// WithKeyDir creates a new SimpleKMS that persists sealed key pairs in the
// given directory, so worker keys survive restarts.
func (k *SimpleKMS) WithKeyDir(dir string) (*SimpleKMS, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	return &SimpleKMS{
		masterSeed:          k.masterSeed,
		keyDir:              dir,
		keys:                make(map[interfaces.WorkerID]*pkenc.PrivateKey),
		attestationProvider: k.attestationProvider,
	}, nil
}

// WorkerKeyReportData generates the attestation report data binding a
// worker's public key to its identity.
func WorkerKeyReportData(id interfaces.WorkerID, pubkey interfaces.EncryptionPubkey) [64]byte {
	var reportData [64]byte
	keyHash := sha256.Sum256(pubkey)
	copy(reportData[:32], id[:])
	copy(reportData[32:], keyHash[:])
	return reportData
}

// GetWorkerKey returns the worker's serialized public key and an
// attestation over it. The key pair is created on first use.
func (k *SimpleKMS) GetWorkerKey(id interfaces.WorkerID) (interfaces.EncryptionPubkey, interfaces.Attestation, error) {
	priv, err := k.workerKey(id)
	if err != nil {
		return nil, nil, err
	}

	pub, err := priv.Public()
	if err != nil {
		return nil, nil, err
	}

	pubPEM, err := pub.Serialize()
	if err != nil {
		return nil, nil, err
	}

	reportData := WorkerKeyReportData(id, pubPEM)
	quote, err := k.attestationProvider.Attest(reportData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to attest worker key: %w", err)
	}

	return interfaces.EncryptionPubkey(pubPEM), interfaces.Attestation(quote), nil
}

// GetWorkerPrivkey returns the worker's serialized key pair. The key pair
// is created on first use.
func (k *SimpleKMS) GetWorkerPrivkey(id interfaces.WorkerID) (interfaces.EncryptionPrivkey, error) {
	priv, err := k.workerKey(id)
	if err != nil {
		return nil, err
	}

	privPEM, err := priv.Serialize()
	if err != nil {
		return nil, err
	}

	return interfaces.EncryptionPrivkey(privPEM), nil
}

// workerKey returns the cached key pair for a worker, restoring it from the
// sealed key directory or generating a fresh one if needed.
func (k *SimpleKMS) workerKey(id interfaces.WorkerID) (*pkenc.PrivateKey, error) {
	k.mu.RLock()
	priv, ok := k.keys[id]
	k.mu.RUnlock()
	if ok {
		return priv, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	// Re-check under the write lock, another caller may have won the race.
	if priv, ok := k.keys[id]; ok {
		return priv, nil
	}

	if priv, err := k.loadSealedKey(id); err == nil {
		k.keys[id] = priv
		return priv, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to restore sealed key for worker %s: %w", id, err)
	}

	priv, err := pkenc.GenerateKey(pkenc.DefaultKeyBits, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair for worker %s: %w", id, err)
	}

	if err := k.storeSealedKey(id, priv); err != nil {
		return nil, fmt.Errorf("failed to seal key for worker %s: %w", id, err)
	}

	k.keys[id] = priv
	return priv, nil
}

// deriveSealingKey derives the per-worker AES key protecting sealed key
// pairs at rest. HKDF-SHA256 over the master seed, salted by worker ID.
func (k *SimpleKMS) deriveSealingKey(id interfaces.WorkerID) ([]byte, error) {
	kdf := hkdf.New(sha256.New, k.masterSeed, id[:], []byte("worker-key-sealing"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("sealing key derivation failed: %w", err)
	}
	return key, nil
}

func (k *SimpleKMS) sealedKeyPath(id interfaces.WorkerID) string {
	return filepath.Join(k.keyDir, id.String()+".sealed")
}

// storeSealedKey writes the key pair to the key directory, AES-GCM
// encrypted under the worker's sealing key. No-op without a key directory.
func (k *SimpleKMS) storeSealedKey(id interfaces.WorkerID, priv *pkenc.PrivateKey) error {
	if k.keyDir == "" {
		return nil
	}

	privPEM, err := priv.Serialize()
	if err != nil {
		return err
	}

	sealingKey, err := k.deriveSealingKey(id)
	if err != nil {
		return err
	}

	aesBlock, err := aes.NewCipher(sealingKey)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// File layout: [nonce][ciphertext], worker ID as additional data.
	sealed := aesGCM.Seal(nonce, nonce, privPEM, id[:])

	return os.WriteFile(k.sealedKeyPath(id), sealed, 0600)
}

// loadSealedKey restores a worker's key pair from the key directory.
// Returns os.ErrNotExist when no sealed key is present (including when no
// key directory is configured).
func (k *SimpleKMS) loadSealedKey(id interfaces.WorkerID) (*pkenc.PrivateKey, error) {
	if k.keyDir == "" {
		return nil, os.ErrNotExist
	}

	sealed, err := os.ReadFile(k.sealedKeyPath(id))
	if err != nil {
		return nil, err
	}

	sealingKey, err := k.deriveSealingKey(id)
	if err != nil {
		return nil, err
	}

	aesBlock, err := aes.NewCipher(sealingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(sealed) < aesGCM.NonceSize() {
		return nil, errors.New("sealed key file is truncated")
	}

	nonce := sealed[:aesGCM.NonceSize()]
	ciphertext := sealed[aesGCM.NonceSize():]

	privPEM, err := aesGCM.Open(nil, nonce, ciphertext, id[:])
	if err != nil {
		return nil, fmt.Errorf("failed to unseal key: %w", err)
	}

	return pkenc.ParsePrivateKey(privPEM)
}
