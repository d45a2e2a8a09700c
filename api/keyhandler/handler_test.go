package keyhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcforge/workload-encryption/api"
	"github.com/tcforge/workload-encryption/attestation"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/kms"
	"github.com/tcforge/workload-encryption/storage"
)

func testKMS(t *testing.T) *kms.SimpleKMS {
	t.Helper()

	masterSeed := make([]byte, 32)
	for i := range masterSeed {
		masterSeed[i] = byte(i)
	}

	k, err := kms.NewSimpleKMS(masterSeed)
	require.NoError(t, err)
	return k
}

func testRouter(handler *Handler) *chi.Mux {
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return mux
}

func TestHandleWorkerKey_WithRealKMS(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	workerID := interfaces.NewWorkerIDFromName("order-matching-engine")

	handler := NewHandler(testKMS(t), attestation.DummyAttestation, logger)

	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/public/worker_key/%s", workerID.String()),
		nil,
	)
	w := httptest.NewRecorder()
	testRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.WorkerKeyResponse
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	err = json.Unmarshal(respBody, &result)
	require.NoError(t, err, string(respBody))

	assert.NotEmpty(t, result.Attestation)
	assert.Equal(t, attestation.DummyAttestation.StringID, result.AttestationType)

	require.NoError(t, result.Pubkey.Validate())
	assert.Contains(t, string(result.Pubkey), "-----BEGIN RSA PUBLIC KEY-----")
	assert.Contains(t, string(result.Pubkey), "-----END RSA PUBLIC KEY-----")

	require.NoError(t, VerifyWorkerKey(&result, workerID))
}

func TestHandleWorkerKey_InvalidID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(testKMS(t), attestation.DummyAttestation, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/public/worker_key/nothex", nil)
	w := httptest.NewRecorder()
	testRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandleWorkerKey_PublishesToStorage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	workerID := interfaces.NewWorkerIDFromName("key-publishing-workload")

	backend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewHandler(testKMS(t), attestation.DummyAttestation, logger).WithStorage(backend)

	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/public/worker_key/%s", workerID.String()),
		nil,
	)
	w := httptest.NewRecorder()
	testRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.WorkerKeyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	// The served key must be retrievable from storage by its content ID.
	stored, err := backend.Fetch(req.Context(), interfaces.ComputeID(result.Pubkey), interfaces.KeyType)
	require.NoError(t, err)
	assert.Equal(t, []byte(result.Pubkey), stored)
}

func TestHandleStoreSealedSecret(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewHandler(testKMS(t), attestation.DummyAttestation, logger).WithStorage(backend)
	router := testRouter(handler)

	ciphertext := []byte("opaque sealed bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/public/sealed_secret", bytes.NewReader(ciphertext))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.SealedSecretResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, interfaces.ComputeID(ciphertext).String(), result.ContentID)

	// Empty body is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/public/sealed_secret", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandleStoreSealedSecret_NoStorage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(testKMS(t), attestation.DummyAttestation, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/public/sealed_secret", bytes.NewReader([]byte("x")))
	w := httptest.NewRecorder()
	testRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Result().StatusCode)
}

func TestSealForWorkerEndToEnd(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	workerID := interfaces.NewWorkerIDFromName("settlement-workload")
	k := testKMS(t)

	handler := NewHandler(k, attestation.DummyAttestation, logger)
	server := httptest.NewServer(testRouter(handler))
	defer server.Close()

	plaintext := []byte("database credentials")
	ciphertext, err := SealForWorker(server.URL, workerID, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	// Only the worker's private key opens the seal.
	privPEM, err := k.GetWorkerPrivkey(workerID)
	require.NoError(t, err)
	priv, err := privPEM.Handle()
	require.NoError(t, err)

	recovered, err := priv.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}
