package keyhandler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcforge/workload-encryption/api"
	"github.com/tcforge/workload-encryption/attestation"
	"github.com/tcforge/workload-encryption/interfaces"
	"github.com/tcforge/workload-encryption/metrics"
)

// maxBodySize is the maximum allowed sealed secret size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the worker key service.
// It hands out attested worker public keys from the KMS and accepts sealed
// secrets for content-addressed storage.
type Handler struct {
	kms             interfaces.KMS
	attestationType attestation.Type
	storage         interfaces.StorageBackend
	metrics         *metrics.MetricsServer
	log             *slog.Logger
}

// NewHandler creates a new HTTP request handler for the worker key service.
// The attestation type names the provider backing the KMS so that clients
// know how to verify the returned quotes.
func NewHandler(kms interfaces.KMS, attestationType attestation.Type, log *slog.Logger) *Handler {
	return &Handler{
		kms:             kms,
		attestationType: attestationType,
		log:             log,
	}
}

// WithStorage creates a new Handler that publishes served worker keys and
// accepts sealed secrets on the given storage backend.
func (h *Handler) WithStorage(storage interfaces.StorageBackend) *Handler {
	return &Handler{
		kms:             h.kms,
		attestationType: h.attestationType,
		storage:         storage,
		metrics:         h.metrics,
		log:             h.log,
	}
}

// WithMetrics creates a new Handler that reports request counters.
func (h *Handler) WithMetrics(m *metrics.MetricsServer) *Handler {
	return &Handler{
		kms:             h.kms,
		attestationType: h.attestationType,
		storage:         h.storage,
		metrics:         m,
		log:             h.log,
	}
}

// RegisterRoutes configures the HTTP router with key service endpoints:
//   - GET /api/public/worker_key/{worker_id} - attested worker public key
//   - POST /api/public/sealed_secret - store a sealed secret
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/public/worker_key/{worker_id}", h.HandleWorkerKey)
	r.Post("/api/public/sealed_secret", h.HandleStoreSealedSecret)
}

// HandleWorkerKey serves the attested public key for a worker.
// The key pair is created by the KMS on first request.
//
// URL format: GET /api/public/worker_key/{worker_id}
//
// Response: JSON-encoded api.WorkerKeyResponse
//
// Status codes:
//   - 200 OK: key successfully retrieved
//   - 400 Bad Request: invalid worker ID format
//   - 500 Internal Server Error: KMS failure
func (h *Handler) HandleWorkerKey(w http.ResponseWriter, r *http.Request) {
	workerID, err := interfaces.NewWorkerIDFromHex(chi.URLParam(r, "worker_id"))
	if err != nil {
		h.log.Error("Invalid worker ID", "err", err, "worker_id", chi.URLParam(r, "worker_id"))
		h.countWorkerKeyRequest("bad_request")
		http.Error(w, "Invalid worker ID format", http.StatusBadRequest)
		return
	}

	pubkey, att, err := h.kms.GetWorkerKey(workerID)
	if err != nil {
		h.log.Error("Failed to get worker key", "err", err, "worker_id", workerID.String())
		h.countWorkerKeyRequest("kms_error")
		http.Error(w, fmt.Errorf("failed to get worker key: %w", err).Error(), http.StatusInternalServerError)
		return
	}

	// Publication is best effort, the response carries the key either way.
	if h.storage != nil {
		if id, err := h.storage.Store(r.Context(), pubkey, interfaces.KeyType); err != nil {
			h.log.Warn("Failed to publish worker key", "err", err, "worker_id", workerID.String())
		} else {
			h.log.Debug("Published worker key",
				slog.String("worker_id", workerID.String()),
				slog.String("content_id", id.String()))
		}
	}

	response := api.WorkerKeyResponse{
		Pubkey:          pubkey,
		Attestation:     att,
		AttestationType: h.attestationType.StringID,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		h.countWorkerKeyRequest("encode_error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.countWorkerKeyRequest("ok")
}

// HandleStoreSealedSecret accepts a ciphertext sealed to a worker key and
// stores it on the configured storage backend.
//
// URL format: POST /api/public/sealed_secret
// Request body: raw ciphertext bytes
//
// Response: JSON-encoded api.SealedSecretResponse with the content address.
//
// Status codes:
//   - 200 OK: secret stored
//   - 400 Bad Request: empty body
//   - 503 Service Unavailable: no storage backend configured
//   - 500 Internal Server Error: storage failure
func (h *Handler) HandleStoreSealedSecret(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		http.Error(w, "No storage backend configured", http.StatusServiceUnavailable)
		return
	}

	ciphertext, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if len(ciphertext) == 0 {
		http.Error(w, "Empty sealed secret in request body", http.StatusBadRequest)
		return
	}

	id, err := h.storage.Store(r.Context(), ciphertext, interfaces.SealedSecretType)
	if err != nil {
		h.log.Error("Failed to store sealed secret", "err", err)
		http.Error(w, fmt.Errorf("failed to store sealed secret: %w", err).Error(), http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.SealedSecretsStored.Inc()
	}

	h.log.Info("Stored sealed secret",
		slog.String("content_id", id.String()),
		slog.Int("size", len(ciphertext)))

	response := api.SealedSecretResponse{
		ContentID: id.String(),
		Locations: h.storage.LocationURI(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) countWorkerKeyRequest(result string) {
	if h.metrics != nil {
		h.metrics.WorkerKeyRequests.WithLabelValues(result).Inc()
	}
}
