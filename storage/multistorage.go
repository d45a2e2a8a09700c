package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tcforge/workload-encryption/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend over multiple
// backends with fallback. Stores go to every available backend, fetches
// return from the first backend that has the content.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback.
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the content from the first available backend that has it.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()))
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("content_id", id.String()),
			"err", err)
	}

	m.log.Error("All backends failed to fetch content",
		slog.String("content_id", id.String()),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %v", id, errs)
}

// Store saves data to all available backends.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	start := time.Now()
	var result interfaces.ContentID
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		id, err := backend.Store(ctx, data, contentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}

		if !success {
			result = id
			success = true
			m.log.Info("Stored content",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()),
				slog.Duration("duration", time.Since(start)))
		} else if !result.Equal(id) {
			// Same data must hash to the same ID on every backend.
			m.log.Warn("Inconsistent hashes from backends",
				slog.String("backend_name", backend.Name()),
				slog.String("expected_id", result.String()),
				slog.String("actual_id", id.String()))
		}
	}

	if !success {
		m.log.Error("All backends failed to store data",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return result, fmt.Errorf("all backends failed to store data: %v", errs)
	}

	return result, nil
}

// Available checks if any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the combined URI of all aggregated backends.
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
