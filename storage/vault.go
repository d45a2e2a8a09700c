package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/tcforge/workload-encryption/interfaces"
)

// VaultBackend implements a storage backend using HashiCorp Vault's KV v2
// secrets engine. Sealed secrets are a natural fit for Vault, which adds its
// own encryption at rest and access auditing on top of the OAEP layer.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault storage backend authenticated with a
// Vault token.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token used for all operations
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "workload-keys")
func NewVaultBackend(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves data from Vault by its content identifier and type.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	path := b.getSecretPath(id, contentType)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("content_id", id.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Content not found in Vault",
			slog.String("path", path),
			slog.String("content_id", id.String()))
		return nil, interfaces.ErrContentNotFound
	}

	// KV v2 wraps the payload in a "data" map.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	contentStr, ok := data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	b.log.Debug("Fetched content from Vault",
		slog.String("content_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return []byte(contentStr), nil
}

// Store saves data to Vault and returns its content identifier.
func (b *VaultBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	start := time.Now()
	id := interfaces.ComputeID(data)
	path := b.getSecretPath(id, contentType)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(data),
		},
	}

	_, err := b.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("content_id", id.String()),
			"err", err)
		return id, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in Vault",
		slog.String("content_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return id, nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

// getSecretPath generates the KV v2 path for a content ID and type.
func (b *VaultBackend) getSecretPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return fmt.Sprintf("%s/data/%s/%s/%s", b.mountPath, b.dataPath, contentType.String(), id.String())
}
