package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tcforge/workload-encryption/interfaces"
)

// StorageBackendFactory creates storage backends from URI strings and manages
// multi-backend configurations for redundant storage.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		log: logger,
	}
}

// StorageBackendFor creates a storage backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS distributed storage
//   - vault:// - HashiCorp Vault KV v2 secrets engine
//   - github:// - Read-only storage using GitHub's Git blob API
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) StorageBackendFor(locationURI interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	u, err := url.Parse(string(locationURI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "github":
		return sf.createGitHubBackend(u)
	case "ipfs":
		return sf.createIPFSBackend(u)
	case "s3":
		return sf.createS3Backend(u)
	case "vault":
		return sf.createVaultBackend(u)
	case "file":
		return sf.createFileBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of location URIs.
// The multi-backend aggregates all valid backends, providing redundancy for storage
// operations. Returns an error if no valid backends could be created.
func (sf *StorageBackendFactory) CreateMultiBackend(locationURIs []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locationURIs))

	for _, uri := range locationURIs {
		backend, err := sf.StorageBackendFor(uri)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("location_uri", string(uri)))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createGitHubBackend creates a read-only GitHub storage backend.
// URI format: github://owner/repo
func (sf *StorageBackendFactory) createGitHubBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating GitHub backend", slog.String("uri", u.String()))

	owner := u.Host
	repo := strings.Trim(u.Path, "/")
	if owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: expected github://owner/repo", interfaces.ErrInvalidLocationURI)
	}

	return NewGitHubBackend(owner, repo, sf.log), nil
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/?gateway=true&timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", u.String()))

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	query := u.Query()
	useGateway := query.Get("gateway") == "true"

	timeout := query.Get("timeout")
	if timeout == "" {
		timeout = "30s"
	}

	return NewIPFSBackend(host, port, useGateway, timeout, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
// Without credentials the backend is read-only against public buckets.
func (sf *StorageBackendFactory) createS3Backend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", u.String()))

	bucketName := u.Host
	path := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Backend(bucketName, path, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultBackend creates a Vault KV v2 storage backend.
// URI format: vault://TOKEN@host:port/mount/data-path?scheme=https
func (sf *StorageBackendFactory) createVaultBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", u.Host))

	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("%w: vault URI requires a token, expected vault://TOKEN@host/mount/path", interfaces.ErrInvalidLocationURI)
	}
	token := u.User.Username()

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: vault URI requires a mount and data path", interfaces.ErrInvalidLocationURI)
	}
	mountPath, dataPath := parts[0], parts[1]

	scheme := u.Query().Get("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	return NewVaultBackend(address, token, mountPath, dataPath, sf.log)
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}
