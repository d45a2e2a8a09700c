package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcforge/workload-encryption/interfaces"
)

func TestStorageBackendFor(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	tests := []struct {
		name         string
		uri          string
		expectedName string
		wantErr      bool
	}{
		{
			name:         "file backend",
			uri:          "file://" + t.TempDir(),
			expectedName: "file-",
		},
		{
			name:         "s3 backend",
			uri:          "s3://key-bucket/workload?region=eu-west-1",
			expectedName: "s3-key-bucket",
		},
		{
			name:         "ipfs backend",
			uri:          "ipfs://127.0.0.1:5001",
			expectedName: "ipfs-127.0.0.1-5001",
		},
		{
			name:         "vault backend",
			uri:          "vault://token123@vault.example.com:8200/secret/workload-keys",
			expectedName: "vault-secret-workload-keys",
		},
		{
			name:         "github backend",
			uri:          "github://tcforge/workload-keys",
			expectedName: "github-tcforge-workload-keys",
		},
		{
			name:    "vault without token",
			uri:     "vault://vault.example.com:8200/secret/workload-keys",
			wantErr: true,
		},
		{
			name:    "github without repo",
			uri:     "github://tcforge",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			uri:     "ftp://example.com/keys",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := factory.StorageBackendFor(interfaces.StorageBackendLocation(tt.uri))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, backend.Name(), tt.expectedName)
		})
	}
}

func TestCreateMultiBackend(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())

	// Invalid URIs are skipped as long as at least one backend works.
	multi, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		interfaces.StorageBackendLocation("file://" + t.TempDir()),
		"ftp://unsupported.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "multi-storage", multi.Name())

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		"ftp://unsupported.example.com",
	})
	require.Error(t, err)
}
