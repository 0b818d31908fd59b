package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorageProvider implements StorageProvider for local file system storage
type LocalStorageProvider struct {
	basePath    string
	permissions os.FileMode
}

// NewLocalStorageProvider creates a new LocalStorageProvider instance
func NewLocalStorageProvider(config *LocalConfig) (*LocalStorageProvider, error) {
	if config == nil {
		return nil, NewValidationError("local storage configuration is required", nil)
	}
	if config.BasePath == "" {
		return nil, NewValidationError("local storage base path is required", nil)
	}

	permissions := config.Permissions
	if permissions == 0 {
		permissions = 0755
	}

	provider := &LocalStorageProvider{
		basePath:    config.BasePath,
		permissions: permissions,
	}

	if err := os.MkdirAll(provider.basePath, provider.permissions); err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to create base directory %s", provider.basePath), err)
	}

	return provider, nil
}

// Store saves a blob to the local file system
func (lsp *LocalStorageProvider) Store(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	path := lsp.blobPath(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return NewStorageError(fmt.Sprintf("failed to write blob %s", name), err)
	}

	return nil
}

// Retrieve loads a blob from the local file system
func (lsp *LocalStorageProvider) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, NewValidationError("blob name cannot be empty", nil)
	}

	path := lsp.blobPath(name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, NewNotFoundError(fmt.Sprintf("blob %s not found", name), err)
	}
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to read blob %s", name), err)
	}

	return data, nil
}

// Delete removes a blob from the local file system
func (lsp *LocalStorageProvider) Delete(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	path := lsp.blobPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewNotFoundError(fmt.Sprintf("blob %s not found", name), err)
	}

	if err := os.Remove(path); err != nil {
		return NewStorageError(fmt.Sprintf("failed to delete blob %s", name), err)
	}

	return nil
}

// List returns the names of stored blobs matching the prefix
func (lsp *LocalStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(lsp.basePath)
	if err != nil {
		return nil, NewStorageError("failed to list blobs", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

// Location returns the file path a blob is stored at
func (lsp *LocalStorageProvider) Location(name string) string {
	return lsp.blobPath(name)
}

// HealthCheck verifies that the storage provider is accessible and functional
func (lsp *LocalStorageProvider) HealthCheck(ctx context.Context) error {
	testFile := filepath.Join(lsp.basePath, ".health_check")

	if err := os.WriteFile(testFile, []byte("health_check"), 0644); err != nil {
		return NewStorageError("storage provider health check failed: cannot write to base directory", err)
	}

	if _, err := os.ReadFile(testFile); err != nil {
		return NewStorageError("storage provider health check failed: cannot read from base directory", err)
	}

	os.Remove(testFile)
	return nil
}

// GetBasePath returns the base path for the storage provider
func (lsp *LocalStorageProvider) GetBasePath() string {
	return lsp.basePath
}

// blobPath resolves a blob name under the base path, flattening any path
// separators to prevent traversal outside the base directory
func (lsp *LocalStorageProvider) blobPath(name string) string {
	sanitized := strings.ReplaceAll(name, "/", "_")
	sanitized = strings.ReplaceAll(sanitized, "\\", "_")
	sanitized = strings.ReplaceAll(sanitized, "..", "_")
	return filepath.Join(lsp.basePath, sanitized)
}
