package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorageProvider implements StorageProvider for Google Cloud Storage
type GCSStorageProvider struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

// NewGCSStorageProvider creates a new GCSStorageProvider instance
func NewGCSStorageProvider(ctx context.Context, config *GCSConfig) (*GCSStorageProvider, error) {
	if config == nil {
		return nil, NewValidationError("GCS storage configuration is required", nil)
	}
	if config.Bucket == "" {
		return nil, NewValidationError("GCS bucket is required", nil)
	}

	var client *storage.Client
	var err error

	if config.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(config.CredentialsPath))
	} else {
		// Use default credentials (e.g., from environment or metadata server)
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, NewStorageError("failed to create GCS client", err)
	}

	provider := &GCSStorageProvider{
		client:     client,
		bucketName: config.Bucket,
		prefix:     "backups/",
	}

	return provider, nil
}

// Store saves a blob to Google Cloud Storage
func (gcsp *GCSStorageProvider) Store(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	object := gcsp.client.Bucket(gcsp.bucketName).Object(gcsp.objectName(name))
	writer := object.NewWriter(ctx)
	writer.ContentType = "application/octet-stream"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return NewStorageError(fmt.Sprintf("failed to write blob %s to GCS", name), err)
	}

	if err := writer.Close(); err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload blob %s to GCS", name), err)
	}

	return nil
}

// Retrieve loads a blob from Google Cloud Storage
func (gcsp *GCSStorageProvider) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, NewValidationError("blob name cannot be empty", nil)
	}

	object := gcsp.client.Bucket(gcsp.bucketName).Object(gcsp.objectName(name))
	reader, err := object.NewReader(ctx)
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("failed to download blob %s from GCS", name), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to read blob %s", name), err)
	}

	return data, nil
}

// Delete removes a blob from Google Cloud Storage
func (gcsp *GCSStorageProvider) Delete(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	object := gcsp.client.Bucket(gcsp.bucketName).Object(gcsp.objectName(name))
	if err := object.Delete(ctx); err != nil {
		return NewStorageError(fmt.Sprintf("failed to delete blob %s from GCS", name), err)
	}

	return nil
}

// List returns the names of stored blobs matching the prefix
func (gcsp *GCSStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	bucket := gcsp.client.Bucket(gcsp.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: gcsp.prefix + prefix})

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, NewStorageError("failed to list blobs from GCS", err)
		}
		names = append(names, strings.TrimPrefix(attrs.Name, gcsp.prefix))
	}

	return names, nil
}

// Location returns the GCS URI for a blob name
func (gcsp *GCSStorageProvider) Location(name string) string {
	return fmt.Sprintf("gs://%s/%s", gcsp.bucketName, gcsp.objectName(name))
}

// HealthCheck verifies that the storage provider is accessible and functional
func (gcsp *GCSStorageProvider) HealthCheck(ctx context.Context) error {
	bucket := gcsp.client.Bucket(gcsp.bucketName)

	_, err := bucket.Attrs(ctx)
	if err != nil {
		return NewStorageError("GCS storage provider health check failed: bucket not accessible", err)
	}

	it := bucket.Objects(ctx, &storage.Query{Prefix: gcsp.prefix})
	_, err = it.Next()
	if err != nil && err != iterator.Done {
		return NewStorageError("GCS storage provider health check failed: cannot list objects", err)
	}

	return nil
}

// GetBucketName returns the GCS bucket name
func (gcsp *GCSStorageProvider) GetBucketName() string {
	return gcsp.bucketName
}

// Close closes the GCS client
func (gcsp *GCSStorageProvider) Close() error {
	return gcsp.client.Close()
}

// objectName returns the GCS object name for a blob
func (gcsp *GCSStorageProvider) objectName(name string) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "\\", "_")
	return gcsp.prefix + sanitized
}
