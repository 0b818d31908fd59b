package backup

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

// AzureStorageProvider implements StorageProvider for Azure Blob Storage
type AzureStorageProvider struct {
	serviceURL    azblob.ServiceURL
	containerName string
	prefix        string
}

// NewAzureStorageProvider creates a new AzureStorageProvider instance
func NewAzureStorageProvider(config *AzureConfig) (*AzureStorageProvider, error) {
	if config == nil {
		return nil, NewValidationError("Azure storage configuration is required", nil)
	}
	if config.AccountName == "" || config.AccountKey == "" {
		return nil, NewValidationError("Azure account name and key are required", nil)
	}
	if config.ContainerName == "" {
		return nil, NewValidationError("Azure container name is required", nil)
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, NewStorageError("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, NewStorageError("failed to parse Azure service URL", err)
	}

	provider := &AzureStorageProvider{
		serviceURL:    azblob.NewServiceURL(*serviceURL, pipeline),
		containerName: config.ContainerName,
		prefix:        "backups/",
	}

	return provider, nil
}

// Store saves a blob to Azure Blob Storage
func (azp *AzureStorageProvider) Store(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	containerURL := azp.serviceURL.NewContainerURL(azp.containerName)
	blobURL := containerURL.NewBlockBlobURL(azp.blobName(name))

	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlockSize:   4 * 1024 * 1024, // 4MB blocks
		Parallelism: 16,
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: "application/octet-stream",
		},
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload blob %s to Azure", name), err)
	}

	return nil
}

// Retrieve loads a blob from Azure Blob Storage
func (azp *AzureStorageProvider) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, NewValidationError("blob name cannot be empty", nil)
	}

	containerURL := azp.serviceURL.NewContainerURL(azp.containerName)
	blobURL := containerURL.NewBlockBlobURL(azp.blobName(name))

	downloadResponse, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("failed to download blob %s from Azure", name), err)
	}

	bodyStream := downloadResponse.Body(azblob.RetryReaderOptions{MaxRetryRequests: 20})
	defer bodyStream.Close()

	data, err := io.ReadAll(bodyStream)
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to read blob %s", name), err)
	}

	return data, nil
}

// Delete removes a blob from Azure Blob Storage
func (azp *AzureStorageProvider) Delete(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	containerURL := azp.serviceURL.NewContainerURL(azp.containerName)
	blobURL := containerURL.NewBlockBlobURL(azp.blobName(name))

	_, err := blobURL.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to delete blob %s from Azure", name), err)
	}

	return nil
}

// List returns the names of stored blobs matching the prefix
func (azp *AzureStorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	containerURL := azp.serviceURL.NewContainerURL(azp.containerName)

	for marker := (azblob.Marker{}); marker.NotDone(); {
		listResponse, err := containerURL.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{
			Prefix: azp.prefix + prefix,
		})
		if err != nil {
			return nil, NewStorageError("failed to list blobs from Azure", err)
		}

		for _, blob := range listResponse.Segment.BlobItems {
			names = append(names, strings.TrimPrefix(blob.Name, azp.prefix))
		}

		marker = listResponse.NextMarker
	}

	return names, nil
}

// Location returns the Azure URI for a blob name
func (azp *AzureStorageProvider) Location(name string) string {
	return fmt.Sprintf("azure://%s/%s", azp.containerName, azp.blobName(name))
}

// HealthCheck verifies that the storage provider is accessible and functional
func (azp *AzureStorageProvider) HealthCheck(ctx context.Context) error {
	containerURL := azp.serviceURL.NewContainerURL(azp.containerName)

	_, err := containerURL.GetProperties(ctx, azblob.LeaseAccessConditions{})
	if err != nil {
		return NewStorageError("Azure storage provider health check failed: container not accessible", err)
	}

	_, err = containerURL.ListBlobsFlatSegment(ctx, azblob.Marker{}, azblob.ListBlobsSegmentOptions{
		Prefix:     azp.prefix,
		MaxResults: 1,
	})
	if err != nil {
		return NewStorageError("Azure storage provider health check failed: cannot list blobs", err)
	}

	return nil
}

// GetContainerName returns the Azure container name
func (azp *AzureStorageProvider) GetContainerName() string {
	return azp.containerName
}

// blobName returns the Azure blob name for a snapshot blob
func (azp *AzureStorageProvider) blobName(name string) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "\\", "_")
	return azp.prefix + sanitized
}
