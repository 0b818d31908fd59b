package backup

import (
	"os"
	"time"
)

// TableBackupResult is the per-table status of a backup run.
type TableBackupResult struct {
	Table     string        `json:"table"`
	RowCount  int           `json:"row_count"`
	BlobName  string        `json:"blob_name"`
	BlobSize  int64         `json:"blob_size"`
	Location  string        `json:"location"`
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
}

// TableRestoreResult is the per-table status of a restore run.
type TableRestoreResult struct {
	Table     string        `json:"table"`
	RowCount  int           `json:"row_count"`
	BlobName  string        `json:"blob_name"`
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
}

// StorageConfig defines storage provider configuration
type StorageConfig struct {
	Provider StorageProviderType `yaml:"provider" mapstructure:"provider"`
	Local    *LocalConfig        `yaml:"local,omitempty" mapstructure:"local"`
	S3       *S3Config           `yaml:"s3,omitempty" mapstructure:"s3"`
	Azure    *AzureConfig        `yaml:"azure,omitempty" mapstructure:"azure"`
	GCS      *GCSConfig          `yaml:"gcs,omitempty" mapstructure:"gcs"`
}

// LocalConfig for local file system storage
type LocalConfig struct {
	BasePath    string      `yaml:"base_path" mapstructure:"base_path"`
	Permissions os.FileMode `yaml:"permissions" mapstructure:"permissions"`
}

// S3Config for Amazon S3 storage
type S3Config struct {
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
}

// AzureConfig for Azure Blob Storage
type AzureConfig struct {
	AccountName   string `yaml:"account_name" mapstructure:"account_name"`
	AccountKey    string `yaml:"account_key" mapstructure:"account_key"`
	ContainerName string `yaml:"container_name" mapstructure:"container_name"`
}

// GCSConfig for Google Cloud Storage
type GCSConfig struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	CredentialsPath string `yaml:"credentials_path" mapstructure:"credentials_path"`
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
}

// CompressionType identifies the blob compression algorithm.
type CompressionType string

const (
	CompressionTypeNone CompressionType = "NONE"
	CompressionTypeGzip CompressionType = "GZIP"
	CompressionTypeLZ4  CompressionType = "LZ4"
	CompressionTypeZstd CompressionType = "ZSTD"
)

func isValidCompressionType(t CompressionType) bool {
	switch t {
	case CompressionTypeNone, CompressionTypeGzip, CompressionTypeLZ4, CompressionTypeZstd:
		return true
	default:
		return false
	}
}

// BlobSuffix returns the filename suffix appended to the snapshot blob name
// for the given algorithm.
func BlobSuffix(t CompressionType) string {
	switch t {
	case CompressionTypeGzip:
		return ".gz"
	case CompressionTypeLZ4:
		return ".lz4"
	case CompressionTypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// StorageProviderType identifies the storage backend.
type StorageProviderType string

const (
	StorageProviderLocal StorageProviderType = "LOCAL"
	StorageProviderS3    StorageProviderType = "S3"
	StorageProviderAzure StorageProviderType = "AZURE"
	StorageProviderGCS   StorageProviderType = "GCS"
)
