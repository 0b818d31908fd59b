package backup

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config represents the complete backup subsystem configuration
type Config struct {
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Compression CompressionConfig `yaml:"compression" mapstructure:"compression"`
	Encryption  EncryptionConfig  `yaml:"encryption" mapstructure:"encryption"`
}

// CompressionConfig defines compression settings
type CompressionConfig struct {
	Enabled   bool            `yaml:"enabled" mapstructure:"enabled"`
	Algorithm CompressionType `yaml:"algorithm" mapstructure:"algorithm"`
	Level     int             `yaml:"level" mapstructure:"level"`
}

// EncryptionConfig defines encryption settings
type EncryptionConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	KeySource string `yaml:"key_source" mapstructure:"key_source"` // "env" or "file"
	KeyPath   string `yaml:"key_path" mapstructure:"key_path"`
	KeyEnvVar string `yaml:"key_env_var" mapstructure:"key_env_var"`

	// KeyRetriever is a function that retrieves the encryption key
	// This can be overridden for testing or custom key management
	KeyRetriever func() ([]byte, error) `yaml:"-" mapstructure:"-"`
}

// Validate validates the Config
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.Storage.Validate(); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors.Add("storage", err.Error(), nil)
		}
	}

	if err := c.Compression.Validate(); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors.Add("compression", err.Error(), nil)
		}
	}

	if err := c.Encryption.Validate(); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors.Add("encryption", err.Error(), nil)
		}
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// SetDefaults sets default values for the backup configuration
func (c *Config) SetDefaults() {
	c.Storage.SetDefaults()
	c.Compression.SetDefaults()
	c.Encryption.SetDefaults()
}

// LoadFromEnvironment loads configuration values from environment variables
func (c *Config) LoadFromEnvironment() {
	c.Storage.LoadFromEnvironment()
	c.Compression.LoadFromEnvironment()
	c.Encryption.LoadFromEnvironment()
}

// Validate validates the StorageConfig
func (sc *StorageConfig) Validate() error {
	var errors ValidationErrors

	switch sc.Provider {
	case StorageProviderLocal:
		if sc.Local == nil {
			errors.Add("local", "local storage configuration is required", nil)
		} else if sc.Local.BasePath == "" {
			errors.Add("base_path", "base path is required for local storage", nil)
		}
	case StorageProviderS3:
		if sc.S3 == nil {
			errors.Add("s3", "S3 storage configuration is required", nil)
		} else {
			if sc.S3.Bucket == "" {
				errors.Add("bucket", "bucket is required for S3 storage", nil)
			}
			if sc.S3.AccessKey == "" || sc.S3.SecretKey == "" {
				errors.Add("credentials", "access key and secret key are required for S3 storage", nil)
			}
		}
	case StorageProviderAzure:
		if sc.Azure == nil {
			errors.Add("azure", "Azure storage configuration is required", nil)
		} else {
			if sc.Azure.AccountName == "" || sc.Azure.AccountKey == "" {
				errors.Add("credentials", "account name and key are required for Azure storage", nil)
			}
			if sc.Azure.ContainerName == "" {
				errors.Add("container_name", "container name is required for Azure storage", nil)
			}
		}
	case StorageProviderGCS:
		if sc.GCS == nil {
			errors.Add("gcs", "GCS storage configuration is required", nil)
		} else if sc.GCS.Bucket == "" {
			errors.Add("bucket", "bucket is required for GCS storage", nil)
		}
	default:
		errors.Add("provider", fmt.Sprintf("unsupported storage provider: %s", sc.Provider), sc.Provider)
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// SetDefaults sets default values for storage configuration
func (sc *StorageConfig) SetDefaults() {
	if sc.Provider == "" {
		sc.Provider = StorageProviderLocal
	}

	switch sc.Provider {
	case StorageProviderLocal:
		if sc.Local == nil {
			sc.Local = &LocalConfig{}
		}
		if sc.Local.BasePath == "" {
			sc.Local.BasePath = "./backups"
		}
		if sc.Local.Permissions == 0 {
			sc.Local.Permissions = 0755
		}
	case StorageProviderS3:
		if sc.S3 == nil {
			sc.S3 = &S3Config{}
		}
		if sc.S3.Region == "" {
			sc.S3.Region = "us-east-1"
		}
	case StorageProviderAzure:
		if sc.Azure == nil {
			sc.Azure = &AzureConfig{}
		}
	case StorageProviderGCS:
		if sc.GCS == nil {
			sc.GCS = &GCSConfig{}
		}
		if sc.GCS.CredentialsPath == "" {
			sc.GCS.CredentialsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		}
	}
}

// LoadFromEnvironment loads storage configuration from environment variables
func (sc *StorageConfig) LoadFromEnvironment() {
	if val := os.Getenv("BACKUP_STORAGE_PROVIDER"); val != "" {
		sc.Provider = StorageProviderType(strings.ToUpper(val))
	}

	switch sc.Provider {
	case StorageProviderLocal:
		if sc.Local == nil {
			sc.Local = &LocalConfig{}
		}
		if val := os.Getenv("BACKUP_LOCAL_BASE_PATH"); val != "" {
			sc.Local.BasePath = val
		}
		if val := os.Getenv("BACKUP_LOCAL_PERMISSIONS"); val != "" {
			if parsed, err := strconv.ParseUint(val, 8, 32); err == nil {
				sc.Local.Permissions = os.FileMode(parsed)
			}
		}
	case StorageProviderS3:
		if sc.S3 == nil {
			sc.S3 = &S3Config{}
		}
		if val := os.Getenv("BACKUP_S3_BUCKET"); val != "" {
			sc.S3.Bucket = val
		}
		if val := os.Getenv("BACKUP_S3_REGION"); val != "" {
			sc.S3.Region = val
		}
		if val := os.Getenv("BACKUP_S3_ACCESS_KEY"); val != "" {
			sc.S3.AccessKey = val
		}
		if val := os.Getenv("BACKUP_S3_SECRET_KEY"); val != "" {
			sc.S3.SecretKey = val
		}
	case StorageProviderAzure:
		if sc.Azure == nil {
			sc.Azure = &AzureConfig{}
		}
		if val := os.Getenv("BACKUP_AZURE_ACCOUNT_NAME"); val != "" {
			sc.Azure.AccountName = val
		}
		if val := os.Getenv("BACKUP_AZURE_ACCOUNT_KEY"); val != "" {
			sc.Azure.AccountKey = val
		}
		if val := os.Getenv("BACKUP_AZURE_CONTAINER_NAME"); val != "" {
			sc.Azure.ContainerName = val
		}
	case StorageProviderGCS:
		if sc.GCS == nil {
			sc.GCS = &GCSConfig{}
		}
		if val := os.Getenv("BACKUP_GCS_BUCKET"); val != "" {
			sc.GCS.Bucket = val
		}
		if val := os.Getenv("BACKUP_GCS_CREDENTIALS_PATH"); val != "" {
			sc.GCS.CredentialsPath = val
		}
		if val := os.Getenv("BACKUP_GCS_PROJECT_ID"); val != "" {
			sc.GCS.ProjectID = val
		}
	}
}

// Validate validates the CompressionConfig
func (cc *CompressionConfig) Validate() error {
	var errors ValidationErrors

	if cc.Enabled {
		if !isValidCompressionType(cc.Algorithm) {
			errors.Add("algorithm", "invalid compression algorithm", cc.Algorithm)
		}

		switch cc.Algorithm {
		case CompressionTypeGzip:
			if cc.Level < 1 || cc.Level > 9 {
				errors.Add("level", "gzip compression level must be between 1 and 9", cc.Level)
			}
		case CompressionTypeLZ4:
			if cc.Level < 1 || cc.Level > 12 {
				errors.Add("level", "lz4 compression level must be between 1 and 12", cc.Level)
			}
		case CompressionTypeZstd:
			if cc.Level < 1 || cc.Level > 22 {
				errors.Add("level", "zstd compression level must be between 1 and 22", cc.Level)
			}
		}
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// SetDefaults sets default values for compression configuration
func (cc *CompressionConfig) SetDefaults() {
	if cc.Enabled && cc.Algorithm == "" {
		cc.Algorithm = CompressionTypeGzip
	}

	if cc.Enabled && cc.Level == 0 {
		switch cc.Algorithm {
		case CompressionTypeGzip:
			cc.Level = 6
		case CompressionTypeLZ4:
			cc.Level = 1
		case CompressionTypeZstd:
			cc.Level = 3
		}
	}
}

// LoadFromEnvironment loads compression configuration from environment variables
func (cc *CompressionConfig) LoadFromEnvironment() {
	if val := os.Getenv("BACKUP_COMPRESSION_ENABLED"); val != "" {
		cc.Enabled = strings.ToLower(val) == "true"
	}

	if val := os.Getenv("BACKUP_COMPRESSION_ALGORITHM"); val != "" {
		cc.Algorithm = CompressionType(strings.ToUpper(val))
	}

	if val := os.Getenv("BACKUP_COMPRESSION_LEVEL"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cc.Level = parsed
		}
	}
}

// EffectiveAlgorithm returns the algorithm actually applied to blobs,
// CompressionTypeNone when compression is disabled.
func (cc *CompressionConfig) EffectiveAlgorithm() CompressionType {
	if !cc.Enabled {
		return CompressionTypeNone
	}
	return cc.Algorithm
}

// Validate validates the EncryptionConfig
func (ec *EncryptionConfig) Validate() error {
	var errors ValidationErrors

	if ec.Enabled {
		switch ec.KeySource {
		case "env":
			if ec.KeyEnvVar == "" {
				errors.Add("key_env_var", "key environment variable name is required for env key source", ec.KeyEnvVar)
			}
		case "file":
			if ec.KeyPath == "" {
				errors.Add("key_path", "key file path is required for file key source", ec.KeyPath)
			}
		case "":
			errors.Add("key_source", "key source is required when encryption is enabled", ec.KeySource)
		default:
			errors.Add("key_source", "invalid key source, must be 'env' or 'file'", ec.KeySource)
		}
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// SetDefaults sets default values for encryption configuration
func (ec *EncryptionConfig) SetDefaults() {
	if ec.Enabled && ec.KeySource == "" {
		ec.KeySource = "env"
		ec.KeyEnvVar = "BACKUP_ENCRYPTION_KEY"
	}
}

// LoadFromEnvironment loads encryption configuration from environment variables
func (ec *EncryptionConfig) LoadFromEnvironment() {
	if val := os.Getenv("BACKUP_ENCRYPTION_ENABLED"); val != "" {
		ec.Enabled = strings.ToLower(val) == "true"
	}

	if val := os.Getenv("BACKUP_ENCRYPTION_KEY_SOURCE"); val != "" {
		ec.KeySource = val
	}

	if val := os.Getenv("BACKUP_ENCRYPTION_KEY_PATH"); val != "" {
		ec.KeyPath = val
	}

	if val := os.Getenv("BACKUP_ENCRYPTION_KEY_ENV_VAR"); val != "" {
		ec.KeyEnvVar = val
	}
}

// GetEncryptionKey retrieves the encryption key based on the configuration
func (ec *EncryptionConfig) GetEncryptionKey() ([]byte, error) {
	if !ec.Enabled {
		return nil, nil
	}

	// Use custom function if provided (for testing or custom key management)
	if ec.KeyRetriever != nil {
		return ec.KeyRetriever()
	}

	switch ec.KeySource {
	case "env":
		keyStr := os.Getenv(ec.KeyEnvVar)
		if keyStr == "" {
			return nil, fmt.Errorf("encryption key not found in environment variable %s", ec.KeyEnvVar)
		}
		// Expect key to be hex-encoded
		key, err := hex.DecodeString(keyStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex key from environment variable: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
		}
		return key, nil

	case "file":
		keyData, err := os.ReadFile(ec.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read encryption key from file %s: %w", ec.KeyPath, err)
		}
		if len(keyData) != 32 {
			return nil, fmt.Errorf("encryption key file must contain 32 bytes for AES-256, got %d bytes", len(keyData))
		}
		return keyData, nil

	default:
		return nil, fmt.Errorf("invalid key source: %s", ec.KeySource)
	}
}
