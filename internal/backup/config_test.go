package backup

import (
	"encoding/hex"
	"testing"
)

func TestConfigSetDefaults(t *testing.T) {
	config := &Config{}
	config.SetDefaults()

	if config.Storage.Provider != StorageProviderLocal {
		t.Errorf("provider = %s, want LOCAL", config.Storage.Provider)
	}
	if config.Storage.Local == nil || config.Storage.Local.BasePath != "./backups" {
		t.Errorf("unexpected local defaults: %+v", config.Storage.Local)
	}
	if config.Storage.Local.Permissions != 0755 {
		t.Errorf("permissions = %o, want 0755", config.Storage.Local.Permissions)
	}
}

func TestCompressionConfigDefaults(t *testing.T) {
	config := &CompressionConfig{Enabled: true}
	config.SetDefaults()

	if config.Algorithm != CompressionTypeGzip {
		t.Errorf("algorithm = %s, want GZIP", config.Algorithm)
	}
	if config.Level != 6 {
		t.Errorf("level = %d, want 6", config.Level)
	}

	zstd := &CompressionConfig{Enabled: true, Algorithm: CompressionTypeZstd}
	zstd.SetDefaults()
	if zstd.Level != 3 {
		t.Errorf("zstd level = %d, want 3", zstd.Level)
	}
}

func TestCompressionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  CompressionConfig
		wantErr bool
	}{
		{"disabled ignores algorithm", CompressionConfig{Enabled: false}, false},
		{"valid gzip", CompressionConfig{Enabled: true, Algorithm: CompressionTypeGzip, Level: 6}, false},
		{"gzip level too high", CompressionConfig{Enabled: true, Algorithm: CompressionTypeGzip, Level: 10}, true},
		{"valid zstd", CompressionConfig{Enabled: true, Algorithm: CompressionTypeZstd, Level: 19}, false},
		{"unknown algorithm", CompressionConfig{Enabled: true, Algorithm: "BROTLI", Level: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  StorageConfig
		wantErr bool
	}{
		{
			name:    "valid local",
			config:  StorageConfig{Provider: StorageProviderLocal, Local: &LocalConfig{BasePath: "/tmp/backups"}},
			wantErr: false,
		},
		{
			name:    "local missing base path",
			config:  StorageConfig{Provider: StorageProviderLocal, Local: &LocalConfig{}},
			wantErr: true,
		},
		{
			name: "valid s3",
			config: StorageConfig{Provider: StorageProviderS3, S3: &S3Config{
				Bucket: "hr-backups", Region: "us-east-1", AccessKey: "ak", SecretKey: "sk",
			}},
			wantErr: false,
		},
		{
			name:    "s3 missing credentials",
			config:  StorageConfig{Provider: StorageProviderS3, S3: &S3Config{Bucket: "hr-backups"}},
			wantErr: true,
		},
		{
			name: "valid azure",
			config: StorageConfig{Provider: StorageProviderAzure, Azure: &AzureConfig{
				AccountName: "account", AccountKey: "key", ContainerName: "backups",
			}},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			config:  StorageConfig{Provider: "FTP"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  EncryptionConfig
		wantErr bool
	}{
		{"disabled", EncryptionConfig{Enabled: false}, false},
		{"env source", EncryptionConfig{Enabled: true, KeySource: "env", KeyEnvVar: "KEY"}, false},
		{"env source missing var", EncryptionConfig{Enabled: true, KeySource: "env"}, true},
		{"file source", EncryptionConfig{Enabled: true, KeySource: "file", KeyPath: "/tmp/key"}, false},
		{"file source missing path", EncryptionConfig{Enabled: true, KeySource: "file"}, true},
		{"missing source", EncryptionConfig{Enabled: true}, true},
		{"invalid source", EncryptionConfig{Enabled: true, KeySource: "vault"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptionKeyFromEnvironment(t *testing.T) {
	key := testKey()
	t.Setenv("TEST_BACKUP_KEY", hex.EncodeToString(key))

	config := &EncryptionConfig{Enabled: true, KeySource: "env", KeyEnvVar: "TEST_BACKUP_KEY"}

	loaded, err := config.GetEncryptionKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 32 {
		t.Errorf("key length = %d, want 32", len(loaded))
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKUP_STORAGE_PROVIDER", "s3")
	t.Setenv("BACKUP_S3_BUCKET", "hr-backups")
	t.Setenv("BACKUP_S3_REGION", "eu-west-1")
	t.Setenv("BACKUP_COMPRESSION_ENABLED", "true")
	t.Setenv("BACKUP_COMPRESSION_ALGORITHM", "zstd")
	t.Setenv("BACKUP_COMPRESSION_LEVEL", "5")

	config := &Config{}
	config.LoadFromEnvironment()

	if config.Storage.Provider != StorageProviderS3 {
		t.Errorf("provider = %s, want S3", config.Storage.Provider)
	}
	if config.Storage.S3 == nil || config.Storage.S3.Bucket != "hr-backups" || config.Storage.S3.Region != "eu-west-1" {
		t.Errorf("unexpected S3 config: %+v", config.Storage.S3)
	}
	if !config.Compression.Enabled || config.Compression.Algorithm != CompressionTypeZstd || config.Compression.Level != 5 {
		t.Errorf("unexpected compression config: %+v", config.Compression)
	}
}
