package application

import (
	"context"
	"testing"

	"hr-ingest/internal/database"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/secrets"
)

func TestConfigLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   logging.LogLevel
	}{
		{"default", Config{}, logging.LogLevelNormal},
		{"verbose", Config{Verbose: true}, logging.LogLevelVerbose},
		{"quiet", Config{Quiet: true}, logging.LogLevelQuiet},
		{"quiet wins", Config{Quiet: true, Verbose: true}, logging.LogLevelQuiet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePassword(t *testing.T) {
	t.Run("existing password wins", func(t *testing.T) {
		config := Config{
			Database: database.DatabaseConfig{Password: "already-set"},
			Secrets:  secrets.Config{Provider: "static", Value: "ignored"},
		}
		if err := resolvePassword(&config); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Database.Password != "already-set" {
			t.Errorf("password = %q", config.Database.Password)
		}
	})

	t.Run("static source", func(t *testing.T) {
		config := Config{
			Secrets: secrets.Config{Provider: "static", Value: "s3cret"},
		}
		if err := resolvePassword(&config); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Database.Password != "s3cret" {
			t.Errorf("password = %q", config.Database.Password)
		}
	})

	t.Run("env source", func(t *testing.T) {
		t.Setenv("HRTEST_DB_PASSWORD", "from-env")
		config := Config{
			Secrets: secrets.Config{Provider: "env", EnvPrefix: "HRTEST_"},
		}
		if err := resolvePassword(&config); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Database.Password != "from-env" {
			t.Errorf("password = %q", config.Database.Password)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		config := Config{
			Secrets: secrets.Config{Provider: "vault"},
		}
		if err := resolvePassword(&config); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestNewApplicationRejectsInvalidDatabaseConfig(t *testing.T) {
	config := Config{
		Quiet: true,
		Secrets: secrets.Config{
			Provider: "static",
			Value:    "password",
		},
		// Host missing: validation must fail before any connection attempt.
		Database: database.DatabaseConfig{
			Username: "hr",
			Database: "hr",
		},
	}

	if _, err := NewApplication(context.Background(), config); err == nil {
		t.Fatal("expected configuration validation error")
	}
}
