package database

import (
	"errors"
	"fmt"
	"time"
)

// DatabaseConfig holds the configuration parameters for database connection
type DatabaseConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	Database string        `mapstructure:"database" yaml:"database"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Validate checks if the database configuration has all required parameters
func (dc *DatabaseConfig) Validate() error {
	var errs []error

	if dc.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}

	if dc.Port <= 0 || dc.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}

	if dc.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}

	if dc.Database == "" {
		errs = append(errs, errors.New("database name is required"))
	}

	if dc.Timeout <= 0 {
		dc.Timeout = 30 * time.Second // Set default timeout
	}

	if len(errs) > 0 {
		return fmt.Errorf("database configuration validation failed: %v", errs)
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (dc *DatabaseConfig) SetDefaults() {
	if dc.Port == 0 {
		dc.Port = 3306
	}
	if dc.Timeout == 0 {
		dc.Timeout = 30 * time.Second
	}
}

// DSN returns the Data Source Name for MySQL connection
func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%s&parseTime=true",
		dc.Username, dc.Password, dc.Host, dc.Port, dc.Database, dc.Timeout)
}
