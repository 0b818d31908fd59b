package secrets

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// Source resolves a credential by name. Implementations are opaque to the
// callers; the ingestion and backup cores never see where a password came from.
type Source interface {
	Resolve(name string) (string, error)
}

// Config selects and parameterizes a secret source.
type Config struct {
	// Provider is one of "static", "env", "file", "prompt".
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Value is the literal secret for the static provider.
	Value string `mapstructure:"value" yaml:"value"`
	// EnvPrefix is prepended to the secret name for the env provider.
	EnvPrefix string `mapstructure:"env_prefix" yaml:"env_prefix"`
	// Path is the file holding the secret for the file provider.
	Path string `mapstructure:"path" yaml:"path"`
}

// NewSource creates a secret source from configuration.
func NewSource(config Config) (Source, error) {
	switch config.Provider {
	case "", "static":
		return &StaticSource{value: config.Value}, nil
	case "env":
		return &EnvSource{prefix: config.EnvPrefix}, nil
	case "file":
		if config.Path == "" {
			return nil, fmt.Errorf("secret file path is required for the file provider")
		}
		return &FileSource{path: config.Path}, nil
	case "prompt":
		return &PromptSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// StaticSource returns a literal value from configuration.
type StaticSource struct {
	value string
}

// Resolve returns the configured value regardless of name.
func (s *StaticSource) Resolve(name string) (string, error) {
	return s.value, nil
}

// EnvSource reads the secret from an environment variable. The variable name
// is the upper-cased secret name, optionally prefixed.
type EnvSource struct {
	prefix string
}

// Resolve looks up the environment variable for the given secret name.
func (s *EnvSource) Resolve(name string) (string, error) {
	key := strings.ToUpper(name)
	if s.prefix != "" {
		key = s.prefix + key
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return value, nil
}

// FileSource reads the secret from a file, trimming trailing whitespace.
type FileSource struct {
	path string
}

// Resolve reads the secret file.
func (s *FileSource) Resolve(name string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", s.path, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// PromptSource asks for the secret interactively without echoing it.
type PromptSource struct{}

// Resolve prompts on the controlling terminal.
func (s *PromptSource) Resolve(name string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("cannot prompt for %s: stdin is not a terminal", name)
	}

	fmt.Fprintf(os.Stderr, "Enter %s: ", name)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(value), nil
}
