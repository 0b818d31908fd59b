package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidateFlags(t *testing.T) {
	t.Cleanup(func() {
		verbose = false
		quiet = false
	})

	verbose = false
	quiet = false
	require.NoError(t, validateFlags())

	verbose = true
	quiet = true
	err := validateFlags()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestSampleConfigIsValidYAML(t *testing.T) {
	var parsed map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(sampleConfig), &parsed))

	for _, key := range []string{"database", "secrets", "backup", "port"} {
		assert.Contains(t, parsed, key)
	}
}

func TestBackupRejectsUnknownTable(t *testing.T) {
	err := runBackup(createBackupCommand(), []string{"Payrolls"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestRestoreRejectsUnknownTable(t *testing.T) {
	err := runRestore(createRestoreCommand(), []string{"Payrolls"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}
