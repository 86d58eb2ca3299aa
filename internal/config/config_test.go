package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.Address)
	assert.Equal(t, DefaultWaitTimeoutSeconds, cfg.WaitTimeoutSeconds)
	assert.Equal(t, 10*time.Second, cfg.WaitTimeout())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, "address: \":9090\"\nwaitTimeout: 20\nlogLevel: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, 20, cfg.WaitTimeoutSeconds)
	assert.Equal(t, 20*time.Second, cfg.WaitTimeout())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, "waitTimeout: 30\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.Address)
	assert.Equal(t, 30, cfg.WaitTimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "waitTimeout: [not a number\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYNCPOINT_WAIT_TIMEOUT", "15")
	t.Setenv("SYNCPOINT_ADDRESS", ":7070")
	t.Setenv("SYNCPOINT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.WaitTimeoutSeconds)
	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "waitTimeout: 20\n")
	t.Setenv("SYNCPOINT_WAIT_TIMEOUT", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.WaitTimeoutSeconds)
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name    string
		timeout int
		wantErr bool
	}{
		{name: "below minimum", timeout: MinWaitTimeoutSeconds - 1, wantErr: true},
		{name: "at minimum", timeout: MinWaitTimeoutSeconds, wantErr: false},
		{name: "default", timeout: DefaultWaitTimeoutSeconds, wantErr: false},
		{name: "at maximum", timeout: MaxWaitTimeoutSeconds, wantErr: false},
		{name: "above maximum", timeout: MaxWaitTimeoutSeconds + 1, wantErr: true},
		{name: "zero", timeout: 0, wantErr: true},
		{name: "negative", timeout: -10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.WaitTimeoutSeconds = tt.timeout
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	cfg := Default()
	cfg.Address = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsOutOfRangeTimeout(t *testing.T) {
	path := writeConfigFile(t, "waitTimeout: 301\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "cannot exceed")
}
