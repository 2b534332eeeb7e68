package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.HTTP.RetryMaxAttempts)
	assert.Equal(t, 15, cfg.Forecast.TrainingDays)
	assert.Equal(t, 3, cfg.Forecast.PolynomialDegree)
	assert.True(t, cfg.Forecast.ExpandingWindow)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
http:
  timeout: 10s
forecast:
  polynomial_degree: 2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.Forecast.PolynomialDegree)
	// Untouched values keep their defaults.
	assert.Equal(t, 15, cfg.Forecast.TrainingDays)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast:\n  training_days: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("ERCOTUSER", "user@example.com")
	t.Setenv("ERCOTPASS", "secret")
	t.Setenv("ERCOTKEY", "subkey")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", creds.Username)
	assert.Equal(t, "subkey", creds.SubscriptionKey)
}

func TestLoadCredentialsMissing(t *testing.T) {
	t.Setenv("ERCOTUSER", "")
	t.Setenv("ERCOTPASS", "")
	t.Setenv("ERCOTKEY", "")

	_, err := LoadCredentials()
	require.Error(t, err)

	t.Setenv("ERCOTUSER", "user@example.com")
	t.Setenv("ERCOTPASS", "secret")
	_, err = LoadCredentials()
	require.Error(t, err)
}
