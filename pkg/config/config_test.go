package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    string        `envconfig:"PORT" default:"50052"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"2s"`
	Store   string        `envconfig:"STORE" default:"memory"`
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CART_TIMEOUT", "750ms")

	var cfg testConfig
	require.NoError(t, Load("CART", &cfg))

	assert.Equal(t, "50052", cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "memory", cfg.Store)
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("CART_STORE=mongo\nCART_PORT=6000\n"), 0o600))
	t.Setenv("ENV_FILE", file)
	t.Setenv("CART_PORT", "7000")
	t.Cleanup(func() { os.Unsetenv("CART_STORE") })

	var cfg testConfig
	require.NoError(t, Load("CART", &cfg))

	assert.Equal(t, "mongo", cfg.Store)
	assert.Equal(t, "7000", cfg.Port)
}
