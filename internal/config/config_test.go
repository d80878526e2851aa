package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, []string{"Karachi"}, cfg.Checkout.DeliveryCities)
	assert.Equal(t, 72*time.Hour, cfg.JWT.TTL)
	assert.True(t, cfg.IsDevelopment())
	assert.NotEmpty(t, cfg.JWT.Secret, "development falls back to a dev secret")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "shopwala.yaml")
	content := `
server:
  addr: ":9090"
database:
  driver: sqlite
  dsn: "file::memory:"
checkout:
  delivery_cities: ["Karachi", "Lahore"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SHOPWALA_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, []string{"Karachi", "Lahore"}, cfg.Checkout.DeliveryCities)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Env: "production"},
			Database: DatabaseConfig{Driver: "mysql", DSN: "x"},
			JWT:      JWTConfig{Secret: "s"},
			Checkout: CheckoutConfig{DeliveryCities: []string{"Karachi"}},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Checkout.DeliveryCities = nil
	assert.Error(t, cfg.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
