package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Equal(t, "digistore", cfg.System.Appid)
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, "anonymous@checkout.local", cfg.Checkout.FallbackEmail)
	assert.Equal(t, 5, cfg.Checkout.ProbeTimeout)
}

func TestLoadConfig_FileOverride(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "digistore.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(`
web:
  port: 9000
stripe:
  currency: eur
checkout:
  fallback_email: orders@example.com
`), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.Equal(t, "orders@example.com", cfg.Checkout.FallbackEmail)
	// untouched sections keep their defaults
	assert.Equal(t, "digistore", cfg.System.Appid)
}
