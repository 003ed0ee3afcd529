package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseOverlaysDefaults keeps defaults for keys the file omits and
// expands ${VAR} references.
func TestParseOverlaysDefaults(t *testing.T) {
	t.Setenv("LEAKMAP_PG_PASSWORD", "s3cret")

	raw := []byte(`
database:
  type: pgx
  host: db.internal
  password: ${LEAKMAP_PG_PASSWORD}
city: Portland
share_url: https://maps.example.org/portland
`)
	cfg := Default()
	require.NoError(t, Parse(raw, &cfg))

	assert.Equal(t, "pgx", cfg.Database.DBType)
	assert.Equal(t, "db.internal", cfg.Database.DBHost)
	assert.Equal(t, "s3cret", cfg.Database.DBPass)
	assert.Equal(t, 5432, cfg.Database.DBPort)
	assert.Equal(t, "measurements", cfg.Table)
	assert.Equal(t, "Portland", cfg.City)
	assert.NoError(t, cfg.Validate())
}

// TestValidateReportsEverything aggregates every problem into one error.
func TestValidateReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Table = " "
	cfg.Database.DBType = "oracle"
	cfg.LogLevel = "loud"
	cfg.ShareURL = "maps/portland"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 5)
}

// TestLoadEnvFile ignores a missing optional file and exports a present one.
func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), false))
	assert.Error(t, LoadEnvFile(filepath.Join(dir, "missing.env"), true))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEAKMAP_TEST_CITY=Bangor\n"), 0o600))
	t.Setenv("LEAKMAP_TEST_CITY", "")
	require.NoError(t, os.Unsetenv("LEAKMAP_TEST_CITY"))
	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "Bangor", os.Getenv("LEAKMAP_TEST_CITY"))

	cfgPath := filepath.Join(dir, "leakmap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("city: ${LEAKMAP_TEST_CITY}\n"), 0o600))
	cfg := Default()
	require.NoError(t, LoadFile(cfgPath, &cfg))
	assert.Equal(t, "Bangor", cfg.City)
}
