package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "icprep.config")
	require.NoError(t, os.WriteFile(fname, []byte(body), 0644))
	return fname
}

func TestReadConfigDefaults(t *testing.T) {
	fname := writeConfig(t, `[icprep]
OutDir = test_run
Box = 256
NPart = 256
CAMBTemplate = params.ini
GenICTemplate = ngenic.param
`)

	cfg, err := ReadConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, "test_run", cfg.OutDir)
	assert.Equal(t, 256.0, cfg.Box)
	assert.Equal(t, int64(256), cfg.NPart)

	// Everything else keeps its default.
	assert.Equal(t, 99.0, cfg.Redshift)
	assert.Equal(t, int64(9281110), cfg.Seed)
	assert.Equal(t, 0.288, cfg.Omega0)
	assert.Equal(t, 0.0472, cfg.OmegaB)
	assert.Equal(t, 0.7, cfg.Hubble)
	assert.Equal(t, 2.427e-9, cfg.ScalarAmp)
	assert.Equal(t, 0.97, cfg.NS)
	assert.Equal(t, 0.0, cfg.MNu)
	assert.False(t, cfg.SeparateGas)
	assert.False(t, cfg.SeparateNu)
	assert.Equal(t, "camb", cfg.CAMBExe)
	assert.Equal(t, "N-GenIC", cfg.GenICExe)
	assert.Equal(t, "gen-pk", cfg.GenPKExe)
}

func TestReadConfigOverrides(t *testing.T) {
	fname := writeConfig(t, `[icprep]
OutDir = nu_run
Box = 512           # Mpc/h
NPart = 512
Redshift = 49
Seed = 42
SeparateGas = true
SeparateNu = true
MNu = 0.45
CAMBTemplate = params.ini
GenICTemplate = ngenic.param
Tolerance = 0.02
MinModes = 10
NoPlots = true
`)

	cfg, err := ReadConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, 512.0, cfg.Box)
	assert.Equal(t, 49.0, cfg.Redshift)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.True(t, cfg.SeparateGas)
	assert.True(t, cfg.SeparateNu)
	assert.Equal(t, 0.45, cfg.MNu)
	assert.Equal(t, 0.02, cfg.Tolerance)
	assert.Equal(t, int64(10), cfg.MinModes)
	assert.True(t, cfg.NoPlots)
}

func TestReadConfigErrors(t *testing.T) {
	t.Run("unknown variable", func(t *testing.T) {
		fname := writeConfig(t, "[icprep]\nBoxSize = 256\n")
		_, err := ReadConfig(fname)
		assert.Error(t, err)
	})

	t.Run("wrong header", func(t *testing.T) {
		fname := writeConfig(t, "[shellfish]\nBox = 256\n")
		_, err := ReadConfig(fname)
		assert.Error(t, err)
	})
}
