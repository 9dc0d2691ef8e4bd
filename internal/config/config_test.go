package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "separados"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "frota_etl.db"), cfg.LedgerPath)
	assert.Equal(t, "frente5", cfg.Frente)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "xlsx"), cfg.XLSXDir())
	assert.Equal(t, filepath.Join(cfg.OutputDir, "json", "colhedora", "frotas", "diario"), cfg.FleetDailyDir("colhedora"))
	assert.Equal(t, filepath.Join(cfg.OutputDir, "json", "consolidado"), cfg.ConsolidatedDir())
}

func TestLoadRequiresDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	_, err := Load("", "", "", "")
	assert.Error(t, err)
}

func TestLoadDataDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	cfg, err := Load("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestLoadRejectsMissingDataDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nao-existe"), "", "", "")
	assert.Error(t, err)
}

func TestMetasDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", "", "")
	require.NoError(t, err)

	metas, err := cfg.Metas()
	require.NoError(t, err)
	assert.Equal(t, 85.0, metas["eficienciaEnergetica"])
	assert.Equal(t, 15.0, metas["motorOcioso"])
	assert.Len(t, metas, 9)
}

func TestMetasOverrides(t *testing.T) {
	dir := t.TempDir()
	metasFile := filepath.Join(dir, "metas.json")
	require.NoError(t, os.WriteFile(metasFile, []byte(`{"motorOcioso": 10, "producao": 1500}`), 0o644))

	cfg, err := Load(dir, "", "", metasFile)
	require.NoError(t, err)

	metas, err := cfg.Metas()
	require.NoError(t, err)
	assert.Equal(t, 10.0, metas["motorOcioso"])
	assert.Equal(t, 1500.0, metas["producao"])
	// untouched defaults survive
	assert.Equal(t, 85.0, metas["eficienciaEnergetica"])
}
