// Package config resolves and validates the directories and settings
// shared by every pipeline stage.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"frota-etl/internal/jsonio"
)

// Environment fallbacks for the CLI flags.
const (
	EnvDataDir = "FROTA_ETL_DATA"
	EnvFrente  = "FROTA_ETL_FRENTE"
)

// Config holds the resolved paths of one pipeline invocation. All
// paths are absolute.
type Config struct {
	// DataDir holds the raw inputs: fleet report .xlsx files,
	// telematics Case*.zip archives and timeline exports.
	DataDir string
	// OutputDir is the root of the generated tree (xlsx/ and json/).
	OutputDir string
	// LedgerPath is the sqlite file recording stage runs.
	LedgerPath string
	// MetasFile optionally overrides the default per-metric targets.
	MetasFile string
	// Frente identifies the harvest front stamped into consolidated
	// metadata.
	Frente string
}

// Load validates the flag values, applies environment fallbacks and
// derives defaults for unset paths.
func Load(dataDir, outputDir, ledgerPath, metasFile string) (*Config, error) {
	if dataDir == "" {
		dataDir = os.Getenv(EnvDataDir)
	}
	if dataDir == "" {
		return nil, errors.New("data directory not set (use --data or " + EnvDataDir + ")")
	}
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dataDir)
	}

	if outputDir == "" {
		outputDir = filepath.Join(dataDir, "separados")
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	if ledgerPath == "" {
		ledgerPath = filepath.Join(outputDir, "frota_etl.db")
	}
	ledgerPath, err = filepath.Abs(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger path: %w", err)
	}

	if metasFile != "" {
		metasFile, err = filepath.Abs(metasFile)
		if err != nil {
			return nil, fmt.Errorf("resolving metas file: %w", err)
		}
		if _, err := os.Stat(metasFile); err != nil {
			return nil, fmt.Errorf("metas file: %w", err)
		}
	}

	frente := os.Getenv(EnvFrente)
	if frente == "" {
		frente = "frente5"
	}

	return &Config{
		DataDir:    dataDir,
		OutputDir:  outputDir,
		LedgerPath: ledgerPath,
		MetasFile:  metasFile,
		Frente:     frente,
	}, nil
}

// XLSXDir is where day-partitioned workbooks are written.
func (c *Config) XLSXDir() string { return filepath.Join(c.OutputDir, "xlsx") }

// JSONDir is the root of the partitioned JSON tree.
func (c *Config) JSONDir() string { return filepath.Join(c.OutputDir, "json") }

// FleetDailyDir holds per-day fleet JSON files for one equipment type.
func (c *Config) FleetDailyDir(tipo string) string {
	return filepath.Join(c.JSONDir(), tipo, "frotas", "diario")
}

// FleetPeriodDir holds period rollup fleet JSON files for one type.
func (c *Config) FleetPeriodDir(tipo string) string {
	return filepath.Join(c.JSONDir(), tipo, "frotas", "semanal")
}

// OperatorDailyDir holds per-day operator JSON files for one type.
func (c *Config) OperatorDailyDir(tipo string) string {
	return filepath.Join(c.JSONDir(), tipo, "operadores", "diario")
}

// OperatorPeriodDir holds period rollup operator JSON files for one type.
func (c *Config) OperatorPeriodDir(tipo string) string {
	return filepath.Join(c.JSONDir(), tipo, "operadores", "semanal")
}

// ConsolidatedDir holds the final cross-source daily documents.
func (c *Config) ConsolidatedDir() string {
	return filepath.Join(c.JSONDir(), "consolidado")
}

// DefaultMetas are the per-metric dashboard targets used when no metas
// file is configured.
func DefaultMetas() map[string]float64 {
	return map[string]float64{
		"eficienciaEnergetica":    85,
		"eficienciaOperacional":   60,
		"horaElevador":            5,
		"usoGPS":                  90,
		"mediaVelocidade":         5,
		"manobras":                60,
		"producao":                1000,
		"disponibilidadeMecanica": 90,
		"motorOcioso":             15,
	}
}

// Metas returns the default targets merged with any overrides from the
// configured metas file.
func (c *Config) Metas() (map[string]float64, error) {
	metas := DefaultMetas()
	if c.MetasFile == "" {
		return metas, nil
	}
	var overrides map[string]float64
	if err := jsonio.Read(c.MetasFile, &overrides); err != nil {
		return nil, fmt.Errorf("reading metas file: %w", err)
	}
	for k, v := range overrides {
		metas[k] = v
	}
	return metas, nil
}
