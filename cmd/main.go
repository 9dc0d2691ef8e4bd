package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"frota-etl/internal/api"
	"frota-etl/internal/config"
	"frota-etl/internal/consolidate"
	"frota-etl/internal/ledger"
	"frota-etl/internal/partition"
	"frota-etl/internal/telematics"
	"frota-etl/internal/treatment"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	outputDir  string
	ledgerPath string
	metasFile  string
	logger     = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "frota-etl",
		Short: "Fleet report ETL - treatment, partitioning and consolidation",
		Long: `A CLI tool for the sugarcane fleet reporting pipeline. Treats raw
fleet report workbooks, pivots Case IH telematics exports, partitions
the results per day and consolidates every source into the daily JSON
documents consumed by the dashboard.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory with the raw input files (or "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().StringVar(&outputDir, "out", "", "Output directory (default: <data>/separados)")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Run ledger sqlite file (default: <out>/frota_etl.db)")
	rootCmd.PersistentFlags().StringVar(&metasFile, "metas", "", "JSON file overriding the default metric targets")

	// Add commands
	rootCmd.AddCommand(treatCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(consolidateCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(dataDir, outputDir, ledgerPath, metasFile)
}

// openLedger opens the run ledger; a broken ledger degrades to a
// warning so the pipeline itself still runs.
func openLedger(cfg *config.Config) *ledger.Store {
	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		logger.Warn("run ledger unavailable", "error", err)
		return nil
	}
	return store
}

func record(store *ledger.Store, stage, input string, outputs, warnings int, started time.Time, runErr error) {
	if store == nil {
		return
	}
	run := ledger.Run{
		Stage:      stage,
		Input:      input,
		Outputs:    outputs,
		Warnings:   warnings,
		Status:     "ok",
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Status = "error"
		run.Error = runErr.Error()
	}
	if err := store.Record(run); err != nil {
		logger.Warn("cannot record run", "stage", stage, "error", err)
	}
}

type stageFunc func(cfg *config.Config, store *ledger.Store) error

func runStage(fn stageFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := openLedger(cfg)
	if store != nil {
		defer store.Close()
	}
	return fn(cfg, store)
}

func treatStage(cfg *config.Config, store *ledger.Store) error {
	started := time.Now()
	res, err := treatment.Run(cfg, logger)
	if err != nil {
		record(store, "treat", cfg.DataDir, 0, 0, started, err)
		return err
	}
	record(store, "treat", strings.Join(res.Inputs, ","), len(res.Outputs), res.Warnings, started, nil)
	return nil
}

func caseStage(cfg *config.Config, store *ledger.Store) error {
	started := time.Now()
	res, err := telematics.Run(cfg, logger)
	if err != nil {
		record(store, "case", cfg.DataDir, 0, 0, started, err)
		return err
	}
	record(store, "case", res.Input, len(res.Outputs), res.Warnings, started, nil)
	return nil
}

func splitStage(cfg *config.Config, store *ledger.Store) error {
	started := time.Now()
	res, err := partition.Run(cfg, logger)
	if err != nil {
		record(store, "split", cfg.DataDir, 0, 0, started, err)
		return err
	}
	record(store, "split", res.Input, len(res.Outputs), res.Warnings, started, nil)
	return nil
}

func consolidateStage(cfg *config.Config, store *ledger.Store) error {
	started := time.Now()
	res, err := consolidate.Run(cfg, logger)
	if err != nil {
		record(store, "consolidate", cfg.OutputDir, 0, 0, started, err)
		return err
	}
	record(store, "consolidate", cfg.OutputDir, len(res.Outputs), res.Warnings, started, nil)
	return nil
}

// treatCmd treats the raw fleet report workbooks
func treatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "treat",
		Short: "Treat the raw fleet report workbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(treatStage)
		},
	}
}

// caseCmd pivots the Case IH telematics archive
func caseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "case",
		Short: "Pivot the newest Case IH telematics archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(caseStage)
		},
	}
}

// splitCmd partitions the newest treated workbook per day
func splitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Partition the newest treated workbook into per-day files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(splitStage)
		},
	}
}

// consolidateCmd merges every source into the daily dashboard JSON
func consolidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Consolidate every source into daily dashboard JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(consolidateStage)
		},
	}
}

// runCmd executes the whole pipeline in order
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: treat, case, split, consolidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(func(cfg *config.Config, store *ledger.Store) error {
				stages := []struct {
					name string
					fn   stageFunc
				}{
					{"treat", treatStage},
					{"case", caseStage},
					{"split", splitStage},
					{"consolidate", consolidateStage},
				}
				for _, stage := range stages {
					fmt.Printf("==> %s\n", stage.name)
					if err := stage.fn(cfg, store); err != nil {
						return fmt.Errorf("stage %s: %w", stage.name, err)
					}
				}
				return nil
			})
		},
	}
}

// serveCmd starts the REST API server
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the consolidated documents over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openLedger(cfg)
			if store != nil {
				defer store.Close()
			}

			server := api.NewServer(cfg, store)
			addr := fmt.Sprintf(":%d", port)

			fmt.Printf("Frota ETL API\n")
			fmt.Printf("   Listening on http://localhost%s\n", addr)
			fmt.Printf("   Output dir: %s\n\n", cfg.OutputDir)
			fmt.Println("Available endpoints:")
			fmt.Println("  GET /health")
			fmt.Println("  GET /api/v1/days")
			fmt.Println("  GET /api/v1/days/{date}")
			fmt.Println("  GET /api/v1/runs")
			fmt.Println()

			return http.ListenAndServe(addr, server.Router())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port")
	return cmd
}

// runsCmd lists the most recent ledger entries
func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the most recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				status := r.Status
				if r.Error != "" {
					status += " (" + r.Error + ")"
				}
				fmt.Printf("%s  %-12s  outputs=%d warnings=%d  %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Stage, r.Outputs, r.Warnings, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
