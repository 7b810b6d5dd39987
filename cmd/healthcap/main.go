package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/healthcap/internal/config"
	"github.com/TobiSchelling/healthcap/internal/dataset"
	"github.com/TobiSchelling/healthcap/internal/logging"
	"github.com/TobiSchelling/healthcap/internal/observability"
	"github.com/TobiSchelling/healthcap/internal/pipeline"
	"github.com/TobiSchelling/healthcap/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	dataDir    string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "healthcap",
	Short:   "Healthcare capacity dashboard",
	Long:    "healthcap joins hospital bed capacity with COVID-19 cases by state and serves an interactive dashboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if dataDir != "" {
			cfg.Data.Dir = dataDir
		}
		if verbose {
			cfg.Logging.Level = "debug"
			cfg.Logging.Format = "console"
		}
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if path != "" {
			logging.Debug().Str("path", path).Msg("config loaded")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Directory holding the CSV files")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("healthcap", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/healthcap/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your data directory or change the default state.")
		return nil
	},
}

// --- summary command ---

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Run the pipeline and print the summary cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, result, err := pipeline.New(cfg).Run(cmd.Context())
		if err != nil {
			printSteps(os.Stdout, result)
			return explain(err)
		}

		if summaryJSON {
			out, err := json.MarshalIndent(map[string]any{
				"summary": ds.Summary(),
				"join":    ds.Join(),
				"rows":    ds.Len(),
				"states":  ds.States(),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		printSteps(os.Stdout, result)
		s := ds.Summary()
		fmt.Println()
		if s.HasMax {
			fmt.Printf("State:             %s\n", s.MaxState)
			fmt.Printf("Highest Capacity:  %.2f%%\n", s.MaxRatio)
		} else {
			fmt.Println("State:             n/a")
			fmt.Println("Highest Capacity:  n/a")
		}
		fmt.Printf("Beds for COVID19:  %.2f%%\n", s.CovidBedShare)
		fmt.Printf("\n%s joined rows across %d states\n", humanize.Comma(int64(ds.Len())), len(ds.States()))
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print JSON instead of text")
}

// --- serve command ---

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the data and start the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ds, result, err := pipeline.New(cfg).Run(ctx)
		if err != nil {
			printSteps(os.Stdout, result)
			return explain(err)
		}
		for _, step := range result.Steps {
			logging.Debug().Str("step", step.Name).Msg(step.Summary)
		}

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, cfg, ds, observability.NewMetrics())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8050, "Port to run server on")
}

func printSteps(w io.Writer, result *pipeline.Result) {
	if result == nil {
		return
	}
	for i, step := range result.Steps {
		fmt.Fprintf(w, "Step %d/5: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Fprintf(w, "  Error: %v\n", step.Err)
		} else {
			fmt.Fprintf(w, "  %s\n", step.Summary)
		}
	}
}

// explain adds a hint for the startup errors a user can fix.
func explain(err error) error {
	switch {
	case errors.Is(err, dataset.ErrFileNotFound):
		return fmt.Errorf("%w (set --data-dir or data.dir in the config)", err)
	case errors.Is(err, dataset.ErrMissingColumn), errors.Is(err, dataset.ErrParse):
		return fmt.Errorf("%w (check the CSV header and values)", err)
	default:
		return err
	}
}

