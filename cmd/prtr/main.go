package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/prtr-cleaner/pkg/config"
	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/pipeline"
)

var version = "0.1.0"

// flags shared by every command
var (
	envFile   string
	inputPath string
	outputDir string
	logLevel  string
	opts      pipeline.Options
)

var rootCmd = &cobra.Command{
	Use:   "prtr",
	Short: "Clean and explore the Israeli PRTR (MIFLAS) emissions extract",
	Long: `prtr loads the MIFLAS pollutant release extract, lets the analyst type its
columns, reconciles the accidental and routine emission quantities, draws the
emission and waste charts and the industry maps, and exports the cleaned table.`,
	Example: `  # Full run on the default extract
  $ prtr --input MIFLAS_data.csv

  # Type the columns again and draw the per-pollutant comparison charts
  $ prtr run --force --shotgun

  # Show the column variability buckets of the cached table
  $ prtr variability`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAll,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean, reconcile, chart and export the extract",
	RunE:  runAll,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Load and type the extract, caching the cleaned table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
			tbl, err := p.Clean(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned table has %d rows and %d columns\n", tbl.NumRows(), tbl.NumCols())
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the emission columns of the cleaned table and report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
			_, _, err := p.Reconcile(ctx)
			return err
		})
	},
}

var variabilityCmd = &cobra.Command{
	Use:   "variability",
	Short: "Classify the columns of the cleaned table by distinct values",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
			_, err := p.Variability(ctx)
			return err
		})
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env", ".env", "environment file to load before reading the configuration")
	pf.StringVarP(&inputPath, "input", "i", "", "CSV extract to load (overrides PRTR_INPUT)")
	pf.StringVarP(&outputDir, "output", "o", "", "folder for charts, maps, reports and the cache (overrides PRTR_OUTPUT_DIR)")
	pf.StringVar(&logLevel, "log", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	pf.BoolVarP(&opts.Force, "force", "f", false, "type the columns again and overwrite the cached table")

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&opts.Shotgun, "shotgun", false, "draw the accident comparison bar charts per pollutant group")
		cmd.Flags().BoolVar(&opts.XLSX, "xlsx", false, "also export the cleaned table as a workbook")
	}

	rootCmd.AddCommand(runCmd, cleanCmd, reconcileCmd, variabilityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		console.NewPrinter(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}

func runAll(cmd *cobra.Command, _ []string) error {
	return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
		_, err := p.Run(ctx)
		return err
	})
}

// withPipeline loads the configuration, builds the logger and the pipeline, and
// runs fn until it returns or the user interrupts
func withPipeline(cmd *cobra.Command, fn func(ctx context.Context, p *pipeline.Pipeline) error) error {
	if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if inputPath != "" {
		cfg.InputPath = inputPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	p, err := pipeline.New(cfg, opts, pipeline.Deps{
		Logger: logger,
		Out:    console.NewPrinter(cmd.OutOrStdout()),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, p)
}

// newLogger builds a zap logger writing to stderr. format is "json" or "console".
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	if format != "json" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
