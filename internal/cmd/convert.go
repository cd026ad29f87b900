package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/estconvert/internal/config"
	"github.com/harrison/estconvert/internal/converter"
	"github.com/harrison/estconvert/internal/fileutil"
	"github.com/harrison/estconvert/internal/logger"
	"github.com/harrison/estconvert/internal/store"
)

// Flag variables for the convert command
var (
	convertConfigPath  string
	convertDir         string
	convertRecursive   bool
	convertResultsPath string
	convertLimitsPath  string
	convertTestersPath string
	convertOutputDir   string
	convertNoDB        bool
	convertVerbose     bool
)

// NewConvertCommand creates the 'estconvert convert' command
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [export files...]",
		Short: "Convert export files and append rows to the results file",
		Long: `Convert one or more ESA615 export CSVs into interface rows.

Exports can be named directly or discovered with --dir. Files that fail
to convert are reported, written to an EST_ERRORS CSV, and skipped; the
rest of the batch still completes.`,
		RunE: runConvert,
	}

	cmd.Flags().StringVar(&convertConfigPath, "config", "", "path to config file (default .estconvert/config.yaml)")
	cmd.Flags().StringVar(&convertDir, "dir", "", "directory to scan for export CSVs")
	cmd.Flags().BoolVar(&convertRecursive, "recursive", false, "scan --dir recursively")
	cmd.Flags().StringVar(&convertResultsPath, "results", "", "results file to append rows to")
	cmd.Flags().StringVar(&convertLimitsPath, "limits", "", "limits table CSV")
	cmd.Flags().StringVar(&convertTestersPath, "testers", "", "tester serial to asset map CSV")
	cmd.Flags().StringVar(&convertOutputDir, "output", "", "directory for error reports")
	cmd.Flags().BoolVar(&convertNoDB, "no-db", false, "skip recording the batch in the audit database")
	cmd.Flags().BoolVarP(&convertVerbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// loadConvertConfig merges flag values over the file configuration.
func loadConvertConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if convertConfigPath != "" {
		cfg, err = config.LoadConfig(convertConfigPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if convertResultsPath != "" {
		cfg.ResultsPath = convertResultsPath
	}
	if convertLimitsPath != "" {
		cfg.LimitsPath = convertLimitsPath
	}
	if convertTestersPath != "" {
		cfg.TesterMapPath = convertTestersPath
	}
	if convertOutputDir != "" {
		cfg.OutputDir = convertOutputDir
	}
	if convertNoDB {
		cfg.Audit.Enabled = false
	}
	if convertVerbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runConvert executes the convert command
func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConvertConfig()
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	paths := append([]string{}, args...)
	if convertDir != "" {
		found, err := fileutil.ScanExports(convertDir, fileutil.ScanOptions{
			Recursive: convertRecursive,
			Exclude:   []string{filepath.Base(cfg.ResultsPath)},
		})
		if err != nil {
			return err
		}
		log.Debugf("found %d export files under %s", len(found), convertDir)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no export files given: name files or pass --dir")
	}

	conv, err := converter.New(converter.Options{
		LimitsPath:    cfg.LimitsPath,
		TesterMapPath: cfg.TesterMapPath,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	summary := conv.Run(paths)

	if len(summary.Rows) > 0 {
		sink := store.NewCSVSink(cfg.ResultsPath)
		if err := sink.Append(summary.Rows); err != nil {
			return fmt.Errorf("failed to append results: %w", err)
		}
		log.Successf("appended %d rows to %s", len(summary.Rows), cfg.ResultsPath)
	}

	if len(summary.Errors) > 0 {
		reportPath, err := converter.WriteErrorReport(cfg.ErrorReportDir(), summary.Errors, time.Now())
		if err != nil {
			return err
		}
		log.Warnf("wrote error report to %s", reportPath)
	}

	if cfg.Audit.Enabled {
		if err := recordBatch(cfg.Audit.DBPath, summary, log); err != nil {
			return err
		}
	}

	printConvertSummary(cmd, summary)

	if summary.Succeeded == 0 && summary.Failed > 0 {
		return fmt.Errorf("all %d files failed to convert", summary.Failed)
	}
	return nil
}

func recordBatch(dbPath string, summary *converter.Summary, log logger.Logger) error {
	db, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	defer db.Close()

	batchID, err := db.RecordBatch(context.Background(), summary)
	if err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}
	log.Debugf("recorded batch %s", batchID)
	return nil
}

// printConvertSummary writes the batch outcome to stdout.
func printConvertSummary(cmd *cobra.Command, summary *converter.Summary) {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(out, "\nConverted: ")
	green.Fprintf(out, "%d\n", summary.Succeeded)
	fmt.Fprintf(out, "Failed: ")
	if summary.Failed > 0 {
		red.Fprintf(out, "%d\n", summary.Failed)
		for _, fe := range summary.Errors {
			fmt.Fprintf(out, "  - %s: %v\n", filepath.Base(fe.Path), fe.Err)
		}
	} else {
		fmt.Fprintf(out, "%d\n", summary.Failed)
	}
}
