package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/estconvert/internal/config"
	"github.com/harrison/estconvert/internal/report"
	"github.com/harrison/estconvert/internal/store"
)

// Flag variables for the report command
var (
	reportConfigPath string
	reportBatchID    string
	reportFormat     string
	reportOutPath    string
)

// NewReportCommand creates the 'estconvert report' command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a conversion batch report from the audit database",
		Long: `Render a recorded conversion batch as markdown or HTML.

Without --batch the most recent batch is reported. Output goes to stdout
unless --out names a file.`,
		RunE: runReport,
	}

	cmd.Flags().StringVar(&reportConfigPath, "config", "", "path to config file (default .estconvert/config.yaml)")
	cmd.Flags().StringVar(&reportBatchID, "batch", "", "batch ID to report (default: latest)")
	cmd.Flags().StringVar(&reportFormat, "format", "markdown", "output format: markdown or html")
	cmd.Flags().StringVar(&reportOutPath, "out", "", "write the report to a file instead of stdout")

	return cmd
}

// runReport executes the report command
func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "markdown" && reportFormat != "html" {
		return fmt.Errorf("invalid format %q, must be markdown or html", reportFormat)
	}

	var cfg *config.Config
	var err error
	if reportConfigPath != "" {
		cfg, err = config.LoadConfig(reportConfigPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Audit.DBPath); os.IsNotExist(err) {
		return fmt.Errorf("no audit database at %s, run a conversion first", cfg.Audit.DBPath)
	}

	db, err := store.NewStore(cfg.Audit.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	batchID := reportBatchID
	if batchID == "" {
		batchID, err = db.LatestBatchID(ctx)
		if err != nil {
			return err
		}
		if batchID == "" {
			return fmt.Errorf("no batches recorded yet")
		}
	}

	gen := report.NewGenerator(db)
	var output string
	if reportFormat == "html" {
		output, err = gen.HTML(ctx, batchID)
	} else {
		output, err = gen.Markdown(ctx, batchID)
	}
	if err != nil {
		return err
	}

	if reportOutPath != "" {
		if err := os.WriteFile(reportOutPath, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote report to %s\n", reportOutPath)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
