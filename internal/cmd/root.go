package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for estconvert
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estconvert",
		Short: "Convert ESA615 electrical safety test exports to interface rows",
		Long: `Estconvert converts CSV exports from the Fluke ESA615 electrical
safety analyzer into the fixed 22-column interface format used by
asset-management systems.

It extracts test metadata and measurements from each export, infers the
governing standard (AS/NZS 3551 or 3760) and appliance class from the
template name, resolves pass/fail limits, and appends one row per device
to the shared results file.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewConvertCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}
