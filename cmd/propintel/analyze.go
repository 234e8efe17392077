package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/report"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <address>",
	Short: "Analyze one address and print the report",
	Long:  "Runs a single analysis and writes the report to stdout. Logs go to stderr. Exits non-zero when geocoding, demographics or jurisdiction resolution fails.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(analyzeFormat) {
		case report.FormatJSON, report.FormatYAML, "yml", report.FormatText:
		default:
			return fmt.Errorf("unknown output format %q: must be json, yaml or text", analyzeFormat)
		}

		address := strings.Join(args, " ")
		logger := observability.NewCLILogger(cfg).With("request_id", uuid.NewString())

		engine, err := newEngine(cfg, logger, metrics)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		fused, err := engine.Analyze(cmd.Context(), address)
		if err != nil {
			return fmt.Errorf("analyze %q: %w", address, err)
		}

		rep := report.Format(fused)
		for _, d := range rep.Degradations {
			logger.Warn("section estimated", "provider", d.Provider, "reason", d.Reason)
		}
		return report.Encode(os.Stdout, rep, analyzeFormat)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", report.FormatJSON, "output format: json, yaml or text")
	rootCmd.AddCommand(analyzeCmd)
}
