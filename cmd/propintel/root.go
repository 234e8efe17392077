// Command propintel analyzes residential properties by fusing geocoding,
// census demographics, nearby amenities and climate data into one report.
//
// Usage:
//
//	propintel analyze "3650 Dunigan Ct, Catharpin, VA 20143" --format text
//	propintel serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/config"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
)

var (
	cfg     *config.Config
	metrics *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "propintel",
	Short: "Property intelligence from public and commercial data sources",
	Long:  "Geocodes an address, resolves its county, and fuses demographics, amenities and climate risk into a report that degrades gracefully when optional sources fail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		metrics = observability.NewMetrics()
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
