package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the configuration and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validation already ran in PersistentPreRunE; reaching here means
		// the file parsed and passed every check
		fmt.Printf("Configuration OK: %s\n", configFile)
		fmt.Printf("  app: %s (%s, log level %s)\n", cfg.App.Name, cfg.App.Environment, cfg.App.LogLevel)
		fmt.Printf("  provider: %s (cache %ds)\n", cfg.Provider.BaseURL, cfg.Provider.CacheTTLSeconds)
		fmt.Printf("  workers: %d, breaker threshold: %d\n", cfg.Runner.Workers, cfg.Runner.BreakerThreshold)
		fmt.Printf("  weights sum: %.4f\n", cfg.Analysis.Weights.Sum())
		fmt.Printf("  report: %s (archive %s, retention %dd)\n",
			cfg.Report.OutputPath, cfg.Report.ArchiveDir, cfg.Report.ArchiveRetentionDays)
		fmt.Printf("  database: enabled=%v, markets: enabled=%v, injury: enabled=%v\n",
			cfg.Database.Enabled, cfg.Markets.Enabled, cfg.Injury.Enabled)
		fmt.Printf("  scheduler: enabled=%v crons=%v\n", cfg.Scheduler.Enabled, cfg.Scheduler.RunCrons)
		fmt.Printf("  control port: %d, metrics: %v %s\n", cfg.Control.Port, cfg.Metrics.Enabled, cfg.Metrics.Path)
		return nil
	},
}
