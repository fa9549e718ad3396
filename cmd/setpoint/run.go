package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var matchesFile string

func init() {
	runCmd.Flags().StringVarP(&matchesFile, "matches", "m", "", "Path to the scheduled matches JSON file")
	runCmd.MarkFlagRequired("matches")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze one batch of matches and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			appLog.Info("Shutdown signal received, canceling batch")
			cancel()
		}()

		matches, err := loadMatches(matchesFile)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		defer a.close()

		// The control server runs for the batch duration so an operator
		// can resume a tripped breaker
		if err := a.control.Start(ctx); err != nil {
			return err
		}
		a.control.SetReady(true)

		appLog.WithFields(logrus.Fields{
			"matches": len(matches),
			"version": Version,
			"commit":  GitCommit,
		}).Info("Starting batch run")

		result, err := a.runBatch(ctx, matches)
		if err != nil {
			return fmt.Errorf("batch run failed: %w", err)
		}

		fmt.Printf("Analyzed %d matches: %d predictions, %d skips in %s\n",
			len(matches), len(result.Predictions), len(result.Skips), result.Elapsed)
		return nil
	},
}
