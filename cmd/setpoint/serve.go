package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/set-point/internal/scheduler"
)

var serveMatchesFile string

func init() {
	serveCmd.Flags().StringVarP(&serveMatchesFile, "matches", "m", "", "Path to the scheduled matches JSON file, re-read before each run")
	serveCmd.MarkFlagRequired("matches")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled batches until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Scheduler.Enabled || len(cfg.Scheduler.RunCrons) == 0 {
			return fmt.Errorf("scheduler is disabled or has no cron expressions configured")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := newApp(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.control.Start(ctx); err != nil {
			return err
		}

		sched := scheduler.NewScheduler(func(runCtx context.Context) error {
			// The match list file is refreshed externally between runs
			matches, err := loadMatches(serveMatchesFile)
			if err != nil {
				return err
			}
			_, err = a.runBatch(runCtx, matches)
			return err
		}, appLog)

		if err := sched.ScheduleFromConfig(&cfg.Scheduler); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		a.control.SetReady(true)

		appLog.WithField("next_run", sched.GetNextRun().String()).Info("Scheduler running")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		appLog.Info("Shutdown signal received")
		a.control.SetReady(false)
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Scheduler stop failed")
		}
		cancel()
		return nil
	},
}
