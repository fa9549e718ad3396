package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/set-point/internal/analysis"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/control"
	"github.com/yourusername/set-point/internal/database"
	"github.com/yourusername/set-point/internal/injury"
	"github.com/yourusername/set-point/internal/markets"
	"github.com/yourusername/set-point/internal/metrics"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/provider"
	"github.com/yourusername/set-point/internal/report"
	"github.com/yourusername/set-point/internal/repository"
	"github.com/yourusername/set-point/internal/runner"
)

// app holds the wired components shared by the run and serve commands
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	provider provider.StatisticsProvider
	injuries *injury.Scraper
	breaker  *runner.NetworkCircuitBreaker
	control  *control.Server
	reporter *report.Writer
	db       *database.DB
	sink     *repository.BatchSink
}

// newApp wires every component from configuration. The control server is
// started by the caller.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	metrics.InitRegistry()

	httpProvider := provider.NewHTTPStatisticsProvider(&cfg.Provider, log)
	cached := provider.NewCachedProvider(httpProvider,
		time.Duration(cfg.Provider.CacheTTLSeconds)*time.Second, cfg.Provider.CacheMaxSize)

	a := &app{
		cfg:      cfg,
		log:      log,
		provider: cached,
		breaker:  runner.NewNetworkCircuitBreaker(cfg.Runner.BreakerThreshold, log),
		reporter: report.NewWriter(&cfg.Report, log),
	}

	if cfg.Injury.Enabled {
		a.injuries = injury.NewScraper(&cfg.Injury, log)
	}

	if cfg.Database.Enabled {
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.sink = repository.NewBatchSink(
			repository.NewPostgresPredictionRepository(db),
			repository.NewPostgresSkipRepository(db),
			log,
		)
		log.Info("Database connection established")
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	var pinger control.DatabasePinger
	if a.db != nil {
		pinger = a.db
	}
	a.control = control.NewServer(control.ServerConfig{
		ServiceName: cfg.App.Name,
		Control:     &cfg.Control,
		MetricsPath: metricsPath,
		Breaker:     a.breaker,
		DB:          pinger,
		Logger:      log,
	})

	hub := a.control.Hub()
	a.breaker.OnPause(hub.BroadcastBreakerPause)
	a.breaker.OnResume(hub.BroadcastBreakerResume)

	return a, nil
}

// close releases held resources
func (a *app) close() {
	if closer, ok := a.provider.(interface{ Close() error }); ok {
		closer.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// runBatch analyzes one batch of matches end to end: injury list refresh,
// concurrent analysis, CSV report, optional persistence and optional
// market selections.
func (a *app) runBatch(ctx context.Context, matches []*models.Match) (*runner.BatchResult, error) {
	if a.injuries != nil {
		// A failed refresh keeps the previous list; the batch still runs
		_ = a.injuries.Refresh(ctx)
	}

	var checker analysis.InjuryChecker
	if a.injuries != nil {
		checker = a.injuries
	}
	orchestrator := analysis.NewMatchOrchestrator(a.cfg, a.provider, checker, a.log)
	batchRunner := runner.NewBatchRunner(&a.cfg.Runner, orchestrator, a.breaker, a.log, a.control.Hub().ProgressFunc)

	result, err := batchRunner.Run(ctx, matches)
	if err != nil {
		return result, err
	}

	archiveDir, err := a.reporter.WriteBatch(result.Predictions, result.Skips, report.RunStamp(time.Now()))
	if err != nil {
		return result, fmt.Errorf("writing batch report: %w", err)
	}
	if err := a.reporter.CleanupArchive(time.Now()); err != nil {
		a.log.WithError(err).Warn("Archive cleanup failed")
	}

	if a.sink != nil {
		if err := a.sink.Store(ctx, result.Predictions, result.Skips); err != nil {
			a.log.WithError(err).Warn("Batch persistence incomplete")
		}
	}

	if a.cfg.Markets.Enabled {
		a.buildSelections(ctx, result.Predictions)
	}

	a.log.WithFields(logrus.Fields{
		"predictions": len(result.Predictions),
		"skips":       len(result.Skips),
		"archive":     archiveDir,
		"elapsed":     result.Elapsed.String(),
	}).Info("Batch complete")

	return result, nil
}

// buildSelections matches predictions against live set markets and logs
// the value selections found.
func (a *app) buildSelections(ctx context.Context, predictions []*models.SetPrediction) {
	marketsProvider := markets.NewHTTPMarketsProvider(&a.cfg.Markets, a.log)
	defer marketsProvider.Close()

	listing, err := marketsProvider.ListSetMarkets(ctx)
	if err != nil {
		a.log.WithError(err).Warn("Market listing unavailable, skipping selections")
		return
	}

	engine := markets.NewSelectionEngine(&a.cfg.Markets, a.log)
	total := 0
	for _, prediction := range predictions {
		market := markets.FindMarket(listing, prediction)
		if market == nil {
			continue
		}
		for _, selection := range engine.BuildSelections(prediction, market) {
			total++
			a.log.WithFields(logrus.Fields{
				"match_id":   selection.MatchID,
				"kind":       selection.Kind,
				"total_edge": selection.TotalEdge.String(),
				"confidence": selection.Confidence,
			}).Info("Value selection")
		}
	}
	a.log.WithField("selections", total).Info("Market selection pass complete")
}

// loadMatches reads the scheduled match list from a JSON file
func loadMatches(path string) ([]*models.Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading matches file: %w", err)
	}

	var matches []*models.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("parsing matches file: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("matches file %s contains no matches", path)
	}
	return matches, nil
}
