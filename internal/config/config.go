// Package config provides configuration management for the Set Point application.
package config

import (
	"fmt"
	"math"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Provider    ProviderConfig    `mapstructure:"provider" validate:"required"`
	Markets     MarketsConfig     `mapstructure:"markets"`
	Analysis    AnalysisConfig    `mapstructure:"analysis" validate:"required"`
	Risk        RiskConfig        `mapstructure:"risk" validate:"required"`
	Probability ProbabilityConfig `mapstructure:"probability" validate:"required"`
	Runner      RunnerConfig      `mapstructure:"runner" validate:"required"`
	Report      ReportConfig      `mapstructure:"report" validate:"required"`
	Injury      InjuryConfig      `mapstructure:"injury"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Control     ControlConfig     `mapstructure:"control" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ProviderConfig represents the statistics provider API configuration
type ProviderConfig struct {
	BaseURL         string  `mapstructure:"base_url" validate:"required,url"`
	APIKey          string  `mapstructure:"api_key"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize    int     `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// MarketsConfig represents the odds market provider configuration
type MarketsConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	BaseURL        string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	MinEdge        float64 `mapstructure:"min_edge" validate:"gte=0,lte=1"`
}

// WeightConfig holds the base factor weights for the scoring engine.
// The weights must sum to 1.0.
type WeightConfig struct {
	SetPerformance float64 `mapstructure:"set_performance" validate:"gte=0,lte=1"`
	RecentForm     float64 `mapstructure:"recent_form" validate:"gte=0,lte=1"`
	Momentum       float64 `mapstructure:"momentum" validate:"gte=0,lte=1"`
	Surface        float64 `mapstructure:"surface" validate:"gte=0,lte=1"`
	Clutch         float64 `mapstructure:"clutch" validate:"gte=0,lte=1"`
	Physical       float64 `mapstructure:"physical" validate:"gte=0,lte=1"`
	Ranking        float64 `mapstructure:"ranking" validate:"gte=0,lte=1"`
	ReturnOfServe  float64 `mapstructure:"return_of_serve" validate:"gte=0,lte=1"`
}

// Sum returns the total of all factor weights
func (w WeightConfig) Sum() float64 {
	return w.SetPerformance + w.RecentForm + w.Momentum + w.Surface +
		w.Clutch + w.Physical + w.Ranking + w.ReturnOfServe
}

// Map returns the weights keyed by factor name
func (w WeightConfig) Map() map[string]float64 {
	return map[string]float64{
		"set_performance": w.SetPerformance,
		"recent_form":     w.RecentForm,
		"momentum":        w.Momentum,
		"surface":         w.Surface,
		"clutch":          w.Clutch,
		"physical":        w.Physical,
		"ranking":         w.Ranking,
		"return_of_serve": w.ReturnOfServe,
	}
}

// DefaultWeights returns the base weight table
func DefaultWeights() WeightConfig {
	return WeightConfig{
		SetPerformance: 0.28,
		RecentForm:     0.20,
		Momentum:       0.11,
		Surface:        0.10,
		Clutch:         0.09,
		Physical:       0.05,
		Ranking:        0.09,
		ReturnOfServe:  0.08,
	}
}

// AnalysisConfig represents the player analysis and scoring configuration.
// MicroEdges entries override the default per-factor minimum-difference
// thresholds; factors not listed keep their defaults.
type AnalysisConfig struct {
	Weights             WeightConfig       `mapstructure:"weights" validate:"required"`
	MicroEdges          map[string]float64 `mapstructure:"micro_edges" validate:"omitempty,dive,gte=0,lte=1"`
	YearsBack           int                `mapstructure:"years_back" validate:"required,min=1,max=3"`
	RecentMatchCount    int                `mapstructure:"recent_match_count" validate:"required,gt=0"`
	ShrinkageFullSample int                `mapstructure:"shrinkage_full_sample" validate:"required,gt=0"`
	HomeBonusEnabled    bool               `mapstructure:"home_bonus_enabled"`
	HomeBonus           float64            `mapstructure:"home_bonus" validate:"gte=0,lte=1"`
	CloseMatchGap       float64            `mapstructure:"close_match_gap" validate:"gte=0,lte=1"`
	CloseMatchAmplifier float64            `mapstructure:"close_match_amplifier" validate:"gte=1"`
}

// DefaultMicroEdges returns the per-factor minimum-difference thresholds.
// Factor gaps below these are treated as noise and dropped from scoring.
func DefaultMicroEdges() map[string]float64 {
	return map[string]float64{
		"set_performance": 0.03,
		"recent_form":     0.04,
		"momentum":        0.08,
		"surface":         0.05,
		"clutch":          0.05,
		"physical":        0.10,
		"ranking":         0.03,
		"return_of_serve": 0.03,
	}
}

// MentalBand maps a clutch-rate gap threshold to the probability shift the
// mental-differential gate applies.
type MentalBand struct {
	Gap   float64 `mapstructure:"gap" validate:"gte=0,lte=1"`
	Shift float64 `mapstructure:"shift" validate:"gte=0,lte=1"`
}

// DefaultMentalBands returns the calibrated gap-to-shift bands, largest gap
// first.
func DefaultMentalBands() []MentalBand {
	return []MentalBand{
		{Gap: 0.40, Shift: 0.25},
		{Gap: 0.20, Shift: 0.15},
		{Gap: 0.10, Shift: 0.10},
		{Gap: 0.05, Shift: 0.05},
	}
}

// RiskConfig represents the risk-calibration pipeline thresholds
type RiskConfig struct {
	Tier1MinCurrentMatches        int          `mapstructure:"tier1_min_current_matches" validate:"gte=0"`
	Tier2MinBlendedMatches        int          `mapstructure:"tier2_min_blended_matches" validate:"gte=0"`
	PoorWinRateCutoff             float64      `mapstructure:"poor_win_rate_cutoff" validate:"gte=0,lte=1"`
	PoorWinRateMinMatches         int          `mapstructure:"poor_win_rate_min_matches" validate:"gte=0"`
	WeakOppositionRanking         int          `mapstructure:"weak_opposition_ranking" validate:"gte=0"`
	VoidOppositionRanking         int          `mapstructure:"void_opposition_ranking" validate:"gte=0"`
	CoinFlipThreshold             float64      `mapstructure:"coin_flip_threshold" validate:"gte=0,lte=1"`
	CoinFlipSkipEnabled           bool         `mapstructure:"coin_flip_skip_enabled"`
	ConflictingSignalsSkipEnabled bool         `mapstructure:"conflicting_signals_skip_enabled"`
	CrowdMinVotes                 int          `mapstructure:"crowd_min_votes" validate:"gte=0"`
	CrowdMinMatchSample           int          `mapstructure:"crowd_min_match_sample" validate:"gte=0"`
	CrowdMinSetSample             int          `mapstructure:"crowd_min_set_sample" validate:"gte=0"`
	CrowdDisagreementWarn         float64      `mapstructure:"crowd_disagreement_warn" validate:"gte=0,lte=1"`
	CrowdDisagreementSkip         float64      `mapstructure:"crowd_disagreement_skip" validate:"gte=0,lte=1"`
	TerribleFormCutoff            float64      `mapstructure:"terrible_form_cutoff" validate:"gte=0,lte=100"`
	TerribleFormCap               float64      `mapstructure:"terrible_form_cap" validate:"gte=0,lte=1"`
	BagelCap                      float64      `mapstructure:"bagel_cap" validate:"gte=0,lte=1"`
	BagelConfidenceFloor          float64      `mapstructure:"bagel_confidence_floor" validate:"gte=0,lte=1"`
	UpsetCap                      float64      `mapstructure:"upset_cap" validate:"gte=0,lte=1"`
	UpsetOpponentTop              int          `mapstructure:"upset_opponent_top" validate:"gte=0"`
	UpsetRankingGap               int          `mapstructure:"upset_ranking_gap" validate:"gte=0"`
	UpsetMinFactorBacks           int          `mapstructure:"upset_min_factor_backs" validate:"gte=0"`
	FormContradictionGap          float64      `mapstructure:"form_contradiction_gap" validate:"gte=0,lte=100"`
	MentalEnabled                 bool         `mapstructure:"mental_enabled"`
	MentalBands                   []MentalBand `mapstructure:"mental_bands" validate:"omitempty,dive"`
}

// ProbabilityConfig represents probability conversion bounds
type ProbabilityConfig struct {
	MinMatchProb       float64 `mapstructure:"min_match_prob" validate:"gte=0,lte=1"`
	MaxMatchProb       float64 `mapstructure:"max_match_prob" validate:"gte=0,lte=1"`
	MatchProbFloor     float64 `mapstructure:"match_prob_floor" validate:"gte=0,lte=1"`
	MatchProbCeil      float64 `mapstructure:"match_prob_ceil" validate:"gte=0,lte=1"`
	HardCeiling        float64 `mapstructure:"hard_ceiling" validate:"gte=0,lte=1"`
	QualityCapPerFlag  float64 `mapstructure:"quality_cap_per_flag" validate:"gte=0,lte=1"`
	QualityCapCompound float64 `mapstructure:"quality_cap_compound" validate:"gte=0,lte=1"`
	QualityCapMax      float64 `mapstructure:"quality_cap_max" validate:"gte=0,lte=1"`
	QualityCapFlagMin  int     `mapstructure:"quality_cap_flag_min" validate:"gte=0"`
	BO3Floor           float64 `mapstructure:"bo3_floor" validate:"gte=0,lte=1"`
	BO3Ceil            float64 `mapstructure:"bo3_ceil" validate:"gte=0,lte=1"`
	BO5Floor           float64 `mapstructure:"bo5_floor" validate:"gte=0,lte=1"`
	BO5Ceil            float64 `mapstructure:"bo5_ceil" validate:"gte=0,lte=1"`
}

// RunnerConfig represents the concurrent batch runner configuration
type RunnerConfig struct {
	Workers             int `mapstructure:"workers" validate:"required,gt=0"`
	BreakerThreshold    int `mapstructure:"breaker_threshold" validate:"required,gt=0"`
	MatchTimeoutSeconds int `mapstructure:"match_timeout_seconds" validate:"required,gt=0"`
}

// ReportConfig represents prediction output configuration
type ReportConfig struct {
	OutputPath           string `mapstructure:"output_path" validate:"required"`
	ArchiveDir           string `mapstructure:"archive_dir" validate:"required"`
	ArchiveRetentionDays int    `mapstructure:"archive_retention_days" validate:"required,gt=0"`
}

// InjuryConfig represents the injured-player list configuration
type InjuryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url" validate:"omitempty,url"`
	LookbackDays   int    `mapstructure:"lookback_days" validate:"omitempty,gt=0"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
}

// DatabaseConfig represents database connection configuration.
// Persistence is optional; CSV output is always written.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// SchedulerConfig represents scheduled run configuration
type SchedulerConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	RunCrons []string `mapstructure:"run_crons"`
}

// ControlConfig represents the operator control server configuration
type ControlConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// WeightsSumValid reports whether the configured factor weights sum to 1.0
// within tolerance.
func (c *Config) WeightsSumValid() bool {
	return math.Abs(c.Analysis.Weights.Sum()-1.0) <= 1e-6
}
