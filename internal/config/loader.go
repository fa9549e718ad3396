// Package config provides configuration management for the Set Point application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. Missing config files are tolerated; defaults and environment
// variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// newViper creates a viper instance bound to SET_POINT_* environment variables
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SET_POINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults applies the default values for every tunable the analysis
// pipeline reads. The numeric defaults mirror the calibrated production
// values and can all be overridden per deployment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "set-point")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.cache_ttl_seconds", 900)
	v.SetDefault("provider.cache_max_size", 5000)

	v.SetDefault("markets.enabled", false)
	v.SetDefault("markets.timeout_seconds", 20)
	v.SetDefault("markets.min_edge", 0.03)

	defaults := DefaultWeights()
	v.SetDefault("analysis.weights.set_performance", defaults.SetPerformance)
	v.SetDefault("analysis.weights.recent_form", defaults.RecentForm)
	v.SetDefault("analysis.weights.momentum", defaults.Momentum)
	v.SetDefault("analysis.weights.surface", defaults.Surface)
	v.SetDefault("analysis.weights.clutch", defaults.Clutch)
	v.SetDefault("analysis.weights.physical", defaults.Physical)
	v.SetDefault("analysis.weights.ranking", defaults.Ranking)
	v.SetDefault("analysis.weights.return_of_serve", defaults.ReturnOfServe)
	v.SetDefault("analysis.micro_edges", DefaultMicroEdges())
	v.SetDefault("analysis.years_back", 2)
	v.SetDefault("analysis.recent_match_count", 10)
	v.SetDefault("analysis.shrinkage_full_sample", 35)
	v.SetDefault("analysis.home_bonus_enabled", false)
	v.SetDefault("analysis.home_bonus", 0.10)
	v.SetDefault("analysis.close_match_gap", 0.05)
	v.SetDefault("analysis.close_match_amplifier", 1.5)

	v.SetDefault("risk.tier1_min_current_matches", 3)
	v.SetDefault("risk.tier2_min_blended_matches", 5)
	v.SetDefault("risk.poor_win_rate_cutoff", 0.30)
	v.SetDefault("risk.poor_win_rate_min_matches", 4)
	v.SetDefault("risk.weak_opposition_ranking", 300)
	v.SetDefault("risk.void_opposition_ranking", 500)
	v.SetDefault("risk.coin_flip_threshold", 0.05)
	v.SetDefault("risk.coin_flip_skip_enabled", true)
	v.SetDefault("risk.conflicting_signals_skip_enabled", true)
	v.SetDefault("risk.crowd_min_votes", 500)
	v.SetDefault("risk.crowd_min_match_sample", 15)
	v.SetDefault("risk.crowd_min_set_sample", 25)
	v.SetDefault("risk.crowd_disagreement_warn", 0.30)
	v.SetDefault("risk.crowd_disagreement_skip", 0.65)
	v.SetDefault("risk.terrible_form_cutoff", 20.0)
	v.SetDefault("risk.terrible_form_cap", 0.55)
	v.SetDefault("risk.bagel_cap", 0.65)
	v.SetDefault("risk.bagel_confidence_floor", 0.70)
	v.SetDefault("risk.upset_cap", 0.65)
	v.SetDefault("risk.upset_opponent_top", 50)
	v.SetDefault("risk.upset_ranking_gap", 50)
	v.SetDefault("risk.upset_min_factor_backs", 3)
	v.SetDefault("risk.form_contradiction_gap", 30.0)
	v.SetDefault("risk.mental_enabled", true)

	v.SetDefault("probability.min_match_prob", 0.05)
	v.SetDefault("probability.max_match_prob", 0.90)
	v.SetDefault("probability.match_prob_floor", 0.10)
	v.SetDefault("probability.match_prob_ceil", 0.95)
	v.SetDefault("probability.hard_ceiling", 0.73)
	v.SetDefault("probability.quality_cap_per_flag", 0.05)
	v.SetDefault("probability.quality_cap_compound", 0.10)
	v.SetDefault("probability.quality_cap_max", 0.30)
	v.SetDefault("probability.quality_cap_flag_min", 2)
	v.SetDefault("probability.bo3_floor", 0.35)
	v.SetDefault("probability.bo3_ceil", 0.95)
	v.SetDefault("probability.bo5_floor", 0.45)
	v.SetDefault("probability.bo5_ceil", 0.98)

	v.SetDefault("runner.workers", 4)
	v.SetDefault("runner.breaker_threshold", 3)
	v.SetDefault("runner.match_timeout_seconds", 120)

	v.SetDefault("report.output_path", "tennis_predictions.csv")
	v.SetDefault("report.archive_dir", "archive")
	v.SetDefault("report.archive_retention_days", 30)

	v.SetDefault("injury.enabled", false)
	v.SetDefault("injury.lookback_days", 5)
	v.SetDefault("injury.timeout_seconds", 20)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 5)

	v.SetDefault("scheduler.enabled", false)

	v.SetDefault("control.port", 8090)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
