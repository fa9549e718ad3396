package models

import (
	"time"

	"github.com/google/uuid"
)

// SkipReasonType classifies why a match was excluded from predictions
type SkipReasonType string

const (
	SkipTier0              SkipReasonType = "TIER_0"
	SkipTier1              SkipReasonType = "TIER_1"
	SkipTier2              SkipReasonType = "TIER_2"
	SkipTier3              SkipReasonType = "TIER_3"
	SkipDataQuality        SkipReasonType = "DATA_QUALITY"
	SkipCircuitBreaker     SkipReasonType = "CIRCUIT_BREAKER"
	SkipCoinFlip           SkipReasonType = "COIN_FLIP"
	SkipConflictingSignals SkipReasonType = "CONFLICTING_SIGNALS"
	SkipCrowdConflict      SkipReasonType = "CROWD_CONFLICT"
	SkipInjury             SkipReasonType = "INJURY"
	SkipOther              SkipReasonType = "OTHER"
)

// PlayerSample summarizes a player's current-season sample at skip time, so
// the audit trail shows how much data the decision was based on.
type PlayerSample struct {
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// SkipRecord is the audit entry for one skipped match
type SkipRecord struct {
	ID            uuid.UUID      `json:"id"`
	MatchID       string         `json:"match_id"`
	Player1Name   string         `json:"player1_name"`
	Player2Name   string         `json:"player2_name"`
	Reason        SkipReasonType `json:"reason"`
	Detail        string         `json:"detail"`
	Player1Sample PlayerSample   `json:"player1_sample"`
	Player2Sample PlayerSample   `json:"player2_sample"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewSkipRecord builds a skip record for a match
func NewSkipRecord(match *Match, reason SkipReasonType, detail string) *SkipRecord {
	return &SkipRecord{
		ID:          uuid.New(),
		MatchID:     match.ID,
		Player1Name: match.Player1.Name,
		Player2Name: match.Player2.Name,
		Reason:      reason,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithSamples attaches both players' current-season sample stats. Either
// profile may be nil when the skip happened before it was built.
func (s *SkipRecord) WithSamples(profile1, profile2 *PlayerProfile) *SkipRecord {
	s.Player1Sample = sampleFrom(profile1)
	s.Player2Sample = sampleFrom(profile2)
	return s
}

func sampleFrom(profile *PlayerProfile) PlayerSample {
	if profile == nil {
		return PlayerSample{}
	}
	return PlayerSample{
		Matches: profile.CurrentYear.Matches,
		Wins:    profile.CurrentYear.Wins,
		WinRate: profile.CurrentYear.WinRate(),
	}
}
