package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/logger"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/probability"
	"github.com/yourusername/set-point/internal/provider"
	"github.com/yourusername/set-point/internal/risk"
	"github.com/yourusername/set-point/internal/scoring"
)

// InjuryChecker reports whether a player appears on a recent injury or
// retirement list.
type InjuryChecker interface {
	RecentlyListed(name string, within time.Duration) bool
}

// Outcome is the result of analyzing one match: exactly one of Prediction
// or Skip is set.
type Outcome struct {
	Match      *models.Match
	Prediction *models.SetPrediction
	Skip       *models.SkipRecord
}

// MatchOrchestrator runs the full analysis flow for a single match:
// profiles, factors, scoring, probability conversion and risk calibration.
type MatchOrchestrator struct {
	cfg           *config.Config
	builder       *ProfileBuilder
	factorEngine  *factors.Engine
	scoringEngine *scoring.Engine
	converter     *probability.Converter
	pipeline      *risk.Pipeline
	statsProvider provider.StatisticsProvider
	injuries      InjuryChecker
	audit         *logger.AuditLogger
	logger        *logrus.Logger
}

// NewMatchOrchestrator wires the orchestrator from its components.
// injuries may be nil when injury checking is disabled.
func NewMatchOrchestrator(
	cfg *config.Config,
	statsProvider provider.StatisticsProvider,
	injuries InjuryChecker,
	baseLogger *logrus.Logger,
) *MatchOrchestrator {
	factorEngine := factors.NewEngine(&cfg.Analysis)
	converter := probability.NewConverter(&cfg.Probability)
	return &MatchOrchestrator{
		cfg:           cfg,
		builder:       NewProfileBuilder(statsProvider, factorEngine, &cfg.Analysis, baseLogger),
		factorEngine:  factorEngine,
		scoringEngine: scoring.NewEngine(&cfg.Analysis),
		converter:     converter,
		pipeline:      risk.NewPipeline(&cfg.Risk, converter, baseLogger),
		statsProvider: statsProvider,
		injuries:      injuries,
		audit:         logger.NewAuditLogger(baseLogger),
		logger:        baseLogger,
	}
}

// AnalyzeMatch runs the full flow for one match. Data gaps come back as a
// skip outcome; only network-class failures return an error, so the batch
// runner can count them toward the circuit breaker. Panics from calculator
// bugs are converted to a skip at this boundary.
func (o *MatchOrchestrator) AnalyzeMatch(ctx context.Context, match *models.Match) (outcome Outcome, err error) {
	outcome.Match = match

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"match_id": match.ID,
				"panic":    fmt.Sprintf("%v", r),
			}).Error("Recovered panic during match analysis")
			outcome.Prediction = nil
			outcome.Skip = models.NewSkipRecord(match, models.SkipOther, fmt.Sprintf("internal error: %v", r))
			err = nil
		}
	}()

	if skip := o.injuryGate(match); skip != nil {
		outcome.Skip = skip
		return outcome, nil
	}

	profile1, profile2, skip, err := o.buildProfiles(ctx, match)
	if err != nil {
		return outcome, err
	}
	if skip != nil {
		outcome.Skip = skip
		return outcome, nil
	}

	decision, contributions := o.evaluate(ctx, match, profile1, profile2)
	if decision.Skip {
		outcome.Skip = models.NewSkipRecord(match, decision.SkipReason, decision.SkipDetail).
			WithSamples(profile1, profile2)
		return outcome, nil
	}

	outcome.Prediction = o.assemblePrediction(ctx, match, profile1, profile2, decision, contributions)
	return outcome, nil
}

// injuryGate skips matches with a recently listed player
func (o *MatchOrchestrator) injuryGate(match *models.Match) *models.SkipRecord {
	if o.injuries == nil || !o.cfg.Injury.Enabled {
		return nil
	}
	within := time.Duration(o.cfg.Injury.LookbackDays) * 24 * time.Hour
	for _, player := range []models.MatchPlayer{match.Player1, match.Player2} {
		if o.injuries.RecentlyListed(player.Name, within) {
			return models.NewSkipRecord(match, models.SkipInjury,
				fmt.Sprintf("%s on recent injury list", player.Name))
		}
	}
	return nil
}

// buildProfiles builds both player profiles. Missing player records map to
// a tier-0 skip; network failures propagate.
func (o *MatchOrchestrator) buildProfiles(ctx context.Context, match *models.Match) (*models.PlayerProfile, *models.PlayerProfile, *models.SkipRecord, error) {
	profile1, err := o.builder.Build(ctx, match.Player1.ID, match.Surface)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return nil, nil, models.NewSkipRecord(match, models.SkipTier0,
				fmt.Sprintf("no provider record for %s", match.Player1.Name)), nil
		}
		return nil, nil, nil, err
	}

	profile2, err := o.builder.Build(ctx, match.Player2.ID, match.Surface)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return nil, nil, models.NewSkipRecord(match, models.SkipTier0,
				fmt.Sprintf("no provider record for %s", match.Player2.Name)).WithSamples(profile1, nil), nil
		}
		return nil, nil, nil, err
	}

	return profile1, profile2, nil, nil
}

// evaluate runs factors, scoring, probability conversion and the risk
// pipeline for a pair of profiles.
func (o *MatchOrchestrator) evaluate(ctx context.Context, match *models.Match, profile1, profile2 *models.PlayerProfile) (risk.Decision, []models.FactorContribution) {
	factors1 := o.factorEngine.Compute(profile1, match.Surface)
	factors2 := o.factorEngine.Compute(profile2, match.Surface)

	scores := o.scoringEngine.Score(scoring.Input{
		Match:    match,
		Profile1: profile1,
		Profile2: profile2,
		Factors1: factors1,
		Factors2: factors2,
	})

	p1, p2 := o.converter.MatchProbabilities(scores.Score1, scores.Score2)
	p1, p2 = o.converter.ApplyQualityCaps(p1, p2, profile1.RedFlagCount(), profile2.RedFlagCount())
	p1, p2 = o.converter.ApplyHardCeiling(p1, p2)

	format := match.Format()
	set1 := o.converter.SetProbability(p1, format)
	set2 := o.converter.SetProbability(p2, format)

	decision := o.pipeline.Evaluate(risk.Input{
		Match:      match,
		Profile1:   profile1,
		Profile2:   profile2,
		Factors1:   factors1,
		Factors2:   factors2,
		Scores:     scores,
		MatchProb1: p1,
		MatchProb2: p2,
		SetProb1:   set1,
		SetProb2:   set2,
		Votes:      o.fetchVotes(ctx, match),
	})
	return decision, scores.Contributions
}

// fetchVotes fetches crowd sentiment; failures degrade to no sentiment
// rather than failing the match.
func (o *MatchOrchestrator) fetchVotes(ctx context.Context, match *models.Match) *models.CrowdVotes {
	votes, err := o.statsProvider.MatchVotes(ctx, match.ID)
	if err != nil {
		o.logger.WithFields(logrus.Fields{
			"match_id": match.ID,
			"error":    err.Error(),
		}).Debug("Crowd votes unavailable")
		return nil
	}
	return votes
}

// assemblePrediction builds the final prediction record, including the
// over-2.5-sets estimate and total-games lines.
func (o *MatchOrchestrator) assemblePrediction(ctx context.Context, match *models.Match, profile1, profile2 *models.PlayerProfile, decision risk.Decision, contributions []models.FactorContribution) *models.SetPrediction {
	format := match.Format()

	h2h := o.fetchHeadToHead(ctx, match)
	overSets := o.converter.OverTwoHalfSets(decision.MatchProb1, h2h.ThreeSetRate, h2h.HasHistory())

	serve1 := o.factorEngine.ServeDominance(&profile1.Blended)
	serve2 := o.factorEngine.ServeDominance(&profile2.Blended)
	expectedGames, gameLines := o.converter.ExpectedGames(probability.GamesInput{
		MatchProb:         decision.MatchProb1,
		Format:            format,
		OverTwoHalfSets:   overSets,
		ServeDominanceAvg: (serve1.Value + serve2.Value) / 2,
		Surface:           match.Surface,
	})

	prediction := &models.SetPrediction{
		ID:              uuid.New(),
		MatchID:         match.ID,
		Tournament:      match.Tournament,
		Surface:         models.NormalizeSurface(match.Surface),
		Format:          format,
		Player1Name:     profile1.Name,
		Player2Name:     profile2.Name,
		PredictedWinner: decision.PredictedWinner,
		MatchProb1:      decision.MatchProb1,
		MatchProb2:      decision.MatchProb2,
		SetProb1:        decision.SetProb1,
		SetProb2:        decision.SetProb2,
		OverTwoHalfSets: overSets,
		ExpectedGames:   expectedGames,
		GameLines:       gameLines,
		Confidence:      decision.Confidence,
		Contributions:   contributions,
		RedFlags:        decision.RedFlags,
		Notes:           decision.Notes,
		CreatedAt:       time.Now().UTC(),
	}

	o.audit.LogPrediction(prediction.ID.String(), match.ID, prediction.PredictedWinner,
		prediction.WinnerSetProb(), prediction.Confidence.String(), format.String())

	return prediction
}

// fetchHeadToHead fetches and summarizes prior meetings; failures degrade
// to an empty history.
func (o *MatchOrchestrator) fetchHeadToHead(ctx context.Context, match *models.Match) *HeadToHead {
	meetings, err := o.statsProvider.HeadToHead(ctx, match.Player1.ID, match.Player2.ID)
	if err != nil {
		return &HeadToHead{}
	}
	return AnalyzeHeadToHead(match.Player1.ID, meetings, match.Surface)
}
