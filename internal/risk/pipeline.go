// Package risk applies the ordered calibration gates that turn raw
// probabilities into a publishable prediction or a skip.
package risk

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/probability"
	"github.com/yourusername/set-point/internal/scoring"
)

// Input carries one match's analysis state into the pipeline
type Input struct {
	Match      *models.Match
	Profile1   *models.PlayerProfile
	Profile2   *models.PlayerProfile
	Factors1   factors.FactorSet
	Factors2   factors.FactorSet
	Scores     scoring.Scores
	MatchProb1 float64
	MatchProb2 float64
	SetProb1   float64
	SetProb2   float64
	// Votes is nil when crowd sentiment could not be fetched
	Votes *models.CrowdVotes
}

// Decision is the pipeline verdict for one match
type Decision struct {
	Skip       bool
	SkipReason models.SkipReasonType
	SkipDetail string

	MatchProb1 float64
	MatchProb2 float64
	SetProb1   float64
	SetProb2   float64

	PredictedWinner string
	Confidence      models.ConfidenceLevel
	RedFlags        []string
	Notes           []string
}

// Pipeline runs the calibration gates in their fixed order
type Pipeline struct {
	cfg       *config.RiskConfig
	bands     []config.MentalBand
	converter *probability.Converter
	logger    *logrus.Logger
}

// NewPipeline creates a risk pipeline. An empty mental-band list in the
// configuration falls back to the calibrated defaults.
func NewPipeline(cfg *config.RiskConfig, converter *probability.Converter, logger *logrus.Logger) *Pipeline {
	bands := cfg.MentalBands
	if len(bands) == 0 {
		bands = config.DefaultMentalBands()
	}
	return &Pipeline{cfg: cfg, bands: bands, converter: converter, logger: logger}
}

// Evaluate runs every gate in order. Gate order matters: sample gates run
// before anything that would interpret thin data as signal, and the
// consistency guard runs last so the published winner always matches the
// final set probabilities.
func (p *Pipeline) Evaluate(in Input) Decision {
	d := Decision{
		MatchProb1: in.MatchProb1,
		MatchProb2: in.MatchProb2,
		SetProb1:   in.SetProb1,
		SetProb2:   in.SetProb2,
	}

	if skip, reason, detail := p.sampleTierGates(in); skip {
		p.logger.WithFields(logrus.Fields{
			"match_id": in.Match.ID,
			"reason":   string(reason),
		}).Debug("Match failed sample tier gate")
		return skipDecision(reason, detail)
	}
	if skip, detail := p.clutchAvailabilityGate(in); skip {
		return skipDecision(models.SkipDataQuality, detail)
	}
	if skip, detail := p.oppositionGates(in, &d); skip {
		return skipDecision(models.SkipDataQuality, detail)
	}

	forceLow := false

	if skip, low := p.coinFlipGate(in, &d); skip {
		return skipDecision(models.SkipCoinFlip, "score gap below coin-flip threshold")
	} else if low {
		forceLow = true
	}

	if p.conflictingSignalsGate(in, &d) {
		if p.cfg.ConflictingSignalsSkipEnabled {
			return skipDecision(models.SkipConflictingSignals,
				"two or more skill signals against the model favorite")
		}
		forceLow = true
	}

	if skip := p.crowdGate(in, &d); skip {
		return skipDecision(models.SkipCrowdConflict,
			fmt.Sprintf("crowd disagreement above %.0f%%", p.cfg.CrowdDisagreementSkip*100))
	}

	p.protectionGates(in, &d)

	if p.cfg.MentalEnabled {
		p.mentalDifferentialGate(in, &d)
	}

	// Crowd and protection gates move match probability; refresh set
	// probabilities before the guard reads them
	p.recomputeSetProbs(in, &d)
	p.consistencyGuard(in, &d, &forceLow)

	d.Confidence = p.gradeConfidence(&d, forceLow)
	return d
}

// sampleTierGates enforces the tiered minimum-sample requirements
func (p *Pipeline) sampleTierGates(in Input) (bool, models.SkipReasonType, string) {
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.Blended.Matches == 0 {
			return true, models.SkipTier0, fmt.Sprintf("no statistics for %s", profile.Name)
		}
	}
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.CurrentYear.Matches < p.cfg.Tier1MinCurrentMatches {
			return true, models.SkipTier1,
				fmt.Sprintf("%s has %d current-season matches", profile.Name, profile.CurrentYear.Matches)
		}
	}
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.CurrentYear.Matches >= p.cfg.PoorWinRateMinMatches &&
			profile.CurrentYear.WinRate() < p.cfg.PoorWinRateCutoff {
			return true, models.SkipTier2,
				fmt.Sprintf("%s won %d of %d current-season matches",
					profile.Name, profile.CurrentYear.Wins, profile.CurrentYear.Matches)
		}
	}
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.Blended.Matches < p.cfg.Tier2MinBlendedMatches {
			return true, models.SkipTier2,
				fmt.Sprintf("%s has %d blended matches", profile.Name, profile.Blended.Matches)
		}
	}
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.Blended.ServePointsPlayed == 0 && len(profile.RecentMatches) == 0 {
			return true, models.SkipTier3,
				fmt.Sprintf("%s has no serve or recent-match data", profile.Name)
		}
	}
	return false, "", ""
}

// clutchAvailabilityGate skips matches where the tiebreak/mental factor
// could not be computed for either player. An unavailable clutch reading
// means no tiebreak data existed and a historical fetch failed, so the
// mental gates downstream would run blind.
func (p *Pipeline) clutchAvailabilityGate(in Input) (bool, string) {
	pairs := []struct {
		name string
		set  factors.FactorSet
	}{
		{in.Profile1.Name, in.Factors1},
		{in.Profile2.Name, in.Factors2},
	}
	for _, pair := range pairs {
		if pair.set[factors.FactorClutch].Status == factors.Unavailable {
			return true, fmt.Sprintf("tiebreak data unavailable for %s", pair.name)
		}
	}
	return false, ""
}

// oppositionGates checks the quality of recent opposition. Sets won against
// ranked opponents are the proof of tour-level results; a favorite whose
// win rate was built on a weak schedule is skipped outright.
func (p *Pipeline) oppositionGates(in Input, d *Decision) (bool, string) {
	type schedule struct {
		setsVsRanked int
		avgRanking   int
		sampled      bool
	}
	profiles := [2]*models.PlayerProfile{in.Profile1, in.Profile2}
	var schedules [2]schedule
	for i, profile := range profiles {
		sum, total := 0, 0
		for _, match := range profile.RecentMatches {
			if match.OpponentRanking <= 0 {
				continue
			}
			total++
			sum += match.OpponentRanking
			if match.OpponentRanking <= p.cfg.VoidOppositionRanking {
				schedules[i].setsVsRanked += match.SetsWon
			}
		}
		if total > 0 {
			schedules[i].avgRanking = sum / total
			schedules[i].sampled = true
		}
	}

	if schedules[0].setsVsRanked == 0 && schedules[1].setsVsRanked == 0 {
		return true, fmt.Sprintf("neither player has won a set against top-%d opposition recently",
			p.cfg.VoidOppositionRanking)
	}

	favoriteIsP1 := d.MatchProb1 >= d.MatchProb2
	for i, profile := range profiles {
		if !schedules[i].sampled || schedules[i].avgRanking <= p.cfg.WeakOppositionRanking {
			continue
		}
		favorite := (i == 0) == favoriteIsP1
		if favorite && profile.CurrentYear.WinRate() >= 0.5 {
			return true, fmt.Sprintf("%s win rate inflated by weak opposition (avg opponent ranking %d)",
				profile.Name, schedules[i].avgRanking)
		}
		d.RedFlags = append(d.RedFlags, fmt.Sprintf("%s: weak recent opposition", profile.Name))
	}
	return false, ""
}

// coinFlipGate handles matches the model cannot separate. Returns
// (skip, forceLow).
func (p *Pipeline) coinFlipGate(in Input, d *Decision) (bool, bool) {
	if in.Scores.Gap() >= p.cfg.CoinFlipThreshold {
		return false, false
	}
	if p.cfg.CoinFlipSkipEnabled {
		return true, false
	}
	// Forced pick: the set-probability leader wins, confidence capped low
	d.Notes = append(d.Notes, "coin flip: set-probability leader selected at low confidence")
	return false, true
}

// conflictingSignalsGate flags matches where at least two of ranking, UTR
// and form point away from the model favorite.
func (p *Pipeline) conflictingSignalsGate(in Input, d *Decision) bool {
	favoriteIsP1 := d.MatchProb1 >= d.MatchProb2

	against := 0
	if in.Profile1.Ranking > 0 && in.Profile2.Ranking > 0 {
		rankingFavorsP1 := in.Profile1.Ranking < in.Profile2.Ranking
		if rankingFavorsP1 != favoriteIsP1 {
			against++
		}
	}
	if in.Profile1.UTR > 0 && in.Profile2.UTR > 0 {
		utrFavorsP1 := in.Profile1.UTR > in.Profile2.UTR
		if utrFavorsP1 != favoriteIsP1 {
			against++
		}
	}
	formFavorsP1 := in.Profile1.RecentForm > in.Profile2.RecentForm
	if formFavorsP1 != favoriteIsP1 {
		against++
	}

	if against >= 2 {
		d.RedFlags = append(d.RedFlags, "conflicting skill signals")
		return true
	}
	return false
}

// crowdGate folds public sentiment in. Heavy disagreement skips the match;
// moderate disagreement walks the favorite back; agreement nudges it up.
// The gate is off entirely below the minimum vote count, and below the
// minimum match or set sample for either player, where crowd sentiment says
// more about name recognition than about the model's blind spots.
func (p *Pipeline) crowdGate(in Input, d *Decision) bool {
	if in.Votes == nil || in.Votes.Total() < p.cfg.CrowdMinVotes {
		return false
	}
	for _, profile := range []*models.PlayerProfile{in.Profile1, in.Profile2} {
		if profile.Blended.Matches < p.cfg.CrowdMinMatchSample ||
			profile.Blended.SetsWon+profile.Blended.SetsLost < p.cfg.CrowdMinSetSample {
			return false
		}
	}

	favoriteIsP1 := d.MatchProb1 >= d.MatchProb2
	favoriteShare := in.Votes.Player1Share()
	if !favoriteIsP1 {
		favoriteShare = 1 - favoriteShare
	}
	disagreement := 1 - favoriteShare

	if disagreement >= p.cfg.CrowdDisagreementSkip {
		return true
	}

	if disagreement >= p.cfg.CrowdDisagreementWarn {
		// Reduction scales linearly from 15% to 50% of the favorite's edge
		span := p.cfg.CrowdDisagreementSkip - p.cfg.CrowdDisagreementWarn
		t := (disagreement - p.cfg.CrowdDisagreementWarn) / span
		reduction := 0.15 + t*0.35
		p.adjustFavorite(d, favoriteIsP1, -reduction)
		d.Notes = append(d.Notes, fmt.Sprintf("crowd disagreement %.0f%%: favorite reduced", disagreement*100))
		return false
	}

	// Agreement boost, 5 to 10% of the edge
	boost := 0.05
	if favoriteShare >= 0.80 {
		boost = 0.10
	}
	p.adjustFavorite(d, favoriteIsP1, boost)
	return false
}

// protectionGates caps overconfident predictions in known failure shapes
func (p *Pipeline) protectionGates(in Input, d *Decision) {
	winnerIsP1 := d.MatchProb1 >= d.MatchProb2
	winner := in.Profile1
	if !winnerIsP1 {
		winner = in.Profile2
	}

	// Terrible form: a favorite in freefall is never a strong pick
	if winner.RecentForm < p.cfg.TerribleFormCutoff {
		p.capFavorite(d, winnerIsP1, p.cfg.TerribleFormCap)
		d.RedFlags = append(d.RedFlags, fmt.Sprintf("%s: terrible recent form", winner.Name))
	}

	// Bagel protection: thin data plus high confidence is how blowout
	// mispredictions happen
	if winner.RedFlagCount() >= 2 && favoriteProb(d, winnerIsP1) > p.cfg.BagelConfidenceFloor {
		p.capFavorite(d, winnerIsP1, p.cfg.BagelCap)
		d.RedFlags = append(d.RedFlags, fmt.Sprintf("%s: data-quality cap applied", winner.Name))
	}

	// Upset protection: backing a big ranking upset needs broad factor
	// support
	loser := in.Profile2
	if !winnerIsP1 {
		loser = in.Profile1
	}
	if winner.Ranking > 0 && loser.Ranking > 0 &&
		loser.Ranking <= p.cfg.UpsetOpponentTop &&
		winner.Ranking-loser.Ranking >= p.cfg.UpsetRankingGap {
		backing := p.factorsBackingWinner(in, winnerIsP1)
		if backing < p.cfg.UpsetMinFactorBacks {
			p.capFavorite(d, winnerIsP1, p.cfg.UpsetCap)
			d.RedFlags = append(d.RedFlags, fmt.Sprintf("upset pick with %d supporting factors", backing))
		}
	}
}

// mentalDifferentialGate shifts probability toward the mentally tougher
// player and recomputes set probabilities afterwards.
func (p *Pipeline) mentalDifferentialGate(in Input, d *Decision) {
	clutch1 := in.Factors1[factors.FactorClutch]
	clutch2 := in.Factors2[factors.FactorClutch]
	if !clutch1.Usable() || !clutch2.Usable() {
		return
	}

	gap := clutch1.Value - clutch2.Value
	magnitude := math.Abs(gap)

	shift := 0.0
	for _, band := range p.bands {
		if magnitude >= band.Gap {
			shift = band.Shift
			break
		}
	}
	if shift == 0 {
		return
	}

	// Shift scales with p(1-p) so extreme probabilities move less
	delta := shift * d.MatchProb1 * d.MatchProb2
	if gap > 0 {
		d.MatchProb1 += delta
		d.MatchProb2 -= delta
	} else {
		d.MatchProb1 -= delta
		d.MatchProb2 += delta
	}
	d.MatchProb1, d.MatchProb2 = p.converter.ApplyHardCeiling(d.MatchProb1, d.MatchProb2)
	p.recomputeSetProbs(in, d)
	d.Notes = append(d.Notes, fmt.Sprintf("mental differential %.2f applied", gap))
}

// consistencyGuard aligns the published winner with the final set
// probabilities, with a form-contradiction override.
func (p *Pipeline) consistencyGuard(in Input, d *Decision, forceLow *bool) {
	winner := in.Profile1.Name
	if d.SetProb2 > d.SetProb1 {
		winner = in.Profile2.Name
	}

	// Form-contradiction override: a large form gap backed by both skill
	// signals beats a marginal probability edge
	formGap := in.Profile1.RecentForm - in.Profile2.RecentForm
	if math.Abs(formGap) > p.cfg.FormContradictionGap {
		formLeaderIsP1 := formGap > 0
		ranking := in.Profile1.Ranking > 0 && in.Profile2.Ranking > 0 &&
			(in.Profile1.Ranking < in.Profile2.Ranking) == formLeaderIsP1
		utr := in.Profile1.UTR > 0 && in.Profile2.UTR > 0 &&
			(in.Profile1.UTR > in.Profile2.UTR) == formLeaderIsP1

		formLeader := in.Profile1.Name
		if !formLeaderIsP1 {
			formLeader = in.Profile2.Name
		}
		if ranking && utr && winner != formLeader {
			winner = formLeader
			*forceLow = true
			d.Notes = append(d.Notes, "form-contradiction override applied")
		}
	}

	d.PredictedWinner = winner
}

// gradeConfidence grades the final prediction
func (p *Pipeline) gradeConfidence(d *Decision, forceLow bool) models.ConfidenceLevel {
	if forceLow {
		return models.ConfidenceLow
	}

	winnerProb := math.Max(d.MatchProb1, d.MatchProb2)
	switch {
	case winnerProb >= 0.65 && len(d.RedFlags) == 0:
		return models.ConfidenceHigh
	case winnerProb >= 0.55 && len(d.RedFlags) <= 1:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// factorsBackingWinner counts applied contributions favoring the winner
func (p *Pipeline) factorsBackingWinner(in Input, winnerIsP1 bool) int {
	backing := 0
	for _, contribution := range in.Scores.Contributions {
		if !contribution.Applied {
			continue
		}
		if (contribution.Signed > 0) == winnerIsP1 {
			backing++
		}
	}
	return backing
}

// adjustFavorite moves the favorite's probability by a fraction of its
// edge over 0.5, then re-applies bounds and set probabilities.
func (p *Pipeline) adjustFavorite(d *Decision, favoriteIsP1 bool, fraction float64) {
	prob := favoriteProb(d, favoriteIsP1)
	edge := prob - 0.5
	prob += fraction * edge
	setFavoriteProb(d, favoriteIsP1, prob)
	d.MatchProb1, d.MatchProb2 = p.converter.ApplyHardCeiling(d.MatchProb1, d.MatchProb2)
}

// capFavorite caps the favorite's probability and rebalances the pair
func (p *Pipeline) capFavorite(d *Decision, favoriteIsP1 bool, cap float64) {
	if favoriteProb(d, favoriteIsP1) <= cap {
		return
	}
	setFavoriteProb(d, favoriteIsP1, cap)
}

func favoriteProb(d *Decision, favoriteIsP1 bool) float64 {
	if favoriteIsP1 {
		return d.MatchProb1
	}
	return d.MatchProb2
}

func setFavoriteProb(d *Decision, favoriteIsP1 bool, prob float64) {
	if favoriteIsP1 {
		d.MatchProb1 = prob
		d.MatchProb2 = 1 - prob
	} else {
		d.MatchProb2 = prob
		d.MatchProb1 = 1 - prob
	}
}

// recomputeSetProbs refreshes set probabilities from the current match
// probabilities. Any gate that moves match probability must call this.
func (p *Pipeline) recomputeSetProbs(in Input, d *Decision) {
	format := in.Match.Format()
	d.SetProb1 = p.converter.SetProbability(d.MatchProb1, format)
	d.SetProb2 = p.converter.SetProbability(d.MatchProb2, format)
}

// skipDecision builds a skip verdict
func skipDecision(reason models.SkipReasonType, detail string) Decision {
	return Decision{Skip: true, SkipReason: reason, SkipDetail: detail}
}
