package markets

import (
	"strings"

	"github.com/yourusername/set-point/internal/models"
)

// FindMarket locates the set market for a prediction by fuzzy player-name
// matching, trying both orientations. Returns nil when no market matches.
func FindMarket(markets []MarketOdds, prediction *models.SetPrediction) *MarketOdds {
	for i := range markets {
		market := &markets[i]
		if PlayersMatch(market.Player1Name, prediction.Player1Name) &&
			PlayersMatch(market.Player2Name, prediction.Player2Name) {
			return market
		}
		if PlayersMatch(market.Player1Name, prediction.Player2Name) &&
			PlayersMatch(market.Player2Name, prediction.Player1Name) {
			// Reorient so market player 1 is prediction player 1
			flipped := MarketOdds{
				MarketID:       market.MarketID,
				Player1Name:    market.Player2Name,
				Player2Name:    market.Player1Name,
				Player1SetOdds: market.Player2SetOdds,
				Player2SetOdds: market.Player1SetOdds,
			}
			return &flipped
		}
	}
	return nil
}

// PlayersMatch fuzzily compares a bookmaker's player name with the
// provider's. Bookmakers abbreviate given names ("N. Djokovic"), so the
// last name must match and any remaining tokens must be compatible.
func PlayersMatch(marketName, providerName string) bool {
	m := tokens(marketName)
	p := tokens(providerName)
	if len(m) == 0 || len(p) == 0 {
		return false
	}

	// Last tokens are the surname in both listings
	if m[len(m)-1] != p[len(p)-1] {
		return false
	}
	if len(m) == 1 || len(p) == 1 {
		return true
	}

	// First tokens must agree at least on the initial
	return compatibleToken(m[0], p[0])
}

// compatibleToken matches full tokens or an abbreviated initial
func compatibleToken(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 1 || strings.HasSuffix(a, ".") {
		return strings.HasPrefix(b, strings.TrimSuffix(a, "."))
	}
	if len(b) == 1 || strings.HasSuffix(b, ".") {
		return strings.HasPrefix(a, strings.TrimSuffix(b, "."))
	}
	return false
}

// tokens lowercases and splits a player name into comparable tokens
func tokens(name string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '-', '\'':
			return ' '
		default:
			return r
		}
	}, strings.ToLower(strings.TrimSpace(name)))
	return strings.Fields(cleaned)
}
