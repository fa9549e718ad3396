package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/provider"
)

const listingPageSize = 50

// HTTPMarketsProvider fetches set markets from the bookmaker aggregator
// API, following its page-based listing.
type HTTPMarketsProvider struct {
	cfg    *config.MarketsConfig
	client *provider.RateLimitedHTTPClient
	logger *logrus.Logger
}

// NewHTTPMarketsProvider creates an HTTP markets provider
func NewHTTPMarketsProvider(cfg *config.MarketsConfig, logger *logrus.Logger) *HTTPMarketsProvider {
	httpCfg := provider.DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPMarketsProvider{
		cfg:    cfg,
		client: provider.NewRateLimitedHTTPClient(httpCfg, logger),
		logger: logger,
	}
}

// marketPage mirrors the aggregator's paged listing payload
type marketPage struct {
	Markets []struct {
		MarketID    string `json:"market_id"`
		Player1Name string `json:"player1_name"`
		Player2Name string `json:"player2_name"`
		Player1Odds string `json:"player1_set_odds"`
		Player2Odds string `json:"player2_set_odds"`
	} `json:"markets"`
	HasMore bool `json:"has_more"`
}

// ListSetMarkets fetches every open "to win a set" market, walking the
// paged listing until exhausted.
func (p *HTTPMarketsProvider) ListSetMarkets(ctx context.Context) ([]MarketOdds, error) {
	var all []MarketOdds

	for page := 1; ; page++ {
		listing, err := p.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, m := range listing.Markets {
			odds1, err1 := decimal.NewFromString(m.Player1Odds)
			odds2, err2 := decimal.NewFromString(m.Player2Odds)
			if err1 != nil || err2 != nil {
				p.logger.WithFields(logrus.Fields{
					"market_id": m.MarketID,
				}).Warn("Unparseable odds in market listing, skipping entry")
				continue
			}
			all = append(all, MarketOdds{
				MarketID:       m.MarketID,
				Player1Name:    m.Player1Name,
				Player2Name:    m.Player2Name,
				Player1SetOdds: odds1,
				Player2SetOdds: odds2,
			})
		}

		if !listing.HasMore {
			break
		}
	}

	p.logger.WithField("markets", len(all)).Debug("Fetched set market listing")
	return all, nil
}

func (p *HTTPMarketsProvider) fetchPage(ctx context.Context, page int) (*marketPage, error) {
	url := fmt.Sprintf("%s/markets/sets?page=%d&page_size=%d", p.cfg.BaseURL, page, listingPageSize)

	headers := http.Header{}
	if p.cfg.APIKey != "" {
		headers.Set("X-Api-Key", p.cfg.APIKey)
	}

	resp, err := p.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, models.ErrMarketNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading market listing: %v", models.ErrNetworkFailure, err)
	}

	var listing marketPage
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decoding market listing page %d: %w", page, err)
	}
	return &listing, nil
}

// Close releases the underlying HTTP client
func (p *HTTPMarketsProvider) Close() error {
	return p.client.Close()
}
