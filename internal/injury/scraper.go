// Package injury scrapes the injured-players list used to skip matches
// with a recently withdrawn or retired player.
package injury

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

// Listing is one entry on the injury list
type Listing struct {
	PlayerName string
	Reason     string
	ListedAt   time.Time
}

// dateLayouts covers the formats the list has been seen using
var dateLayouts = []string{"2006-01-02", "02 Jan 2006", "Jan 2, 2006"}

// Scraper fetches and caches the injured-players list. The list changes
// slowly, so one fetch per batch is plenty; Refresh is called by the
// runner before each batch and RecentlyListed reads the cached copy.
type Scraper struct {
	cfg    *config.InjuryConfig
	client *http.Client
	logger *logrus.Logger

	mu        sync.RWMutex
	listings  []Listing
	fetchedAt time.Time
}

// NewScraper creates an injury list scraper
func NewScraper(cfg *config.InjuryConfig, logger *logrus.Logger) *Scraper {
	timeout := 15 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Refresh fetches the current injury list. A failed refresh keeps the
// previous copy so a flaky list never blocks a batch.
func (s *Scraper) Refresh(ctx context.Context) error {
	listings, err := s.fetch(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Injury list refresh failed, keeping previous copy")
		return err
	}

	s.mu.Lock()
	s.listings = listings
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.WithField("listings", len(listings)).Debug("Injury list refreshed")
	return nil
}

// RecentlyListed reports whether the player appears on the list with a
// listing date inside the window. Matching is fuzzy on the last name plus
// a compatible first token, the same rule used for market names.
func (s *Scraper) RecentlyListed(name string, within time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	for _, listing := range s.listings {
		if listing.ListedAt.Before(cutoff) {
			continue
		}
		if namesMatch(listing.PlayerName, name) {
			return true
		}
	}
	return false
}

func (s *Scraper) fetch(ctx context.Context) ([]Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("injury list returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing injury list: %w", err)
	}

	return parseListings(doc), nil
}

// parseListings walks the injury table rows. Rows missing a name or a
// parseable date are dropped.
func parseListings(doc *goquery.Document) []Listing {
	var listings []Listing

	doc.Find("table.injury-list tr, table#injuries tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		name := strings.TrimSpace(cells.Eq(0).Text())
		dateText := strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		if name == "" {
			return
		}

		listedAt, ok := parseDate(dateText)
		if !ok {
			return
		}

		reason := ""
		if cells.Length() >= 3 {
			reason = strings.TrimSpace(cells.Eq(1).Text())
		}

		listings = append(listings, Listing{
			PlayerName: name,
			Reason:     reason,
			ListedAt:   listedAt,
		})
	})

	return listings
}

func parseDate(text string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// namesMatch fuzzily compares two player names: last tokens equal, first
// tokens compatible (allowing initials).
func namesMatch(a, b string) bool {
	at := strings.Fields(strings.ToLower(strings.TrimSpace(a)))
	bt := strings.Fields(strings.ToLower(strings.TrimSpace(b)))
	if len(at) == 0 || len(bt) == 0 {
		return false
	}
	if at[len(at)-1] != bt[len(bt)-1] {
		return false
	}
	if len(at) == 1 || len(bt) == 1 {
		return true
	}
	first1 := strings.TrimSuffix(at[0], ".")
	first2 := strings.TrimSuffix(bt[0], ".")
	return strings.HasPrefix(first1, first2) || strings.HasPrefix(first2, first1)
}
