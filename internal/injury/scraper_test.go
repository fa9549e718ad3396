package injury

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/config"
)

const injuryPage = `
<html><body>
<table class="injury-list">
  <tr><th>Player</th><th>Reason</th><th>Listed</th></tr>
  <tr><td>Rafael Nadal</td><td>Hip</td><td>2026-05-01</td></tr>
  <tr><td>Andy Murray</td><td>Ankle</td><td>02 May 2026</td></tr>
  <tr><td>Stan Wawrinka</td><td>Knee</td><td>not a date</td></tr>
  <tr><td></td><td>Shoulder</td><td>2026-05-03</td></tr>
  <tr><td>Kei Nishikori</td><td>2026-05-04</td></tr>
</table>
</body></html>`

func newTestScraper(t *testing.T, url string) *Scraper {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewScraper(&config.InjuryConfig{Enabled: true, URL: url, LookbackDays: 30}, logger)
}

func TestParseListings(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(injuryPage))
	require.NoError(t, err)

	listings := parseListings(doc)
	require.Len(t, listings, 3)

	assert.Equal(t, "Rafael Nadal", listings[0].PlayerName)
	assert.Equal(t, "Hip", listings[0].Reason)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), listings[0].ListedAt)

	// Second date layout parses too
	assert.Equal(t, "Andy Murray", listings[1].PlayerName)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), listings[1].ListedAt)

	// Two-cell row has no reason column
	assert.Equal(t, "Kei Nishikori", listings[2].PlayerName)
	assert.Equal(t, "", listings[2].Reason)
}

func TestNamesMatch(t *testing.T) {
	assert.True(t, namesMatch("Rafael Nadal", "Rafael Nadal"))
	assert.True(t, namesMatch("R. Nadal", "Rafael Nadal"))
	assert.True(t, namesMatch("Nadal", "Rafael Nadal"))
	assert.True(t, namesMatch("rafael nadal", "RAFAEL NADAL"))
	assert.False(t, namesMatch("Rafael Nadal", "Toni Nadal"))
	assert.False(t, namesMatch("Rafael Nadal", "Rafael Ruud"))
	assert.False(t, namesMatch("", "Rafael Nadal"))
}

func TestRecentlyListed(t *testing.T) {
	s := newTestScraper(t, "http://unused")
	s.listings = []Listing{
		{PlayerName: "Rafael Nadal", ListedAt: time.Now().AddDate(0, 0, -3)},
		{PlayerName: "Andy Murray", ListedAt: time.Now().AddDate(0, 0, -90)},
	}

	assert.True(t, s.RecentlyListed("Rafael Nadal", 30*24*time.Hour))
	assert.True(t, s.RecentlyListed("R. Nadal", 30*24*time.Hour))
	assert.False(t, s.RecentlyListed("Andy Murray", 30*24*time.Hour), "stale listing outside the window")
	assert.False(t, s.RecentlyListed("Carlos Alcaraz", 30*24*time.Hour))
}

func TestRefreshFetchesAndCaches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, injuryPage)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	require.NoError(t, s.Refresh(context.Background()))

	s.mu.RLock()
	count := len(s.listings)
	s.mu.RUnlock()
	assert.Equal(t, 3, count)
}

func TestRefreshFailureKeepsPreviousCopy(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, injuryPage)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL)
	require.NoError(t, s.Refresh(context.Background()))
	require.Error(t, s.Refresh(context.Background()))

	// The first fetch's listings survive the failed refresh
	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.listings, 3)
	assert.Equal(t, "Rafael Nadal", s.listings[0].PlayerName)
}
