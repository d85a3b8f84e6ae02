package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/scanner"
	"github.com/0xLaVaN/prescience/internal/store"
	"github.com/0xLaVaN/prescience/internal/types"
)

type stubSource struct {
	markets []types.Market
	err     error
}

func (s *stubSource) ListActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > len(s.markets) {
		limit = len(s.markets)
	}
	return s.markets[:limit], nil
}

func (s *stubSource) Trades(ctx context.Context, conditionID string, limit int) []types.Trade {
	return nil
}

func newTestServer(t *testing.T, source scanner.MarketSource) (*Server, *store.Files) {
	t.Helper()
	files, err := store.NewFiles(t.TempDir())
	require.NoError(t, err)

	cfg := config.DefaultThresholds()
	broad := scanner.NewBroadScanner(source, cfg.Tier2, false)
	deep := scanner.NewDeepScanner(source, cfg.Tier1)
	handlers := NewHandlers(source, broad, deep, files)
	return New("127.0.0.1:0", handlers, "secret-token"), files
}

func spikeMarket() types.Market {
	return types.Market{
		ConditionID:   "0xspike",
		Slug:          "spike-market",
		Question:      "Will the spike hold?",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.62","0.38"]`,
		Volume24hr:    2000,
		Liquidity:     100,
		EndDate:       time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	}
}

func get(t *testing.T, s *Server, path string, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{})
	rec, body := get(t, s, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestTier2MetaAndCaching(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{markets: []types.Market{spikeMarket()}})

	rec, body := get(t, s, "/tier2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["markets_processed"])
	assert.Equal(t, float64(1), meta["anomalies_detected"])
	assert.Equal(t, float64(1), meta["tier1_promotion_candidates"])
	assert.Equal(t, "tier2-broad-scan", meta["engine"])
	assert.Equal(t, float64(2), meta["next_scan_in_hours"])
	assert.Equal(t, false, meta["cache_hit"])
	assert.NotContains(t, meta, "cache_age_minutes")

	_, body = get(t, s, "/tier2", nil)
	meta = body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "cache_age_minutes")
}

func TestTier2UpstreamFailure(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{err: fmt.Errorf("gamma down")})

	rec, body := get(t, s, "/tier2", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "broad scan failed", body["error"])
	assert.Equal(t, "gamma down", body["detail"])
}

func TestScanServesDeepSnapshots(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{markets: []types.Market{spikeMarket()}})

	rec, body := get(t, s, "/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	scan := body["scan"].([]interface{})
	require.Len(t, scan, 1)
	snap := scan[0].(map[string]interface{})
	assert.Equal(t, "spike-market", snap["slug"])
	assert.Greater(t, snap["threat_score"].(float64), 0.0)

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["markets_analysed"])
}

func TestScanFullRequiresBearerToken(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{markets: []types.Market{spikeMarket()}})

	rec, body := get(t, s, "/scan/full", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", body["error"])

	rec, _ = get(t, s, "/scan/full", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = get(t, s, "/scan/full", map[string]string{"Authorization": "Bearer secret-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	meta := body["meta"].(map[string]interface{})
	assert.Contains(t, meta, "pro_subscribers")
	assert.Contains(t, meta, "delay_queue_depth")
}

func TestPulse(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{markets: []types.Market{spikeMarket()}})

	rec, body := get(t, s, "/pulse", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	pulse := body["pulse"].([]interface{})
	require.Len(t, pulse, 1)
	entry := pulse[0].(map[string]interface{})
	assert.Equal(t, "spike-market", entry["slug"])
	assert.Equal(t, 0.62, entry["yes_price"])
}

func TestScorecardRebuildsWhenCacheMissing(t *testing.T) {
	s, files := newTestServer(t, &stubSource{})
	require.NoError(t, files.WritePostLog([]types.PostLogEntry{
		{Slug: "alpha", Question: "Alpha?", Score: 7, Timestamp: time.Now().Unix()},
	}))

	rec, body := get(t, s, "/scorecard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total_calls"])
	assert.Equal(t, float64(1), stats["open"])
}

func TestScorecardServesCachedFileVerbatim(t *testing.T) {
	s, files := newTestServer(t, &stubSource{})
	require.NoError(t, files.WriteScorecard(types.Scorecard{
		Stats: types.ScorecardStats{TotalCalls: 42, WinRate: "75.0", CumulativePnl: "+9.9%"},
	}))

	rec, body := get(t, s, "/scorecard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(42), stats["total_calls"])
	assert.Equal(t, "75.0", stats["win_rate"])
}

func TestNewsFeed(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{markets: []types.Market{spikeMarket()}})

	rec, body := get(t, s, "/news", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := body["items"].([]interface{})
	require.NotEmpty(t, items)
	item := items[0].(map[string]interface{})
	assert.Contains(t, item, "headline")
	assert.Contains(t, item, "severity")
}
