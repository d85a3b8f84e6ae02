// handlers.go - Endpoint implementations.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/0xLaVaN/prescience/internal/news"
	"github.com/0xLaVaN/prescience/internal/scanner"
	"github.com/0xLaVaN/prescience/internal/scorecard"
	"github.com/0xLaVaN/prescience/internal/store"
	"github.com/0xLaVaN/prescience/internal/types"
)

const (
	listingLimit  = 200
	deepVolFloor  = 1000
	deepCandidate = 25
	pulseSize     = 12
	newsSize      = 8
	deepCacheTTL  = 30 * time.Minute
)

// Handlers holds the pipeline pieces the endpoints read from.
type Handlers struct {
	source scanner.MarketSource
	broad  *scanner.BroadScanner
	deep   *scanner.DeepScanner
	files  *store.Files

	deepCache *scanner.Cache[[]types.MarketSnapshot]
}

// NewHandlers wires the endpoints to the pipeline.
func NewHandlers(source scanner.MarketSource, broad *scanner.BroadScanner, deep *scanner.DeepScanner, files *store.Files) *Handlers {
	return &Handlers{
		source:    source,
		broad:     broad,
		deep:      deep,
		files:     files,
		deepCache: scanner.NewCache[[]types.MarketSnapshot](deepCacheTTL),
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// Scan serves the tier-1 feed.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.deepScan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan failed", err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"scan": snapshots,
		"meta": map[string]interface{}{
			"markets_analysed": len(snapshots),
			"timestamp":        time.Now().UTC(),
		},
	})
}

// ScanFull is the admin variant with operational counters attached.
func (h *Handlers) ScanFull(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.deepScan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan failed", err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"scan": snapshots,
		"meta": map[string]interface{}{
			"markets_analysed":  len(snapshots),
			"pro_subscribers":   h.files.SubscriberCount(),
			"delay_queue_depth": h.files.DelayQueueDepth(),
			"timestamp":         time.Now().UTC(),
		},
	})
}

// Tier2 serves the ranked anomaly index with cache annotations.
func (h *Handlers) Tier2(w http.ResponseWriter, r *http.Request) {
	result, cacheHit, cacheAge, err := h.broad.Scan(r.Context(), listingLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "broad scan failed", err.Error())
		return
	}

	meta := map[string]interface{}{
		"markets_processed":          result.MarketsProcessed,
		"anomalies_detected":         len(result.Index),
		"tier1_promotion_candidates": result.PromotionCandidates(),
		"timestamp":                  result.ScannedAt.UTC(),
		"engine":                     "tier2-broad-scan",
		"next_scan_in_hours":         2,
		"cache_hit":                  cacheHit,
	}
	if cacheHit {
		meta["cache_age_minutes"] = int(cacheAge.Minutes())
	}

	writeJSON(w, map[string]interface{}{
		"index": result.Index,
		"meta":  meta,
	})
}

// News serves the synthesized headline feed.
func (h *Handlers) News(w http.ResponseWriter, r *http.Request) {
	result, _, _, err := h.broad.Scan(r.Context(), listingLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "news feed failed", err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"items": news.FromIndex(result.Index, newsSize, time.Now()),
	})
}

// Scorecard serves the cached snapshot verbatim, rebuilding it from the
// persisted records when the cache file is missing.
func (h *Handlers) Scorecard(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.files.ReadScorecard()
	if !ok {
		sc = scorecard.Aggregate(h.files.ReadPostLog(), h.files.ReadReceipts(), h.files.ReadLiveProofs(), time.Now())
	}
	writeJSON(w, sc)
}

// pulseEntry is one row of the hot-markets ticker.
type pulseEntry struct {
	Slug       string  `json:"slug"`
	Question   string  `json:"question"`
	YesPrice   float64 `json:"yes_price"`
	Volume24hr float64 `json:"volume_24hr"`
}

// Pulse serves the lightweight hot-markets ticker.
func (h *Handlers) Pulse(w http.ResponseWriter, r *http.Request) {
	markets, err := h.source.ListActiveMarkets(r.Context(), pulseSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pulse failed", err.Error())
		return
	}

	entries := make([]pulseEntry, 0, len(markets))
	for i := range markets {
		m := &markets[i]
		entry := pulseEntry{
			Slug:       m.Key(),
			Question:   m.Question,
			Volume24hr: m.Volume24hr,
		}
		if prices := m.ParsedPrices(); len(prices) > 0 {
			entry.YesPrice = prices[0]
		}
		entries = append(entries, entry)
	}
	writeJSON(w, map[string]interface{}{"pulse": entries})
}

// deepScan runs tier-2, promotes candidates and deep-scans them, caching
// the result between publisher ticks.
func (h *Handlers) deepScan(ctx context.Context) ([]types.MarketSnapshot, error) {
	if cached, _, ok := h.deepCache.Get(); ok {
		return cached, nil
	}

	markets, err := h.source.ListActiveMarkets(ctx, listingLimit)
	if err != nil {
		return nil, err
	}

	result, _, _, err := h.broad.Scan(ctx, listingLimit)
	if err != nil {
		return nil, err
	}
	promoted := make(map[string]bool)
	for _, e := range result.Index {
		if e.PromoteToTier1 {
			promoted[e.ConditionID] = true
		}
	}

	candidates := make([]types.Market, 0, deepCandidate)
	for _, m := range markets {
		if len(candidates) >= deepCandidate {
			break
		}
		if promoted[m.ConditionID] || m.Volume24hr >= deepVolFloor {
			candidates = append(candidates, m)
		}
	}

	snapshots := h.deep.Scan(ctx, candidates)
	h.deepCache.Put(snapshots)
	return snapshots, nil
}
