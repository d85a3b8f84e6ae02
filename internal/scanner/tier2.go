// Package scanner implements the two-tier market scanning pipeline.
//
// tier2.go - Cheap broad sweep over all active markets. Produces a ranked
// anomaly index and flags the markets worth the expensive tier-1 pass.
package scanner

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/types"
	"github.com/0xLaVaN/prescience/internal/wallets"
)

// MarketSource is the slice of the upstream adapter the scanners need.
type MarketSource interface {
	ListActiveMarkets(ctx context.Context, limit int) ([]types.Market, error)
	Trades(ctx context.Context, conditionID string, limit int) []types.Trade
}

// Tier2Result is one broad-scan run plus its bookkeeping.
type Tier2Result struct {
	Index            []types.AnomalyEntry `json:"index"`
	MarketsProcessed int                  `json:"markets_processed"`
	ScannedAt        time.Time            `json:"scanned_at"`
}

// PromotionCandidates counts entries flagged for tier-1.
func (r *Tier2Result) PromotionCandidates() int {
	n := 0
	for _, e := range r.Index {
		if e.PromoteToTier1 {
			n++
		}
	}
	return n
}

// BroadScanner runs the tier-2 sweep.
type BroadScanner struct {
	source MarketSource
	cfg    config.Tier2Thresholds

	// withTrades enables the 50-trade fresh-wallet sub-analysis; off it
	// is a pure listing-derived sweep.
	withTrades bool

	cache *Cache[*Tier2Result]
}

// NewBroadScanner creates a tier-2 scanner.
func NewBroadScanner(source MarketSource, cfg config.Tier2Thresholds, withTrades bool) *BroadScanner {
	return &BroadScanner{
		source:     source,
		cfg:        cfg,
		withTrades: withTrades,
		cache:      NewCache[*Tier2Result](cfg.CacheTTL()),
	}
}

// Scan returns the anomaly index, serving the cached run when it is
// still inside the TTL. cacheHit and cacheAge report what was served.
func (s *BroadScanner) Scan(ctx context.Context, limit int) (result *Tier2Result, cacheHit bool, cacheAge time.Duration, err error) {
	if cached, age, ok := s.cache.Get(); ok {
		return cached, true, age, nil
	}

	result, err = s.scan(ctx, limit)
	if err != nil {
		return nil, false, 0, err
	}
	s.cache.Put(result)
	return result, false, 0, nil
}

// scan performs one uncached sweep. Per-market failures are swallowed;
// only the top-level listing failure propagates.
func (s *BroadScanner) scan(ctx context.Context, limit int) (*Tier2Result, error) {
	markets, err := s.source.ListActiveMarkets(ctx, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	index := make([]types.AnomalyEntry, 0, len(markets))

	for i := range markets {
		entry := s.analyze(ctx, &markets[i], now)
		if entry != nil {
			index = append(index, *entry)
		}
	}

	sort.SliceStable(index, func(i, j int) bool {
		return index[i].AnomalyScore > index[j].AnomalyScore
	})

	log.Info().
		Int("markets", len(markets)).
		Int("anomalies", len(index)).
		Msg("🔍 Broad scan complete")

	return &Tier2Result{
		Index:            index,
		MarketsProcessed: len(markets),
		ScannedAt:        now,
	}, nil
}

// analyze scores one market; nil when it falls below the emit floor.
func (s *BroadScanner) analyze(ctx context.Context, m *types.Market, now time.Time) *types.AnomalyEntry {
	if m.Volume24hr < s.cfg.MinVolume24h {
		return nil
	}
	if exp := m.ExpiresAt(); !exp.IsZero() && exp.Before(now) {
		return nil
	}

	entry := types.AnomalyEntry{
		ConditionID: m.ConditionID,
		Slug:        m.Slug,
		Question:    m.Question,
		Volume24hr:  m.Volume24hr,
	}

	// Volume vs liquidity. Thin books with heavy turnover are the
	// cheapest tell available from the listing alone.
	liq := m.Liquidity
	if liq < 1 {
		liq = 1
	}
	entry.VolumeVsLiquidity = m.Volume24hr / liq
	if entry.VolumeVsLiquidity > s.cfg.VolLiqRatioFlag {
		entry.AnomalyScore += 25
		entry.AnomalyFlags = append(entry.AnomalyFlags, "volume_spike")
		// Turnover alone only burns a tier-1 slot when there is real
		// volume behind the spike.
		if entry.VolumeVsLiquidity > s.cfg.VolLiqRatioPromote && m.Volume24hr >= s.cfg.VolPromoteMinVol {
			entry.PromoteToTier1 = true
		}
	}

	if s.withTrades {
		s.analyzeTrades(ctx, m, now, &entry)
	}

	// Price extremes with real volume behind them.
	prices := m.ParsedPrices()
	if len(prices) > 0 && m.Volume24hr > s.cfg.ExtremePriceMinVol {
		maxP, minP := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p > maxP {
				maxP = p
			}
			if p < minP {
				minP = p
			}
		}
		if maxP > s.cfg.ExtremePriceHigh || minP < s.cfg.ExtremePriceLow {
			entry.AnomalyScore += 15
			entry.AnomalyFlags = append(entry.AnomalyFlags, "extreme_pricing")
		}
	}

	// Expiry rush.
	if exp := m.ExpiresAt(); !exp.IsZero() {
		hoursLeft := exp.Sub(now).Hours()
		if hoursLeft < s.cfg.ExpiryRushHours && m.Volume24hr > s.cfg.ExpiryRushMinVol {
			entry.AnomalyScore += 10
			entry.AnomalyFlags = append(entry.AnomalyFlags, "expiry_rush")
		}
	}

	if entry.AnomalyScore < s.cfg.MinAnomalyScore {
		return nil
	}
	return &entry
}

// analyzeTrades runs the small fresh-wallet fingerprint on a 50-trade
// sample. An empty sample leaves the entry untouched.
func (s *BroadScanner) analyzeTrades(ctx context.Context, m *types.Market, now time.Time, entry *types.AnomalyEntry) {
	trades := s.source.Trades(ctx, m.ConditionID, s.cfg.TradeSample)
	if len(trades) == 0 {
		return
	}

	profiles := wallets.BuildProfiles(trades)
	stats := wallets.Summarize(profiles, now,
		s.cfg.FreshWalletMaxAge(), s.cfg.FreshWalletMinUSD,
		s.cfg.FreshRatioBaseline, 0)

	entry.FreshWalletCount = stats.FreshCount
	entry.FreshWalletRatio = stats.FreshRatio
	entry.FreshWalletExcess = stats.FreshExcess
	entry.MaxWalletDominance = stats.MaxDominance
	entry.AvgFreshWalletAgeD = stats.AvgFreshAge.Hours() / 24

	if stats.FreshExcess > s.cfg.FreshExcessPromote {
		entry.AnomalyScore += 40
		entry.AnomalyFlags = append(entry.AnomalyFlags, "fresh_wallet_surge")
		entry.PromoteToTier1 = true
	}
	if stats.MaxDominance > s.cfg.DominancePromote {
		entry.AnomalyScore += 35
		entry.AnomalyFlags = append(entry.AnomalyFlags, "whale_concentration")
		entry.PromoteToTier1 = true
	}
	if stats.FreshCount > 0 && entry.AvgFreshWalletAgeD < s.cfg.CoordinatedAgeDays {
		entry.AnomalyScore += 20
		entry.AnomalyFlags = append(entry.AnomalyFlags, "coordinated_fresh_wallets")
	}
}
