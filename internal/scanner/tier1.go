// tier1.go - Deep per-market analysis. Pulls a larger trade sample and
// derives the full behavioural feature set plus the composite threat
// score. Per-market failures are isolated: the scan returns the union of
// the markets that analysed cleanly.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/types"
	"github.com/0xLaVaN/prescience/internal/wallets"
)

// DeepScanner runs the tier-1 analysis.
type DeepScanner struct {
	source MarketSource
	cfg    config.Tier1Thresholds
}

// NewDeepScanner creates a tier-1 scanner.
func NewDeepScanner(source MarketSource, cfg config.Tier1Thresholds) *DeepScanner {
	return &DeepScanner{source: source, cfg: cfg}
}

// Scan analyses each candidate market in listing order and returns the
// snapshots sorted by threat score descending.
func (s *DeepScanner) Scan(ctx context.Context, markets []types.Market) []types.MarketSnapshot {
	now := time.Now()
	snapshots := make([]types.MarketSnapshot, 0, len(markets))

	for i := range markets {
		snap, err := s.Analyze(ctx, &markets[i], now)
		if err != nil {
			log.Debug().Err(err).Str("slug", markets[i].Slug).Msg("Market analysis dropped")
			continue
		}
		snapshots = append(snapshots, *snap)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].ThreatScore > snapshots[j].ThreatScore
	})

	log.Info().
		Int("candidates", len(markets)).
		Int("analysed", len(snapshots)).
		Msg("🔬 Deep scan complete")

	return snapshots
}

// Analyze builds the full snapshot for one market. An empty trade sample
// degrades to volume-derived features only.
func (s *DeepScanner) Analyze(ctx context.Context, m *types.Market, now time.Time) (*types.MarketSnapshot, error) {
	if m.ConditionID == "" {
		return nil, fmt.Errorf("market %q has no conditionId", m.Slug)
	}

	snap := &types.MarketSnapshot{
		ConditionID:   m.ConditionID,
		Slug:          m.Slug,
		Question:      m.Question,
		Volume24hr:    m.Volume24hr,
		VolumeTotal:   m.VolumeTotal,
		Liquidity:     m.Liquidity,
		EndDate:       m.EndDate,
		FlowDirection: types.FlowNeutral,
		ScannedAt:     now,
	}

	prices := m.ParsedPrices()
	outcomes := m.ParsedOutcomes()
	if len(prices) > 0 && len(prices) == len(outcomes) {
		snap.YesPrice = prices[0]
	}

	trades := s.source.Trades(ctx, m.ConditionID, s.cfg.TradeSample)
	snap.TradesSampled = len(trades)

	if len(trades) > 0 {
		profiles := wallets.BuildProfiles(trades)
		stats := wallets.Summarize(profiles, now,
			s.cfg.FreshWalletMaxAge(), s.cfg.FreshWalletMinUSD,
			s.cfg.FreshRatioBaseline, s.cfg.LargePositionUSD)

		snap.WalletCount = stats.TotalWallets
		snap.FreshWalletCount = stats.FreshCount
		snap.FreshWalletRatio = stats.FreshRatio
		snap.FreshExcess = stats.FreshExcess
		snap.MaxWalletDominance = stats.MaxDominance
		snap.LargePositions = stats.LargeCount
		if stats.TotalWallets > 0 {
			snap.LargePositionRatio = float64(stats.LargeCount) / float64(stats.TotalWallets)
		}

		flow := computeFlow(m, trades, now, s.cfg)
		snap.FlowDirection = flow.Direction
		snap.MinoritySideFlowUSD = flow.MinorityUSD
		snap.MajoritySideFlowUSD = flow.MajorityUSD

		s.veteranFlow(m, profiles, now, snap)
		snap.Velocity = computeVelocity(trades, now)
	}

	snap.IsDampened = s.isDampened(m, prices)
	s.scoreThreat(m, snap)

	return snap, nil
}

// veteranFlow tags markets where long-tenured wallets concentrate on the
// minority outcome.
func (s *DeepScanner) veteranFlow(m *types.Market, profiles map[string]*wallets.Profile, now time.Time, snap *types.MarketSnapshot) {
	outcomes := m.ParsedOutcomes()
	prices := m.ParsedPrices()
	if len(outcomes) < 2 || len(prices) != len(outcomes) {
		return
	}

	majorityIdx := 0
	for i, p := range prices {
		if p >= 0.5 {
			majorityIdx = i
			break
		}
	}
	majority := outcomes[majorityIdx]

	cutoff := now.Add(-s.cfg.VeteranAge())
	var vetMinority, vetMajority float64
	for _, p := range profiles {
		if p.FirstSeen.After(cutoff) {
			continue
		}
		for outcome, notional := range p.ByOutcome {
			if outcome == majority {
				vetMajority += notional
			} else {
				vetMinority += notional
			}
		}
	}

	total := vetMinority + vetMajority
	if total <= 0 || vetMinority <= vetMajority {
		return
	}

	snap.VeteranMinorityFlowScore = (vetMinority - vetMajority) / total * 100
	snap.VeteranNote = fmt.Sprintf("veteran wallets lean minority ($%.0f vs $%.0f)", vetMinority, vetMajority)
}

// isDampened flags extreme-priced markets with thin opposing depth.
// Downstream scorers subtract rather than drop these outright.
func (s *DeepScanner) isDampened(m *types.Market, prices []float64) bool {
	if len(prices) == 0 {
		return false
	}
	maxP := prices[0]
	for _, p := range prices[1:] {
		if p > maxP {
			maxP = p
		}
	}
	return maxP > s.cfg.DampenPriceCap && m.Liquidity < s.cfg.DampenMinDepthUSD
}

// scoreThreat accumulates the weighted feature contributions into the
// bounded threat score and level.
func (s *DeepScanner) scoreThreat(m *types.Market, snap *types.MarketSnapshot) {
	score := 0.0
	add := func(weight float64, label string) {
		score += weight
		snap.Contributions = append(snap.Contributions, label)
	}

	if snap.FreshExcess > 0 {
		add(s.cfg.WeightFreshSurge, "fresh_wallet_surge")
	}
	if snap.MaxWalletDominance > 0.30 {
		add(s.cfg.WeightWhale, "whale_concentration")
	}

	liq := m.Liquidity
	if liq < 1 {
		liq = 1
	}
	if m.Volume24hr/liq > 3 {
		add(s.cfg.WeightVolumeSpike, "volume_spike")
	}

	prices := m.ParsedPrices()
	if len(prices) > 0 && m.Volume24hr > 100 {
		maxP, minP := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p > maxP {
				maxP = p
			}
			if p < minP {
				minP = p
			}
		}
		if maxP > 0.95 || minP < 0.05 {
			add(s.cfg.WeightExtremePrice, "extreme_pricing")
		}
	}

	if exp := m.ExpiresAt(); !exp.IsZero() {
		if hoursLeft := time.Until(exp).Hours(); hoursLeft > 0 && hoursLeft < 24 && m.Volume24hr > 500 {
			add(s.cfg.WeightExpiryRush, "expiry_rush")
		}
	}

	if snap.FlowDirection == types.FlowMinorityHeavy {
		add(s.cfg.WeightMinorityFlow, "minority_heavy_flow")
	}
	if snap.VeteranMinorityFlowScore > 0 {
		add(s.cfg.WeightVeteranFlow, "veteran_minority_flow")
	}
	if snap.Velocity.VelocityScore > s.cfg.VelocityThreshold {
		add(s.cfg.WeightVelocity, "velocity_acceleration")
	}

	if snap.IsDampened {
		score -= s.cfg.DampenPenalty
		snap.Contributions = append(snap.Contributions, "dampened")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	snap.ThreatScore = score
	snap.ThreatLevel = types.LevelForScore(score)
}
