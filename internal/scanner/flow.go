// flow.go - Directional flow classification for tier-1.
//
// Net notional is computed per outcome over the recent window of the
// trade sample and compared against the majority outcome (the one priced
// at or above 0.5). Classification depends only on prices and flows, so
// renaming outcomes leaves it unchanged.
package scanner

import (
	"math"
	"time"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/types"
)

// FlowResult is the flow-direction verdict plus the numbers behind it.
type FlowResult struct {
	Direction   types.FlowDirection
	MinorityUSD float64 // net notional into the minority outcome
	MajorityUSD float64 // net notional into the majority outcome
}

// computeFlow classifies recent flow for a binary market. Markets with
// fewer than two outcomes are NEUTRAL by definition.
func computeFlow(m *types.Market, trades []types.Trade, now time.Time, cfg config.Tier1Thresholds) FlowResult {
	result := FlowResult{Direction: types.FlowNeutral}

	outcomes := m.ParsedOutcomes()
	prices := m.ParsedPrices()
	if len(outcomes) < 2 || len(prices) != len(outcomes) {
		return result
	}

	// Majority outcome: price >= 0.5, ties broken by listing order.
	majorityIdx := 0
	for i, p := range prices {
		if p >= 0.5 {
			majorityIdx = i
			break
		}
	}
	majority := outcomes[majorityIdx]

	cutoff := now.Add(-cfg.FlowWindow())
	net := make(map[string]float64, len(outcomes))
	for _, t := range trades {
		if time.Unix(t.Timestamp, 0).Before(cutoff) {
			continue
		}
		signed := t.Notional()
		if t.Side == "SELL" {
			signed = -signed
		}
		net[t.Outcome] += signed
	}

	for outcome, n := range net {
		if outcome == majority {
			result.MajorityUSD += n
		} else {
			result.MinorityUSD += n
		}
	}

	minNet, majNet := result.MinorityUSD, result.MajorityUSD
	scale := math.Max(math.Max(math.Abs(minNet), math.Abs(majNet)), cfg.FlowFloorUSD)
	imbalance := (minNet - majNet) / scale

	switch {
	case imbalance > cfg.FlowDominancePct && minNet > cfg.FlowFloorUSD:
		result.Direction = types.FlowMinorityHeavy
	case imbalance < -cfg.FlowDominancePct && majNet > cfg.FlowFloorUSD:
		result.Direction = types.FlowMajorityAligned
	case math.Abs(imbalance) > cfg.FlowMixPct:
		result.Direction = types.FlowMix
	}

	return result
}

// computeVelocity compares trade rate in the most recent half of the
// sample span against the preceding half. The score is the percentage
// acceleration; above the configured threshold counts as an on-signal.
func computeVelocity(trades []types.Trade, now time.Time) types.VelocityStats {
	var stats types.VelocityStats
	if len(trades) < 4 {
		return stats
	}

	oldest := now
	for _, t := range trades {
		ts := time.Unix(t.Timestamp, 0)
		if ts.Before(oldest) {
			oldest = ts
		}
	}
	span := now.Sub(oldest)
	if span <= 0 {
		return stats
	}

	half := span / 2
	mid := now.Add(-half)
	recent, prior := 0, 0
	for _, t := range trades {
		if time.Unix(t.Timestamp, 0).After(mid) {
			recent++
		} else {
			prior++
		}
	}

	hours := half.Hours()
	if hours <= 0 {
		return stats
	}
	stats.RecentPerHour = float64(recent) / hours
	stats.PriorPerHour = float64(prior) / hours

	if prior == 0 {
		if recent > 0 {
			stats.VelocityScore = 100
		}
		return stats
	}
	stats.VelocityScore = (float64(recent)/float64(prior) - 1) * 100
	return stats
}
