// Package wallets builds per-market wallet profiles from trade samples.
package wallets

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xLaVaN/prescience/internal/types"
)

// Profile is the per-(market, wallet) activity summary. Built fresh on
// every scan from the trade sample, never persisted.
type Profile struct {
	Address       string
	FirstSeen     time.Time
	TotalNotional float64
	TradeCount    int
	ByOutcome     map[string]float64 // outcome -> notional
}

// Normalize lowercases a wallet address, going through the checksum type
// when the input is hex-shaped so odd casings collapse to one key.
func Normalize(addr string) string {
	if common.IsHexAddress(addr) {
		return strings.ToLower(common.HexToAddress(addr).Hex())
	}
	return strings.ToLower(addr)
}

// BuildProfiles groups a trade sample by wallet.
func BuildProfiles(trades []types.Trade) map[string]*Profile {
	profiles := make(map[string]*Profile)

	for _, t := range trades {
		if t.ProxyWallet == "" {
			continue
		}
		addr := Normalize(t.ProxyWallet)
		ts := time.Unix(t.Timestamp, 0)

		p, ok := profiles[addr]
		if !ok {
			p = &Profile{
				Address:   addr,
				FirstSeen: ts,
				ByOutcome: make(map[string]float64),
			}
			profiles[addr] = p
		}

		if ts.Before(p.FirstSeen) {
			p.FirstSeen = ts
		}
		p.TotalNotional += t.Notional()
		p.TradeCount++
		p.ByOutcome[t.Outcome] += t.Notional()
	}

	return profiles
}

// FreshStats summarises fresh-wallet activity over a profile set.
type FreshStats struct {
	TotalWallets int
	FreshCount   int
	FreshRatio   float64
	FreshExcess  float64
	AvgFreshAge  time.Duration
	MaxDominance float64 // largest wallet share of sample volume
	SampleVolume float64
	MaxWalletVol float64
	LargeCount   int // wallets above largeUSD, 0 when largeUSD == 0
}

// Summarize computes fresh-wallet metrics. A wallet is fresh when its
// first trade in the market is younger than maxAge and its notional
// exceeds minUSD. Excess is the fresh ratio above baseline, floored at 0.
func Summarize(profiles map[string]*Profile, now time.Time, maxAge time.Duration, minUSD, baseline, largeUSD float64) FreshStats {
	stats := FreshStats{TotalWallets: len(profiles)}
	if len(profiles) == 0 {
		return stats
	}

	var freshAgeSum time.Duration
	for _, p := range profiles {
		stats.SampleVolume += p.TotalNotional
		if p.TotalNotional > stats.MaxWalletVol {
			stats.MaxWalletVol = p.TotalNotional
		}
		if largeUSD > 0 && p.TotalNotional > largeUSD {
			stats.LargeCount++
		}

		age := now.Sub(p.FirstSeen)
		if age < maxAge && p.TotalNotional > minUSD {
			stats.FreshCount++
			freshAgeSum += age
		}
	}

	stats.FreshRatio = float64(stats.FreshCount) / float64(stats.TotalWallets)
	if excess := stats.FreshRatio - baseline; excess > 0 {
		stats.FreshExcess = excess
	}
	if stats.FreshCount > 0 {
		stats.AvgFreshAge = freshAgeSum / time.Duration(stats.FreshCount)
	}
	if stats.SampleVolume > 0 {
		stats.MaxDominance = stats.MaxWalletVol / stats.SampleVolume
	}

	return stats
}
