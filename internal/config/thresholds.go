package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds is the scoring policy. Every numeric constant in the
// pipeline lives here so operators can tune without a rebuild; the
// defaults are pinned by tests.
type Thresholds struct {
	Tier2     Tier2Thresholds     `yaml:"tier2"`
	Tier1     Tier1Thresholds     `yaml:"tier1"`
	Gate      GateThresholds      `yaml:"gate"`
	Publisher PublisherThresholds `yaml:"publisher"`
}

// Tier2Thresholds governs the cheap broad scan.
type Tier2Thresholds struct {
	MinVolume24h       float64 `yaml:"min_volume_24h"`
	MinAnomalyScore    float64 `yaml:"min_anomaly_score"`
	VolLiqRatioFlag    float64 `yaml:"vol_liq_ratio_flag"`
	VolLiqRatioPromote float64 `yaml:"vol_liq_ratio_promote"`
	VolPromoteMinVol   float64 `yaml:"vol_promote_min_vol"`
	TradeSample        int     `yaml:"trade_sample"`
	FreshWalletAgeDays float64 `yaml:"fresh_wallet_age_days"`
	FreshWalletMinUSD  float64 `yaml:"fresh_wallet_min_usd"`
	FreshRatioBaseline float64 `yaml:"fresh_ratio_baseline"`
	FreshExcessPromote float64 `yaml:"fresh_excess_promote"`
	DominancePromote   float64 `yaml:"dominance_promote"`
	CoordinatedAgeDays float64 `yaml:"coordinated_age_days"`
	ExtremePriceHigh   float64 `yaml:"extreme_price_high"`
	ExtremePriceLow    float64 `yaml:"extreme_price_low"`
	ExtremePriceMinVol float64 `yaml:"extreme_price_min_vol"`
	ExpiryRushHours    float64 `yaml:"expiry_rush_hours"`
	ExpiryRushMinVol   float64 `yaml:"expiry_rush_min_vol"`
	CacheTTLMinutes    int     `yaml:"cache_ttl_minutes"`
}

// FreshWalletMaxAge returns the fresh-wallet age cutoff as a duration.
func (t Tier2Thresholds) FreshWalletMaxAge() time.Duration {
	return time.Duration(t.FreshWalletAgeDays * 24 * float64(time.Hour))
}

// CacheTTL returns the broad-scan cache lifetime.
func (t Tier2Thresholds) CacheTTL() time.Duration {
	return time.Duration(t.CacheTTLMinutes) * time.Minute
}

// Tier1Thresholds governs the deep scan.
type Tier1Thresholds struct {
	TradeSample        int     `yaml:"trade_sample"`
	FreshWalletAgeDays float64 `yaml:"fresh_wallet_age_days"`
	FreshWalletMinUSD  float64 `yaml:"fresh_wallet_min_usd"`
	FreshRatioBaseline float64 `yaml:"fresh_ratio_baseline"`
	LargePositionUSD   float64 `yaml:"large_position_usd"`
	VeteranAgeDays     float64 `yaml:"veteran_age_days"`
	FlowWindowHours    float64 `yaml:"flow_window_hours"`
	FlowDominancePct   float64 `yaml:"flow_dominance_pct"`
	FlowMixPct         float64 `yaml:"flow_mix_pct"`
	FlowFloorUSD       float64 `yaml:"flow_floor_usd"`
	DampenPriceCap     float64 `yaml:"dampen_price_cap"`
	DampenMinDepthUSD  float64 `yaml:"dampen_min_depth_usd"`
	VelocityThreshold  float64 `yaml:"velocity_threshold"`

	// Threat score weights; the ordering fresh > whale > volume >
	// extreme > expiry is part of the contract.
	WeightFreshSurge   float64 `yaml:"weight_fresh_surge"`
	WeightWhale        float64 `yaml:"weight_whale"`
	WeightVolumeSpike  float64 `yaml:"weight_volume_spike"`
	WeightExtremePrice float64 `yaml:"weight_extreme_price"`
	WeightExpiryRush   float64 `yaml:"weight_expiry_rush"`
	WeightMinorityFlow float64 `yaml:"weight_minority_flow"`
	WeightVeteranFlow  float64 `yaml:"weight_veteran_flow"`
	WeightVelocity     float64 `yaml:"weight_velocity"`
	DampenPenalty      float64 `yaml:"dampen_penalty"`
}

// FreshWalletMaxAge returns the fresh-wallet age cutoff as a duration.
func (t Tier1Thresholds) FreshWalletMaxAge() time.Duration {
	return time.Duration(t.FreshWalletAgeDays * 24 * float64(time.Hour))
}

// VeteranAge returns the veteran-wallet age floor as a duration.
func (t Tier1Thresholds) VeteranAge() time.Duration {
	return time.Duration(t.VeteranAgeDays * 24 * float64(time.Hour))
}

// FlowWindow returns the recent-flow window as a duration.
func (t Tier1Thresholds) FlowWindow() time.Duration {
	return time.Duration(t.FlowWindowHours * float64(time.Hour))
}

// GateThresholds governs the call-quality gate.
type GateThresholds struct {
	PublishScore      int      `yaml:"publish_score"`
	FreshExcessSignal float64  `yaml:"fresh_excess_signal"`
	LargeRatioSignal  float64  `yaml:"large_ratio_signal"`
	VelocitySignal    float64  `yaml:"velocity_signal"`
	WeakEdgeCap       int      `yaml:"weak_edge_cap"`
	DampenPenalty     int      `yaml:"dampen_penalty"`
	NarrativeVolHigh  float64  `yaml:"narrative_vol_high"`
	NarrativeVolLow   float64  `yaml:"narrative_vol_low"`
	SportPatterns     []string `yaml:"sport_patterns"`
	NarrativeKeywords []string `yaml:"narrative_keywords"`
}

// PublisherThresholds governs emission.
type PublisherThresholds struct {
	MaxPostsPerDay  int `yaml:"max_posts_per_day"`
	DedupWindowDays int `yaml:"dedup_window_days"`
}

// DedupWindow returns the dedup lookback as a duration.
func (t PublisherThresholds) DedupWindow() time.Duration {
	return time.Duration(t.DedupWindowDays) * 24 * time.Hour
}

// DefaultThresholds returns the pinned policy defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Tier2: Tier2Thresholds{
			MinVolume24h:       10,
			MinAnomalyScore:    10,
			VolLiqRatioFlag:    3,
			VolLiqRatioPromote: 5,
			VolPromoteMinVol:   1000,
			TradeSample:        50,
			FreshWalletAgeDays: 7,
			FreshWalletMinUSD:  25,
			FreshRatioBaseline: 0.25,
			FreshExcessPromote: 0.15,
			DominancePromote:   0.30,
			CoordinatedAgeDays: 3,
			ExtremePriceHigh:   0.95,
			ExtremePriceLow:    0.05,
			ExtremePriceMinVol: 100,
			ExpiryRushHours:    24,
			ExpiryRushMinVol:   500,
			CacheTTLMinutes:    120,
		},
		Tier1: Tier1Thresholds{
			TradeSample:        300,
			FreshWalletAgeDays: 7,
			FreshWalletMinUSD:  50,
			FreshRatioBaseline: 0.15,
			LargePositionUSD:   1000,
			VeteranAgeDays:     60,
			FlowWindowHours:    24,
			FlowDominancePct:   0.40,
			FlowMixPct:         0.20,
			FlowFloorUSD:       100,
			DampenPriceCap:     0.97,
			DampenMinDepthUSD:  500,
			VelocityThreshold:  20,

			WeightFreshSurge:   40,
			WeightWhale:        35,
			WeightVolumeSpike:  25,
			WeightExtremePrice: 15,
			WeightExpiryRush:   10,
			WeightMinorityFlow: 15,
			WeightVeteranFlow:  10,
			WeightVelocity:     10,
			DampenPenalty:      15,
		},
		Gate: GateThresholds{
			PublishScore:      6,
			FreshExcessSignal: 0.10,
			LargeRatioSignal:  0.05,
			VelocitySignal:    20,
			WeakEdgeCap:       5,
			DampenPenalty:     2,
			NarrativeVolHigh:  500_000,
			NarrativeVolLow:   100_000,
			SportPatterns: []string{
				" vs ", "nba", "nfl", "nhl", "mlb", "ufc", "premier league",
				"champions league", "la liga", "serie a", "bundesliga",
				"lakers", "celtics", "warriors", "knicks", "yankees",
				"dodgers", "chiefs", "cowboys", "grand slam", "wimbledon",
				"world cup", "super bowl",
			},
			NarrativeKeywords: []string{
				"war", "invasion", "ceasefire", "sanction", "nuclear",
				"election", "president", "coup", "nato", "tariff",
				"fed", "rate cut", "rate hike", "inflation", "recession",
				"default", "bailout", "etf", "sec",
			},
		},
		Publisher: PublisherThresholds{
			MaxPostsPerDay:  3,
			DedupWindowDays: 7,
		},
	}
}

// LoadThresholds reads the policy file, falling back to defaults when
// the file is absent. Fields omitted from the file keep their defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, err
	}
	return t, nil
}
