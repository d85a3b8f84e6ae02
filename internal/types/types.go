// Package types holds the shared data model for the scanning pipeline.
// Kept in its own package to avoid import cycles between the scanners,
// the gate and the publisher.
package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// Market is one active prediction market as returned by the gamma API.
// Outcomes and OutcomePrices arrive as JSON-encoded strings inside the
// JSON payload; use ParsedOutcomes/ParsedPrices to read them.
type Market struct {
	ConditionID string `json:"conditionId"`
	Slug        string `json:"slug"`
	Question    string `json:"question"`

	// String-encoded JSON arrays, e.g. `["Yes","No"]` and `["0.62","0.38"]`.
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`

	Volume24hr  float64 `json:"volume24hr"`
	VolumeTotal float64 `json:"volume"`
	Liquidity   float64 `json:"liquidity"`

	EndDate string `json:"endDate"` // RFC3339 or empty
}

// Key returns the stable dedup/link identifier: slug, falling back to
// conditionId for markets that never got one.
func (m *Market) Key() string {
	if m.Slug != "" {
		return m.Slug
	}
	return m.ConditionID
}

// ParsedOutcomes decodes the outcomes column. Malformed input yields nil
// so the market degrades instead of failing the batch.
func (m *Market) ParsedOutcomes() []string {
	if m.Outcomes == "" || m.Outcomes == "null" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(m.Outcomes), &out); err != nil {
		return nil
	}
	return out
}

// ParsedPrices decodes the outcomePrices column in parallel with
// ParsedOutcomes. If the two arrays disagree in length both are treated
// as empty by callers.
func (m *Market) ParsedPrices() []float64 {
	if m.OutcomePrices == "" || m.OutcomePrices == "null" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return nil
	}
	prices := make([]float64, 0, len(raw))
	for _, s := range raw {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		prices = append(prices, p)
	}
	return prices
}

// ExpiresAt parses the end date; zero time when absent or malformed.
func (m *Market) ExpiresAt() time.Time {
	if m.EndDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, m.EndDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Trade is a single fill from the data API.
type Trade struct {
	ProxyWallet string  `json:"proxyWallet"`
	Timestamp   int64   `json:"timestamp"` // seconds since epoch
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	Side        string  `json:"side"` // BUY or SELL
	Outcome     string  `json:"outcome"`
}

// Notional returns size·price in USD.
func (t *Trade) Notional() float64 {
	return t.Size * t.Price
}

// FlowDirection classifies where recent net flow concentrates relative
// to the majority outcome.
type FlowDirection string

const (
	FlowMinorityHeavy   FlowDirection = "MINORITY_HEAVY"
	FlowMajorityAligned FlowDirection = "MAJORITY_ALIGNED"
	FlowMix             FlowDirection = "MIX"
	FlowNeutral         FlowDirection = "NEUTRAL"
)

// ThreatLevel buckets a threat score.
type ThreatLevel string

const (
	ThreatNormal   ThreatLevel = "normal"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// LevelForScore maps a threat score onto its level. The publisher's
// emoji picker uses the same thresholds.
func LevelForScore(score float64) ThreatLevel {
	switch {
	case score >= 70:
		return ThreatCritical
	case score >= 45:
		return ThreatHigh
	case score >= 25:
		return ThreatMedium
	default:
		return ThreatNormal
	}
}

// VelocityStats captures trade-rate acceleration inside the sample.
type VelocityStats struct {
	RecentPerHour float64 `json:"recent_per_hour"`
	PriorPerHour  float64 `json:"prior_per_hour"`
	VelocityScore float64 `json:"velocity_score"`
}

// MarketSnapshot is the tier-1 deep-scan output for one market.
type MarketSnapshot struct {
	ConditionID string `json:"condition_id"`
	Slug        string `json:"slug"`
	Question    string `json:"question"`

	YesPrice    float64 `json:"yes_price"`
	Volume24hr  float64 `json:"volume_24hr"`
	VolumeTotal float64 `json:"volume_total"`
	Liquidity   float64 `json:"liquidity"`
	EndDate     string  `json:"end_date,omitempty"`

	TradesSampled    int     `json:"trades_sampled"`
	WalletCount      int     `json:"wallet_count"`
	FreshWalletCount int     `json:"fresh_wallet_count"`
	FreshWalletRatio float64 `json:"fresh_wallet_ratio"`
	FreshExcess      float64 `json:"fresh_wallet_excess"`

	LargePositions     int     `json:"large_positions"`
	LargePositionRatio float64 `json:"large_position_ratio"`
	MaxWalletDominance float64 `json:"max_wallet_dominance"`

	FlowDirection       FlowDirection `json:"flow_direction_v2"`
	MinoritySideFlowUSD float64       `json:"minority_side_flow_usd"`
	MajoritySideFlowUSD float64       `json:"majority_side_flow_usd"`

	VeteranMinorityFlowScore float64 `json:"veteran_minority_flow_score"`
	VeteranNote              string  `json:"veteran_note,omitempty"`

	Velocity VelocityStats `json:"velocity"`

	IsDampened bool `json:"is_dampened"`

	ThreatScore   float64     `json:"threat_score"`
	ThreatLevel   ThreatLevel `json:"threat_level"`
	Contributions []string    `json:"contributions"`

	ScannedAt time.Time `json:"scanned_at"`
}

// Key returns the stable identifier for the snapshot.
func (s *MarketSnapshot) Key() string {
	if s.Slug != "" {
		return s.Slug
	}
	return s.ConditionID
}

// AnomalyEntry is the tier-2 broad-scan output for one market.
type AnomalyEntry struct {
	ConditionID string `json:"condition_id"`
	Slug        string `json:"slug"`
	Question    string `json:"question"`

	AnomalyScore   float64  `json:"anomaly_score"`
	AnomalyFlags   []string `json:"anomaly_flags"`
	PromoteToTier1 bool     `json:"promote_to_tier1"`

	VolumeVsLiquidity float64 `json:"volume_vs_liquidity"`
	Volume24hr        float64 `json:"volume_24hr"`

	FreshWalletCount   int     `json:"fresh_wallet_count,omitempty"`
	FreshWalletRatio   float64 `json:"fresh_wallet_ratio,omitempty"`
	FreshWalletExcess  float64 `json:"fresh_wallet_excess,omitempty"`
	MaxWalletDominance float64 `json:"max_wallet_dominance,omitempty"`
	AvgFreshWalletAgeD float64 `json:"avg_fresh_wallet_age_days,omitempty"`
}

// CallScore is the call-quality gate verdict for one snapshot.
type CallScore struct {
	Score            int      `json:"score"` // 0-12
	Reasons          []string `json:"reasons"`
	DaysToResolution float64  `json:"daysToResolution"`
}

// Signal is a decision to publish one market.
type Signal struct {
	Slug        string    `json:"slug"`
	Question    string    `json:"question"`
	Score       int       `json:"score"`
	ThreatScore float64   `json:"threat_score"`
	Message     string    `json:"message"`
	Channel     string    `json:"channel"`
	Timestamp   time.Time `json:"timestamp"`
}

// PostLogEntry is the immutable record that a signal went out.
type PostLogEntry struct {
	Slug       string  `json:"slug"`
	Question   string  `json:"question"`
	Score      int     `json:"score"`
	Timestamp  int64   `json:"timestamp"` // unix seconds
	EntryPrice float64 `json:"entry_price,omitempty"`
}

// ResolutionReceipt is written by the resolution tracker once a called
// market resolves. Pnl is a formatted percentage string like "+72.4%";
// bare numerics are also accepted on the wire.
type ResolutionReceipt struct {
	Slug        string          `json:"slug"`
	Question    string          `json:"question"`
	SignalScore int             `json:"signal_score"`
	EntryPrice  float64         `json:"entry_price"`
	Outcome     string          `json:"outcome"`
	Pnl         json.RawMessage `json:"pnl"`
	Correct     bool            `json:"correct"`
	CalledAt    int64           `json:"called_at"`
	ResolvedAt  int64           `json:"resolved_at"`
}

// LiveProof is an external annotation keyed by slug.
type LiveProof struct {
	Slug              string  `json:"slug"`
	CurrentPrice      float64 `json:"current_price"`
	DeltaFromSignal   string  `json:"delta_from_signal_str,omitempty"`
	Status            string  `json:"status,omitempty"`
	ImpliedPnl        string  `json:"implied_pnl,omitempty"`
	ProofText         string  `json:"proof_text,omitempty"`
	Source            string  `json:"source,omitempty"`
}

// ScorecardStats is the headline track record.
type ScorecardStats struct {
	TotalCalls    int    `json:"total_calls"`
	Resolved      int    `json:"resolved"`
	Open          int    `json:"open"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	WinRate       string `json:"win_rate"`
	CumulativePnl string `json:"cumulative_pnl"`
}

// ScorecardCall is one row of the public scorecard, open or resolved.
type ScorecardCall struct {
	Slug         string  `json:"slug"`
	Question     string  `json:"question"`
	Score        int     `json:"score"`
	CalledAt     int64   `json:"called_at"`
	EntryPrice   float64 `json:"entry_price,omitempty"`
	Resolved     bool    `json:"resolved"`
	Outcome      string  `json:"outcome,omitempty"`
	Correct      *bool   `json:"correct,omitempty"`
	Pnl          string  `json:"pnl,omitempty"`
	ResolvedAt   int64   `json:"resolved_at,omitempty"`
	CurrentPrice float64 `json:"current_price,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// Scorecard is the persisted snapshot served verbatim by /scorecard.
type Scorecard struct {
	Stats        ScorecardStats  `json:"stats"`
	Calls        []ScorecardCall `json:"calls"`
	ScannerFlags []LiveProof     `json:"scanner_flags"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
