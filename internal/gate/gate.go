// Package gate scores tier-1 snapshots for publishability. Orthogonal to
// the threat score: a market can look anomalous and still make a poor
// public call.
package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/types"
)

// Gate applies the four-axis call-quality score.
type Gate struct {
	cfg config.GateThresholds
}

// New creates a gate with the given policy.
func New(cfg config.GateThresholds) *Gate {
	return &Gate{cfg: cfg}
}

// Score rates one snapshot on the 0-12 scale: up to 3 points each for
// consensus divergence, data edge, time sensitivity and narrative value.
// Sport markets score 0 regardless.
func (g *Gate) Score(snap *types.MarketSnapshot, now time.Time) types.CallScore {
	result := types.CallScore{DaysToResolution: daysToResolution(snap, now)}

	if g.isSportMarket(snap.Question) {
		result.Reasons = append(result.Reasons, "sport market excluded")
		return result
	}

	score := 0

	// Axis 1: consensus divergence. Mid-range prices leave room to be
	// right where the crowd is not.
	yes := snap.YesPrice
	switch {
	case yes >= 0.35 && yes <= 0.65:
		score += 3
		result.Reasons = append(result.Reasons, "strong consensus divergence")
	case (yes >= 0.15 && yes < 0.35) || (yes > 0.65 && yes <= 0.85):
		score += 2
		result.Reasons = append(result.Reasons, "moderate consensus divergence")
	case (yes >= 0.05 && yes < 0.15) || (yes > 0.85 && yes <= 0.95):
		score += 1
		result.Reasons = append(result.Reasons, "slight consensus divergence")
	}

	// Axis 2: data edge.
	edge := g.onSignals(snap)
	switch {
	case len(edge) >= 3:
		score += 3
	case len(edge) == 2:
		score += 2
	case len(edge) == 1:
		score += 1
	}
	if len(edge) > 0 {
		result.Reasons = append(result.Reasons, "data edge: "+strings.Join(edge, ", "))
	}

	// Axis 3: time sensitivity.
	days := result.DaysToResolution
	switch {
	case days >= 0 && days <= 3:
		score += 3
		result.Reasons = append(result.Reasons, "resolves within 3 days")
	case days > 3 && days <= 14:
		score += 2
		result.Reasons = append(result.Reasons, "resolves within 2 weeks")
	case days > 14 && days <= 60:
		score += 1
		result.Reasons = append(result.Reasons, "resolves within 2 months")
	}

	// Axis 4: narrative value.
	switch {
	case g.matchesNarrative(snap.Question):
		score += 3
		result.Reasons = append(result.Reasons, "geopolitics/finance narrative")
	case snap.VolumeTotal > g.cfg.NarrativeVolHigh:
		score += 2
		result.Reasons = append(result.Reasons, "high-volume market")
	case snap.VolumeTotal > g.cfg.NarrativeVolLow:
		score += 1
		result.Reasons = append(result.Reasons, "notable market volume")
	}

	if snap.IsDampened {
		score -= g.cfg.DampenPenalty
		result.Reasons = append(result.Reasons, "dampened market penalty")
	}

	// A call with a weak data edge never clears the bar on narrative
	// and timing alone.
	if len(edge) < 2 && score > g.cfg.WeakEdgeCap {
		score = g.cfg.WeakEdgeCap
		result.Reasons = append(result.Reasons, fmt.Sprintf("capped at %d: weak data edge", g.cfg.WeakEdgeCap))
	}

	if score < 0 {
		score = 0
	}
	if score > 12 {
		score = 12
	}
	result.Score = score
	return result
}

// Publishable reports whether a score clears the publication threshold.
func (g *Gate) Publishable(score types.CallScore) bool {
	return score.Score >= g.cfg.PublishScore
}

// onSignals lists the behavioural signals currently firing.
func (g *Gate) onSignals(snap *types.MarketSnapshot) []string {
	var on []string
	if snap.FlowDirection == types.FlowMinorityHeavy {
		on = append(on, "minority-heavy flow")
	}
	if snap.FreshExcess > g.cfg.FreshExcessSignal {
		on = append(on, "fresh wallet excess")
	}
	if snap.LargePositionRatio > g.cfg.LargeRatioSignal {
		on = append(on, "large positions")
	}
	if snap.VeteranMinorityFlowScore > 0 {
		on = append(on, "veteran minority flow")
	}
	if snap.Velocity.VelocityScore > g.cfg.VelocitySignal {
		on = append(on, "velocity acceleration")
	}
	return on
}

func (g *Gate) isSportMarket(question string) bool {
	q := strings.ToLower(question)
	for _, pattern := range g.cfg.SportPatterns {
		if strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

func (g *Gate) matchesNarrative(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range g.cfg.NarrativeKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// daysToResolution returns days until the market's end date, or -1 when
// unknown.
func daysToResolution(snap *types.MarketSnapshot, now time.Time) float64 {
	if snap.EndDate == "" {
		return -1
	}
	end, err := time.Parse(time.RFC3339, snap.EndDate)
	if err != nil {
		return -1
	}
	return end.Sub(now).Hours() / 24
}
