package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/types"
)

func newGate() *Gate {
	return New(config.DefaultThresholds().Gate)
}

func endIn(now time.Time, d time.Duration) string {
	return now.Add(d).UTC().Format(time.RFC3339)
}

func TestSportMarketScoresZero(t *testing.T) {
	now := time.Now()
	snap := &types.MarketSnapshot{
		Slug:          "lakers-celtics",
		Question:      "Lakers vs Celtics — Lakers win?",
		YesPrice:      0.50,
		VolumeTotal:   2_000_000,
		FreshExcess:   0.30,
		FlowDirection: types.FlowMinorityHeavy,
		EndDate:       endIn(now, 24*time.Hour),
	}

	got := newGate().Score(snap, now)
	assert.Equal(t, 0, got.Score)
	assert.Contains(t, got.Reasons, "sport market excluded")
	assert.False(t, newGate().Publishable(got))
}

func TestPerfectCallScoresTwelve(t *testing.T) {
	now := time.Now()
	snap := &types.MarketSnapshot{
		Slug:     "ceasefire-by-friday",
		Question: "Will a ceasefire be announced by Friday?",
		YesPrice: 0.50,
		EndDate:  endIn(now, 48*time.Hour),

		FlowDirection:            types.FlowMinorityHeavy,
		FreshExcess:              0.20,
		VeteranMinorityFlowScore: 50,
	}

	got := newGate().Score(snap, now)
	assert.Equal(t, 12, got.Score)
	assert.True(t, newGate().Publishable(got))
}

func TestWeakDataEdgeCapped(t *testing.T) {
	// Maxed consensus, timing and narrative but only one behavioural
	// signal: the cap keeps it below the publish threshold.
	now := time.Now()
	snap := &types.MarketSnapshot{
		Slug:        "election-runoff",
		Question:    "Will the election go to a runoff?",
		YesPrice:    0.50,
		EndDate:     endIn(now, 48*time.Hour),
		FreshExcess: 0.20,
	}

	gate := newGate()
	got := gate.Score(snap, now)
	assert.Equal(t, 5, got.Score)
	assert.Contains(t, got.Reasons, "capped at 5: weak data edge")
	assert.False(t, gate.Publishable(got))
}

func TestDampenedPenaltyApplied(t *testing.T) {
	now := time.Now()
	snap := &types.MarketSnapshot{
		Slug:     "sanctions-lifted",
		Question: "Will the sanctions be lifted this month?",
		YesPrice: 0.50,
		EndDate:  endIn(now, 48*time.Hour),

		FlowDirection: types.FlowMinorityHeavy,
		FreshExcess:   0.20,
	}

	gate := newGate()
	clean := gate.Score(snap, now)

	snap.IsDampened = true
	dampened := gate.Score(snap, now)

	assert.Equal(t, clean.Score-2, dampened.Score)
	assert.Contains(t, dampened.Reasons, "dampened market penalty")
}

func TestScoreNeverNegative(t *testing.T) {
	now := time.Now()
	snap := &types.MarketSnapshot{
		Slug:       "dead-market",
		Question:   "Quiet market?",
		YesPrice:   0.99,
		IsDampened: true,
	}

	got := newGate().Score(snap, now)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, -1.0, got.DaysToResolution)
}

func TestConsensusBands(t *testing.T) {
	now := time.Now()
	gate := newGate()

	cases := []struct {
		yes  float64
		want int
	}{
		{0.50, 3},
		{0.35, 3},
		{0.65, 3},
		{0.25, 2},
		{0.75, 2},
		{0.10, 1},
		{0.90, 1},
		{0.99, 0},
		{0.02, 0},
	}
	for _, tc := range cases {
		snap := &types.MarketSnapshot{Question: "Band check?", YesPrice: tc.yes}
		got := gate.Score(snap, now)
		assert.Equal(t, tc.want, got.Score, "yes price %.2f", tc.yes)
	}
}

func TestTimeSensitivityBands(t *testing.T) {
	now := time.Now()
	gate := newGate()

	cases := []struct {
		until time.Duration
		want  int
	}{
		{48 * time.Hour, 3},
		{10 * 24 * time.Hour, 2},
		{30 * 24 * time.Hour, 1},
		{90 * 24 * time.Hour, 0},
	}
	for _, tc := range cases {
		snap := &types.MarketSnapshot{
			Question: "Band check?",
			YesPrice: 0.01, // below every consensus band
			EndDate:  endIn(now, tc.until),
		}
		got := gate.Score(snap, now)
		assert.Equal(t, tc.want, got.Score, "resolves in %s", tc.until)
	}
}

func TestPublishThreshold(t *testing.T) {
	gate := newGate()
	assert.True(t, gate.Publishable(types.CallScore{Score: 6}))
	assert.False(t, gate.Publishable(types.CallScore{Score: 5}))
}
