package wallets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xLaVaN/prescience/internal/types"
)

func trade(wallet string, ts time.Time, size, price float64, outcome string) types.Trade {
	return types.Trade{
		ProxyWallet: wallet,
		Timestamp:   ts.Unix(),
		Size:        size,
		Price:       price,
		Side:        "BUY",
		Outcome:     outcome,
	}
}

func TestNormalizeCollapsesCasings(t *testing.T) {
	mixed := "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	lower := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	upper := "0xAB5801A7D398351B8BE11C439E05C5B3259AEC9B"

	assert.Equal(t, Normalize(lower), Normalize(mixed))
	assert.Equal(t, Normalize(lower), Normalize(upper))
	assert.Equal(t, lower, Normalize(mixed))
}

func TestNormalizeNonHexPassthrough(t *testing.T) {
	assert.Equal(t, "some-proxy-id", Normalize("Some-Proxy-ID"))
}

func TestBuildProfilesGroupsByWallet(t *testing.T) {
	now := time.Now()
	trades := []types.Trade{
		trade("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", now.Add(-2*time.Hour), 100, 0.5, "Yes"),
		trade("0xab5801a7d398351b8be11c439e05c5b3259aec9b", now.Add(-30*time.Hour), 200, 0.5, "No"),
		trade("0xother", now.Add(-time.Hour), 50, 1.0, "Yes"),
		trade("", now, 999, 1.0, "Yes"), // anonymous fills are dropped
	}

	profiles := BuildProfiles(trades)
	require.Len(t, profiles, 2)

	p := profiles["0xab5801a7d398351b8be11c439e05c5b3259aec9b"]
	require.NotNil(t, p)
	assert.Equal(t, 2, p.TradeCount)
	assert.Equal(t, 150.0, p.TotalNotional)
	assert.Equal(t, 50.0, p.ByOutcome["Yes"])
	assert.Equal(t, 100.0, p.ByOutcome["No"])
	// FirstSeen is the earliest fill, regardless of input order.
	assert.Equal(t, now.Add(-30*time.Hour).Unix(), p.FirstSeen.Unix())
}

func TestSummarizeFreshAndDominance(t *testing.T) {
	now := time.Now()
	trades := []types.Trade{
		trade("0xfresh1", now.Add(-24*time.Hour), 60, 1.0, "Yes"),
		trade("0xfresh2", now.Add(-48*time.Hour), 60, 1.0, "Yes"),
		trade("0xdust", now.Add(-24*time.Hour), 10, 1.0, "Yes"), // fresh age, too small
		trade("0xwhale", now.Add(-30*24*time.Hour), 870, 1.0, "No"),
	}

	stats := Summarize(BuildProfiles(trades), now, 7*24*time.Hour, 25, 0.25, 500)

	assert.Equal(t, 4, stats.TotalWallets)
	assert.Equal(t, 2, stats.FreshCount)
	assert.InDelta(t, 0.5, stats.FreshRatio, 1e-9)
	assert.InDelta(t, 0.25, stats.FreshExcess, 1e-9)
	assert.Equal(t, 36*time.Hour, stats.AvgFreshAge.Round(time.Minute))
	assert.InDelta(t, 0.87, stats.MaxDominance, 1e-9)
	assert.Equal(t, 1, stats.LargeCount)
}

func TestSummarizeExcessFlooredAtZero(t *testing.T) {
	now := time.Now()
	trades := []types.Trade{
		trade("0xold1", now.Add(-60*24*time.Hour), 100, 1.0, "Yes"),
		trade("0xold2", now.Add(-90*24*time.Hour), 100, 1.0, "No"),
	}

	stats := Summarize(BuildProfiles(trades), now, 7*24*time.Hour, 25, 0.25, 0)
	assert.Equal(t, 0, stats.FreshCount)
	assert.Equal(t, 0.0, stats.FreshExcess)
	assert.Equal(t, 0, stats.LargeCount)
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, time.Now(), 7*24*time.Hour, 25, 0.25, 0)
	assert.Equal(t, 0, stats.TotalWallets)
	assert.Equal(t, 0.0, stats.MaxDominance)
}
