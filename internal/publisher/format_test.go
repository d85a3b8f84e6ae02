package publisher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xLaVaN/prescience/internal/types"
)

func TestThreatEmojiMatchesLevels(t *testing.T) {
	cases := []struct {
		score float64
		emoji string
		level types.ThreatLevel
	}{
		{85, "🚨", types.ThreatCritical},
		{70, "🚨", types.ThreatCritical},
		{55, "🔴", types.ThreatHigh},
		{45, "🔴", types.ThreatHigh},
		{30, "🟠", types.ThreatMedium},
		{10, "🟡", types.ThreatNormal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.emoji, ThreatEmoji(tc.score), "score %.0f", tc.score)
		assert.Equal(t, tc.level, types.LevelForScore(tc.score), "score %.0f", tc.score)
	}
}

func TestRenderMessage(t *testing.T) {
	snap := &types.MarketSnapshot{
		Slug:             "ceasefire-by-friday",
		Question:         "Will a ceasefire_deal be announced?",
		YesPrice:         0.42,
		Volume24hr:       1_340_000,
		WalletCount:      180,
		FreshWalletCount: 42,
		ThreatScore:      72,
		ThreatLevel:      types.ThreatCritical,
	}
	call := &types.CallScore{
		Score:            9,
		DaysToResolution: 2.4,
		Reasons:          []string{"strong consensus divergence", "resolves within 3 days"},
	}

	msg := RenderMessage(snap, call)

	assert.True(t, strings.HasPrefix(msg, "🚨"))
	assert.Contains(t, msg, "ceasefire\\_deal")
	assert.Contains(t, msg, "*9/12*")
	assert.Contains(t, msg, "*72/100*")
	assert.Contains(t, msg, "42¢")
	assert.Contains(t, msg, "$1.3M")
	assert.Contains(t, msg, "Resolves in ~2 days")
	assert.Contains(t, msg, "• strong consensus divergence")
	assert.Contains(t, msg, "https://polymarket.com/market/ceasefire-by-friday")
}

func TestRenderMessageEscapesBrackets(t *testing.T) {
	snap := &types.MarketSnapshot{
		Slug:        "bracket-market",
		Question:    "Will [redacted] win?",
		ThreatScore: 30,
	}
	call := &types.CallScore{Score: 6, DaysToResolution: -1}

	msg := RenderMessage(snap, call)
	assert.Contains(t, msg, `\[redacted\]`)
	assert.Contains(t, msg, "[Resolution](https://polymarket.com/market/bracket-market)")
}

func TestRenderMessageOmitsUnknownResolution(t *testing.T) {
	snap := &types.MarketSnapshot{Question: "Open ended?", ThreatScore: 30}
	call := &types.CallScore{Score: 6, DaysToResolution: -1}

	msg := RenderMessage(snap, call)
	assert.NotContains(t, msg, "Resolves in")
	assert.NotContains(t, msg, "polymarket.com")
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "$2.5M", FormatVolume(2_500_000))
	assert.Equal(t, "$13.2K", FormatVolume(13_200))
	assert.Equal(t, "$850", FormatVolume(850))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1.2K", FormatCount(1_200))
	assert.Equal(t, "37", FormatCount(37))
}
