// format.go - Message template for published signals.
package publisher

import (
	"fmt"
	"strings"

	"github.com/0xLaVaN/prescience/internal/types"
)

// ThreatEmoji maps a threat score to its badge using the same
// thresholds as types.LevelForScore.
func ThreatEmoji(score float64) string {
	switch types.LevelForScore(score) {
	case types.ThreatCritical:
		return "🚨"
	case types.ThreatHigh:
		return "🔴"
	case types.ThreatMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

// RenderMessage fills the fixed signal template.
func RenderMessage(snap *types.MarketSnapshot, call *types.CallScore) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *SIGNAL* — %s\n\n", ThreatEmoji(snap.ThreatScore), escapeMarkdown(snap.Question))
	fmt.Fprintf(&b, "Call quality: *%d/12*  |  Threat: *%.0f/100* (%s)\n", call.Score, snap.ThreatScore, snap.ThreatLevel)
	fmt.Fprintf(&b, "YES price: %s  |  24h volume: %s\n", FormatPrice(snap.YesPrice), FormatVolume(snap.Volume24hr))
	fmt.Fprintf(&b, "Wallets in sample: %s (%d fresh)\n", FormatCount(snap.WalletCount), snap.FreshWalletCount)

	if call.DaysToResolution >= 0 {
		fmt.Fprintf(&b, "Resolves in ~%.0f days\n", call.DaysToResolution)
	}

	if len(call.Reasons) > 0 {
		b.WriteString("\n*Why:*\n")
		for _, r := range call.Reasons {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(r))
		}
	}

	if snap.Slug != "" {
		fmt.Fprintf(&b, "\n[Resolution](https://polymarket.com/market/%s)", snap.Slug)
	}

	return b.String()
}

// FormatVolume renders a dollar amount with a compact suffix.
func FormatVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatPrice renders a probability as cents.
func FormatPrice(p float64) string {
	return fmt.Sprintf("%.0f¢", p*100)
}

// FormatCount renders an integer with a compact suffix.
func FormatCount(n int) string {
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")
	return replacer.Replace(s)
}
