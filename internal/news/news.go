// Package news synthesizes a headline feed from the broad-scan index.
package news

import (
	"fmt"
	"time"

	"github.com/0xLaVaN/prescience/internal/types"
)

// Severity labels a headline.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Item is one synthesized headline.
type Item struct {
	Slug      string    `json:"slug"`
	Headline  string    `json:"headline"`
	Severity  Severity  `json:"severity"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// severityFor maps an anomaly score onto a label.
func severityFor(score float64) Severity {
	switch {
	case score >= 70:
		return SeverityCritical
	case score >= 45:
		return SeverityHigh
	case score >= 25:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FromIndex synthesizes up to limit items from a ranked anomaly index.
func FromIndex(index []types.AnomalyEntry, limit int, now time.Time) []Item {
	if limit > len(index) {
		limit = len(index)
	}

	items := make([]Item, 0, limit)
	for _, entry := range index[:limit] {
		items = append(items, Item{
			Slug:      entry.Slug,
			Headline:  headline(&entry),
			Severity:  severityFor(entry.AnomalyScore),
			Score:     entry.AnomalyScore,
			Timestamp: now,
		})
	}
	return items
}

func headline(entry *types.AnomalyEntry) string {
	lead := "Unusual activity"
	for _, flag := range entry.AnomalyFlags {
		switch flag {
		case "fresh_wallet_surge":
			lead = "Fresh wallet surge"
		case "whale_concentration":
			lead = "Whale concentration"
		case "coordinated_fresh_wallets":
			lead = "Coordinated fresh wallets"
		case "volume_spike":
			if lead == "Unusual activity" {
				lead = "Volume spike"
			}
		}
	}
	return fmt.Sprintf("%s in %q", lead, entry.Question)
}
