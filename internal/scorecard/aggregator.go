// Package scorecard folds the post log, resolution receipts and live
// proofs into the public track-record snapshot.
package scorecard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xLaVaN/prescience/internal/types"
)

// scannerFlagSource marks live proofs that are scanner annotations
// rather than price proofs.
const scannerFlagSource = "tars-scanner-flag"

// Aggregate builds the scorecard snapshot. Pure function of its inputs:
// rerunning it against unchanged files yields an identical snapshot
// apart from updated_at.
func Aggregate(postLog []types.PostLogEntry, receipts []types.ResolutionReceipt, proofs []types.LiveProof, now time.Time) types.Scorecard {
	// Dedup signals by slug, keeping the most recent.
	latest := make(map[string]types.PostLogEntry)
	for _, e := range postLog {
		if prev, ok := latest[e.Slug]; !ok || e.Timestamp > prev.Timestamp {
			latest[e.Slug] = e
		}
	}

	receiptBySlug := make(map[string]types.ResolutionReceipt, len(receipts))
	for _, r := range receipts {
		receiptBySlug[r.Slug] = r
	}
	proofBySlug := make(map[string]types.LiveProof, len(proofs))
	var scannerFlags []types.LiveProof
	for _, p := range proofs {
		if p.Source == scannerFlagSource {
			scannerFlags = append(scannerFlags, p)
			continue
		}
		proofBySlug[p.Slug] = p
	}

	var calls []types.ScorecardCall
	openCount := 0

	// Open calls: signals with no receipt yet.
	for slug, entry := range latest {
		if _, resolved := receiptBySlug[slug]; resolved {
			continue
		}
		call := types.ScorecardCall{
			Slug:       entry.Slug,
			Question:   entry.Question,
			Score:      entry.Score,
			CalledAt:   entry.Timestamp,
			EntryPrice: entry.EntryPrice,
		}
		if proof, ok := proofBySlug[slug]; ok {
			call.CurrentPrice = proof.CurrentPrice
			call.Status = proof.Status
		}
		calls = append(calls, call)
		openCount++
	}

	// Resolved calls: every receipt, joined with its signal if present.
	wins, losses := 0, 0
	pnlSum := decimal.Zero
	pnlCount := 0
	for _, r := range receipts {
		correct := r.Correct
		call := types.ScorecardCall{
			Slug:       r.Slug,
			Question:   r.Question,
			Score:      r.SignalScore,
			CalledAt:   r.CalledAt,
			EntryPrice: r.EntryPrice,
			Resolved:   true,
			Outcome:    r.Outcome,
			Correct:    &correct,
			ResolvedAt: r.ResolvedAt,
		}
		if entry, ok := latest[r.Slug]; ok {
			if call.Question == "" {
				call.Question = entry.Question
			}
			if call.CalledAt == 0 {
				call.CalledAt = entry.Timestamp
			}
		}
		if pnl, ok := parsePnl(r.Pnl); ok {
			call.Pnl = formatPnl(pnl)
			pnlSum = pnlSum.Add(pnl)
			pnlCount++
		}
		calls = append(calls, call)

		if r.Correct {
			wins++
		} else {
			losses++
		}
	}

	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].CalledAt > calls[j].CalledAt
	})

	resolved := len(receipts)
	stats := types.ScorecardStats{
		TotalCalls:    openCount + resolved,
		Resolved:      resolved,
		Open:          openCount,
		Wins:          wins,
		Losses:        losses,
		WinRate:       "0.0",
		CumulativePnl: "0.0%",
	}
	if resolved > 0 {
		rate := decimal.NewFromInt(int64(wins)).
			Div(decimal.NewFromInt(int64(resolved))).
			Mul(decimal.NewFromInt(100))
		stats.WinRate = rate.StringFixed(1)
	}
	if pnlCount > 0 {
		mean := pnlSum.Div(decimal.NewFromInt(int64(pnlCount)))
		stats.CumulativePnl = formatPnl(mean)
	}

	return types.Scorecard{
		Stats:        stats,
		Calls:        calls,
		ScannerFlags: scannerFlags,
		UpdatedAt:    now,
	}
}

// parsePnl accepts both the formatted string form ("+72.4%") and bare
// numerics on the wire.
func parsePnl(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		s = strings.TrimPrefix(s, "+")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

// formatPnl renders a signed percentage with one decimal.
func formatPnl(d decimal.Decimal) string {
	if d.IsPositive() {
		return fmt.Sprintf("+%s%%", d.StringFixed(1))
	}
	return fmt.Sprintf("%s%%", d.StringFixed(1))
}
