// Package publisher turns gated snapshots into at-most-once public
// signals: rolling dedup, daily quota, message rendering, Telegram
// emission and the post-log append.
package publisher

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0xLaVaN/prescience/internal/config"
	"github.com/0xLaVaN/prescience/internal/store"
	"github.com/0xLaVaN/prescience/internal/types"
)

// Emitter delivers a rendered message to the messaging channel.
type Emitter interface {
	Emit(sig types.Signal) error
}

// Candidate pairs a snapshot with its gate verdict.
type Candidate struct {
	Snapshot types.MarketSnapshot
	Call     types.CallScore
}

// Result reports what one publisher invocation did. A blocked run is
// not an error: the reason says why nothing went out.
type Result struct {
	Published []types.Signal `json:"published"`
	Skipped   int            `json:"skipped"`
	Reason    string         `json:"reason,omitempty"`
}

// Publisher enforces the emission policy.
type Publisher struct {
	files   *store.Files
	archive *store.Archive
	emitter Emitter
	cfg     config.PublisherThresholds
	channel string
	dryRun  bool
}

// New creates a publisher. A nil emitter forces dry-run.
func New(files *store.Files, archive *store.Archive, emitter Emitter, cfg config.PublisherThresholds, channel string, dryRun bool) *Publisher {
	if emitter == nil {
		dryRun = true
	}
	return &Publisher{
		files:   files,
		archive: archive,
		emitter: emitter,
		cfg:     cfg,
		channel: channel,
		dryRun:  dryRun,
	}
}

// Publish runs the gating sequence over the candidates. Within one
// invocation emissions are ordered by call score descending.
func (p *Publisher) Publish(candidates []Candidate, now time.Time) (Result, error) {
	fullLog := p.files.ReadPostLog()

	// Dedup view: the rolling window only. The full log is preserved
	// for the scorecard.
	cutoff := now.Add(-p.cfg.DedupWindow()).Unix()
	recent := make(map[string]bool)
	todayCount := 0
	today := now.UTC().Format("2006-01-02")
	for _, e := range fullLog {
		if e.Timestamp >= cutoff {
			recent[e.Slug] = true
		}
		if time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02") == today {
			todayCount++
		}
	}

	if todayCount >= p.cfg.MaxPostsPerDay {
		reason := fmt.Sprintf("daily cap reached: %d/%d posts today", todayCount, p.cfg.MaxPostsPerDay)
		log.Info().Str("reason", reason).Msg("📭 Nothing to publish")
		return Result{Skipped: len(candidates), Reason: reason}, nil
	}

	// Rank by score, then drop dedup collisions silently. Selecting a
	// candidate marks its slug, so a batch carrying the same market
	// twice (pagination can repeat one across pages) emits only the
	// highest-scoring copy.
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortByScore(sorted)

	eligible := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		if recent[c.Snapshot.Key()] {
			log.Debug().Str("slug", c.Snapshot.Key()).Msg("Dedup collision, dropped")
			continue
		}
		recent[c.Snapshot.Key()] = true
		eligible = append(eligible, c)
	}

	budget := p.cfg.MaxPostsPerDay - todayCount
	if len(eligible) > budget {
		eligible = eligible[:budget]
	}

	result := Result{Skipped: len(candidates) - len(eligible)}
	for _, c := range eligible {
		sig := types.Signal{
			Slug:        c.Snapshot.Key(),
			Question:    c.Snapshot.Question,
			Score:       c.Call.Score,
			ThreatScore: c.Snapshot.ThreatScore,
			Message:     RenderMessage(&c.Snapshot, &c.Call),
			Channel:     p.channel,
			Timestamp:   now,
		}

		if p.dryRun {
			log.Info().Str("slug", sig.Slug).Int("score", sig.Score).Msg("📝 Dry-run: signal suppressed")
			result.Published = append(result.Published, sig)
			continue
		}

		if err := p.emitter.Emit(sig); err != nil {
			log.Error().Err(err).Str("slug", sig.Slug).Msg("Emission failed")
			continue
		}

		fullLog = append(fullLog, types.PostLogEntry{
			Slug:       sig.Slug,
			Question:   sig.Question,
			Score:      sig.Score,
			Timestamp:  now.Unix(),
			EntryPrice: c.Snapshot.YesPrice,
		})
		if err := p.files.WritePostLog(fullLog); err != nil {
			// Fatal for this invocation: an unrecorded emission would
			// break the at-most-once guarantee next tick.
			return result, err
		}
		p.archive.RecordSignal(sig)
		result.Published = append(result.Published, sig)

		log.Info().
			Str("slug", sig.Slug).
			Int("score", sig.Score).
			Float64("threat", sig.ThreatScore).
			Msg("📣 Signal published")
	}

	if len(result.Published) == 0 && result.Reason == "" {
		result.Reason = "no eligible candidates"
	}
	return result, nil
}

func sortByScore(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Call.Score > cands[j].Call.Score
	})
}
