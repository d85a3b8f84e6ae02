// Package store owns the persisted truths: single-value JSON documents,
// each written by exactly one role, plus the sqlite history archive.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/0xLaVaN/prescience/internal/types"
)

// File names under the data directory. Post log, receipts and the
// scorecard snapshot are the authoritative records; everything else the
// pipeline derives is recomputable.
const (
	PostLogFile        = "telegram-post-log.json"
	ReceiptsFile       = "resolution-receipts.json"
	LiveProofsFile     = "live-proofs.json"
	ScorecardFile      = "scorecard.json"
	ProSubscribersFile = "pro-subscribers.json"
	DelayQueueFile     = "telegram-delay-queue.json"
)

// Files reads and writes the JSON documents in one data directory.
type Files struct {
	dir string
}

// NewFiles creates a file store rooted at dir, creating it if needed.
func NewFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Files{dir: dir}, nil
}

// ReadPostLog loads the post log; missing or unreadable files read as
// empty so a cold deployment starts clean.
func (f *Files) ReadPostLog() []types.PostLogEntry {
	var entries []types.PostLogEntry
	f.read(PostLogFile, &entries)
	return entries
}

// WritePostLog persists the post log. Write failure is fatal for the
// invocation: losing the dedup record would allow duplicate signals.
func (f *Files) WritePostLog(entries []types.PostLogEntry) error {
	return f.write(PostLogFile, entries)
}

// ReadReceipts loads the resolution receipts written by the tracker.
func (f *Files) ReadReceipts() []types.ResolutionReceipt {
	var receipts []types.ResolutionReceipt
	f.read(ReceiptsFile, &receipts)
	return receipts
}

// liveProofsDoc matches the on-disk shape of live-proofs.json.
type liveProofsDoc struct {
	Proofs []types.LiveProof `json:"proofs"`
}

// ReadLiveProofs loads the optional live-proof annotations.
func (f *Files) ReadLiveProofs() []types.LiveProof {
	var doc liveProofsDoc
	f.read(LiveProofsFile, &doc)
	return doc.Proofs
}

// ReadScorecard loads the cached scorecard snapshot.
func (f *Files) ReadScorecard() (types.Scorecard, bool) {
	var sc types.Scorecard
	ok := f.read(ScorecardFile, &sc)
	return sc, ok
}

// WriteScorecard persists the scorecard snapshot.
func (f *Files) WriteScorecard(sc types.Scorecard) error {
	return f.write(ScorecardFile, sc)
}

// SubscriberCount reports how many entries the premium-access
// collaborator has written. The core only ever reads counts.
func (f *Files) SubscriberCount() int {
	var subs []json.RawMessage
	f.read(ProSubscribersFile, &subs)
	return len(subs)
}

// DelayQueueDepth reports the pending delayed-delivery count.
func (f *Files) DelayQueueDepth() int {
	var queue []json.RawMessage
	f.read(DelayQueueFile, &queue)
	return len(queue)
}

// read decodes one document; false and an untouched target on any
// failure.
func (f *Files) read(name string, out interface{}) bool {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", name).Msg("Read failed, treating as empty")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Parse failed, treating as empty")
		return false
	}
	return true
}

// write marshals the document to a temp file and renames it into place
// so readers never observe a torn write.
func (f *Files) write(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(f.dir, name)
	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
