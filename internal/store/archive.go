package store

import (
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/0xLaVaN/prescience/internal/types"
)

// Archive keeps the full publication and scan history in sqlite. It is
// non-authoritative: nothing in the gating path reads it back, it exists
// for replay and debugging. A nil path disables it.
type Archive struct {
	db      *gorm.DB
	enabled bool
}

// ArchivedSignal is one published signal row.
type ArchivedSignal struct {
	ID          uint   `gorm:"primaryKey"`
	Slug        string `gorm:"index"`
	Question    string
	Score       int
	ThreatScore float64
	Channel     string
	Message     string
	PostedAt    time.Time `gorm:"index"`
}

// ArchivedScanRun is one scan invocation summary.
type ArchivedScanRun struct {
	ID               uint   `gorm:"primaryKey"`
	Tier             string `gorm:"index"` // "tier1" or "tier2"
	MarketsProcessed int
	ResultsEmitted   int
	TopSlug          string
	TopScore         float64
	RanAt            time.Time `gorm:"index"`
}

// NewArchive opens the sqlite archive. An empty path runs without
// history, mirroring how missing persistence degrades elsewhere.
func NewArchive(path string) (*Archive, error) {
	if path == "" {
		log.Warn().Msg("ARCHIVE_PATH not set, running without history")
		return &Archive{enabled: false}, nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ArchivedSignal{}, &ArchivedScanRun{}); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("💾 Archive connected")
	return &Archive{db: db, enabled: true}, nil
}

// RecordSignal appends a published signal to the history.
func (a *Archive) RecordSignal(sig types.Signal) {
	if !a.enabled {
		return
	}
	row := ArchivedSignal{
		Slug:        sig.Slug,
		Question:    sig.Question,
		Score:       sig.Score,
		ThreatScore: sig.ThreatScore,
		Channel:     sig.Channel,
		Message:     sig.Message,
		PostedAt:    sig.Timestamp,
	}
	if err := a.db.Create(&row).Error; err != nil {
		log.Warn().Err(err).Str("slug", sig.Slug).Msg("Archive write failed")
	}
}

// RecordScanRun appends a scan summary to the history.
func (a *Archive) RecordScanRun(tier string, processed, emitted int, topSlug string, topScore float64) {
	if !a.enabled {
		return
	}
	row := ArchivedScanRun{
		Tier:             tier,
		MarketsProcessed: processed,
		ResultsEmitted:   emitted,
		TopSlug:          topSlug,
		TopScore:         topScore,
		RanAt:            time.Now(),
	}
	if err := a.db.Create(&row).Error; err != nil {
		log.Warn().Err(err).Str("tier", tier).Msg("Archive write failed")
	}
}
