// Package history keeps the bounded, newest-first record of completed analyses.
package history

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
)

// DefaultLimit is the retention cap used when none is configured.
const DefaultLimit = 10

// Cache is optional durable storage behind a [Ledger]. Failures never reach ledger callers.
type Cache interface {
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Save(ctx context.Context, entry models.HistoryEntry, limit int) error
	Clear(ctx context.Context) error
}

// Ledger holds at most limit entries, newest first. Safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	limit   int
	entries []models.HistoryEntry
	cache   Cache
	logger  *log.Logger
}

// New creates an empty ledger. A nil cache keeps the ledger in memory only.
func New(limit int, cache Cache, logger *log.Logger) *Ledger {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger{limit: limit, cache: cache, logger: logger}
}

// NewEntry derives a history entry from result.
func NewEntry(result models.AnalysisResult, title string, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:          shared.GenerateID(),
		Title:       title,
		TempoBPM:    result.TempoBPM,
		Key:         result.Key,
		Duration:    result.Duration,
		SampleRate:  result.SampleRate,
		DownloadURL: result.DownloadURL,
		CompletedAt: at,
	}
}

// Limit returns the retention cap.
func (l *Ledger) Limit() int { return l.limit }

// Record prepends entry and evicts from the tail past the cap.
func (l *Ledger) Record(entry models.HistoryEntry) {
	l.mu.Lock()
	l.entries = slices.Insert(l.entries, 0, entry)
	if len(l.entries) > l.limit {
		l.entries = slices.Clip(l.entries[:l.limit])
	}
	l.mu.Unlock()

	if l.cache == nil {
		return
	}
	if err := l.cache.Save(context.Background(), entry, l.limit); err != nil {
		l.logger.Warn("failed to cache history entry", "id", entry.ID, "error", err)
	}
}

// All yields a snapshot of the entries, newest first.
func (l *Ledger) All() iter.Seq[models.HistoryEntry] {
	snapshot := l.Entries()
	return slices.Values(snapshot)
}

// Entries returns a copy of the entries, newest first.
func (l *Ledger) Entries() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Get returns the entry at position i, where 0 is the newest.
func (l *Ledger) Get(i int) (models.HistoryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.entries) {
		return models.HistoryEntry{}, false
	}
	return l.entries[i], true
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the ledger and, best-effort, its cache.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()

	if l.cache == nil {
		return
	}
	if err := l.cache.Clear(ctx); err != nil {
		l.logger.Warn("failed to clear history cache", "error", err)
	}
}

// Load replaces the entries with the cache's most recent ones.
func (l *Ledger) Load(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}

	entries, err := l.cache.Recent(ctx, l.limit)
	if err != nil {
		return err
	}
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}

	l.mu.Lock()
	l.entries = slices.Clone(entries)
	l.mu.Unlock()

	l.logger.Debug("history loaded", "count", len(entries))
	return nil
}
