package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/bpmx/internal/models"
)

// HistoryRepository caches recent [models.HistoryEntry] values on the history table.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts entry and prunes the table to the newest limit rows
func (r *HistoryRepository) Save(ctx context.Context, entry models.HistoryEntry, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO history (id, title, tempo_bpm, musical_key, duration, sample_rate, download_url, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		entry.ID,
		entry.Title,
		entry.TempoBPM,
		entry.Key,
		entry.Duration,
		entry.SampleRate,
		entry.DownloadURL,
		entry.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if limit > 0 {
		prune := `
			DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY completed_at DESC, rowid DESC LIMIT ?
			)
		`
		if _, err := tx.ExecContext(ctx, prune, limit); err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history entry: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, title, tempo_bpm, musical_key, duration, sample_rate, download_url, completed_at
		FROM history
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			e           models.HistoryEntry
			completedAt time.Time
		)

		err := rows.Scan(&e.ID, &e.Title, &e.TempoBPM, &e.Key, &e.Duration, &e.SampleRate, &e.DownloadURL, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.CompletedAt = completedAt.Local()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Get retrieves one cached entry by ID
func (r *HistoryRepository) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := `
		SELECT id, title, tempo_bpm, musical_key, duration, sample_rate, download_url, completed_at
		FROM history
		WHERE id = ?
	`

	var e models.HistoryEntry
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.Title, &e.TempoBPM, &e.Key, &e.Duration, &e.SampleRate, &e.DownloadURL, &e.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history entry: %w", err)
	}

	e.CompletedAt = e.CompletedAt.Local()
	return &e, nil
}

// Clear removes every cached entry
func (r *HistoryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
