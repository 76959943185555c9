package repository

import (
	"context"
	"database/sql"
	"fmt"

	"AriaFM/model"
)

// PlayStatsRepository persists playback facts for the internal scrobble
// backend.
type PlayStatsRepository interface {
	RecordPlay(ctx context.Context, userApiKey string, record *model.ScrobbleRecord) error
	PlayCount(ctx context.Context, songID int64) (int, error)
}

type mysqlPlayStatsRepository struct {
	db *sql.DB
}

// NewMySQLPlayStatsRepository creates a new mysqlPlayStatsRepository.
func NewMySQLPlayStatsRepository(db *sql.DB) PlayStatsRepository {
	return &mysqlPlayStatsRepository{db: db}
}

// RecordPlay inserts one playback fact.
func (r *mysqlPlayStatsRepository) RecordPlay(ctx context.Context, userApiKey string, record *model.ScrobbleRecord) error {
	query := `INSERT INTO play_stats (user_api_key, song_id, player_name, is_randomized, played_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		userApiKey, record.SongID, record.PlayerName, record.IsRandomized, record.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert play stat for song %d: %w", record.SongID, err)
	}
	return nil
}

// PlayCount returns the number of recorded plays for a song.
func (r *mysqlPlayStatsRepository) PlayCount(ctx context.Context, songID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM play_stats WHERE song_id = ?", songID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for song %d: %w", songID, err)
	}
	return count, nil
}
