package repository

import (
	"context"
	"errors"
	"fmt"

	"AriaFM/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines playlist CRUD. Backed by GORM rather than the
// hand-written SQL the library tables use.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByApiKey(ctx context.Context, apiKey string) (*model.Playlist, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Playlist, error)
	Delete(ctx context.Context, apiKey string, userID int64) error
	ReplaceEntries(ctx context.Context, playlistID int64, songIDs []int64) error
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// Create stores a playlist with its entries.
func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

// GetByApiKey loads one playlist with its entries in position order.
func (r *gormPlaylistRepository) GetByApiKey(ctx context.Context, apiKey string) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("api_key = ?", apiKey).
		First(&playlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to load playlist %s: %w", apiKey, err)
	}
	return &playlist, nil
}

// ListByUser lists the playlists a user owns.
func (r *gormPlaylistRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists for user %d: %w", userID, err)
	}
	return playlists, nil
}

// Delete removes a playlist owned by the given user, entries included.
func (r *gormPlaylistRepository) Delete(ctx context.Context, apiKey string, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var playlist model.Playlist
		err := tx.Where("api_key = ? AND user_id = ?", apiKey, userID).First(&playlist).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load playlist %s: %w", apiKey, err)
		}

		if err := tx.Where("playlist_id = ?", playlist.ID).Delete(&model.PlaylistEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete playlist entries: %w", err)
		}
		if err := tx.Delete(&playlist).Error; err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}
		return nil
	})
}

// ReplaceEntries swaps a playlist's song list for the given ordered ids.
func (r *gormPlaylistRepository) ReplaceEntries(ctx context.Context, playlistID int64, songIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&model.PlaylistEntry{}).Error; err != nil {
			return fmt.Errorf("failed to clear playlist entries: %w", err)
		}
		for i, songID := range songIDs {
			entry := model.PlaylistEntry{PlaylistID: playlistID, SongID: songID, Position: i}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to insert playlist entry: %w", err)
			}
		}
		return nil
	})
}
