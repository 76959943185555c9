package repository

import (
	"context"
	"database/sql"
	"fmt"

	"AriaFM/model"
)

// AlbumRepository defines the interface for album data operations.
type AlbumRepository interface {
	GetAlbumByApiKey(ctx context.Context, apiKey string) (*model.Album, error)
	GetAlbumsByArtistID(ctx context.Context, artistID int64) ([]*model.Album, error)
}

const albumColumns = `id, api_key, artist_id, title, COALESCE(year, 0), directory,
	COALESCE(cover_art_path, ''), COALESCE(musicbrainz_id, ''), created_at, updated_at`

type mysqlAlbumRepository struct {
	db *sql.DB
}

// NewMySQLAlbumRepository creates a new mysqlAlbumRepository.
func NewMySQLAlbumRepository(db *sql.DB) AlbumRepository {
	return &mysqlAlbumRepository{db: db}
}

func scanAlbum(scanner interface{ Scan(...interface{}) error }) (*model.Album, error) {
	album := &model.Album{}
	err := scanner.Scan(&album.ID, &album.ApiKey, &album.ArtistID, &album.Title, &album.Year,
		&album.Directory, &album.CoverArtPath, &album.MusicBrainzID, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return album, nil
}

// GetAlbumByApiKey retrieves an album by its external API key.
func (r *mysqlAlbumRepository) GetAlbumByApiKey(ctx context.Context, apiKey string) (*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums WHERE api_key = ?"
	album, err := scanAlbum(r.db.QueryRowContext(ctx, query, apiKey))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Album not found
		}
		return nil, fmt.Errorf("failed to scan album row for api key %s: %w", apiKey, err)
	}
	return album, nil
}

// GetAlbumsByArtistID lists an artist's albums ordered by year then title.
func (r *mysqlAlbumRepository) GetAlbumsByArtistID(ctx context.Context, artistID int64) ([]*model.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums WHERE artist_id = ? ORDER BY year, title"
	rows, err := r.db.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums for artist %d: %w", artistID, err)
	}
	defer rows.Close()

	var albums []*model.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate album rows: %w", err)
	}
	return albums, nil
}
