package repository

import (
	"context"
	"database/sql"
	"fmt"

	"AriaFM/model"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	GetArtistByID(ctx context.Context, id int64) (*model.Artist, error)
	GetArtistByApiKey(ctx context.Context, apiKey string) (*model.Artist, error)
	ListArtists(ctx context.Context) ([]*model.Artist, error)
}

const artistColumns = `id, api_key, name, directory, COALESCE(musicbrainz_id, ''), created_at, updated_at`

type mysqlArtistRepository struct {
	db *sql.DB
}

// NewMySQLArtistRepository creates a new mysqlArtistRepository.
func NewMySQLArtistRepository(db *sql.DB) ArtistRepository {
	return &mysqlArtistRepository{db: db}
}

// GetArtistByID retrieves an artist by its internal id.
func (r *mysqlArtistRepository) GetArtistByID(ctx context.Context, id int64) (*model.Artist, error) {
	query := "SELECT " + artistColumns + " FROM artists WHERE id = ?"
	artist := &model.Artist{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&artist.ID, &artist.ApiKey,
		&artist.Name, &artist.Directory, &artist.MusicBrainzID, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist row for id %d: %w", id, err)
	}
	return artist, nil
}

// GetArtistByApiKey retrieves an artist by its external API key.
func (r *mysqlArtistRepository) GetArtistByApiKey(ctx context.Context, apiKey string) (*model.Artist, error) {
	query := "SELECT " + artistColumns + " FROM artists WHERE api_key = ?"
	artist := &model.Artist{}
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(&artist.ID, &artist.ApiKey,
		&artist.Name, &artist.Directory, &artist.MusicBrainzID, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist row for api key %s: %w", apiKey, err)
	}
	return artist, nil
}

// ListArtists lists every artist ordered by name.
func (r *mysqlArtistRepository) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	query := "SELECT " + artistColumns + " FROM artists ORDER BY name"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*model.Artist
	for rows.Next() {
		artist := &model.Artist{}
		if err := rows.Scan(&artist.ID, &artist.ApiKey, &artist.Name, &artist.Directory,
			&artist.MusicBrainzID, &artist.CreatedAt, &artist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artist rows: %w", err)
	}
	return artists, nil
}
