package repository

import (
	"context"
	"database/sql"
	"fmt"

	"AriaFM/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	GetSongByApiKey(ctx context.Context, apiKey string) (*model.Song, error)
	// GetStreamableSongByApiKey fetches the song joined with its album and
	// artist rows in a single read, as needed by streaming and scrobbling.
	GetStreamableSongByApiKey(ctx context.Context, apiKey string) (*model.StreamableSong, error)
	GetSongsByAlbumID(ctx context.Context, albumID int64) ([]*model.Song, error)
	GetSongsByIDs(ctx context.Context, ids []int64) ([]*model.Song, error)
	SearchSongs(ctx context.Context, query string, limit int) ([]*model.Song, error)
}

const songColumns = `s.id, s.api_key, s.artist_id, s.album_id, s.title, COALESCE(s.track_number, 0),
	COALESCE(s.duration, 0), COALESCE(s.bit_rate, 0), COALESCE(s.content_type, ''),
	s.file_name, COALESCE(s.file_size, 0), COALESCE(s.musicbrainz_id, ''), s.created_at, s.updated_at`

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

func scanSong(scanner interface{ Scan(...interface{}) error }, song *model.Song) error {
	return scanner.Scan(&song.ID, &song.ApiKey, &song.ArtistID, &song.AlbumID, &song.Title,
		&song.TrackNumber, &song.Duration, &song.BitRate, &song.ContentType,
		&song.FileName, &song.FileSize, &song.MusicBrainzID, &song.CreatedAt, &song.UpdatedAt)
}

// GetSongByApiKey retrieves a song by its external API key.
func (r *mysqlSongRepository) GetSongByApiKey(ctx context.Context, apiKey string) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs s WHERE s.api_key = ?"
	song := &model.Song{}
	if err := scanSong(r.db.QueryRowContext(ctx, query, apiKey), song); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song row for api key %s: %w", apiKey, err)
	}
	return song, nil
}

// GetStreamableSongByApiKey retrieves a song together with the album and
// artist fields needed to compose the file path and describe the track.
func (r *mysqlSongRepository) GetStreamableSongByApiKey(ctx context.Context, apiKey string) (*model.StreamableSong, error) {
	query := "SELECT " + songColumns + `,
		ar.name, ar.api_key, ar.directory,
		al.title, al.api_key, al.directory, COALESCE(al.cover_art_path, '')
	FROM songs s
	JOIN artists ar ON ar.id = s.artist_id
	JOIN albums al ON al.id = s.album_id
	WHERE s.api_key = ?`

	ss := &model.StreamableSong{}
	row := r.db.QueryRowContext(ctx, query, apiKey)
	err := row.Scan(&ss.ID, &ss.ApiKey, &ss.ArtistID, &ss.AlbumID, &ss.Title,
		&ss.TrackNumber, &ss.Duration, &ss.BitRate, &ss.ContentType,
		&ss.FileName, &ss.FileSize, &ss.MusicBrainzID, &ss.CreatedAt, &ss.UpdatedAt,
		&ss.ArtistName, &ss.ArtistApiKey, &ss.ArtistDir,
		&ss.AlbumTitle, &ss.AlbumApiKey, &ss.AlbumDir, &ss.AlbumCoverPath)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan streamable song row for api key %s: %w", apiKey, err)
	}
	return ss, nil
}

// GetSongsByAlbumID lists an album's songs ordered by track number.
func (r *mysqlSongRepository) GetSongsByAlbumID(ctx context.Context, albumID int64) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs s WHERE s.album_id = ? ORDER BY s.track_number, s.title"
	rows, err := r.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for album %d: %w", albumID, err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// GetSongsByIDs retrieves songs by internal ids, preserving no particular order.
func (r *mysqlSongRepository) GetSongsByIDs(ctx context.Context, ids []int64) ([]*model.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}

	query := "SELECT " + songColumns + " FROM songs s WHERE s.id IN (" + placeholders + ")"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs by ids: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

// SearchSongs does a LIKE match across song titles.
func (r *mysqlSongRepository) SearchSongs(ctx context.Context, search string, limit int) ([]*model.Song, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT " + songColumns + " FROM songs s WHERE s.title LIKE ? ORDER BY s.title LIMIT ?"
	rows, err := r.db.QueryContext(ctx, query, "%"+search+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

func collectSongs(rows *sql.Rows) ([]*model.Song, error) {
	var songs []*model.Song
	for rows.Next() {
		song := &model.Song{}
		if err := scanSong(rows, song); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate song rows: %w", err)
	}
	return songs, nil
}
