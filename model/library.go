package model

import "time"

// Artist represents a music artist in the library.
type Artist struct {
	ID            int64     `json:"id"`
	ApiKey        string    `json:"apiKey"`
	Name          string    `json:"name"`
	Directory     string    `json:"-"` // directory name under the library root
	MusicBrainzID string    `json:"musicBrainzId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Album represents an album belonging to an artist.
type Album struct {
	ID            int64     `json:"id"`
	ApiKey        string    `json:"apiKey"`
	ArtistID      int64     `json:"artistId"`
	Title         string    `json:"title"`
	Year          int       `json:"year,omitempty"`
	Directory     string    `json:"-"` // directory name under the artist directory
	CoverArtPath  string    `json:"coverArtPath,omitempty"`
	MusicBrainzID string    `json:"musicBrainzId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Song represents a single audio file in the library.
type Song struct {
	ID            int64     `json:"id"`
	ApiKey        string    `json:"apiKey"`
	ArtistID      int64     `json:"artistId"`
	AlbumID       int64     `json:"albumId"`
	Title         string    `json:"title"`
	TrackNumber   int       `json:"trackNumber,omitempty"`
	Duration      float64   `json:"duration"` // seconds
	BitRate       int       `json:"bitRate"`  // kbps of the source file
	ContentType   string    `json:"contentType"`
	FileName      string    `json:"-"`
	FileSize      int64     `json:"-"`
	MusicBrainzID string    `json:"musicBrainzId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StreamableSong is the denormalized song->album->artist join used by the
// streaming and scrobbling paths: everything needed to locate the file on
// disk and to describe the track to a scrobble backend, fetched in one read.
type StreamableSong struct {
	Song
	ArtistName     string `json:"artistName"`
	ArtistApiKey   string `json:"artistApiKey"`
	ArtistDir      string `json:"-"`
	AlbumTitle     string `json:"albumTitle"`
	AlbumApiKey    string `json:"albumApiKey"`
	AlbumDir       string `json:"-"`
	AlbumCoverPath string `json:"-"`
}
