package model

import "time"

// NowPlayingEntry is the transient "currently playing" state for one
// (user, song) pair. UniqueID is derived from the pair so repeated pings
// collapse into a single entry.
type NowPlayingEntry struct {
	UniqueID        string    `json:"uniqueId"`
	UserApiKey      string    `json:"userApiKey"`
	SongApiKey      string    `json:"songApiKey"`
	PlayerName      string    `json:"playerName"`
	Position        int       `json:"position"` // seconds into the track
	StartedAt       time.Time `json:"startedAt"`
	LastScrobbledAt time.Time `json:"lastScrobbledAt"`
}

// ScrobbleRecord is the normalized, backend-agnostic playback fact built
// for every now-playing or scrobble dispatch. It is never persisted here;
// each backend decides what to do with it.
type ScrobbleRecord struct {
	SongApiKey    string    `json:"songApiKey"`
	ArtistID      int64     `json:"artistId"`
	AlbumID       int64     `json:"albumId"`
	SongID        int64     `json:"songId"`
	SongTitle     string    `json:"songTitle"`
	ArtistName    string    `json:"artistName"`
	AlbumTitle    string    `json:"albumTitle"`
	Duration      float64   `json:"duration"`
	MusicBrainzID string    `json:"musicBrainzId,omitempty"`
	TrackNumber   int       `json:"trackNumber,omitempty"`
	IsRandomized  bool      `json:"isRandomized"`
	PlayedAt      time.Time `json:"playedAt"`
	PlayerName    string    `json:"playerName"`
}
