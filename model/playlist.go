package model

import "time"

// Playlist is a user-owned ordered collection of songs. Stored via GORM,
// unlike the library tables which use hand-written SQL.
type Playlist struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	ApiKey    string          `json:"apiKey" gorm:"size:36;uniqueIndex"`
	UserID    int64           `json:"userId" gorm:"index"`
	Name      string          `json:"name" gorm:"size:255"`
	Comment   string          `json:"comment,omitempty" gorm:"size:1024"`
	IsPublic  bool            `json:"isPublic"`
	Entries   []PlaylistEntry `json:"entries,omitempty" gorm:"foreignKey:PlaylistID"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PlaylistEntry places one song at a position within a playlist.
type PlaylistEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PlaylistID int64     `json:"playlistId" gorm:"index"`
	SongID     int64     `json:"songId"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}
