package subsonic

import (
	"encoding/xml"
	"time"

	"AriaFM/model"
)

// Wire views for the Subsonic payloads. These are distinct from the model
// structs: ids are composite api ids, durations are integer seconds, and
// the element naming follows the protocol rather than our schema. Only the
// top-level payload containers carry an XMLName; element names come from
// the container field tags, because the same view can appear under
// different element names (a song is <song> in search results but <entry>
// in now-playing lists).

// License reports the (always valid) license status.
type License struct {
	XMLName xml.Name `xml:"license" json:"-"`
	Valid   bool     `xml:"valid,attr" json:"valid"`
}

// ArtistView is a single artist reference.
type ArtistView struct {
	ID         string `xml:"id,attr" json:"id"`
	Name       string `xml:"name,attr" json:"name"`
	CoverArt   string `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	AlbumCount int    `xml:"albumCount,attr,omitempty" json:"albumCount,omitempty"`
}

// IndexView groups artists under one index letter.
type IndexView struct {
	Name    string       `xml:"name,attr" json:"name"`
	Artists []ArtistView `xml:"artist" json:"artist"`
}

// ArtistsContainer is the getArtists payload.
type ArtistsContainer struct {
	XMLName xml.Name    `xml:"artists" json:"-"`
	Index   []IndexView `xml:"index" json:"index"`
}

// AlbumView is a single album reference.
type AlbumView struct {
	ID        string `xml:"id,attr" json:"id"`
	Name      string `xml:"name,attr" json:"name"`
	Artist    string `xml:"artist,attr" json:"artist"`
	ArtistID  string `xml:"artistId,attr" json:"artistId"`
	Year      int    `xml:"year,attr,omitempty" json:"year,omitempty"`
	CoverArt  string `xml:"coverArt,attr,omitempty" json:"coverArt,omitempty"`
	SongCount int    `xml:"songCount,attr" json:"songCount"`
	Duration  int    `xml:"duration,attr" json:"duration"`
}

// ArtistWithAlbums is the getArtist payload.
type ArtistWithAlbums struct {
	XMLName xml.Name    `xml:"artist" json:"-"`
	ID      string      `xml:"id,attr" json:"id"`
	Name    string      `xml:"name,attr" json:"name"`
	Albums  []AlbumView `xml:"album" json:"album"`
}

// SongView is a single song reference.
type SongView struct {
	ID          string `xml:"id,attr" json:"id"`
	Parent      string `xml:"parent,attr,omitempty" json:"parent,omitempty"`
	Title       string `xml:"title,attr" json:"title"`
	Album       string `xml:"album,attr,omitempty" json:"album,omitempty"`
	Artist      string `xml:"artist,attr,omitempty" json:"artist,omitempty"`
	Track       int    `xml:"track,attr,omitempty" json:"track,omitempty"`
	Duration    int    `xml:"duration,attr,omitempty" json:"duration,omitempty"`
	BitRate     int    `xml:"bitRate,attr,omitempty" json:"bitRate,omitempty"`
	ContentType string `xml:"contentType,attr,omitempty" json:"contentType,omitempty"`
	Size        int64  `xml:"size,attr,omitempty" json:"size,omitempty"`
	PlayCount   int    `xml:"playCount,attr,omitempty" json:"playCount,omitempty"`
}

// SongContainer is the getSong payload.
type SongContainer struct {
	XMLName xml.Name `xml:"song" json:"-"`
	SongView
}

// AlbumWithSongs is the getAlbum payload.
type AlbumWithSongs struct {
	XMLName xml.Name `xml:"album" json:"-"`
	AlbumView
	Songs []SongView `xml:"song" json:"song"`
}

// NowPlayingView is one entry of the getNowPlaying payload: a song
// reference plus who is playing it where.
type NowPlayingView struct {
	SongView
	Username   string `xml:"username,attr" json:"username"`
	MinutesAgo int    `xml:"minutesAgo,attr" json:"minutesAgo"`
	PlayerName string `xml:"playerName,attr,omitempty" json:"playerName,omitempty"`
}

// NowPlayingContainer is the getNowPlaying payload. The container is named
// "nowPlaying" while each element is an "entry" (the list/detail naming
// quirk of the protocol).
type NowPlayingContainer struct {
	XMLName xml.Name         `xml:"nowPlaying" json:"-"`
	Entries []NowPlayingView `xml:"entry" json:"entry"`
}

// PlaylistView is a single playlist reference.
type PlaylistView struct {
	ID        string `xml:"id,attr" json:"id"`
	Name      string `xml:"name,attr" json:"name"`
	Comment   string `xml:"comment,attr,omitempty" json:"comment,omitempty"`
	Owner     string `xml:"owner,attr,omitempty" json:"owner,omitempty"`
	Public    bool   `xml:"public,attr" json:"public"`
	SongCount int    `xml:"songCount,attr" json:"songCount"`
}

// PlaylistsContainer is the getPlaylists payload.
type PlaylistsContainer struct {
	XMLName   xml.Name       `xml:"playlists" json:"-"`
	Playlists []PlaylistView `xml:"playlist" json:"playlist"`
}

// PlaylistWithSongs is the getPlaylist payload.
type PlaylistWithSongs struct {
	XMLName xml.Name `xml:"playlist" json:"-"`
	PlaylistView
	Songs []SongView `xml:"entry" json:"entry"`
}

// SearchResult3 is the search3 payload.
type SearchResult3 struct {
	XMLName xml.Name   `xml:"searchResult3" json:"-"`
	Songs   []SongView `xml:"song" json:"song"`
}

// NewSongView converts a library song to its wire view.
func NewSongView(song *model.Song, albumApiKey, artistName, albumTitle string) SongView {
	return SongView{
		ID:          EncodeID(KindSong, song.ApiKey),
		Parent:      EncodeID(KindAlbum, albumApiKey),
		Title:       song.Title,
		Album:       albumTitle,
		Artist:      artistName,
		Track:       song.TrackNumber,
		Duration:    int(song.Duration),
		BitRate:     song.BitRate,
		ContentType: song.ContentType,
		Size:        song.FileSize,
	}
}

// NewStreamableSongView converts the joined song row to its wire view.
func NewStreamableSongView(ss *model.StreamableSong) SongView {
	return NewSongView(&ss.Song, ss.AlbumApiKey, ss.ArtistName, ss.AlbumTitle)
}

// NewNowPlayingView builds a now-playing entry from the registry entry and
// its resolved song.
func NewNowPlayingView(entry *model.NowPlayingEntry, ss *model.StreamableSong, username string, now time.Time) NowPlayingView {
	return NowPlayingView{
		SongView:   NewStreamableSongView(ss),
		Username:   username,
		MinutesAgo: int(now.Sub(entry.StartedAt).Minutes()),
		PlayerName: entry.PlayerName,
	}
}
