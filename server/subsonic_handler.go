package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"AriaFM/core/subsonic"
	"AriaFM/logger"
	"AriaFM/model"
)

// PingHandler answers the connectivity check. Ping is the one endpoint that
// skips authentication so clients can probe the server before asking the
// user for credentials.
func (h *APIHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	req := subsonic.ParseRequest(r, false)
	writeSubsonicResponse(w, req, h.ok())
}

// GetLicenseHandler reports a perpetually valid license. The endpoint only
// exists because clients refuse to talk to servers without it.
func (h *APIHandler) GetLicenseHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	writeSubsonicResponse(w, req, h.ok().WithPayload("license", subsonic.License{Valid: true}))
}

// GetArtistsHandler lists every artist grouped under index letters.
func (h *APIHandler) GetArtistsHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	artists, err := h.artistRepo.ListArtists(r.Context())
	if err != nil {
		logger.Error("Failed to list artists", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	// ListArtists orders by name, so grouping preserves order within each
	// index.
	var indexes []subsonic.IndexView
	byLetter := map[string]int{}
	for _, artist := range artists {
		letter := indexLetter(artist.Name)
		view := subsonic.ArtistView{
			ID:   subsonic.EncodeID(subsonic.KindArtist, artist.ApiKey),
			Name: artist.Name,
		}

		pos, seen := byLetter[letter]
		if !seen {
			byLetter[letter] = len(indexes)
			indexes = append(indexes, subsonic.IndexView{Name: letter})
			pos = len(indexes) - 1
		}
		indexes[pos].Artists = append(indexes[pos].Artists, view)
	}

	payload := subsonic.ArtistsContainer{Index: indexes}
	writeSubsonicResponse(w, req, h.ok().WithPayload("artists", payload))
}

// indexLetter buckets an artist name: letters index under their uppercase
// form, everything else under "#".
func indexLetter(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "#"
	}
	first := []rune(trimmed)[0]
	if !unicode.IsLetter(first) {
		return "#"
	}
	return string(unicode.ToUpper(first))
}

// GetArtistHandler returns one artist with their albums.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Artist not found."))
		return
	}

	artist, err := h.artistRepo.GetArtistByApiKey(r.Context(), guid.String())
	if err != nil {
		logger.Error("Failed to load artist", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if artist == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Artist not found."))
		return
	}

	albums, err := h.albumRepo.GetAlbumsByArtistID(r.Context(), artist.ID)
	if err != nil {
		logger.Error("Failed to load albums", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	payload := subsonic.ArtistWithAlbums{
		ID:   subsonic.EncodeID(subsonic.KindArtist, artist.ApiKey),
		Name: artist.Name,
	}
	for _, album := range albums {
		view, err := h.albumView(r.Context(), album, artist)
		if err != nil {
			logger.Error("Failed to build album view", logger.ErrorField(err))
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
			return
		}
		payload.Albums = append(payload.Albums, view)
	}

	writeSubsonicResponse(w, req, h.ok().WithPayload("artist", payload))
}

// albumView builds the album wire view, counting the songs to fill the
// songCount and duration attributes the protocol requires on every album.
func (h *APIHandler) albumView(ctx context.Context, album *model.Album, artist *model.Artist) (subsonic.AlbumView, error) {
	songs, err := h.songRepo.GetSongsByAlbumID(ctx, album.ID)
	if err != nil {
		return subsonic.AlbumView{}, err
	}

	var duration float64
	for _, song := range songs {
		duration += song.Duration
	}

	view := subsonic.AlbumView{
		ID:        subsonic.EncodeID(subsonic.KindAlbum, album.ApiKey),
		Name:      album.Title,
		Artist:    artist.Name,
		ArtistID:  subsonic.EncodeID(subsonic.KindArtist, artist.ApiKey),
		Year:      album.Year,
		SongCount: len(songs),
		Duration:  int(duration),
	}
	if album.CoverArtPath != "" {
		view.CoverArt = subsonic.EncodeID(subsonic.KindAlbum, album.ApiKey)
	}
	return view, nil
}

// GetAlbumHandler returns one album with its songs.
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Album not found."))
		return
	}

	album, err := h.albumRepo.GetAlbumByApiKey(r.Context(), guid.String())
	if err != nil {
		logger.Error("Failed to load album", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if album == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Album not found."))
		return
	}

	artist, err := h.artistRepo.GetArtistByID(r.Context(), album.ArtistID)
	if err != nil || artist == nil {
		logger.Error("Failed to load album artist",
			logger.Int64("artistId", album.ArtistID),
			logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	view, err := h.albumView(r.Context(), album, artist)
	if err != nil {
		logger.Error("Failed to build album view", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	songs, err := h.songRepo.GetSongsByAlbumID(r.Context(), album.ID)
	if err != nil {
		logger.Error("Failed to load album songs", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	payload := subsonic.AlbumWithSongs{AlbumView: view}
	for _, song := range songs {
		payload.Songs = append(payload.Songs, subsonic.NewSongView(song, album.ApiKey, artist.Name, album.Title))
	}

	writeSubsonicResponse(w, req, h.ok().WithPayload("album", payload))
}

// GetSongHandler returns one song.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Song not found."))
		return
	}

	song, err := h.songRepo.GetStreamableSongByApiKey(r.Context(), guid.String())
	if err != nil {
		logger.Error("Failed to load song", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if song == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Song not found."))
		return
	}

	view := subsonic.NewStreamableSongView(song)
	if count, cerr := h.playStatsRepo.PlayCount(r.Context(), song.ID); cerr != nil {
		logger.Warn("Failed to count plays",
			logger.Int64("songId", song.ID),
			logger.ErrorField(cerr))
	} else {
		view.PlayCount = count
	}

	payload := subsonic.SongContainer{SongView: view}
	writeSubsonicResponse(w, req, h.ok().WithPayload("song", payload))
}

// GetNowPlayingHandler lists what everyone is currently playing. Entries
// whose song or user can no longer be resolved are dropped from the listing
// and removed from the registry.
func (h *APIHandler) GetNowPlayingHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	entries, err := h.registry.List(r.Context())
	if err != nil {
		logger.Error("Failed to list now-playing entries", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	now := time.Now().UTC()
	payload := subsonic.NowPlayingContainer{Entries: []subsonic.NowPlayingView{}}
	for i := range entries {
		entry := entries[i]

		song, err := h.songRepo.GetStreamableSongByApiKey(r.Context(), entry.SongApiKey)
		if err != nil {
			logger.Error("Failed to resolve now-playing song", logger.ErrorField(err))
			continue
		}
		user, uerr := h.userRepo.GetUserByApiKey(r.Context(), entry.UserApiKey)
		if uerr != nil {
			logger.Error("Failed to resolve now-playing user", logger.ErrorField(uerr))
			continue
		}
		if song == nil || user == nil {
			logger.Warn("Dropping stale now-playing entry",
				logger.String("uniqueId", entry.UniqueID))
			if err := h.registry.Remove(r.Context(), entry.UniqueID); err != nil {
				logger.Error("Failed to remove stale now-playing entry", logger.ErrorField(err))
			}
			continue
		}

		payload.Entries = append(payload.Entries, subsonic.NewNowPlayingView(&entry, song, user.Username, now))
	}

	writeSubsonicResponse(w, req, h.ok().WithPayload("nowPlaying", payload))
}

// ScrobbleHandler registers a play. submission=false announces the track as
// now playing; submission=true (the default) records a completed play.
// Backend-level failures are tolerated and never surface to the client; the
// envelope only fails when the dispatch itself errors.
func (h *APIHandler) ScrobbleHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	q := r.URL.Query()

	songID := q.Get("id")
	if songID == "" {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeMissingParameter, "Required parameter 'id' is missing."))
		return
	}

	submission := true
	if v := q.Get("submission"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			submission = parsed
		}
	}

	var err error
	if submission {
		playedAt := time.Time{}
		if v := q.Get("time"); v != "" {
			if ms, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				playedAt = time.UnixMilli(ms).UTC()
			}
		}
		isRandomized := false
		if v := q.Get("isRandomized"); v != "" {
			if parsed, perr := strconv.ParseBool(v); perr == nil {
				isRandomized = parsed
			}
		}
		_, err = h.dispatcher.Scrobble(r.Context(), user, songID, isRandomized, req.Client, playedAt)
	} else {
		position := 0
		if v := q.Get("position"); v != "" {
			if parsed, perr := strconv.Atoi(v); perr == nil {
				position = parsed
			}
		}
		_, err = h.dispatcher.NowPlaying(r.Context(), user, songID, req.Client, position)
	}
	if err != nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	if h.feed != nil {
		h.feed.NotifyChanged()
	}
	writeSubsonicResponse(w, req, h.ok())
}

// StreamHandler serves the song's bytes for playback.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	h.serveBytes(w, r, req, false)
}

// DownloadHandler serves the whole file, ignoring any Range header.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	h.serveBytes(w, r, req, true)
}

func (h *APIHandler) serveBytes(w http.ResponseWriter, r *http.Request, req *subsonic.Request, isDownload bool) {
	q := r.URL.Query()

	songID := q.Get("id")
	if songID == "" {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeMissingParameter, "Required parameter 'id' is missing."))
		return
	}

	streamReq := &subsonic.StreamRequest{
		SongID:      songID,
		RangeHeader: r.Header.Get("Range"),
		Format:      q.Get("format"),
		IsDownload:  isDownload,
	}
	if v := q.Get("maxBitRate"); v != "" {
		streamReq.MaxBitRate, _ = strconv.Atoi(v)
	}
	if v := q.Get("timeOffset"); v != "" {
		streamReq.TimeOffset, _ = strconv.Atoi(v)
	}

	resp, err := h.byteServer.Serve(r.Context(), streamReq)
	if err != nil {
		switch err {
		case subsonic.ErrDownloadsDisabled:
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotAuthorized, "Downloading is disabled."))
		case subsonic.ErrSongNotFound, subsonic.ErrSongFileMissing:
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Song not found."))
		default:
			logger.Error("Failed to serve song bytes", logger.ErrorField(err))
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		}
		return
	}

	for key, value := range resp.Headers() {
		w.Header().Set(key, value)
	}
	status := http.StatusOK
	if !isDownload && streamReq.RangeHeader != "" {
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)
	if _, err := w.Write(resp.Data); err != nil {
		logger.Warn("Client dropped the stream",
			logger.String("songId", songID),
			logger.ErrorField(err))
	}
}

// GetCoverArtHandler serves album cover art from object storage.
func (h *APIHandler) GetCoverArtHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Cover art not found."))
		return
	}

	album, err := h.albumRepo.GetAlbumByApiKey(r.Context(), guid.String())
	if err != nil {
		logger.Error("Failed to load album for cover art", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if album == nil || album.CoverArtPath == "" {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Cover art not found."))
		return
	}

	data, contentType, err := h.coverStore.Get(r.Context(), album.CoverArtPath)
	if err != nil {
		logger.Error("Failed to fetch cover art",
			logger.String("path", album.CoverArtPath),
			logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if data == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Cover art not found."))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if _, err := w.Write(data); err != nil {
		logger.Warn("Failed to write cover art", logger.ErrorField(err))
	}
}

// Search3Handler searches songs by title.
func (h *APIHandler) Search3Handler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, _ *model.UserInfo) {
	q := r.URL.Query()

	query := q.Get("query")
	if query == "" {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeMissingParameter, "Required parameter 'query' is missing."))
		return
	}
	limit := 20
	if v := q.Get("songCount"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	songs, err := h.songRepo.SearchSongs(r.Context(), query, limit)
	if err != nil {
		logger.Error("Failed to search songs", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	payload := subsonic.SearchResult3{Songs: []subsonic.SongView{}}
	for _, song := range songs {
		ss, err := h.songRepo.GetStreamableSongByApiKey(r.Context(), song.ApiKey)
		if err != nil || ss == nil {
			continue
		}
		payload.Songs = append(payload.Songs, subsonic.NewStreamableSongView(ss))
	}

	writeSubsonicResponse(w, req, h.ok().WithPayload("searchResult3", payload))
}
