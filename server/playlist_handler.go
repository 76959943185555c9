package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"AriaFM/core/subsonic"
	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
)

// GetPlaylistsHandler lists the playlists the authenticated user owns.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	playlists, err := h.playlistRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	payload := subsonic.PlaylistsContainer{Playlists: []subsonic.PlaylistView{}}
	for _, playlist := range playlists {
		payload.Playlists = append(payload.Playlists, newPlaylistView(playlist, user.Username))
	}
	writeSubsonicResponse(w, req, h.ok().WithPayload("playlists", payload))
}

func newPlaylistView(playlist *model.Playlist, owner string) subsonic.PlaylistView {
	return subsonic.PlaylistView{
		ID:        subsonic.EncodeID(subsonic.KindPlaylist, playlist.ApiKey),
		Name:      playlist.Name,
		Comment:   playlist.Comment,
		Owner:     owner,
		Public:    playlist.IsPublic,
		SongCount: len(playlist.Entries),
	}
}

// GetPlaylistHandler returns one playlist with its songs in order. Other
// users' playlists are visible only when public.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Playlist not found."))
		return
	}

	playlist, err := h.playlistRepo.GetByApiKey(r.Context(), guid.String())
	if err != nil {
		logger.Error("Failed to load playlist", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	if playlist == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Playlist not found."))
		return
	}
	if playlist.UserID != user.ID && !playlist.IsPublic {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotAuthorized, "Playlist is private."))
		return
	}

	songIDs := make([]int64, 0, len(playlist.Entries))
	for _, entry := range playlist.Entries {
		songIDs = append(songIDs, entry.SongID)
	}
	songs, err := h.songRepo.GetSongsByIDs(r.Context(), songIDs)
	if err != nil {
		logger.Error("Failed to load playlist songs", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}
	byID := make(map[int64]*model.Song, len(songs))
	for _, song := range songs {
		byID[song.ID] = song
	}

	payload := subsonic.PlaylistWithSongs{PlaylistView: newPlaylistView(playlist, user.Username)}
	for _, entry := range playlist.Entries {
		song, ok := byID[entry.SongID]
		if !ok {
			// Song was removed from the library after being added here.
			continue
		}
		ss, err := h.songRepo.GetStreamableSongByApiKey(r.Context(), song.ApiKey)
		if err != nil || ss == nil {
			continue
		}
		payload.Songs = append(payload.Songs, subsonic.NewStreamableSongView(ss))
	}

	writeSubsonicResponse(w, req, h.ok().WithPayload("playlist", payload))
}

// CreatePlaylistHandler creates a playlist from the repeated songId
// parameters. Unknown song ids are skipped rather than failing the whole
// call.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	q := r.URL.Query()

	name := q.Get("name")
	if name == "" {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeMissingParameter, "Required parameter 'name' is missing."))
		return
	}

	playlist := &model.Playlist{
		ApiKey: uuid.NewString(),
		UserID: user.ID,
		Name:   name,
	}
	position := 0
	for _, compositeID := range q["songId"] {
		guid := subsonic.DecodeID(compositeID)
		if guid == nil {
			continue
		}
		song, err := h.songRepo.GetSongByApiKey(r.Context(), guid.String())
		if err != nil {
			logger.Error("Failed to resolve playlist song", logger.ErrorField(err))
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
			return
		}
		if song == nil {
			logger.Warn("Skipping unknown song in createPlaylist",
				logger.String("songId", compositeID))
			continue
		}
		playlist.Entries = append(playlist.Entries, model.PlaylistEntry{SongID: song.ID, Position: position})
		position++
	}

	if err := h.playlistRepo.Create(r.Context(), playlist); err != nil {
		logger.Error("Failed to create playlist", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	payload := subsonic.PlaylistWithSongs{PlaylistView: newPlaylistView(playlist, user.Username)}
	writeSubsonicResponse(w, req, h.ok().WithPayload("playlist", payload))
}

// DeletePlaylistHandler removes a playlist the user owns.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo) {
	guid := subsonic.DecodeID(r.URL.Query().Get("id"))
	if guid == nil {
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Playlist not found."))
		return
	}

	if err := h.playlistRepo.Delete(r.Context(), guid.String(), user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeSubsonicResponse(w, req, h.fail(subsonic.CodeNotFound, "Playlist not found."))
			return
		}
		logger.Error("Failed to delete playlist", logger.ErrorField(err))
		writeSubsonicResponse(w, req, h.fail(subsonic.CodeGeneric, "Internal error."))
		return
	}

	writeSubsonicResponse(w, req, h.ok())
}
