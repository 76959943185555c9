package server

import (
	"encoding/json"
	"encoding/xml"
	"net/http"

	"AriaFM/config"
	"AriaFM/core/auth"
	"AriaFM/core/subsonic"
	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
	"AriaFM/storage"
)

// APIHandler carries the dependencies of every HTTP handler.
type APIHandler struct {
	userRepo      repository.UserRepository
	artistRepo    repository.ArtistRepository
	albumRepo     repository.AlbumRepository
	songRepo      repository.SongRepository
	playlistRepo  repository.PlaylistRepository
	playStatsRepo repository.PlayStatsRepository

	authenticator *subsonic.Authenticator
	cipher        *auth.PasswordCipher
	registry      *subsonic.NowPlayingRegistry
	dispatcher    *subsonic.ScrobbleDispatcher
	byteServer    *subsonic.ByteServer
	coverStore    *storage.CoverArtStore
	feed          *NowPlayingFeed

	info subsonic.ServerInfo
	cfg  *config.Config
}

// NewAPIHandler creates the handler container.
func NewAPIHandler(
	userRepo repository.UserRepository,
	artistRepo repository.ArtistRepository,
	albumRepo repository.AlbumRepository,
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	playStatsRepo repository.PlayStatsRepository,
	authenticator *subsonic.Authenticator,
	cipher *auth.PasswordCipher,
	registry *subsonic.NowPlayingRegistry,
	dispatcher *subsonic.ScrobbleDispatcher,
	byteServer *subsonic.ByteServer,
	coverStore *storage.CoverArtStore,
	feed *NowPlayingFeed,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:      userRepo,
		artistRepo:    artistRepo,
		albumRepo:     albumRepo,
		songRepo:      songRepo,
		playlistRepo:  playlistRepo,
		playStatsRepo: playStatsRepo,
		authenticator: authenticator,
		cipher:        cipher,
		registry:      registry,
		dispatcher:    dispatcher,
		byteServer:    byteServer,
		coverStore:    coverStore,
		feed:          feed,
		info: subsonic.ServerInfo{
			Version:       cfg.SubsonicAPIVersion,
			Type:          cfg.ServerName,
			ServerVersion: cfg.ServerVersion,
		},
		cfg: cfg,
	}
}

// writeSubsonicResponse renders the envelope in the format the f parameter
// asked for, XML being the protocol default. Serialization failures are
// logged; at that point half a body may be out and there is nothing more to
// send.
func writeSubsonicResponse(w http.ResponseWriter, req *subsonic.Request, resp *subsonic.Response) {
	var err error
	switch req.Format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(resp)
	default:
		w.Header().Set("Content-Type", "application/xml")
		if _, err = w.Write([]byte(xml.Header)); err == nil {
			err = xml.NewEncoder(w).Encode(resp)
		}
	}
	if err != nil {
		logger.Error("Failed to write Subsonic response", logger.ErrorField(err))
	}
}

// subsonicEndpoint wraps a protocol handler with request parsing and the
// authentication gate. The inner handler receives the parsed request and,
// when requiresAuth is set, the authenticated user.
func (h *APIHandler) subsonicEndpoint(requiresAuth bool, handler func(w http.ResponseWriter, r *http.Request, req *subsonic.Request, user *model.UserInfo)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := subsonic.ParseRequest(r, requiresAuth)

		user, errResp := h.authenticator.Authenticate(r.Context(), req)
		if errResp != nil {
			writeSubsonicResponse(w, req, errResp)
			return
		}

		handler(w, r, req, user)
	}
}

// ok returns a fresh success envelope stamped with this server's identity.
func (h *APIHandler) ok() *subsonic.Response {
	return subsonic.NewResponse(h.info)
}

// fail returns an error envelope with one of the closed protocol codes.
func (h *APIHandler) fail(code subsonic.ErrorCode, message string) *subsonic.Response {
	return subsonic.NewErrorResponse(h.info, code, message)
}
