package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"AriaFM/cache"
	"AriaFM/config"
	"AriaFM/core/auth"
	"AriaFM/core/subsonic"
	"AriaFM/db"
	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
	"AriaFM/storage"
)

// Start wires the application together and runs the HTTP server until a
// shutdown signal arrives.
func Start() {
	cfg := config.Current()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(&model.Playlist{}, &model.PlaylistEntry{}); err != nil {
		logger.Fatal("Failed to migrate playlist tables", logger.ErrorField(err))
	}

	cipher, err := auth.NewPasswordCipher(cfg.PasswordEncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize password cipher", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	artistRepo := repository.NewMySQLArtistRepository(db.DB)
	albumRepo := repository.NewMySQLAlbumRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	playStatsRepo := repository.NewMySQLPlayStatsRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

	info := subsonic.ServerInfo{
		Version:       cfg.SubsonicAPIVersion,
		Type:          cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
	}

	// Successful Subsonic authentications stamp the user's last login in
	// the background.
	loginSink := func(event subsonic.LoginEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := userRepo.UpdateLastLogin(ctx, event.UserID, event.At); err != nil {
			logger.Error("Failed to stamp last login",
				logger.String("username", event.Username),
				logger.ErrorField(err))
		}
	}
	authenticator := subsonic.NewAuthenticator(userRepo, cipher, info, loginSink)

	registry := subsonic.NewNowPlayingRegistry(cache.NewNowPlayingCache(db.RedisClient))
	dispatcher := subsonic.NewScrobbleDispatcher(songRepo, registry)
	dispatcher.Init(
		subsonic.NewLocalBackend(playStatsRepo),
		subsonic.NewLastFmBackend(subsonic.LastFmConfig{
			Enabled:      cfg.LastFmEnabled,
			APIKey:       cfg.LastFmAPIKey,
			SharedSecret: cfg.LastFmSharedSecret,
			SessionKey:   cfg.LastFmSessionKey,
		}),
		subsonic.NewListenBrainzBackend(subsonic.ListenBrainzConfig{
			Enabled: cfg.ListenBrainzEnabled,
			Token:   cfg.ListenBrainzToken,
		}),
	)

	// The downloading toggle follows config reloads; the library root does
	// not move at runtime.
	byteServer := subsonic.NewByteServer(songRepo, cfg.MusicLibraryPath, func() bool {
		return config.Current().DownloadingEnabled
	})
	coverStore := storage.NewCoverArtStore(cfg)
	feed := NewNowPlayingFeed(registry)

	apiHandler := NewAPIHandler(userRepo, artistRepo, albumRepo, songRepo, playlistRepo,
		playStatsRepo, authenticator, cipher, registry, dispatcher, byteServer, coverStore, feed, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	registerSubsonicRoutes(router, apiHandler)

	// Bespoke JSON API.
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.GetTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/events/nowplaying", apiHandler.AuthMiddleware(apiHandler.NowPlayingFeedHandler)).Methods(http.MethodGet)

	server.Handler = router

	stopWatch, err := config.Watch()
	if err != nil {
		logger.Warn("Config watcher disabled", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

// registerSubsonicRoutes mounts every /rest endpoint under both its bare
// name and the legacy ".view" suffix that older clients still request.
func registerSubsonicRoutes(router *mux.Router, h *APIHandler) {
	endpoints := map[string]http.HandlerFunc{
		"ping":           h.PingHandler,
		"getLicense":     h.subsonicEndpoint(true, h.GetLicenseHandler),
		"getArtists":     h.subsonicEndpoint(true, h.GetArtistsHandler),
		"getArtist":      h.subsonicEndpoint(true, h.GetArtistHandler),
		"getAlbum":       h.subsonicEndpoint(true, h.GetAlbumHandler),
		"getSong":        h.subsonicEndpoint(true, h.GetSongHandler),
		"getNowPlaying":  h.subsonicEndpoint(true, h.GetNowPlayingHandler),
		"scrobble":       h.subsonicEndpoint(true, h.ScrobbleHandler),
		"stream":         h.subsonicEndpoint(true, h.StreamHandler),
		"download":       h.subsonicEndpoint(true, h.DownloadHandler),
		"getCoverArt":    h.subsonicEndpoint(true, h.GetCoverArtHandler),
		"search3":        h.subsonicEndpoint(true, h.Search3Handler),
		"getPlaylists":   h.subsonicEndpoint(true, h.GetPlaylistsHandler),
		"getPlaylist":    h.subsonicEndpoint(true, h.GetPlaylistHandler),
		"createPlaylist": h.subsonicEndpoint(true, h.CreatePlaylistHandler),
		"deletePlaylist": h.subsonicEndpoint(true, h.DeletePlaylistHandler),
	}

	for name, handler := range endpoints {
		router.HandleFunc("/rest/"+name, handler).Methods(http.MethodGet, http.MethodPost)
		router.HandleFunc("/rest/"+name+".view", handler).Methods(http.MethodGet, http.MethodPost)
	}
}
