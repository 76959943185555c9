package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AriaFM/core/subsonic"
	"AriaFM/logger"
	"AriaFM/model"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NowPlayingFeed pushes the now-playing list to websocket subscribers
// whenever a scrobble or now-playing call changes it. Broadcasts are
// coalesced: a burst of changes produces one push.
type NowPlayingFeed struct {
	registry *subsonic.NowPlayingRegistry

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	changed chan struct{}
}

// NewNowPlayingFeed creates the feed and starts its broadcast loop.
func NewNowPlayingFeed(registry *subsonic.NowPlayingRegistry) *NowPlayingFeed {
	feed := &NowPlayingFeed{
		registry: registry,
		clients:  make(map[*websocket.Conn]struct{}),
		changed:  make(chan struct{}, 1),
	}
	go feed.run()
	return feed
}

// NotifyChanged signals that the registry changed. Non-blocking; repeated
// signals before the broadcast fires collapse into one.
func (f *NowPlayingFeed) NotifyChanged() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

func (f *NowPlayingFeed) run() {
	for range f.changed {
		// Small delay so rapid-fire pings from several clients coalesce.
		time.Sleep(200 * time.Millisecond)
		f.broadcast()
	}
}

func (f *NowPlayingFeed) broadcast() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := f.registry.List(ctx)
	if err != nil {
		logger.Error("Failed to list now-playing entries for broadcast", logger.ErrorField(err))
		return
	}

	message, err := json.Marshal(struct {
		Type    string                  `json:"type"`
		Entries []model.NowPlayingEntry `json:"entries"`
	}{Type: "nowPlaying", Entries: entries})
	if err != nil {
		logger.Error("Failed to encode now-playing broadcast", logger.ErrorField(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Debug("Dropping dead websocket subscriber", logger.ErrorField(err))
			conn.Close()
			delete(f.clients, conn)
		}
	}
}

func (f *NowPlayingFeed) subscribe(conn *websocket.Conn) {
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()
}

func (f *NowPlayingFeed) unsubscribe(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
	f.mu.Unlock()
}

// NowPlayingFeedHandler upgrades the connection and streams now-playing
// updates until the client goes away. Requires a valid bearer token; wire
// it behind AuthMiddleware.
func (h *APIHandler) NowPlayingFeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.feed.subscribe(conn)
	defer h.feed.unsubscribe(conn)

	// Push the current state right away so subscribers don't wait for the
	// next scrobble.
	h.feed.NotifyChanged()

	// Drain control frames; the feed is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
