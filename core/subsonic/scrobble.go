package subsonic

import (
	"context"
	"sort"
	"time"

	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
)

// ScrobbleBackend is one destination for playback notifications. Backends
// distinguish two failure modes: a (false, nil) return is an expected,
// tolerated failure (backend declined, user has no account there), while a
// non-nil error is an infrastructure fault that aborts the dispatch chain.
type ScrobbleBackend interface {
	// Name identifies the backend in logs.
	Name() string
	// SortOrder fixes the dispatch position. Lower runs first.
	SortOrder() int
	// Enabled reports whether the backend should receive dispatches at all.
	Enabled() bool
	// NowPlaying announces that the user started or is continuing a track.
	NowPlaying(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error)
	// Scrobble submits a completed play.
	Scrobble(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error)
}

// ScrobbleDispatcher fans playback events out to the registered backends in
// sort order and keeps the now-playing registry in step. It must be
// initialized with Init before the first dispatch; using it earlier is a
// wiring bug and panics.
type ScrobbleDispatcher struct {
	songs       repository.SongRepository
	registry    *NowPlayingRegistry
	backends    []ScrobbleBackend
	initialized bool
}

// NewScrobbleDispatcher creates a dispatcher with no backends yet.
func NewScrobbleDispatcher(songs repository.SongRepository, registry *NowPlayingRegistry) *ScrobbleDispatcher {
	return &ScrobbleDispatcher{
		songs:    songs,
		registry: registry,
	}
}

// Init registers the backends and fixes the dispatch order. It must run
// exactly once, at startup, before any dispatch.
func (d *ScrobbleDispatcher) Init(backends ...ScrobbleBackend) {
	d.backends = make([]ScrobbleBackend, len(backends))
	copy(d.backends, backends)
	sort.SliceStable(d.backends, func(i, j int) bool {
		return d.backends[i].SortOrder() < d.backends[j].SortOrder()
	})
	d.initialized = true

	names := make([]string, 0, len(d.backends))
	for _, b := range d.backends {
		if b.Enabled() {
			names = append(names, b.Name())
		}
	}
	logger.Info("Scrobble dispatcher initialized",
		logger.Int("backends", len(d.backends)),
		logger.Any("enabled", names))
}

// NowPlaying records that the user is currently playing the song and
// notifies every backend. An unresolvable song id is logged and treated as
// success: clients send now-playing pings on a timer and a stale id must
// not make them error out.
func (d *ScrobbleDispatcher) NowPlaying(ctx context.Context, user *model.UserInfo, songID, playerName string, position int) (bool, error) {
	d.mustBeInitialized()

	song, err := d.resolveSong(ctx, songID)
	if err != nil {
		return false, err
	}
	if song == nil {
		logger.Warn("Now-playing for unknown song, ignoring",
			logger.String("songId", songID),
			logger.String("username", user.Username))
		return true, nil
	}

	now := time.Now().UTC()
	if _, err := d.registry.Upsert(ctx, user.ApiKey, song.ApiKey, playerName, position, now); err != nil {
		return false, err
	}

	record := newScrobbleRecord(song, playerName, now)
	return d.dispatch(ctx, user, record, songID, false)
}

// Scrobble submits a completed play to every backend. Plays that were never
// announced via NowPlaying are dropped: without a registry entry the
// submission is either a duplicate or a client replaying history, and both
// are skipped silently. A dispatched submission consumes the registry entry,
// so resending the same submission is skipped too.
func (d *ScrobbleDispatcher) Scrobble(ctx context.Context, user *model.UserInfo, songID string, isRandomized bool, playerName string, playedAt time.Time) (bool, error) {
	d.mustBeInitialized()

	song, err := d.resolveSong(ctx, songID)
	if err != nil {
		return false, err
	}
	if song == nil {
		logger.Warn("Scrobble for unknown song, ignoring",
			logger.String("songId", songID),
			logger.String("username", user.Username))
		return true, nil
	}

	known, err := d.registry.Contains(ctx, user.ApiKey, song.ApiKey)
	if err != nil {
		return false, err
	}
	if !known {
		logger.Debug("Scrobble without a now-playing entry, skipping",
			logger.String("songId", songID),
			logger.String("username", user.Username))
		return true, nil
	}

	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}

	record := newScrobbleRecord(song, playerName, playedAt)
	record.IsRandomized = isRandomized

	ok, err := d.dispatch(ctx, user, record, songID, true)
	if err != nil {
		return false, err
	}
	if err := d.registry.Remove(ctx, NowPlayingID(user.ApiKey, song.ApiKey)); err != nil {
		logger.Warn("Failed to clear now-playing entry after scrobble",
			logger.String("songId", songID),
			logger.String("username", user.Username),
			logger.ErrorField(err))
	}
	return ok, nil
}

// dispatch walks the backends in order. A tolerated failure flips the
// aggregate to false and moves on; an error aborts the remaining backends.
func (d *ScrobbleDispatcher) dispatch(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord, songID string, submission bool) (bool, error) {
	all := true
	for _, backend := range d.backends {
		if !backend.Enabled() {
			continue
		}

		var ok bool
		var err error
		if submission {
			ok, err = backend.Scrobble(ctx, user, record)
		} else {
			ok, err = backend.NowPlaying(ctx, user, record)
		}
		if err != nil {
			logger.Error("Scrobble backend failed, aborting dispatch",
				logger.String("backend", backend.Name()),
				logger.String("songId", songID),
				logger.Bool("submission", submission),
				logger.ErrorField(err))
			return false, err
		}
		if !ok {
			all = false
		}
	}
	return all, nil
}

func (d *ScrobbleDispatcher) mustBeInitialized() {
	if !d.initialized {
		panic("subsonic: ScrobbleDispatcher used before Init")
	}
}

// resolveSong looks the song up by its composite id. A malformed id and a
// missing row both come back as nil without error.
func (d *ScrobbleDispatcher) resolveSong(ctx context.Context, songID string) (*model.StreamableSong, error) {
	guid := DecodeID(songID)
	if guid == nil {
		return nil, nil
	}
	return d.songs.GetStreamableSongByApiKey(ctx, guid.String())
}

func newScrobbleRecord(song *model.StreamableSong, playerName string, playedAt time.Time) *model.ScrobbleRecord {
	return &model.ScrobbleRecord{
		SongApiKey:    song.ApiKey,
		ArtistID:      song.ArtistID,
		AlbumID:       song.AlbumID,
		SongID:        song.ID,
		SongTitle:     song.Title,
		ArtistName:    song.ArtistName,
		AlbumTitle:    song.AlbumTitle,
		Duration:      song.Duration,
		MusicBrainzID: song.MusicBrainzID,
		TrackNumber:   song.TrackNumber,
		PlayedAt:      playedAt,
		PlayerName:    playerName,
	}
}
