package subsonic

import (
	"context"

	"AriaFM/model"
	"AriaFM/repository"
)

// localBackend is the built-in play-statistics backend. It is always
// enabled and always runs first; a write failure here is a database fault
// and aborts the dispatch chain.
type localBackend struct {
	stats repository.PlayStatsRepository
}

// NewLocalBackend creates the internal scrobble backend on top of the play
// statistics store.
func NewLocalBackend(stats repository.PlayStatsRepository) ScrobbleBackend {
	return &localBackend{stats: stats}
}

func (b *localBackend) Name() string   { return "local" }
func (b *localBackend) SortOrder() int { return 1 }
func (b *localBackend) Enabled() bool  { return true }

// NowPlaying is a no-op: transient playback state lives in the registry,
// not in play statistics.
func (b *localBackend) NowPlaying(_ context.Context, _ *model.UserInfo, _ *model.ScrobbleRecord) (bool, error) {
	return true, nil
}

func (b *localBackend) Scrobble(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error) {
	if err := b.stats.RecordPlay(ctx, user.ApiKey, record); err != nil {
		return false, err
	}
	return true, nil
}
