package subsonic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"AriaFM/logger"
	"AriaFM/model"
)

const listenBrainzSubmitURL = "https://api.listenbrainz.org/1/submit-listens"

// ListenBrainzConfig carries the credentials for the ListenBrainz backend.
type ListenBrainzConfig struct {
	Enabled bool
	Token   string
}

type listenBrainzBackend struct {
	cfg    ListenBrainzConfig
	client *http.Client
}

// NewListenBrainzBackend creates the ListenBrainz scrobble backend.
func NewListenBrainzBackend(cfg ListenBrainzConfig) ScrobbleBackend {
	return &listenBrainzBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *listenBrainzBackend) Name() string   { return "listenbrainz" }
func (b *listenBrainzBackend) SortOrder() int { return 3 }

func (b *listenBrainzBackend) Enabled() bool {
	return b.cfg.Enabled && b.cfg.Token != ""
}

type listenPayload struct {
	ListenedAt    int64               `json:"listened_at,omitempty"`
	TrackMetadata listenTrackMetadata `json:"track_metadata"`
}

type listenTrackMetadata struct {
	ArtistName     string                 `json:"artist_name"`
	TrackName      string                 `json:"track_name"`
	ReleaseName    string                 `json:"release_name,omitempty"`
	AdditionalInfo map[string]interface{} `json:"additional_info,omitempty"`
}

type listenSubmission struct {
	ListenType string          `json:"listen_type"`
	Payload    []listenPayload `json:"payload"`
}

func (b *listenBrainzBackend) NowPlaying(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error) {
	return b.submit(ctx, user, listenSubmission{
		ListenType: "playing_now",
		Payload:    []listenPayload{newListenPayload(record, false)},
	})
}

func (b *listenBrainzBackend) Scrobble(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error) {
	return b.submit(ctx, user, listenSubmission{
		ListenType: "single",
		Payload:    []listenPayload{newListenPayload(record, true)},
	})
}

func newListenPayload(record *model.ScrobbleRecord, withTimestamp bool) listenPayload {
	payload := listenPayload{
		TrackMetadata: listenTrackMetadata{
			ArtistName:  record.ArtistName,
			TrackName:   record.SongTitle,
			ReleaseName: record.AlbumTitle,
		},
	}
	if withTimestamp {
		payload.ListenedAt = record.PlayedAt.Unix()
	}

	info := map[string]interface{}{}
	if record.MusicBrainzID != "" {
		info["recording_mbid"] = record.MusicBrainzID
	}
	if record.TrackNumber > 0 {
		info["tracknumber"] = record.TrackNumber
	}
	if record.Duration > 0 {
		info["duration"] = int(record.Duration)
	}
	if len(info) > 0 {
		payload.TrackMetadata.AdditionalInfo = info
	}
	return payload
}

// submit posts one listen. Rejections (bad token, rate limit) are tolerated
// failures; transport faults propagate as errors.
func (b *listenBrainzBackend) submit(ctx context.Context, user *model.UserInfo, submission listenSubmission) (bool, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return false, fmt.Errorf("failed to encode ListenBrainz submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listenBrainzSubmitURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build ListenBrainz request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+b.cfg.Token)

	resp, err := b.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("ListenBrainz request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		logger.Warn("ListenBrainz rejected the submission",
			logger.String("username", user.Username),
			logger.Int("httpStatus", resp.StatusCode),
			logger.String("detail", string(detail)))
		return false, nil
	}
	return true, nil
}
