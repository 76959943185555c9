package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"AriaFM/logger"
	"AriaFM/model"
)

const lastFmAPIURL = "https://ws.audioscrobbler.com/2.0/"

// LastFmConfig carries the credentials for the Last.fm backend. SessionKey
// authorizes the account the server scrobbles to; with it empty the backend
// reports a tolerated failure instead of erroring.
type LastFmConfig struct {
	Enabled      bool
	APIKey       string
	SharedSecret string
	SessionKey   string
}

type lastFmBackend struct {
	cfg    LastFmConfig
	client *http.Client
}

// NewLastFmBackend creates the Last.fm scrobble backend.
func NewLastFmBackend(cfg LastFmConfig) ScrobbleBackend {
	return &lastFmBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *lastFmBackend) Name() string   { return "lastfm" }
func (b *lastFmBackend) SortOrder() int { return 2 }

func (b *lastFmBackend) Enabled() bool {
	return b.cfg.Enabled && b.cfg.APIKey != "" && b.cfg.SharedSecret != ""
}

func (b *lastFmBackend) NowPlaying(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error) {
	params := b.trackParams(record)
	params["method"] = "track.updateNowPlaying"
	return b.call(ctx, user, params)
}

func (b *lastFmBackend) Scrobble(ctx context.Context, user *model.UserInfo, record *model.ScrobbleRecord) (bool, error) {
	params := b.trackParams(record)
	params["method"] = "track.scrobble"
	params["timestamp"] = strconv.FormatInt(record.PlayedAt.Unix(), 10)
	return b.call(ctx, user, params)
}

func (b *lastFmBackend) trackParams(record *model.ScrobbleRecord) map[string]string {
	params := map[string]string{
		"artist":   record.ArtistName,
		"track":    record.SongTitle,
		"album":    record.AlbumTitle,
		"duration": strconv.Itoa(int(record.Duration)),
	}
	if record.TrackNumber > 0 {
		params["trackNumber"] = strconv.Itoa(record.TrackNumber)
	}
	if record.MusicBrainzID != "" {
		params["mbid"] = record.MusicBrainzID
	}
	return params
}

// call signs and posts one API request. A missing session key and an API
// error response are both tolerated failures; only transport faults
// propagate as errors.
func (b *lastFmBackend) call(ctx context.Context, user *model.UserInfo, params map[string]string) (bool, error) {
	if b.cfg.SessionKey == "" {
		logger.Debug("Last.fm backend has no session key, skipping",
			logger.String("username", user.Username))
		return false, nil
	}

	params["api_key"] = b.cfg.APIKey
	params["sk"] = b.cfg.SessionKey
	params["api_sig"] = b.sign(params)
	params["format"] = "json"

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lastFmAPIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build Last.fm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("Last.fm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, fmt.Errorf("failed to read Last.fm response: %w", err)
	}

	var apiErr struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if resp.StatusCode != http.StatusOK || (json.Unmarshal(body, &apiErr) == nil && apiErr.Error != 0) {
		logger.Warn("Last.fm rejected the submission",
			logger.String("username", user.Username),
			logger.Int("httpStatus", resp.StatusCode),
			logger.Int("apiError", apiErr.Error),
			logger.String("apiMessage", apiErr.Message))
		return false, nil
	}
	return true, nil
}

// sign computes the api_sig: md5 of the parameters concatenated in key
// order, with "format" excluded, followed by the shared secret.
func (b *lastFmBackend) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "format" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString(params[key])
	}
	sb.WriteString(b.cfg.SharedSecret)

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
