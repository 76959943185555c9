package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"AriaFM/core/subsonic"
	"AriaFM/model"
)

type stubSongRepo struct {
	songs map[string]*model.StreamableSong
}

func (s *stubSongRepo) GetSongByApiKey(_ context.Context, apiKey string) (*model.Song, error) {
	if ss, ok := s.songs[apiKey]; ok {
		song := ss.Song
		return &song, nil
	}
	return nil, nil
}

func (s *stubSongRepo) GetStreamableSongByApiKey(_ context.Context, apiKey string) (*model.StreamableSong, error) {
	if ss, ok := s.songs[apiKey]; ok {
		return ss, nil
	}
	return nil, nil
}

func (s *stubSongRepo) GetSongsByAlbumID(context.Context, int64) ([]*model.Song, error) {
	return nil, nil
}

func (s *stubSongRepo) GetSongsByIDs(context.Context, []int64) ([]*model.Song, error) {
	return nil, nil
}

func (s *stubSongRepo) SearchSongs(context.Context, string, int) ([]*model.Song, error) {
	return nil, nil
}

type stubPlayStatsRepo struct {
	counts map[int64]int
}

func (s *stubPlayStatsRepo) RecordPlay(context.Context, string, *model.ScrobbleRecord) error {
	return nil
}

func (s *stubPlayStatsRepo) PlayCount(_ context.Context, songID int64) (int, error) {
	return s.counts[songID], nil
}

func TestGetSongIncludesPlayCount(t *testing.T) {
	song := &model.StreamableSong{
		Song: model.Song{
			ID:       7,
			ApiKey:   uuid.NewString(),
			Title:    "Test Song",
			Duration: 180,
		},
		ArtistName: "Test Artist",
		AlbumTitle: "Test Album",
	}
	h := &APIHandler{
		songRepo:      &stubSongRepo{songs: map[string]*model.StreamableSong{song.ApiKey: song}},
		playStatsRepo: &stubPlayStatsRepo{counts: map[int64]int{7: 3}},
		info:          subsonic.ServerInfo{Version: "1.16.1", Type: "ariafm", ServerVersion: "0.9.0"},
	}

	r := httptest.NewRequest("GET", "/rest/getSong?id=song_"+song.ApiKey+"&f=json", nil)
	w := httptest.NewRecorder()

	h.GetSongHandler(w, r, subsonic.ParseRequest(r, false), nil)

	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	body := decoded["subsonic-response"]
	if body["status"] != "ok" {
		t.Fatalf("status = %v, want ok", body["status"])
	}
	view, ok := body["song"].(map[string]interface{})
	if !ok {
		t.Fatal("song payload missing")
	}
	if view["playCount"] != float64(3) {
		t.Errorf("playCount = %v, want 3", view["playCount"])
	}
	if view["title"] != "Test Song" {
		t.Errorf("title = %v", view["title"])
	}
}
