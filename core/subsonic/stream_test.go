package subsonic

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"AriaFM/model"
)

// newTestLibrary lays out one song file under root/artist/album and returns
// the matching joined row.
func newTestLibrary(t *testing.T, size int) (string, *model.StreamableSong, []byte) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "Test Artist", "Test Album")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create library dirs: %v", err)
	}

	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(dir, "01 - Test Song.mp3"), content, 0644); err != nil {
		t.Fatalf("failed to write song file: %v", err)
	}

	song := &model.StreamableSong{
		Song: model.Song{
			ID:          1,
			ApiKey:      uuid.NewString(),
			Title:       "Test Song",
			Duration:    180,
			BitRate:     320,
			ContentType: "audio/mpeg",
			FileName:    "01 - Test Song.mp3",
			FileSize:    int64(size),
		},
		ArtistName: "Test Artist",
		ArtistDir:  "Test Artist",
		AlbumTitle: "Test Album",
		AlbumDir:   "Test Album",
	}
	return root, song, content
}

func newTestByteServer(root string, song *model.StreamableSong, downloadingEnabled bool) *ByteServer {
	repo := &fakeSongRepo{songs: map[string]*model.StreamableSong{}}
	if song != nil {
		repo.songs[song.ApiKey] = song
	}
	return NewByteServer(repo, root, func() bool { return downloadingEnabled })
}

func TestServeRangedRequest(t *testing.T) {
	root, song, content := newTestLibrary(t, 1000)
	server := newTestByteServer(root, song, true)

	resp, err := server.Serve(context.Background(), &StreamRequest{
		SongID:      "song_" + song.ApiKey,
		RangeHeader: "bytes=100-199",
	})
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	if resp.BytesRead != 100 {
		t.Errorf("BytesRead = %d, want 100", resp.BytesRead)
	}
	if !bytes.Equal(resp.Data, content[100:200]) {
		t.Error("served bytes do not match the requested slice")
	}

	headers := resp.Headers()
	if headers["Content-Length"] != "100" {
		t.Errorf("Content-Length = %s, want 100", headers["Content-Length"])
	}
	if headers["Content-Range"] != "bytes 100-199/100" {
		t.Errorf("Content-Range = %s, want bytes 100-199/100", headers["Content-Range"])
	}
	if headers["Content-Type"] != "audio/mpeg" {
		t.Errorf("Content-Type = %s", headers["Content-Type"])
	}
	if headers["Accept-Ranges"] != "bytes" {
		t.Errorf("Accept-Ranges = %s", headers["Accept-Ranges"])
	}
	if headers["Content-Duration"] != "180" {
		t.Errorf("Content-Duration = %s", headers["Content-Duration"])
	}
}

func TestServeWholeFileWithoutRange(t *testing.T) {
	root, song, content := newTestLibrary(t, 1000)
	server := newTestByteServer(root, song, true)

	resp, err := server.Serve(context.Background(), &StreamRequest{SongID: "song_" + song.ApiKey})
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	if resp.Begin != 0 || resp.End != 1000 {
		t.Errorf("range = %d-%d, want 0-1000", resp.Begin, resp.End)
	}
	if resp.BytesRead != 1000 {
		t.Errorf("BytesRead = %d, want 1000", resp.BytesRead)
	}
	if !bytes.Equal(resp.Data, content) {
		t.Error("served bytes do not match the file")
	}
}

func TestServeDownloadIgnoresRange(t *testing.T) {
	root, song, _ := newTestLibrary(t, 500)
	server := newTestByteServer(root, song, true)

	resp, err := server.Serve(context.Background(), &StreamRequest{
		SongID:      "song_" + song.ApiKey,
		RangeHeader: "bytes=100-199",
		IsDownload:  true,
	})
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if resp.BytesRead != 500 {
		t.Errorf("download should serve the whole file, got %d bytes", resp.BytesRead)
	}
}

func TestServeMalformedRangeFallsBack(t *testing.T) {
	tests := []struct {
		name        string
		rangeHeader string
	}{
		{"no bytes prefix", "100-199"},
		{"missing dash", "bytes=100"},
		{"negative begin", "bytes=-5-10"},
		{"end before begin", "bytes=200-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, song, _ := newTestLibrary(t, 300)
			server := newTestByteServer(root, song, true)

			resp, err := server.Serve(context.Background(), &StreamRequest{
				SongID:      "song_" + song.ApiKey,
				RangeHeader: tt.rangeHeader,
			})
			if err != nil {
				t.Fatalf("Serve failed: %v", err)
			}
			if tt.name == "end before begin" {
				// Begin stays as given; only the end falls back.
				if resp.Begin != 200 {
					t.Errorf("Begin = %d, want 200", resp.Begin)
				}
				return
			}
			if resp.BytesRead != 300 {
				t.Errorf("BytesRead = %d, want the whole file", resp.BytesRead)
			}
		})
	}
}

func TestServeDownloadingDisabled(t *testing.T) {
	root, song, _ := newTestLibrary(t, 100)
	server := newTestByteServer(root, song, false)

	// The gate applies to downloads only.
	_, err := server.Serve(context.Background(), &StreamRequest{
		SongID:     "song_" + song.ApiKey,
		IsDownload: true,
	})
	if err != ErrDownloadsDisabled {
		t.Errorf("err = %v, want ErrDownloadsDisabled", err)
	}

	// Plain streaming keeps working with downloads off.
	resp, err := server.Serve(context.Background(), &StreamRequest{SongID: "song_" + song.ApiKey})
	if err != nil {
		t.Fatalf("streaming must not be gated by the download toggle: %v", err)
	}
	if resp.BytesRead != 100 {
		t.Errorf("BytesRead = %d, want the whole file", resp.BytesRead)
	}
}

func TestServeDownloadToggleIsLive(t *testing.T) {
	root, song, _ := newTestLibrary(t, 100)
	repo := &fakeSongRepo{songs: map[string]*model.StreamableSong{song.ApiKey: song}}

	enabled := true
	server := NewByteServer(repo, root, func() bool { return enabled })

	req := &StreamRequest{SongID: "song_" + song.ApiKey, IsDownload: true}
	if _, err := server.Serve(context.Background(), req); err != nil {
		t.Fatalf("Serve failed with downloads enabled: %v", err)
	}

	enabled = false
	if _, err := server.Serve(context.Background(), req); err != ErrDownloadsDisabled {
		t.Errorf("err = %v, want ErrDownloadsDisabled after the toggle flipped", err)
	}
}

func TestServeUnknownSong(t *testing.T) {
	server := newTestByteServer(t.TempDir(), nil, true)

	_, err := server.Serve(context.Background(), &StreamRequest{SongID: "song_" + uuid.NewString()})
	if err != ErrSongNotFound {
		t.Errorf("err = %v, want ErrSongNotFound", err)
	}

	_, err = server.Serve(context.Background(), &StreamRequest{SongID: "not-an-id"})
	if err != ErrSongNotFound {
		t.Errorf("err = %v, want ErrSongNotFound for a malformed id", err)
	}
}

func TestServeMissingFile(t *testing.T) {
	root, song, _ := newTestLibrary(t, 100)
	song.FileName = "gone.mp3"
	server := newTestByteServer(root, song, true)

	_, err := server.Serve(context.Background(), &StreamRequest{SongID: "song_" + song.ApiKey})
	if err != ErrSongFileMissing {
		t.Errorf("err = %v, want ErrSongFileMissing", err)
	}
}
