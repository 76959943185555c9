package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != ":4533" {
		t.Errorf("ListenAddr = %s, want :4533", cfg.ListenAddr)
	}
	if cfg.SubsonicAPIVersion != "1.16.1" {
		t.Errorf("SubsonicAPIVersion = %s", cfg.SubsonicAPIVersion)
	}
	if !cfg.DownloadingEnabled {
		t.Error("downloading should default to enabled")
	}
	if cfg.LastFmEnabled || cfg.ListenBrainzEnabled {
		t.Error("external scrobble backends should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DOWNLOADING_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LASTFM_ENABLED", "true")

	cfg := Load()

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %s, want :9999", cfg.ListenAddr)
	}
	if cfg.DownloadingEnabled {
		t.Error("DOWNLOADING_ENABLED=false should disable downloading")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if !cfg.LastFmEnabled {
		t.Error("LASTFM_ENABLED=true should enable the backend")
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	t.Setenv("SERVER_VERSION", "1.0.0")
	old := Load()

	t.Setenv("SERVER_VERSION", "2.0.0")
	fresh := Reload()

	if old.ServerVersion != "1.0.0" {
		t.Errorf("old snapshot mutated: %s", old.ServerVersion)
	}
	if fresh.ServerVersion != "2.0.0" {
		t.Errorf("fresh snapshot = %s, want 2.0.0", fresh.ServerVersion)
	}
	if Current() != fresh {
		t.Error("Current should return the latest snapshot")
	}
}

func TestReloadReadsEditedEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LISTEN_ADDR", ":4000")
	t.Setenv("DOWNLOADING_ENABLED", "true")

	cfg := Load()
	if cfg.ListenAddr != ":4000" {
		t.Fatalf("ListenAddr = %s, want :4000", cfg.ListenAddr)
	}

	// The first load exported the environment; a reload must still pick up
	// values edited into the .env file afterwards.
	if err := os.WriteFile(".env", []byte("LISTEN_ADDR=:5000\nDOWNLOADING_ENABLED=false\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	fresh := Reload()
	if fresh.ListenAddr != ":5000" {
		t.Errorf("ListenAddr = %s, want :5000 after reload", fresh.ListenAddr)
	}
	if fresh.DownloadingEnabled {
		t.Error("DownloadingEnabled should follow the edited file")
	}
	if Current() != fresh {
		t.Error("Current should return the reloaded snapshot")
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want the default 0", cfg.RedisDB)
	}
}
