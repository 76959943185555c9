package subsonic

import (
	"context"
	"testing"
	"time"

	"AriaFM/model"
)

func TestNowPlayingIDStable(t *testing.T) {
	a := NowPlayingID("user-key", "song-key")
	b := NowPlayingID("user-key", "song-key")
	if a != b {
		t.Errorf("same pair should hash to the same id: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("id should be a 32-char md5 hex string, got %q", a)
	}

	if NowPlayingID("user-key", "other-song") == a {
		t.Error("different songs should hash to different ids")
	}
}

func TestRegistryUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	registry := NewNowPlayingRegistry(NewMemoryNowPlayingStore())

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := registry.Upsert(ctx, "user-key", "song-key", "player-a", 10, started)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	later := started.Add(30 * time.Second)
	second, err := registry.Upsert(ctx, "user-key", "song-key", "player-b", 40, later)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.UniqueID != first.UniqueID {
		t.Errorf("repeated upsert should reuse the unique id")
	}
	if !second.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want the original %v", second.StartedAt, started)
	}
	if second.Position != 40 || second.PlayerName != "player-b" {
		t.Errorf("position and player should be replaced: %+v", second)
	}
	if !second.LastScrobbledAt.Equal(later) {
		t.Errorf("LastScrobbledAt = %v, want %v", second.LastScrobbledAt, later)
	}

	entries, err := registry.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry after repeated upserts, got %d", len(entries))
	}
}

func TestRegistryContainsAndRemove(t *testing.T) {
	ctx := context.Background()
	registry := NewNowPlayingRegistry(NewMemoryNowPlayingStore())

	if ok, _ := registry.Contains(ctx, "user-key", "song-key"); ok {
		t.Error("empty registry should not contain the pair")
	}

	entry, err := registry.Upsert(ctx, "user-key", "song-key", "player", 0, time.Now())
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if ok, _ := registry.Contains(ctx, "user-key", "song-key"); !ok {
		t.Error("registry should contain the pair after upsert")
	}

	if err := registry.Remove(ctx, entry.UniqueID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if ok, _ := registry.Contains(ctx, "user-key", "song-key"); ok {
		t.Error("registry should not contain the pair after remove")
	}
}

func TestRegistryRemoveWhere(t *testing.T) {
	ctx := context.Background()
	registry := NewNowPlayingRegistry(NewMemoryNowPlayingStore())

	now := time.Now()
	registry.Upsert(ctx, "alice", "song-1", "player", 0, now)
	registry.Upsert(ctx, "alice", "song-2", "player", 0, now)
	registry.Upsert(ctx, "bob", "song-1", "player", 0, now)

	err := registry.RemoveWhere(ctx, func(entry model.NowPlayingEntry) bool {
		return entry.UserApiKey == "alice"
	})
	if err != nil {
		t.Fatalf("RemoveWhere failed: %v", err)
	}

	entries, _ := registry.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected one surviving entry, got %d", len(entries))
	}
	if entries[0].UserApiKey != "bob" {
		t.Errorf("surviving entry should belong to bob, got %s", entries[0].UserApiKey)
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	registry := NewNowPlayingRegistry(NewMemoryNowPlayingStore())
	registry.Upsert(ctx, "user-key", "song-key", "player", 0, time.Now())

	entries, _ := registry.List(ctx)
	entries[0].PlayerName = "mutated"

	again, _ := registry.List(ctx)
	if again[0].PlayerName == "mutated" {
		t.Error("mutating a listed entry should not affect the store")
	}
}
