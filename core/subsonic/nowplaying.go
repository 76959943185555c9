package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"AriaFM/model"
)

// NowPlayingID derives the stable identity of a (user, song) pair. Repeated
// now-playing pings for the same pair hash to the same id and therefore
// collapse into one registry entry.
func NowPlayingID(userApiKey, songApiKey string) string {
	sum := md5.Sum([]byte(userApiKey + ":" + songApiKey))
	return hex.EncodeToString(sum[:])
}

// NowPlayingStore is the backing store for the registry. Set must be
// atomic per unique id: concurrent writers race to last-writer-wins, but a
// reader never observes a half-replaced entry.
type NowPlayingStore interface {
	Get(ctx context.Context, uniqueID string) (*model.NowPlayingEntry, error)
	Set(ctx context.Context, entry *model.NowPlayingEntry) error
	Remove(ctx context.Context, uniqueID string) error
	List(ctx context.Context) ([]model.NowPlayingEntry, error)
}

// MemoryNowPlayingStore keeps entries in a process-local map. The Redis
// store in cache/ is the deployment default; this one backs single-node
// setups and tests.
type MemoryNowPlayingStore struct {
	mu      sync.RWMutex
	entries map[string]model.NowPlayingEntry
}

// NewMemoryNowPlayingStore creates an empty in-memory store.
func NewMemoryNowPlayingStore() *MemoryNowPlayingStore {
	return &MemoryNowPlayingStore{entries: make(map[string]model.NowPlayingEntry)}
}

func (s *MemoryNowPlayingStore) Get(_ context.Context, uniqueID string) (*model.NowPlayingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[uniqueID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryNowPlayingStore) Set(_ context.Context, entry *model.NowPlayingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.UniqueID] = *entry
	return nil
}

func (s *MemoryNowPlayingStore) Remove(_ context.Context, uniqueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, uniqueID)
	return nil
}

func (s *MemoryNowPlayingStore) List(_ context.Context) ([]model.NowPlayingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.NowPlayingEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

// NowPlayingRegistry tracks currently-playing (user, song) pairs. All
// mutation goes through Upsert/Remove; List hands out point-in-time copies
// safe to iterate while other requests keep upserting.
type NowPlayingRegistry struct {
	store NowPlayingStore
}

// NewNowPlayingRegistry wraps a store with the registry semantics.
func NewNowPlayingRegistry(store NowPlayingStore) *NowPlayingRegistry {
	return &NowPlayingRegistry{store: store}
}

// Upsert inserts or replaces the entry for the (user, song) pair. A fresh
// pair gets StartedAt=at; an existing entry keeps its StartedAt and has
// position, player and LastScrobbledAt replaced.
func (r *NowPlayingRegistry) Upsert(ctx context.Context, userApiKey, songApiKey, playerName string, position int, at time.Time) (*model.NowPlayingEntry, error) {
	uniqueID := NowPlayingID(userApiKey, songApiKey)

	entry := &model.NowPlayingEntry{
		UniqueID:        uniqueID,
		UserApiKey:      userApiKey,
		SongApiKey:      songApiKey,
		PlayerName:      playerName,
		Position:        position,
		StartedAt:       at,
		LastScrobbledAt: at,
	}

	existing, err := r.store.Get(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		entry.StartedAt = existing.StartedAt
	}

	if err := r.store.Set(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Contains reports whether the pair currently has an entry.
func (r *NowPlayingRegistry) Contains(ctx context.Context, userApiKey, songApiKey string) (bool, error) {
	entry, err := r.store.Get(ctx, NowPlayingID(userApiKey, songApiKey))
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Remove drops the entry with the given unique id, if present.
func (r *NowPlayingRegistry) Remove(ctx context.Context, uniqueID string) error {
	return r.store.Remove(ctx, uniqueID)
}

// RemoveWhere drops every entry matching the predicate.
func (r *NowPlayingRegistry) RemoveWhere(ctx context.Context, match func(entry model.NowPlayingEntry) bool) error {
	entries, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !match(entry) {
			continue
		}
		if err := r.store.Remove(ctx, entry.UniqueID); err != nil {
			return err
		}
	}
	return nil
}

// List returns a snapshot of all entries.
func (r *NowPlayingRegistry) List(ctx context.Context) ([]model.NowPlayingEntry, error) {
	return r.store.List(ctx)
}
