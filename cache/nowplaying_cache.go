package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"AriaFM/logger"
	"AriaFM/model"
)

const (
	// nowPlayingKey is a hash: uniqueId -> NowPlayingEntry JSON.
	nowPlayingKey = "nowplaying:entries"
	// nowPlayingTTL bounds how long stale entries survive a crashed client.
	// Every write refreshes it.
	nowPlayingTTL = 24 * time.Hour
)

// NowPlayingCache is the Redis implementation of the now-playing store. It
// keeps all entries in one hash so multi-node deployments share the list.
type NowPlayingCache struct {
	client *redis.Client
}

// NewNowPlayingCache wraps the given Redis client.
func NewNowPlayingCache(client *redis.Client) *NowPlayingCache {
	return &NowPlayingCache{client: client}
}

func (c *NowPlayingCache) Get(ctx context.Context, uniqueID string) (*model.NowPlayingEntry, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.HGet(ctx, nowPlayingKey, uniqueID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var entry model.NowPlayingEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal now-playing entry %s: %w", uniqueID, err)
	}
	return &entry, nil
}

func (c *NowPlayingCache) Set(ctx context.Context, entry *model.NowPlayingEntry) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal now-playing entry: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, nowPlayingKey, entry.UniqueID, data)
	pipe.Expire(ctx, nowPlayingKey, nowPlayingTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *NowPlayingCache) Remove(ctx context.Context, uniqueID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	return c.client.HDel(ctx, nowPlayingKey, uniqueID).Err()
}

func (c *NowPlayingCache) List(ctx context.Context) ([]model.NowPlayingEntry, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	result, err := c.client.HGetAll(ctx, nowPlayingKey).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.NowPlayingEntry, 0, len(result))
	for uniqueID, data := range result {
		var entry model.NowPlayingEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logger.Warn("Dropping undecodable now-playing entry",
				logger.String("uniqueId", uniqueID),
				logger.ErrorField(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
