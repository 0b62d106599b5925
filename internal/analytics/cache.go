package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

const (
	keyPrefix       = "pos:analytics"
	cacheVersionKey = keyPrefix + ":version"
	bumpChannel     = "pos.analytics.bump"
)

// LoadError marks a failure of the loader rather than of Redis.
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return "analytics: load: " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// Cache keeps computed reports in Redis under a global version that every
// store commit bumps. A nil Cache passes every load straight through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

// Version returns the current report version, starting at 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil {
		return 0, err
	}
	return max(ver, 1), nil
}

// BuildKey suffixes the joined parts with the current version so a bump
// orphans every earlier entry.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	key := strings.Join(parts, ":")
	if !c.enabled() {
		return key, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return key + ":v" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON decodes the entry at key into dest, running loader on a miss.
// Loader failures come back as *LoadError. A failed write of a freshly loaded
// value is ignored since dest is already filled.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("analytics: cache loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			return json.Unmarshal(payload, dest)
		case !errors.Is(err, redis.Nil):
			return err
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return &LoadError{Err: err}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}
	if c.enabled() {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return nil
}

// Bump moves every report to a new version and announces it to listeners.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// CommitHook returns a store commit callback that bumps the version.
func (c *Cache) CommitHook(logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		if err := c.Bump(ctx); err != nil && logger != nil {
			logger.Warn("analytics cache bump failed", slog.Any("error", err))
		}
	}
}

// ListenForInvalidation follows bumps announced by other processes, such as
// import-db, and raises the local version to match. It returns immediately;
// the subscription lives until ctx ends.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				c.adopt(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

// adopt applies an announced version, never moving backwards.
func (c *Cache) adopt(ctx context.Context, payload string) {
	announced, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		_ = c.client.Incr(ctx, cacheVersionKey).Err()
		return
	}
	current, err := c.Version(ctx)
	if err == nil && announced > current {
		_ = c.client.Set(ctx, cacheVersionKey, announced, 0).Err()
	}
}

func keySales(start, end time.Time) string {
	return strings.Join([]string{keyPrefix, "sales", shared.FormatTimestamp(start), shared.FormatTimestamp(end)}, ":")
}

func keyProfitLoss(w Window) string {
	return strings.Join([]string{keyPrefix, "pl", string(w.Period), shared.FormatTimestamp(w.Start), shared.FormatTimestamp(w.End)}, ":")
}
