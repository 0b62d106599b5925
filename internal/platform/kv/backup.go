package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// BackupKey names the text backup in Redis.
const BackupKey = "zamzam_pos.db_backup"

// ErrNoBackup is returned when no text backup has been written.
var ErrNoBackup = errors.New("platform/kv: no backup stored")

// FileBackup keeps the text backup in a plain file.
type FileBackup struct {
	path string
}

// NewFileBackup builds a FileBackup writing to path.
func NewFileBackup(path string) *FileBackup {
	return &FileBackup{path: path}
}

// SaveText replaces the backup file atomically.
func (f *FileBackup) SaveText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("platform/kv: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return fmt.Errorf("platform/kv: temp backup: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("platform/kv: write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("platform/kv: close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("platform/kv: replace backup: %w", err)
	}
	return nil
}

// LoadText reads the backup file.
func (f *FileBackup) LoadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoBackup
	}
	if err != nil {
		return "", fmt.Errorf("platform/kv: read backup: %w", err)
	}
	return string(raw), nil
}

// RedisBackup keeps the text backup under a single Redis key.
type RedisBackup struct {
	client *redis.Client
	key    string
}

// NewRedisBackup builds a RedisBackup; an empty key falls back to BackupKey.
func NewRedisBackup(client *redis.Client, key string) *RedisBackup {
	if key == "" {
		key = BackupKey
	}
	return &RedisBackup{client: client, key: key}
}

// SaveText overwrites the backup value.
func (r *RedisBackup) SaveText(ctx context.Context, text string) error {
	if err := r.client.Set(ctx, r.key, text, 0).Err(); err != nil {
		return fmt.Errorf("platform/kv: save redis backup: %w", err)
	}
	return nil
}

// LoadText returns the backup value.
func (r *RedisBackup) LoadText(ctx context.Context) (string, error) {
	text, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoBackup
	}
	if err != nil {
		return "", fmt.Errorf("platform/kv: load redis backup: %w", err)
	}
	return text, nil
}
