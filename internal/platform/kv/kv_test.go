package kv

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestBoltImagesSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "images", "store.db")

	images, err := OpenBolt(path)
	require.NoError(t, err)

	image, err := images.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, image)

	require.NoError(t, images.Save(ctx, []byte("first")))
	require.NoError(t, images.Save(ctx, []byte("second")))
	require.NoError(t, images.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	image, err = reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), image)
}

func TestFileBackup(t *testing.T) {
	ctx := context.Background()
	backup := NewFileBackup(filepath.Join(t.TempDir(), "zamzam_pos.db_backup"))

	_, err := backup.LoadText(ctx)
	require.ErrorIs(t, err, ErrNoBackup)

	require.NoError(t, backup.SaveText(ctx, "aGVsbG8="))
	text, err := backup.LoadText(ctx)
	require.NoError(t, err)
	require.Equal(t, "aGVsbG8=", text)
}

func TestRedisBackup(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	backup := NewRedisBackup(client, "")
	_, err := backup.LoadText(ctx)
	require.ErrorIs(t, err, ErrNoBackup)

	require.NoError(t, backup.SaveText(ctx, "aGVsbG8="))
	stored, err := mr.Get(BackupKey)
	require.NoError(t, err)
	require.Equal(t, "aGVsbG8=", stored)

	text, err := backup.LoadText(ctx)
	require.NoError(t, err)
	require.Equal(t, "aGVsbG8=", text)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = DialRedis(context.Background(), "127.0.0.1:1")
	require.Error(t, err)
}
