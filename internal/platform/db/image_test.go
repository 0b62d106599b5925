package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func seedEngine(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := NewMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.ExecContext(ctx, `CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `CREATE INDEX idx_notes_body ON notes(body)`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO notes (id, body) VALUES ('a', 'first'), ('b', 'second')`)
	require.NoError(t, err)
	return conn
}

func TestSerializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedEngine(t)

	image, err := Serialize(ctx, src)
	require.NoError(t, err)
	require.NotEmpty(t, image)

	dst, err := NewMemory(ctx)
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, Deserialize(ctx, dst, image))

	var bodies []string
	require.NoError(t, dst.SelectContext(ctx, &bodies, `SELECT body FROM notes ORDER BY id`))
	require.Equal(t, []string{"first", "second"}, bodies)
}

func TestRestoredEngineGrowsAndCloses(t *testing.T) {
	ctx := context.Background()
	image, err := Serialize(ctx, seedEngine(t))
	require.NoError(t, err)

	dst, err := NewMemory(ctx)
	require.NoError(t, err)
	require.NoError(t, Deserialize(ctx, dst, image))

	body := strings.Repeat("x", 512)
	for i := 0; i < 500; i++ {
		_, err := dst.ExecContext(ctx, `INSERT INTO notes (id, body) VALUES (?, ?)`, fmt.Sprintf("n%03d", i), body)
		require.NoError(t, err)
	}
	var count int
	require.NoError(t, dst.GetContext(ctx, &count, `SELECT COUNT(*) FROM notes`))
	require.Equal(t, 502, count)

	again, err := Serialize(ctx, dst)
	require.NoError(t, err)
	require.Greater(t, len(again), len(image))
	require.NoError(t, dst.Close())
}

func TestDeserializeReplacesExistingTables(t *testing.T) {
	ctx := context.Background()
	image, err := Serialize(ctx, seedEngine(t))
	require.NoError(t, err)

	dst, err := NewMemory(ctx)
	require.NoError(t, err)
	defer dst.Close()
	_, err = dst.ExecContext(ctx, `CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT NOT NULL, extra TEXT)`)
	require.NoError(t, err)
	_, err = dst.ExecContext(ctx, `INSERT INTO notes (id, body) VALUES ('stale', 'gone')`)
	require.NoError(t, err)

	require.NoError(t, Deserialize(ctx, dst, image))

	var ids []string
	require.NoError(t, dst.SelectContext(ctx, &ids, `SELECT id FROM notes ORDER BY id`))
	require.Equal(t, []string{"a", "b"}, ids)
	var indexes int
	require.NoError(t, dst.GetContext(ctx, &indexes, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_notes_body'`))
	require.Equal(t, 1, indexes)
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	dst, err := NewMemory(ctx)
	require.NoError(t, err)
	defer dst.Close()

	require.Error(t, Deserialize(ctx, dst, []byte("definitely not a database image")))
}

func TestDeserializeRejectsEmptyImage(t *testing.T) {
	ctx := context.Background()
	conn, err := NewMemory(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.ErrorIs(t, Deserialize(ctx, conn, nil), ErrEmptyImage)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn := seedEngine(t)

	err := WithTx(ctx, conn, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	var count int
	require.NoError(t, conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM notes`))
	require.Equal(t, 2, count)
}
