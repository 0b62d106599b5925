package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrEmptyImage is returned when asked to load a zero-length image.
var ErrEmptyImage = errors.New("platform/db: empty image")

type serializer interface {
	Serialize() ([]byte, error)
}

// Serialize returns the full binary image of the engine's main schema.
// Drivers exposing sqlite3_serialize are used directly; otherwise the image is
// produced with VACUUM INTO a scratch file.
func Serialize(ctx context.Context, conn *sqlx.DB) ([]byte, error) {
	c, err := conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform/db: acquire conn: %w", err)
	}
	defer c.Close()

	var (
		image  []byte
		native bool
	)
	if err := c.Raw(func(dc any) error {
		s, ok := dc.(serializer)
		if !ok {
			return nil
		}
		native = true
		var serr error
		image, serr = s.Serialize()
		return serr
	}); err != nil {
		return nil, fmt.Errorf("platform/db: serialize: %w", err)
	}
	if native {
		return image, nil
	}
	return vacuumInto(ctx, c)
}

// Deserialize replaces the engine's main schema with image by attaching it
// from a scratch file and copying every table across. The driver's own
// sqlite3_deserialize hands SQLite a buffer it did not allocate, which breaks
// on the first resize or close, so it is never used. The image is not
// validated here; callers probe it afterwards.
func Deserialize(ctx context.Context, conn *sqlx.DB, image []byte) error {
	if len(image) == 0 {
		return ErrEmptyImage
	}
	c, err := conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: acquire conn: %w", err)
	}
	defer c.Close()
	return attachCopy(ctx, c, image)
}

func vacuumInto(ctx context.Context, c *sql.Conn) ([]byte, error) {
	dir, err := os.MkdirTemp("", "zamzam-image-*")
	if err != nil {
		return nil, fmt.Errorf("platform/db: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "image.db")
	if _, err := c.ExecContext(ctx, "VACUUM INTO "+quote(path)); err != nil {
		return nil, fmt.Errorf("platform/db: vacuum into: %w", err)
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform/db: read image: %w", err)
	}
	return image, nil
}

type schemaObject struct {
	kind string
	name string
	sql  string
}

// attachCopy rebuilds main from an image file attached under the "image" alias.
func attachCopy(ctx context.Context, c *sql.Conn, image []byte) error {
	dir, err := os.MkdirTemp("", "zamzam-image-*")
	if err != nil {
		return fmt.Errorf("platform/db: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "image.db")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return fmt.Errorf("platform/db: write image: %w", err)
	}
	if _, err := c.ExecContext(ctx, "ATTACH DATABASE "+quote(path)+" AS image"); err != nil {
		return fmt.Errorf("platform/db: attach image: %w", err)
	}
	defer func() {
		_, _ = c.ExecContext(context.WithoutCancel(ctx), "DETACH DATABASE image")
	}()

	incoming, err := listSchema(ctx, c, "image")
	if err != nil {
		return err
	}
	existing, err := listSchema(ctx, c, "main")
	if err != nil {
		return err
	}

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, obj := range existing {
		if obj.kind != "table" {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE main."+quoteIdent(obj.name)); err != nil {
			return fmt.Errorf("platform/db: drop %s: %w", obj.name, err)
		}
	}
	for _, obj := range incoming {
		if obj.kind != "table" {
			continue
		}
		if _, err := tx.ExecContext(ctx, obj.sql); err != nil {
			return fmt.Errorf("platform/db: create %s: %w", obj.name, err)
		}
		copyStmt := fmt.Sprintf("INSERT INTO main.%[1]s SELECT * FROM image.%[1]s", quoteIdent(obj.name))
		if _, err := tx.ExecContext(ctx, copyStmt); err != nil {
			return fmt.Errorf("platform/db: copy %s: %w", obj.name, err)
		}
	}
	for _, obj := range incoming {
		if obj.kind == "table" {
			continue
		}
		if _, err := tx.ExecContext(ctx, obj.sql); err != nil {
			return fmt.Errorf("platform/db: create %s: %w", obj.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}

func listSchema(ctx context.Context, c *sql.Conn, schema string) ([]schemaObject, error) {
	query := fmt.Sprintf(`SELECT type, name, sql FROM %s.sqlite_master
		WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%%'
		ORDER BY CASE type WHEN 'table' THEN 0 ELSE 1 END, rowid`, schema)
	rows, err := c.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("platform/db: read %s schema: %w", schema, err)
	}
	defer rows.Close()

	var objects []schemaObject
	for rows.Next() {
		var obj schemaObject
		if err := rows.Scan(&obj.kind, &obj.name, &obj.sql); err != nil {
			return nil, fmt.Errorf("platform/db: scan %s schema: %w", schema, err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("platform/db: read %s schema: %w", schema, err)
	}
	return objects, nil
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
