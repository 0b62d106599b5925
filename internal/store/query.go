package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/db"
)

// Select runs a read query and scans every row into dest.
func (s *Store) Select(ctx context.Context, dest any, query string, args ...any) error {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return conn.SelectContext(ctx, dest, query, args...)
}

// Get runs a read query expected to return one row. A missing row surfaces
// as sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, dest any, query string, args ...any) error {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return conn.GetContext(ctx, dest, query, args...)
}

// Write runs fn inside one transaction and commits the full image after the
// transaction lands. Writes are serialised. Any failure is wrapped in
// ErrWriteFailed and leaves the engine unchanged: when the image cannot be
// saved, the engine is rebuilt from the last saved image.
func (s *Store) Write(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	if err := db.WithTx(ctx, conn, fn); err != nil {
		release()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	err = s.commit(ctx, conn, true)
	release()
	if err != nil {
		s.rollback(ctx, err)
	}
	return err
}

// rollback discards engine changes that a failed commit left unsaved.
func (s *Store) rollback(ctx context.Context, cause error) {
	if err := s.revert(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("engine rollback after failed commit", slog.Any("cause", cause), slog.Any("error", err))
		return
	}
	s.logger.Warn("commit failed, engine rolled back to the saved image", slog.Any("error", cause))
}

// Commit writes the current engine image without changing any rows.
func (s *Store) Commit(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.commit(ctx, conn, true)
}
