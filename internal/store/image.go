package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/db"
)

// ExportImage returns the current full engine image.
func (s *Store) ExportImage(ctx context.Context) ([]byte, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	image, err := db.Serialize(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("store: export image: %w", err)
	}
	return image, nil
}

// ImportImage replaces every table with the contents of image and commits.
// The image is loaded into a separate engine and probed first, so a bad image
// leaves the current data untouched and returns ErrImageCorrupt.
func (s *Store) ImportImage(ctx context.Context, image []byte) error {
	if err := s.Open(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := s.engine(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := load(ctx, next, image); err != nil {
		_ = next.Close()
		return err
	}
	applied, err := migrate(ctx, next)
	if err != nil {
		_ = next.Close()
		return fmt.Errorf("%w: %w", ErrImageCorrupt, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = next.Close()
		return ErrClosed
	}
	prev := s.conn
	s.conn = next
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	s.logger.Info("image imported", slog.Int("bytes", len(image)), slog.Int("migrations_applied", applied))

	s.mu.RLock()
	err = s.commit(ctx, next, true)
	s.mu.RUnlock()
	if err != nil {
		s.rollback(ctx, err)
	}
	return err
}

// RestoreBackup decodes the text backup and imports it as the live image.
func (s *Store) RestoreBackup(ctx context.Context) error {
	image, err := s.loadBackup(ctx)
	if err != nil {
		return err
	}
	return s.ImportImage(ctx, image)
}
