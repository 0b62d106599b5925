// Package store owns the embedded SQLite engine, its schema and the
// full-image durability protocol. Every other package reads and writes
// through a *Store; nothing else holds the engine handle.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/zamzam-pos/zamzam-pos/internal/observability"
	"github.com/zamzam-pos/zamzam-pos/internal/platform/db"
)

// ImageChannel persists full engine images. Load returns nil, nil when no
// image has been saved yet.
type ImageChannel interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, image []byte) error
}

// BackupChannel keeps the base64 text copy of the last image.
type BackupChannel interface {
	SaveText(ctx context.Context, text string) error
	LoadText(ctx context.Context) (string, error)
}

// EngineFactory starts an empty engine.
type EngineFactory func(ctx context.Context) (*sqlx.DB, error)

// Options configures a Store.
type Options struct {
	// Name identifies the image; at most one Store may exist per name.
	Name    string
	Images  ImageChannel
	Backup  BackupChannel
	Logger  *slog.Logger
	Metrics *observability.StoreMetrics
	Engine  EngineFactory
	// AfterCommit hooks run after every successful commit.
	AfterCommit []func(context.Context)
}

// Store is the single owner of the engine and its persisted image.
type Store struct {
	name        string
	images      ImageChannel
	backup      BackupChannel
	logger      *slog.Logger
	metrics     *observability.StoreMetrics
	engine      EngineFactory
	afterCommit []func(context.Context)

	init singleflight.Group

	// mu guards conn; readers hold it for the duration of a query.
	mu     sync.RWMutex
	conn   *sqlx.DB
	closed bool

	// persisted is the last image known to be saved; a failed commit
	// rebuilds the engine from it.
	persisted []byte

	// writeMu serialises transaction plus image commit. Lock order: writeMu, then mu.
	writeMu sync.Mutex
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]struct{})
)

// New constructs the Store for opts.Name. Constructing a second Store for the
// same name before Close fails with ErrAlreadyOpen.
func New(opts Options) (*Store, error) {
	if opts.Images == nil {
		return nil, errors.New("store: image channel required")
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, taken := registry[name]; taken {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, name)
	}
	registry[name] = struct{}{}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = db.NewMemory
	}
	return &Store{
		name:        name,
		images:      opts.Images,
		backup:      opts.Backup,
		logger:      logger.With(slog.String("component", "store")),
		metrics:     opts.Metrics,
		engine:      engine,
		afterCommit: opts.AfterCommit,
	}, nil
}

// OnCommit registers a hook that runs after every successful commit.
func (s *Store) OnCommit(fn func(context.Context)) {
	if fn == nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.afterCommit = append(s.afterCommit, fn)
}

// Open loads the persisted image (or creates a fresh schema) and brings the
// schema up to date. It is idempotent; concurrent callers share one
// in-flight initialisation.
func (s *Store) Open(ctx context.Context) error {
	if s.current() != nil {
		return nil
	}
	ch := s.init.DoChan("open", func() (any, error) {
		return nil, s.open(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Store) current() *sqlx.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

func (s *Store) open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.conn != nil {
		return nil
	}

	conn, err := s.engine(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	restored, err := s.restore(ctx, conn)
	recovered := false
	if err != nil {
		_ = conn.Close()
		if !errors.Is(err, ErrImageCorrupt) {
			return err
		}
		corrupt := err
		s.metrics.ImageCorrupt()
		if conn, err = s.engine(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if backupErr := s.restoreFromBackup(ctx, conn); backupErr == nil {
			s.logger.Warn("persisted image discarded, recovered from text backup", slog.Any("error", corrupt))
			restored, recovered = true, true
		} else {
			s.logger.Warn("persisted image discarded, starting with an empty schema",
				slog.Any("error", corrupt), slog.Any("backup_error", backupErr))
			_ = conn.Close()
			if conn, err = s.engine(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
			}
		}
	}

	applied, err := migrate(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	// A fresh schema holds no rows worth backing up; the text backup may be
	// the only copy of the shop's data.
	if applied > 0 || !restored || recovered {
		if err := s.commit(ctx, conn, restored); err != nil {
			_ = conn.Close()
			return err
		}
	}

	s.conn = conn
	s.logger.Info("store open", slog.Bool("restored", restored), slog.Bool("from_backup", recovered),
		slog.Int("migrations_applied", applied))
	return nil
}

// restore loads the saved image into conn and reports whether one existed.
func (s *Store) restore(ctx context.Context, conn *sqlx.DB) (bool, error) {
	image, err := s.images.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: load image: %w", ErrStoreUnavailable, err)
	}
	if len(image) == 0 {
		return false, nil
	}
	if err := load(ctx, conn, image); err != nil {
		return false, err
	}
	s.persisted = image
	return true, nil
}

// restoreFromBackup loads the decoded text backup into conn.
func (s *Store) restoreFromBackup(ctx context.Context, conn *sqlx.DB) error {
	image, err := s.loadBackup(ctx)
	if err != nil {
		return err
	}
	return load(ctx, conn, image)
}

func (s *Store) loadBackup(ctx context.Context) ([]byte, error) {
	if s.backup == nil {
		return nil, ErrNoBackup
	}
	text, err := s.backup.LoadText(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load backup: %w", err)
	}
	image, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: decode backup: %w", ErrImageCorrupt, err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrImageCorrupt, errors.New("empty backup"))
	}
	return image, nil
}

// load deserialises image into conn and checks that it holds the ledger.
func load(ctx context.Context, conn *sqlx.DB, image []byte) error {
	if err := db.Deserialize(ctx, conn, image); err != nil {
		return fmt.Errorf("%w: %w", ErrImageCorrupt, err)
	}
	if err := probe(ctx, conn); err != nil {
		return fmt.Errorf("%w: %w", ErrImageCorrupt, err)
	}
	return nil
}

func probe(ctx context.Context, conn *sqlx.DB) error {
	var count int
	return conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM receipts`)
}

// commit serialises conn and overwrites the persisted image, then the text
// backup when withBackup is set. The backup is best effort.
func (s *Store) commit(ctx context.Context, conn *sqlx.DB, withBackup bool) error {
	tracker := s.metrics.TrackCommit()
	image, err := db.Serialize(ctx, conn)
	if err != nil {
		return tracker.End(0, fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	if err := s.images.Save(ctx, image); err != nil {
		return tracker.End(0, fmt.Errorf("%w: save image: %w", ErrWriteFailed, err))
	}
	s.persisted = image
	if withBackup && s.backup != nil {
		if err := s.backup.SaveText(ctx, base64.StdEncoding.EncodeToString(image)); err != nil {
			s.logger.Warn("text backup failed", slog.Any("error", err))
		}
	}
	_ = tracker.End(len(image), nil)
	for _, hook := range s.afterCommit {
		hook(ctx)
	}
	return nil
}

// revert swaps in an engine rebuilt from the last persisted image so rows
// that never reached the image are dropped. Callers hold writeMu and no
// read lock.
func (s *Store) revert(ctx context.Context) error {
	next, err := s.engine(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(s.persisted) > 0 {
		if err := load(ctx, next, s.persisted); err != nil {
			_ = next.Close()
			return err
		}
	}
	if _, err := migrate(ctx, next); err != nil {
		_ = next.Close()
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
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
	return nil
}

// acquire opens the store when needed and returns the engine with a read
// lock held until release is called.
func (s *Store) acquire(ctx context.Context) (*sqlx.DB, func(), error) {
	if err := s.Open(ctx); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	if s.conn == nil {
		s.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return s.conn, s.mu.RUnlock, nil
}

// Close releases the engine and frees the name for a later New. The image
// channels are owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	registryMu.Lock()
	delete(registry, s.name)
	registryMu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
