// Package storetest provides in-memory image channels and a ready store for
// package tests.
package storetest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/store"
	_ "github.com/zamzam-pos/zamzam-pos/testing"
)

// MemoryImages is an ImageChannel kept in memory.
type MemoryImages struct {
	mu      sync.Mutex
	image   []byte
	saves   int
	LoadErr error
	SaveErr error
}

// Load implements store.ImageChannel.
func (m *MemoryImages) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]byte(nil), m.image...), nil
}

// Save implements store.ImageChannel.
func (m *MemoryImages) Save(ctx context.Context, image []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.image = append([]byte(nil), image...)
	m.saves++
	return nil
}

// Set replaces the stored image.
func (m *MemoryImages) Set(image []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = append([]byte(nil), image...)
}

// Image returns a copy of the stored image.
func (m *MemoryImages) Image() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.image...)
}

// Saves counts successful saves.
func (m *MemoryImages) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MemoryBackup is a BackupChannel kept in memory.
type MemoryBackup struct {
	mu   sync.Mutex
	text string
}

// SaveText implements store.BackupChannel.
func (m *MemoryBackup) SaveText(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// LoadText implements store.BackupChannel.
func (m *MemoryBackup) LoadText(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.text == "" {
		return "", errors.New("storetest: no backup")
	}
	return m.text, nil
}

// Text returns the stored backup.
func (m *MemoryBackup) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Options returns store options with a unique name and in-memory channels.
func Options(images *MemoryImages) store.Options {
	return store.Options{
		Name:   "test-" + uuid.NewString(),
		Images: images,
		Logger: Logger(),
	}
}

// New returns an opened store and its image channel; both are released when
// the test ends.
func New(t testing.TB) (*store.Store, *MemoryImages) {
	t.Helper()
	images := &MemoryImages{}
	s, err := store.New(Options(images))
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s, images
}
