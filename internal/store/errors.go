package store

import "errors"

var (
	// ErrStoreUnavailable means the engine could not be started at all.
	ErrStoreUnavailable = errors.New("store: unavailable")
	// ErrImageCorrupt marks a persisted image that failed its sanity probe.
	ErrImageCorrupt = errors.New("store: persisted image corrupt")
	// ErrWriteFailed wraps a failed statement, transaction or commit.
	ErrWriteFailed = errors.New("store: write failed")
	// ErrAlreadyOpen is returned when a second Store is built for the same image.
	ErrAlreadyOpen = errors.New("store: image already owned by another store")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
	// ErrNoBackup is returned by RestoreBackup when no backup channel is configured.
	ErrNoBackup = errors.New("store: no backup channel configured")
)
