// Package cli holds the maintenance subcommands of the zamzam-pos binary.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImageStore is the slice of the store the database commands need.
type ImageStore interface {
	ExportImage(ctx context.Context) ([]byte, error)
	ImportImage(ctx context.Context, image []byte) error
	RestoreBackup(ctx context.Context) error
}

// DatabaseCLI offers export, import and backup recovery of the full image.
type DatabaseCLI struct {
	store ImageStore
}

// NewDatabaseCLI constructs the helper around an opened store.
func NewDatabaseCLI(store ImageStore) (*DatabaseCLI, error) {
	if store == nil {
		return nil, fmt.Errorf("database cli: store required")
	}
	return &DatabaseCLI{store: store}, nil
}

// DBOptions defines the flags shared by the database commands.
type DBOptions struct {
	Path       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// DBSummary describes the JSON response of a database command.
type DBSummary struct {
	Command string `json:"command"`
	Path    string `json:"path,omitempty"`
	Bytes   int    `json:"bytes"`
}

func (o *DBOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// ExportCommand writes the current image to opts.Path.
func (c *DatabaseCLI) ExportCommand(ctx context.Context, opts DBOptions) int {
	opts.defaults()
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "export-db: -o is required")
		return 1
	}
	image, err := c.store.ExportImage(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export-db: %v\n", err)
		return 1
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "export-db: %v\n", err)
			return 1
		}
	}
	if err := os.WriteFile(path, image, 0o600); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "export-db: %v\n", err)
		return 1
	}
	return report(opts, DBSummary{Command: "export-db", Path: path, Bytes: len(image)})
}

// ImportCommand replaces the store contents with the image at opts.Path.
func (c *DatabaseCLI) ImportCommand(ctx context.Context, opts DBOptions) int {
	opts.defaults()
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "import-db: -i is required")
		return 1
	}
	image, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import-db: %v\n", err)
		return 1
	}
	if err := c.store.ImportImage(ctx, image); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import-db: %v\n", err)
		return 1
	}
	return report(opts, DBSummary{Command: "import-db", Path: path, Bytes: len(image)})
}

// RestoreCommand promotes the text backup to the primary image.
func (c *DatabaseCLI) RestoreCommand(ctx context.Context, opts DBOptions) int {
	opts.defaults()
	if err := c.store.RestoreBackup(ctx); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "restore-backup: %v\n", err)
		return 1
	}
	image, err := c.store.ExportImage(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "restore-backup: %v\n", err)
		return 1
	}
	return report(opts, DBSummary{Command: "restore-backup", Bytes: len(image)})
}

func report(opts DBOptions, summary DBSummary) int {
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "%s: encode json: %v\n", summary.Command, err)
			return 1
		}
		return 0
	}
	if summary.Path != "" {
		_, _ = fmt.Fprintf(opts.Stdout, "%s: %d bytes (%s)\n", summary.Command, summary.Bytes, summary.Path)
	} else {
		_, _ = fmt.Fprintf(opts.Stdout, "%s: %d bytes\n", summary.Command, summary.Bytes)
	}
	return 0
}
