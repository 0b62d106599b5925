package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zamzam-pos/zamzam-pos/cmd/zamzam-pos/cli"
	"github.com/zamzam-pos/zamzam-pos/internal/app"
)

const usage = `usage: zamzam-pos [command] [flags]

commands:
  serve            run the HTTP API (default)
  export-db -o F   write the current database image to F
  import-db -i F   replace the database with the image in F
  restore-backup   promote the text backup to the primary image
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	command := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.Usage = func() { _, _ = fmt.Fprint(os.Stderr, usage) }
	output := fs.String("o", "", "output file for export-db")
	input := fs.String("i", "", "input file for import-db")
	jsonOutput := fs.Bool("json", false, "print a JSON summary")
	envFile := fs.String("env", ".env", "optional dotenv file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(*envFile)
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)

	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close runtime", slog.Any("error", err))
		}
	}()

	switch command {
	case "serve":
		return serve(ctx, stop, rt)
	case "export-db", "import-db", "restore-backup":
		db, err := cli.NewDatabaseCLI(rt.Store)
		if err != nil {
			logger.Error("database cli", slog.Any("error", err))
			return 1
		}
		switch command {
		case "export-db":
			return db.ExportCommand(ctx, cli.DBOptions{Path: *output, JSONOutput: *jsonOutput})
		case "import-db":
			return db.ImportCommand(ctx, cli.DBOptions{Path: *input, JSONOutput: *jsonOutput})
		default:
			return db.RestoreCommand(ctx, cli.DBOptions{JSONOutput: *jsonOutput})
		}
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

func serve(ctx context.Context, stop context.CancelFunc, rt *app.Runtime) int {
	cfg, logger := rt.Config, rt.Logger

	if err := rt.Store.Open(ctx); err != nil {
		logger.Error("open store", slog.Any("error", err))
		return 1
	}
	if err := rt.SeedMenu(ctx); err != nil {
		logger.Warn("seed menu", slog.Any("error", err))
	}

	go func() {
		if err := rt.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}()

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      rt.Handler(),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
