// Command postboardd is the postboard server daemon.
// It loads the YAML config, seeds the board and serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/postboard/activity"
	"github.com/GoCodeAlone/postboard/auth"
	"github.com/GoCodeAlone/postboard/blob"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/config"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/internal/logging"
	"github.com/GoCodeAlone/postboard/internal/version"
	"github.com/GoCodeAlone/postboard/server"
	"github.com/GoCodeAlone/postboard/task"
)

var (
	configPath = flag.String("config", "postboard.yaml", "path to config file")
	envPath    = flag.String("env", ".env", "path to dotenv file")
)

func main() {
	flag.Parse()

	if err := config.LoadEnv(*envPath); err != nil {
		log.Fatalf("Failed to load env: %v", err)
	}
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close() //nolint:errcheck
	slog.SetDefault(logger)

	logger.Info("starting postboardd",
		"version", version.Version,
		"commit", version.Commit,
	)

	users := make([]auth.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.User{
			Username:     u.Username,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
			Role:         task.Role(u.Role),
		})
	}
	authn, err := auth.New(users, 0)
	if err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}

	journal, err := activity.Open(cfg.Activity.DSN, logger)
	if err != nil {
		log.Fatalf("Failed to open activity journal: %v", err)
	}
	defer journal.Close() //nolint:errcheck

	bus := events.NewInMemoryBus()
	journal.Attach(bus)

	registry := board.NewRegistry(brand.Seed(), task.Seed(),
		board.WithBus(bus),
		board.WithLogger(logger),
		board.WithMonth(cfg.Board.CalendarStart),
		board.WithDefaultBrand(cfg.Board.DefaultBrand),
	)

	srv := server.New(*cfg, version.Version, logger)
	srv.SetRegistry(registry)
	srv.SetAuthenticator(authn)
	srv.SetBlobStore(blob.NewStore(cfg.Blob.MaxBytes))
	srv.SetJournal(journal)
	srv.SetBus(bus)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Printf("postboard server running on %s\n", cfg.Server.Addr)
	fmt.Printf("Version: %s (%s)\n", version.Version, version.Commit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
	}

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("server stop error", "error", err)
	}
	fmt.Println("Shutdown complete")
}
