// Package main is the entry point for the wraith store tool.
//
// wraith maintains a flat key/value store of biolink profiles with large
// media payloads externalized into their own entries. The tool loads the
// store, prints a summary, and can run one-off maintenance (garbage
// collection, schema dump) or watch the store file for external edits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/invopop/jsonschema"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/starzzy/wraith/internal/kvstore"
	"github.com/starzzy/wraith/internal/models"
	"github.com/starzzy/wraith/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "wraith: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides config.yaml")
	gc := flag.Bool("gc", false, "Collect unreferenced media entries and exit")
	schema := flag.Bool("schema", false, "Print the profile JSON schema and exit")
	watch := flag.Bool("watch", false, "Watch the store file and reload on external changes")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *schema {
		return printSchema(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg, err := storage.LoadConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config.yaml: %w", err)
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("unknown log level: %q", level)
	}
	ll.Set(lvl)

	storePath := filepath.Join(*dataDir, "store.json")
	store, err := kvstore.NewFileStore(storePath, cfg.MaxStoreBytes, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	profiles := storage.NewProfileService(store, logger)
	accounts := storage.NewAccountService(store, logger, cfg.JWTSecret)

	if *gc {
		profiles.CollectGarbage()
		logger.Info("garbage collection done", "used", store.Used())
		return nil
	}

	if cfg.History {
		history, err := storage.NewHistoryService(*dataDir, logger)
		if err != nil {
			return err
		}
		profiles.SetSaveHook(func() {
			if err := history.Commit("save profiles"); err != nil {
				logger.Warn("failed to record history snapshot", "err", err)
			}
		})
	}

	printSummary(logger, store, profiles, accounts)
	if !*watch {
		return nil
	}
	return watchStore(ctx, logger, store, profiles, storePath)
}

// printSchema dumps the JSON schema of the profile record, for editors and
// external validators.
func printSchema(w *os.File) error {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	s := r.Reflect(&models.Profile{})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func printSummary(logger *slog.Logger, store *kvstore.FileStore, profiles *storage.ProfileService, accounts *storage.AccountService) {
	logger.Info("store loaded",
		"path", store.Path(),
		"used", store.Used(),
		"profiles", profiles.Count(),
		"accounts", accounts.Count())
	for _, p := range profiles.All() {
		logger.Info("profile", "username", p.Username, "links", len(p.Links), "views", p.Views)
	}
}

// watchStore reloads the store and profile list whenever the store file is
// rewritten by another process. Editors replace the file, so Create events
// count as writes.
func watchStore(ctx context.Context, logger *slog.Logger, store *kvstore.FileStore, profiles *storage.ProfileService, storePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	logger.Info("watching store for changes", "path", storePath)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != storePath || !ev.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			// Debounce: editors emit bursts of events per save.
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		case <-pending:
			pending = nil
			store.Reload()
			profiles.Reload()
			logger.Info("store reloaded", "used", store.Used(), "profiles", profiles.Count())
		}
	}
}
