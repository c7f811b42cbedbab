package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dori/gtdsync/internal/config"
	"github.com/dori/gtdsync/internal/db"
	"github.com/dori/gtdsync/internal/service"
	"github.com/dori/gtdsync/internal/store"
	"github.com/dori/gtdsync/internal/webdavsync"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another gtdsync process holds the data dir.
var ErrLocked = errors.New("another instance of gtdsync is already running")

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	DB       *db.DB
	Store    *store.Store
	Tasks    *service.TaskService
	Projects *service.ProjectService
	Tags     *service.TagService
	Sync     *webdavsync.Engine
	DataDir  string
	lockFile *flock.Flock
}

// New creates a new application instance. Logs go to logOut; nil discards
// them.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:  cfg,
		DataDir: cfg.DataDir,
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database
	app.Store = store.New(database)

	logger := slog.New(slog.DiscardHandler)
	if logOut != nil {
		logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	}
	opts := []service.Option{service.WithObserver(service.NewLogUseCaseObserver(logOut, level))}
	app.Tasks = service.NewTaskService(app.Store, opts...)
	app.Projects = service.NewProjectService(app.Store, opts...)
	app.Tags = service.NewTagService(app.Store, opts...)

	app.Sync, err = webdavsync.New(ctx, database, app.Store,
		webdavsync.WithLogger(logger),
		webdavsync.WithTimeout(timeout))
	if err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(filepath.Join(a.DataDir, "gtdsync.lock"))

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		if cerr := a.DB.Close(); cerr != nil {
			err = fmt.Errorf("failed to close database: %w", cerr)
		}
	}
	a.releaseLock()
	return err
}
