// Package webdavsync mirrors the Document to a single JSON file on a WebDAV
// server.
//
// The whole Document is exchanged on every sync. The side whose lastSync is
// larger replaces the other wholesale; there is no field-level merge. A
// failed sync never modifies local data.
package webdavsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dori/gtdsync/internal/kv"
	"github.com/dori/gtdsync/internal/model"
	"github.com/dori/gtdsync/internal/store"
)

const (
	// ConfigKey is the medium key holding the connection configuration
	ConfigKey = "webdav_config"

	// RemotePath is the Document's location below the WebDAV root
	RemotePath = "/gtd-data.json"

	defaultTimeout = 30 * time.Second
)

// State is the engine's position in its lifecycle
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateSyncing      State = "syncing"
	StateIdle         State = "idle"
	StateError        State = "error"
)

// Direction records which way data moved
type Direction string

const (
	DirectionNone          Direction = ""
	DirectionInitialUpload Direction = "initial-upload"
	DirectionUploaded      Direction = "uploaded"
	DirectionDownloaded    Direction = "downloaded"
	DirectionPushed        Direction = "pushed"
	DirectionPulled        Direction = "pulled"
)

// Result is what a sync reports to the caller
type Result struct {
	Success   bool
	Message   string
	Direction Direction
	At        time.Time
}

// Engine synchronizes the local Document with the remote file
type Engine struct {
	medium  kv.Store
	store   *store.Store
	dial    RemoteFactory
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration

	// mu serializes configuration changes and transfers.
	mu     sync.Mutex
	state  State
	cfg    *Config
	remote Remote
	last   Result
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRemoteFactory replaces the gowebdav-backed remote
func WithRemoteFactory(f RemoteFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.dial = f
		}
	}
}

// WithTimeout bounds each HTTP request to the server
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates an Engine, restoring any configuration saved in medium.
func New(ctx context.Context, medium kv.Store, st *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		medium:  medium,
		store:   st,
		dial:    NewDAVRemote,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		timeout: defaultTimeout,
		state:   StateUnconfigured,
	}
	for _, opt := range opts {
		opt(e)
	}

	raw, err := medium.Get(ctx, ConfigKey)
	if errors.Is(err, kv.ErrNotFound) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read sync config: %w", model.ErrStorage, err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse sync config: %w", model.ErrStorage, err)
	}
	e.cfg = &cfg
	e.state = StateConfigured
	return e, nil
}

// Configure validates the server and credentials with one probe of the
// WebDAV root and saves them. Nothing is saved if the probe fails.
func (e *Engine) Configure(ctx context.Context, rawURL, username, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, err := NormalizeURL(rawURL, username)
	if err != nil {
		return err
	}
	cfg := Config{URL: u, Username: username, Password: password}

	remote, err := e.dial(cfg, e.timeout)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrConnection, err)
	}
	ok, err := remote.Exists(ctx, "/")
	if err != nil {
		return fmt.Errorf("%w: probe %s: %w", model.ErrConnection, u, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s does not exist", model.ErrConnection, u)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode sync config: %w", model.ErrStorage, err)
	}
	if err := e.medium.Set(ctx, ConfigKey, string(data)); err != nil {
		return fmt.Errorf("%w: save sync config: %w", model.ErrStorage, err)
	}

	e.cfg = &cfg
	e.remote = remote
	e.state = StateConfigured
	e.logger.InfoContext(ctx, "sync_configured", "url", u, "username", username)
	return nil
}

// IsConfigured reports whether a server has been configured
func (e *Engine) IsConfigured() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg != nil
}

// CurrentConfig returns the configured server without the password
func (e *Engine) CurrentConfig() (PublicConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == nil {
		return PublicConfig{}, false
	}
	return PublicConfig{URL: e.cfg.URL, Username: e.cfg.Username}, true
}

// State returns the engine's current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastResult returns the outcome of the most recent transfer
func (e *Engine) LastResult() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Disconnect forgets the server configuration. Local tasks are kept.
func (e *Engine) Disconnect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.medium.Delete(ctx, ConfigKey); err != nil {
		return fmt.Errorf("%w: delete sync config: %w", model.ErrStorage, err)
	}
	e.cfg = nil
	e.remote = nil
	e.state = StateUnconfigured
	e.last = Result{}
	e.logger.InfoContext(ctx, "sync_disconnected")
	return nil
}

// RemoteModified returns the server's last-modified time of the remote file
func (e *Engine) RemoteModified(ctx context.Context) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	remote, err := e.remoteLocked()
	if err != nil {
		return time.Time{}, err
	}
	fi, err := remote.Stat(ctx, RemotePath)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stat %s: %w", model.ErrConnection, RemotePath, err)
	}
	return fi.ModTime, nil
}

// Sync reconciles local and remote. A missing remote file gets the local
// Document; otherwise the side with the larger lastSync wins, ties going to
// local.
func (e *Engine) Sync(ctx context.Context) Result {
	return e.run(ctx, "sync", e.sync)
}

// ForcePush overwrites the remote file with the local Document
func (e *Engine) ForcePush(ctx context.Context) Result {
	return e.run(ctx, "push", func(ctx context.Context, remote Remote) (Result, error) {
		local, err := e.store.Cached(ctx)
		if err != nil {
			return Result{}, err
		}
		return e.upload(ctx, remote, local, DirectionPushed)
	})
}

// ForcePull replaces the local Document with the remote file
func (e *Engine) ForcePull(ctx context.Context) Result {
	return e.run(ctx, "pull", func(ctx context.Context, remote Remote) (Result, error) {
		exists, err := remote.Exists(ctx, RemotePath)
		if err != nil {
			return Result{}, fmt.Errorf("%w: check %s: %w", model.ErrConnection, RemotePath, err)
		}
		if !exists {
			return Result{}, errors.New("no remote data to pull")
		}
		doc, err := e.fetch(ctx, remote)
		if err != nil {
			return Result{}, err
		}
		return e.download(ctx, doc, DirectionPulled)
	})
}

type transfer func(ctx context.Context, remote Remote) (Result, error)

func (e *Engine) run(ctx context.Context, op string, fn transfer) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	remote, err := e.remoteLocked()
	if err != nil {
		return Result{Success: false, Message: "WebDAV sync is not configured", At: e.now()}
	}

	e.state = StateSyncing
	started := time.Now()
	e.logger.InfoContext(ctx, "sync_start", "op", op, "url", e.cfg.URL)

	res, err := fn(ctx, remote)
	if err != nil {
		e.state = StateError
		e.last = Result{Success: false, Message: "Sync failed: " + err.Error(), At: e.now()}
		e.logger.ErrorContext(ctx, "sync_failed", "op", op, "error", err.Error(),
			"duration_ms", time.Since(started).Milliseconds())
		return e.last
	}

	e.state = StateIdle
	e.last = res
	e.logger.InfoContext(ctx, "sync_done", "op", op, "direction", string(res.Direction),
		"duration_ms", time.Since(started).Milliseconds())
	return res
}

func (e *Engine) remoteLocked() (Remote, error) {
	if e.cfg == nil {
		return nil, errors.New("sync is not configured")
	}
	if e.remote == nil {
		r, err := e.dial(*e.cfg, e.timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrConnection, err)
		}
		e.remote = r
	}
	return e.remote, nil
}

func (e *Engine) sync(ctx context.Context, remote Remote) (Result, error) {
	local, err := e.store.Cached(ctx)
	if err != nil {
		return Result{}, err
	}

	exists, err := remote.Exists(ctx, RemotePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: check %s: %w", model.ErrConnection, RemotePath, err)
	}
	if !exists {
		return e.upload(ctx, remote, local, DirectionInitialUpload)
	}

	remoteDoc, err := e.fetch(ctx, remote)
	if err != nil {
		return Result{}, err
	}

	e.warnOnDivergence(ctx, local, remoteDoc)

	if lastSync(remoteDoc) > lastSync(local) {
		return e.download(ctx, remoteDoc, DirectionDownloaded)
	}
	return e.upload(ctx, remote, local, DirectionUploaded)
}

func (e *Engine) fetch(ctx context.Context, remote Remote) (*model.Document, error) {
	data, err := remote.Read(ctx, RemotePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrConnection, RemotePath, err)
	}
	doc, err := store.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("remote data is unreadable: %w", err)
	}
	return doc, nil
}

// upload writes local to the server, then records the sync stamp locally.
// The local Document is only touched once the server accepted the write.
func (e *Engine) upload(ctx context.Context, remote Remote, local *model.Document, dir Direction) (Result, error) {
	now := e.now()
	stamp := now.UnixMilli()

	doc := local.Clone()
	doc.Version = model.SchemaVersion
	doc.LastSync = &stamp
	hash, err := store.ComputeHash(doc)
	if err != nil {
		return Result{}, err
	}
	doc.SyncHash = hash

	data, err := store.Marshal(doc)
	if err != nil {
		return Result{}, err
	}
	if err := remote.Write(ctx, RemotePath, []byte(data), true); err != nil {
		return Result{}, fmt.Errorf("%w: write %s: %w", model.ErrConnection, RemotePath, err)
	}

	err = e.store.Update(ctx, func(d *model.Document) error {
		d.LastSync = &stamp
		d.SyncHash = hash
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: messages[dir], Direction: dir, At: now}, nil
}

// download installs doc as the local Document, stamped with the sync time.
func (e *Engine) download(ctx context.Context, doc *model.Document, dir Direction) (Result, error) {
	now := e.now()
	stamp := now.UnixMilli()

	hash, err := store.ComputeHash(doc)
	if err != nil {
		return Result{}, err
	}
	doc.LastSync = &stamp
	doc.SyncHash = hash
	if err := e.store.Save(ctx, doc); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: messages[dir], Direction: dir, At: now}, nil
}

// warnOnDivergence logs when both sides changed since the last sync this
// device took part in. The newer lastSync still wins.
func (e *Engine) warnOnDivergence(ctx context.Context, local, remote *model.Document) {
	if local.SyncHash == "" || remote.SyncHash == "" || remote.SyncHash == local.SyncHash {
		return
	}
	current, err := store.ComputeHash(local)
	if err != nil || current == local.SyncHash {
		return
	}
	e.logger.WarnContext(ctx, "sync_divergence", "local_hash", current, "remote_hash", remote.SyncHash)
}

var messages = map[Direction]string{
	DirectionInitialUpload: "Initial upload complete",
	DirectionUploaded:      "Uploaded local changes",
	DirectionDownloaded:    "Downloaded remote changes",
	DirectionPushed:        "Pushed local data to server",
	DirectionPulled:        "Pulled server data",
}

func lastSync(doc *model.Document) int64 {
	if doc.LastSync == nil {
		return 0
	}
	return *doc.LastSync
}
