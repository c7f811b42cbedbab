package webdavsync

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/studio-b12/gowebdav"
)

// FileInfo is the subset of remote file metadata the engine uses
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Remote is a WebDAV file host. Paths are relative to the configured root.
type Remote interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte, overwrite bool) error
	Stat(ctx context.Context, path string) (FileInfo, error)
}

// RemoteFactory opens a Remote for cfg
type RemoteFactory func(cfg Config, timeout time.Duration) (Remote, error)

type davRemote struct {
	client *gowebdav.Client
}

// NewDAVRemote returns a Remote backed by a gowebdav client
func NewDAVRemote(cfg Config, timeout time.Duration) (Remote, error) {
	c := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &davRemote{client: c}, nil
}

func (r *davRemote) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := r.client.Stat(path)
	if err == nil {
		return true, nil
	}
	if gowebdav.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *davRemote) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.client.Read(path)
}

func (r *davRemote) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	if !overwrite {
		exists, err := r.Exists(ctx, path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", path, os.ErrExist)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.client.Write(path, data, 0644)
}

func (r *davRemote) Stat(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	fi, err := r.client.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}
