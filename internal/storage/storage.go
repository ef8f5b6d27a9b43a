package storage

import (
	"context"
	"errors"
)

var ErrInvalidName = errors.New("invalid file name")

// Uploader copies a finished export to remote storage and returns its URI.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Fetcher restores a remote export into a local path.
type Fetcher interface {
	Download(ctx context.Context, name, localPath string) error
}

// Lister enumerates exports kept in remote storage.
type Lister interface {
	ListExports(ctx context.Context) ([]string, error)
}
