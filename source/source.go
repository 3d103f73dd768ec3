// Package source provides the byte sources a representation is served from.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned by Open if there is no representation for the id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidWindow is returned by ReadWindow if the window is not within
	// the representation.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrUnavailable is returned if the source is temporarily not usable.
	ErrUnavailable = errors.New("source unavailable")
)

// Source opens representations by id. The id is the request path
// relative to the mount point of the source, always starting with "/".
//
// Implementations must be thread-safe!
type Source interface {
	Open(ctx context.Context, id string) (Handle, error)
}

// Handle is an open representation. Stat always describes the same
// snapshot that ReadWindow reads from.
type Handle interface {
	// Stat returns the metadata of the representation.
	Stat() (Info, error)
	// ReadWindow returns a reader for length bytes starting at start.
	ReadWindow(start, length uint64) (io.Reader, error)
	Close() error
}

// Info is the metadata of a representation.
type Info struct {
	Size        uint64
	ModTime     time.Time
	ContentType string
}

// Entry is a representation stored in a Store.
type Entry struct {
	ID          string
	Modified    time.Time
	ContentType string
	Bytes       []byte
}

// Store is a Source that representations can be written to.
type Store interface {
	Source
	// Put stores the entry, replacing any entry with the same id.
	Put(entry Entry) error
	// Keys calls the given callback for each id with the given prefix.
	Keys(prefix string, cb func(string)) error
}

func checkWindow(size, start, length uint64) error {
	if start > size || length > size-start {
		return fmt.Errorf("%w: %d+%d of %d", ErrInvalidWindow, start, length, size)
	}
	return nil
}
