// Package kv provides the durable key/value storage the patient registry
// persists into. It defines the Storage interface, an in-memory
// implementation for tests and memory-only runs, a file-per-key
// implementation on an afero filesystem, and a SQLite implementation.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrKeyNotFound = errors.New("key not found")
	// ErrUnavailable wraps every backend I/O failure: quota, permissions,
	// closed database, disabled storage.
	ErrUnavailable = errors.New("storage unavailable")
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Storage is a flat string-keyed byte store. Implementations must be safe
// for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	// Path is a directory for the file driver and a database file for the
	// sqlite driver.
	Path string
	// Fs overrides the filesystem used by the file driver.
	Fs afero.Fs
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverFile, "":
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return NewFileStorage(fs, opts.Path)
	case DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrUnavailable, op, key, err)
}
