// Package storage is the filesystem seam used by the estimator and the
// resolver: existence probes, regular-file checks and header reads.
package storage

import (
	"io"
	"io/fs"
	"os"
	"strings"
)

// FileSystem is the durable storage collaborator.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Paths are absolute, slash separated.
type FileSystem interface {
	// Exists reports whether anything exists at path.
	Exists(path string) bool

	// IsRegularFile reports whether path is a regular file.
	IsRegularFile(path string) bool

	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
}

// OSFileSystem is the FileSystem of the host.
type OSFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsRegularFile reports whether path is a regular file.
func (OSFileSystem) IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Open opens path with os.Open.
func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// FSAdapter exposes an io/fs.FS as a FileSystem. Absolute paths are mapped
// into the FS by dropping the leading separator.
type FSAdapter struct {
	FS fs.FS
}

// NewFSAdapter wraps fsys.
func NewFSAdapter(fsys fs.FS) *FSAdapter {
	return &FSAdapter{FS: fsys}
}

func (a *FSAdapter) name(path string) string {
	name := strings.TrimLeft(path, "/")
	if name == "" {
		return "."
	}
	return name
}

// Exists reports whether path exists in the FS.
func (a *FSAdapter) Exists(path string) bool {
	_, err := fs.Stat(a.FS, a.name(path))
	return err == nil
}

// IsRegularFile reports whether path is a regular file in the FS.
func (a *FSAdapter) IsRegularFile(path string) bool {
	info, err := fs.Stat(a.FS, a.name(path))
	return err == nil && info.Mode().IsRegular()
}

// Open opens path in the FS.
func (a *FSAdapter) Open(path string) (io.ReadCloser, error) {
	return a.FS.Open(a.name(path))
}

var (
	_ FileSystem = OSFileSystem{}
	_ FileSystem = (*FSAdapter)(nil)
)
