// Package zipstore provides the archive-storage backends a wheel session
// operates on: a write backend that builds a ZIP container and can re-read
// entries before the container is finalized, and a read backend over an
// existing container.
//
// Deflate compression goes through github.com/klauspost/compress/flate on
// both paths.
package zipstore

import (
	"archive/zip"
	"io"
	"time"
)

// EntryInfo describes a stored archive entry.
type EntryInfo struct {
	// Path of the entry inside the archive. Directory entries end in "/".
	Path string
	// Size is the uncompressed byte size.
	Size int64
	// Modified is the entry's recorded modification time.
	Modified time.Time
	// Deflated reports whether the entry is stored compressed.
	Deflated bool
}

// EntryOption adjusts how a single entry is written into storage.
type EntryOption func(*entryConfig)

type entryConfig struct {
	modified    time.Time
	modifiedSet bool
	stored      bool
	storedSet   bool
}

// EntryWithModTime overrides the modification time recorded for the entry.
func EntryWithModTime(t time.Time) EntryOption {
	return func(c *entryConfig) {
		c.modified = t
		c.modifiedSet = true
	}
}

// EntryStored writes the entry uncompressed, overriding the backend's
// default compression method.
func EntryStored() EntryOption {
	return func(c *entryConfig) {
		c.stored = true
		c.storedSet = true
	}
}

// Storage is the archive container backend a wheel session operates on.
// The wheel layer never touches the ZIP wire format directly; it only
// reads and writes named byte streams through this interface.
//
// List returns entries in the order they are stored. Entries written after
// a List call are not reflected in previously returned slices.
type Storage interface {
	// WriteEntry stores data under path, creating or replacing the entry.
	WriteEntry(path string, data []byte, opts ...EntryOption) error

	// ReadEntry returns the full uncompressed contents of the entry.
	ReadEntry(path string) ([]byte, error)

	// OpenEntry opens the entry for a fresh streaming read.
	OpenEntry(path string) (io.ReadCloser, error)

	// List returns the stored entries in order.
	List() []EntryInfo

	// Close finalizes and releases the container. Close is idempotent.
	Close() error
}

// RawEntry is the stored form of an entry: its container header plus the
// exact compressed bytes as they appear in the container. Raw copies move
// entries between archives without altering timestamps, compression
// method, or bytes.
type RawEntry struct {
	Header zip.FileHeader
	Raw    io.ReadCloser
}

// RawReader is implemented by storage backends that can expose entries in
// their stored compressed form.
type RawReader interface {
	OpenRawEntry(path string) (*RawEntry, error)
}

// RawWriter is implemented by storage backends that can accept entries in
// pre-compressed form without recompressing them.
type RawWriter interface {
	WriteRawEntry(e *RawEntry, newPath string) error
}
