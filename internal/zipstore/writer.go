package zipstore

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
)

// zipEpoch is the default entry timestamp: the earliest moment the ZIP
// format can represent. A fixed default keeps archive output reproducible.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the deflate level (flate.BestSpeed through
// flate.BestCompression) used for compressed entries.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// WithStoredOnly disables compression: every entry is stored as-is.
func WithStoredOnly() WriterOption {
	return func(w *Writer) {
		w.storedOnly = true
	}
}

// Writer builds a ZIP container entry by entry. Compression runs through
// this package rather than the container writer, so the compressed form of
// every entry is retained and can be re-read (OpenEntry) before the
// container is finalized. RECORD refresh depends on that re-read.
type Writer struct {
	zw         *zip.Writer
	finalize   func() error
	abort      func()
	level      int
	storedOnly bool
	closed     bool

	entries []writtenEntry
	byPath  map[string]int
}

// writtenEntry retains what is needed to re-read an entry: its info and
// the compressed bytes exactly as stored in the container.
type writtenEntry struct {
	info EntryInfo
	comp []byte
}

// NewWriter creates a write backend emitting the container to dest.
func NewWriter(dest io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		zw:     zip.NewWriter(dest),
		level:  flate.DefaultCompression,
		byPath: make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateFile creates a write backend for a container file at path. The
// container is written to a temporary file in the same directory and
// renamed into place when Close succeeds, so a failed build leaves no
// partial archive behind. With exclusive set, an existing file at path is
// an error.
func CreateFile(path string, exclusive bool, opts ...WriterOption) (*Writer, error) {
	if exclusive {
		if _, err := os.Stat(path); err == nil {
			return nil, &fs.PathError{Op: "create", Path: path, Err: fs.ErrExist}
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wheelfile-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := NewWriter(tmp, opts...)
	w.finalize = func() error {
		if err := tmp.Close(); err != nil {
			os.Remove(tmpPath)
			return err
		}
		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return err
		}
		return nil
	}
	w.abort = func() {
		tmp.Close()
		os.Remove(tmpPath)
	}
	return w, nil
}

// WriteEntry implements Storage. Directory entries (trailing "/") are
// always stored uncompressed and empty.
func (w *Writer) WriteEntry(path string, data []byte, opts ...EntryOption) error {
	if w.closed {
		return fmt.Errorf("write %q: storage is closed", path)
	}

	cfg := entryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	modified := zipEpoch
	if cfg.modifiedSet {
		modified = cfg.modified
	}

	isDir := len(path) > 0 && path[len(path)-1] == '/'
	if isDir {
		data = nil
	}
	stored := w.storedOnly || isDir
	if cfg.storedSet {
		stored = cfg.stored || isDir
	}

	method := zip.Deflate
	comp := data
	if stored {
		method = zip.Store
	} else {
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, w.level)
		if err != nil {
			return fmt.Errorf("deflate %q: %w", path, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("deflate %q: %w", path, err)
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("deflate %q: %w", path, err)
		}
		comp = buf.Bytes()
	}

	hdr := &zip.FileHeader{
		Name:               path,
		Method:             method,
		Modified:           modified,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(comp)),
		UncompressedSize64: uint64(len(data)),
	}

	dst, err := w.zw.CreateRaw(hdr)
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if _, err := dst.Write(comp); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}

	w.retain(writtenEntry{
		info: EntryInfo{
			Path:     path,
			Size:     int64(len(data)),
			Modified: modified,
			Deflated: method == zip.Deflate,
		},
		comp: append([]byte(nil), comp...),
	})
	return nil
}

// WriteRawEntry implements RawWriter: the entry's compressed bytes and
// header are carried over unchanged, except for the name.
func (w *Writer) WriteRawEntry(e *RawEntry, newPath string) error {
	if w.closed {
		return fmt.Errorf("write %q: storage is closed", newPath)
	}
	defer e.Raw.Close()

	hdr := e.Header
	hdr.Name = newPath

	dst, err := w.zw.CreateRaw(&hdr)
	if err != nil {
		return fmt.Errorf("write %q: %w", newPath, err)
	}

	var comp bytes.Buffer
	if _, err := io.Copy(dst, io.TeeReader(e.Raw, &comp)); err != nil {
		return fmt.Errorf("write %q: %w", newPath, err)
	}

	w.retain(writtenEntry{
		info: EntryInfo{
			Path:     newPath,
			Size:     int64(hdr.UncompressedSize64),
			Modified: hdr.Modified,
			Deflated: hdr.Method == zip.Deflate,
		},
		comp: comp.Bytes(),
	})
	return nil
}

func (w *Writer) retain(e writtenEntry) {
	w.entries = append(w.entries, e)
	w.byPath[e.info.Path] = len(w.entries) - 1
}

// ReadEntry implements Storage.
func (w *Writer) ReadEntry(path string) ([]byte, error) {
	rc, err := w.OpenEntry(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// OpenEntry implements Storage. The most recent write under path wins.
func (w *Writer) OpenEntry(path string) (io.ReadCloser, error) {
	i, ok := w.byPath[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	e := w.entries[i]
	if e.info.Deflated {
		return flate.NewReader(bytes.NewReader(e.comp)), nil
	}
	return io.NopCloser(bytes.NewReader(e.comp)), nil
}

// List implements Storage.
func (w *Writer) List() []EntryInfo {
	infos := make([]EntryInfo, len(w.entries))
	for i, e := range w.entries {
		infos[i] = e.info
	}
	return infos
}

// Close finalizes the container. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.zw.Close(); err != nil {
		if w.abort != nil {
			w.abort()
		}
		return err
	}
	if w.finalize != nil {
		return w.finalize()
	}
	return nil
}
