package zipstore

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/flate"
)

// Reader provides read access to an existing ZIP container.
type Reader struct {
	zr     *zip.Reader
	closer io.Closer
	closed bool
}

// NewReader opens a read backend over an in-memory or otherwise
// random-access container.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return &Reader{zr: zr}, nil
}

// OpenFile opens a read backend over a container file at path.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// find returns the entry for path, preferring the last occurrence as ZIP
// readers conventionally do for duplicate names.
func (r *Reader) find(path string) (*zip.File, bool) {
	for i := len(r.zr.File) - 1; i >= 0; i-- {
		if r.zr.File[i].Name == path {
			return r.zr.File[i], true
		}
	}
	return nil, false
}

// WriteEntry implements Storage; read backends reject writes.
func (r *Reader) WriteEntry(path string, _ []byte, _ ...EntryOption) error {
	return fmt.Errorf("write %q: storage is read-only", path)
}

// ReadEntry implements Storage.
func (r *Reader) ReadEntry(path string) ([]byte, error) {
	rc, err := r.OpenEntry(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// OpenEntry implements Storage.
func (r *Reader) OpenEntry(path string) (io.ReadCloser, error) {
	f, ok := r.find(path)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return f.Open()
}

// OpenRawEntry implements RawReader, exposing the exact stored form.
func (r *Reader) OpenRawEntry(path string) (*RawEntry, error) {
	f, ok := r.find(path)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	raw, err := f.OpenRaw()
	if err != nil {
		return nil, fmt.Errorf("open raw %q: %w", path, err)
	}
	return &RawEntry{
		Header: f.FileHeader,
		Raw:    io.NopCloser(raw),
	}, nil
}

// List implements Storage, returning entries in central directory order.
func (r *Reader) List() []EntryInfo {
	infos := make([]EntryInfo, len(r.zr.File))
	for i, f := range r.zr.File {
		infos[i] = EntryInfo{
			Path:     f.Name,
			Size:     int64(f.UncompressedSize64),
			Modified: f.Modified,
			Deflated: f.Method == zip.Deflate,
		}
	}
	return infos
}

// Close implements Storage. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
