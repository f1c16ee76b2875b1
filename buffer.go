package wheelfile

import (
	"errors"
	"io"
)

// Buffer is a seekable in-memory byte store usable as an unnamed wheel
// target: writes build the archive, reads serve it back. The zero value is
// an empty buffer ready for use.
//
// Buffer implements io.Writer, io.Seeker, and io.ReaderAt. It is not safe
// for concurrent use.
type Buffer struct {
	data []byte
	off  int64
}

// NewBuffer creates a Buffer with the given initial contents. The slice is
// used directly, not copied.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the current contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Size returns the current content length in bytes.
func (b *Buffer) Size() int64 {
	return int64(len(b.data))
}

// Write writes p at the current offset, growing the buffer as needed.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.off + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.off:end], p)
	b.off = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("wheelfile: invalid seek whence")
	}
	if abs < 0 {
		return 0, errors.New("wheelfile: negative seek position")
	}
	b.off = abs
	return abs, nil
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("wheelfile: negative read offset")
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
