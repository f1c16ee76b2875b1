package wheelfile

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// hashBufSize is the chunk size used when hashing streams for the record.
const hashBufSize = 64 * 1024

// recordEntry is a single RECORD row: archive path, encoded hash, size.
type recordEntry struct {
	path string
	hash string
	size int64
}

// WheelRecord models the .dist-info/RECORD file: a content-addressed
// manifest mapping archive paths to a hash and byte size. Entries keep
// insertion order, which is also serialization order.
//
// Hashes are encoded as "<algo>=<base64url-nopad-digest>". The algorithm
// is restricted to guaranteed-available ones; md5 and sha1 are forbidden
// by the wheel specification.
type WheelRecord struct {
	algo    digest.Algorithm
	order   []string
	entries map[string]recordEntry
}

// NewWheelRecord creates an empty record using sha256.
func NewWheelRecord() *WheelRecord {
	r, err := NewWheelRecordWithHash("sha256")
	if err != nil {
		panic(err) // sha256 is always available
	}
	return r
}

// NewWheelRecordWithHash creates an empty record using the named hash
// algorithm. Returns ErrUnsupportedHashType for md5 and sha1 (forbidden)
// and for algorithms not available in the digest registry.
func NewWheelRecordWithHash(algo string) (*WheelRecord, error) {
	if algo == "md5" || algo == "sha1" {
		return nil, fmt.Errorf("%w: %q is forbidden for RECORD entries", ErrUnsupportedHashType, algo)
	}
	a := digest.Algorithm(algo)
	if !a.Available() {
		return nil, fmt.Errorf("%w: %q is not a valid record hash", ErrUnsupportedHashType, algo)
	}
	return &WheelRecord{
		algo:    a,
		entries: make(map[string]recordEntry),
	}, nil
}

// HashAlgo returns the name of the hash algorithm used for entries.
func (r *WheelRecord) HashAlgo() string {
	return string(r.algo)
}

// Update adds or replaces the entry for arcpath by hashing the stream in
// 64KiB chunks until exhausted.
//
// The stream must be fresh: if it is seekable and not positioned at its
// start, or arcpath targets a RECORD file, the call site has a bug and
// Update panics. A path ending in "/" returns ErrRecordContainsDirectory.
func (r *WheelRecord) Update(arcpath string, stream io.Reader) error {
	if seeker, ok := stream.(io.Seeker); ok {
		if pos, err := seeker.Seek(0, io.SeekCurrent); err == nil && pos != 0 {
			panic(fmt.Sprintf("wheelfile: stale stream given for %q: position %d", arcpath, pos))
		}
	}
	if strings.HasSuffix(arcpath, ".dist-info/RECORD") {
		panic(fmt.Sprintf("wheelfile: attempt to add a RECORD entry for the RECORD file: %q", arcpath))
	}
	if strings.HasSuffix(arcpath, "/") {
		return fmt.Errorf("%w: %q", ErrRecordContainsDirectory, arcpath)
	}

	hasher := r.algo.Hash()
	buf := make([]byte, hashBufSize)
	var size int64
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			size += int64(n)
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("hashing %q: %w", arcpath, err)
		}
	}

	encoded := base64.RawURLEncoding.EncodeToString(hasher.Sum(nil))
	r.set(recordEntry{
		path: arcpath,
		hash: string(r.algo) + "=" + encoded,
		size: size,
	})
	return nil
}

// set stores an entry, appending to the order on first sight of the path.
func (r *WheelRecord) set(e recordEntry) {
	if _, ok := r.entries[e.path]; !ok {
		r.order = append(r.order, e.path)
	}
	r.entries[e.path] = e
}

// Remove deletes the entry for arcpath. Removing a path that has no entry
// is an error.
func (r *WheelRecord) Remove(arcpath string) error {
	if _, ok := r.entries[arcpath]; !ok {
		return fmt.Errorf("no record entry for %q", arcpath)
	}
	delete(r.entries, arcpath)
	for i, p := range r.order {
		if p == arcpath {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Hash returns the encoded hash of the entry for arcpath.
func (r *WheelRecord) Hash(arcpath string) (string, error) {
	e, ok := r.entries[arcpath]
	if !ok {
		return "", fmt.Errorf("no record entry for %q", arcpath)
	}
	return e.hash, nil
}

// Size returns the recorded byte size of the entry for arcpath.
func (r *WheelRecord) Size(arcpath string) (int64, error) {
	e, ok := r.entries[arcpath]
	if !ok {
		return 0, fmt.Errorf("no record entry for %q", arcpath)
	}
	return e.size, nil
}

// Contains reports whether an entry exists for arcpath.
func (r *WheelRecord) Contains(arcpath string) bool {
	_, ok := r.entries[arcpath]
	return ok
}

// Len returns the number of entries.
func (r *WheelRecord) Len() int {
	return len(r.order)
}

// Paths returns entry paths in insertion order.
func (r *WheelRecord) Paths() []string {
	return append([]string(nil), r.order...)
}

// ToText serializes the record as CSV with CRLF line endings, columns
// path,hash,size, rows in insertion order.
func (r *WheelRecord) ToText() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.UseCRLF = true
	for _, path := range r.order {
		e := r.entries[path]
		// The writer only errors on unwritable output; strings.Builder never is.
		_ = w.Write([]string{e.path, e.hash, strconv.FormatInt(e.size, 10)})
	}
	w.Flush()
	return b.String()
}

// WheelRecordFromText parses serialized RECORD contents. Rows whose path
// ends in "/" return ErrRecordContainsDirectory. Some producers add a row
// for the RECORD file itself with empty hash and size columns; such rows
// are dropped, since the record never describes itself.
func WheelRecordFromText(s string) (*WheelRecord, error) {
	r := NewWheelRecord()
	reader := csv.NewReader(strings.NewReader(s))
	reader.FieldsPerRecord = 3
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed RECORD row: %w", err)
		}
		if strings.HasSuffix(row[0], "/") {
			return nil, fmt.Errorf("%w: RECORD contains %q", ErrRecordContainsDirectory, row[0])
		}
		if strings.HasSuffix(row[0], ".dist-info/RECORD") && row[1] == "" && row[2] == "" {
			continue
		}
		size, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed RECORD size for %q: %w", row[0], err)
		}
		r.set(recordEntry{path: row[0], hash: row[1], size: size})
	}
	return r, nil
}

// Equal reports whether two records serialize identically.
func (r *WheelRecord) Equal(other *WheelRecord) bool {
	return other != nil && r.ToText() == other.ToText()
}
