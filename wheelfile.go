package wheelfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/MrMino/wheelfile/internal/zipstore"
)

// Names of the archive members managed by the session itself. User writes
// targeting them are rejected.
const (
	metadataFilename  = "METADATA"
	wheelDataFilename = "WHEEL"
	recordFilename    = "RECORD"
)

const distInfoSuffix = ".dist-info"

// WheelFile is an open wheel archive session.
//
// The three metadata models are exported and freely mutable until Close.
// Setting one to nil skips writing the corresponding archive member. The
// identity of the session (distname, version, tags) is fixed when the
// session opens.
type WheelFile struct {
	// Metadata backs the METADATA archive member.
	Metadata *MetaData
	// WheelData backs the WHEEL archive member.
	WheelData *WheelData
	// Record backs the RECORD archive member. It is kept current as
	// entries are written.
	Record *WheelRecord

	mode    Mode
	storage Storage
	logger  *slog.Logger

	id       identity
	filename string

	// targetDir is the directory holding the archive for filesystem
	// targets; empty for buffer targets.
	targetDir string
	buffer    *Buffer

	// distinfoPrefix is the shared "name-version." prefix of the
	// .dist-info and .data directories. For read sessions it comes from
	// the archive itself.
	distinfoPrefix string

	closed bool
}

func (wf *WheelFile) log() *slog.Logger {
	if wf.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return wf.logger
}

// Open opens a wheel archive at path. The path may name a file or a
// directory; for directories a filename is generated from the identity,
// which then requires an explicit distname and version.
func Open(path string, mode Mode, opts ...Option) (*WheelFile, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}
	cfg := newSessionConfig(opts)

	isDir := strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
	if !isDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
		}
	}

	var (
		id       identity
		err      error
		filename string
		fullPath = path
	)
	if isDir {
		id, err = resolveIdentity("", false, cfg)
		if err != nil {
			return nil, err
		}
		filename = synthesizeFilename(&id)
		fullPath = filepath.Join(path, filename)
	} else {
		filename = filepath.Base(path)
		id, err = resolveIdentity(filename, true, cfg)
		if err != nil {
			return nil, err
		}
	}

	var storage Storage
	if mode.writes() {
		storage, err = zipstore.CreateFile(fullPath, mode == ModeExclusiveWrite, writerOptions(cfg)...)
	} else {
		storage, err = zipstore.OpenFile(fullPath)
	}
	if err != nil {
		return nil, err
	}

	wf := &WheelFile{
		mode:      mode,
		storage:   storage,
		logger:    cfg.logger,
		id:        id,
		filename:  filename,
		targetDir: filepath.Dir(fullPath),
	}
	return finishOpen(wf, cfg)
}

// OpenBuffer opens a wheel archive session over an in-memory buffer. The
// target is unnamed, so an explicit distname and version are required.
func OpenBuffer(buf *Buffer, mode Mode, opts ...Option) (*WheelFile, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}
	cfg := newSessionConfig(opts)

	id, err := resolveIdentity("", false, cfg)
	if err != nil {
		return nil, err
	}

	var storage Storage
	if mode.writes() {
		storage = zipstore.NewWriter(buf, writerOptions(cfg)...)
	} else {
		storage, err = zipstore.NewReader(buf, buf.Size())
		if err != nil {
			return nil, err
		}
	}

	wf := &WheelFile{
		mode:     mode,
		storage:  storage,
		logger:   cfg.logger,
		id:       id,
		filename: synthesizeFilename(&id),
		buffer:   buf,
	}
	return finishOpen(wf, cfg)
}

func writerOptions(cfg *sessionConfig) []zipstore.WriterOption {
	var opts []zipstore.WriterOption
	if cfg.levelSet {
		opts = append(opts, zipstore.WithCompressionLevel(cfg.level))
	}
	if cfg.storedOnly {
		opts = append(opts, zipstore.WithStoredOnly())
	}
	return opts
}

func finishOpen(wf *WheelFile, cfg *sessionConfig) (*WheelFile, error) {
	var err error
	if wf.mode.writes() {
		err = wf.initDistInfo(cfg)
	} else {
		err = wf.readDistInfo()
	}
	if err == nil && !cfg.skipValidation {
		err = wf.Validate()
	}
	if err != nil {
		_ = wf.storage.Close()
		return nil, err
	}

	// Safety net for sessions that are dropped without Close. It lands
	// the archive as-is; metadata changes made after the last write are
	// lost, so explicit Close is still the way to finish a wheel.
	runtime.AddCleanup(wf, func(s Storage) { _ = s.Close() }, wf.storage)

	wf.log().Debug("wheel session opened",
		"filename", wf.filename,
		"mode", string(wf.mode),
		"distinfo", wf.DistInfoDirname(),
	)
	return wf, nil
}

func (wf *WheelFile) initDistInfo(cfg *sessionConfig) error {
	record, err := NewWheelRecordWithHash(cfg.hashAlgo)
	if err != nil {
		return err
	}
	wheelData := NewWheelData()
	wheelData.Build = wf.id.build
	if err := wheelData.SetTags(wf.id.tagTriple()); err != nil {
		return fmt.Errorf("%w: %s", ErrBadWheelFile, err)
	}

	wf.Record = record
	wf.WheelData = wheelData
	wf.Metadata = &MetaData{Name: wf.id.distname, Version: wf.id.version}
	wf.distinfoPrefix = distInfoPrefix(&wf.id)
	return nil
}

func (wf *WheelFile) readDistInfo() error {
	prefix, err := findDistInfoPrefix(wf.storage.List())
	if err != nil {
		return err
	}
	wf.distinfoPrefix = prefix

	wf.Metadata = readModel(wf, metadataFilename, MetaDataFromText)
	wf.WheelData = readModel(wf, wheelDataFilename, WheelDataFromText)
	wf.Record = readModel(wf, recordFilename, WheelRecordFromText)
	return nil
}

// readModel loads and parses one dist-info member. Failures degrade to a
// nil model so that damaged wheels can still be inspected with validation
// disabled.
func readModel[T any](wf *WheelFile, name string, parse func(string) (*T, error)) *T {
	data, err := wf.storage.ReadEntry(wf.distInfoPath(name))
	if err != nil {
		wf.log().Debug("dist-info member missing", "member", name, "error", err)
		return nil
	}
	model, err := parse(string(data))
	if err != nil {
		wf.log().Debug("dist-info member unparseable", "member", name, "error", err)
		return nil
	}
	return model
}

func findDistInfoPrefix(entries []EntryInfo) (string, error) {
	seen := map[string]bool{}
	var dirs []string
	for _, e := range entries {
		head, _, _ := strings.Cut(e.Path, "/")
		if strings.HasSuffix(head, distInfoSuffix) && !seen[head] {
			seen[head] = true
			dirs = append(dirs, head)
		}
	}
	switch len(dirs) {
	case 0:
		return "", fmt.Errorf("%w: no .dist-info directory found in the archive", ErrBadWheelFile)
	case 1:
		return strings.TrimSuffix(dirs[0], "dist-info"), nil
	default:
		sort.Strings(dirs)
		return "", fmt.Errorf("%w: multiple .dist-info directories found in the archive: %s",
			ErrBadWheelFile, strings.Join(dirs, ", "))
	}
}

// Distname returns the resolved distribution name.
func (wf *WheelFile) Distname() string { return wf.id.distname }

// Version returns the resolved version.
func (wf *WheelFile) Version() *goversion.Version { return wf.id.version }

// BuildTag returns the resolved build tag, or nil when absent.
func (wf *WheelFile) BuildTag() *int { return wf.id.build }

// LanguageTag returns the resolved language implementation tag.
func (wf *WheelFile) LanguageTag() string { return wf.id.language }

// ABITag returns the resolved ABI tag.
func (wf *WheelFile) ABITag() string { return wf.id.abi }

// PlatformTag returns the resolved platform tag.
func (wf *WheelFile) PlatformTag() string { return wf.id.platform }

// Filename returns the archive filename, generated when the target was a
// directory or buffer.
func (wf *WheelFile) Filename() string { return wf.filename }

// Mode returns the mode the session was opened with.
func (wf *WheelFile) Mode() Mode { return wf.mode }

// Closed reports whether Close has been called.
func (wf *WheelFile) Closed() bool { return wf.closed }

// DistInfoDirname returns the name of the .dist-info directory inside the
// archive.
func (wf *WheelFile) DistInfoDirname() string {
	return wf.distinfoPrefix + "dist-info"
}

// DataDirname returns the name of the .data directory inside the archive.
func (wf *WheelFile) DataDirname() string {
	return wf.distinfoPrefix + "data"
}

func (wf *WheelFile) distInfoPath(name string) string {
	return wf.DistInfoDirname() + "/" + name
}

func (wf *WheelFile) reservedPaths() map[string]bool {
	return map[string]bool{
		wf.distInfoPath(metadataFilename):  true,
		wf.distInfoPath(wheelDataFilename): true,
		wf.distInfoPath(recordFilename):    true,
	}
}

// Names lists the archive member paths, omitting the metadata members
// managed by the session.
func (wf *WheelFile) Names() []string {
	reserved := wf.reservedPaths()
	var names []string
	for _, e := range wf.storage.List() {
		if !reserved[e.Path] {
			names = append(names, e.Path)
		}
	}
	return names
}

// Entries lists the archive members with their metadata, omitting the
// metadata members managed by the session.
func (wf *WheelFile) Entries() []EntryInfo {
	reserved := wf.reservedPaths()
	var entries []EntryInfo
	for _, e := range wf.storage.List() {
		if !reserved[e.Path] {
			entries = append(entries, e)
		}
	}
	return entries
}

// Open returns a reader over the archive member at arcname.
func (wf *WheelFile) Open(arcname string) (io.ReadCloser, error) {
	if wf.closed {
		return nil, errors.New("wheelfile: session is closed")
	}
	return wf.storage.OpenEntry(arcname)
}

// Validate checks the archive against the wheel format requirements.
func (wf *WheelFile) Validate() error {
	if !strings.HasSuffix(wf.filename, WheelExtension) {
		return fmt.Errorf("%w: filename must end with %q: %q", ErrBadWheelFile, WheelExtension, wf.filename)
	}
	if err := validateDistname(wf.id.distname); err != nil {
		return fmt.Errorf("%w: %s", ErrBadWheelFile, err)
	}
	if wf.Metadata == nil {
		return fmt.Errorf("%w: METADATA file is missing or unparseable", ErrBadWheelFile)
	}
	if wf.WheelData == nil {
		return fmt.Errorf("%w: WHEEL file is missing or unparseable", ErrBadWheelFile)
	}
	if wf.Record == nil {
		return fmt.Errorf("%w: RECORD file is missing or unparseable", ErrBadWheelFile)
	}
	if !buildTagsEqual(wf.WheelData.Build, wf.id.build) {
		return fmt.Errorf(
			"%w: build tag in WHEEL (%s) does not match the archive build tag (%s)",
			ErrBadWheelFile, formatBuildTag(wf.WheelData.Build), formatBuildTag(wf.id.build))
	}
	return nil
}

func buildTagsEqual(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func formatBuildTag(b *int) string {
	if b == nil {
		return "unset"
	}
	return fmt.Sprintf("%d", *b)
}

// VerifyContents recomputes the hash and size of every recorded member,
// compares them against the record, and checks that every non-directory
// archive member outside the managed metadata has a record row.
func (wf *WheelFile) VerifyContents() error {
	if wf.closed {
		return errors.New("wheelfile: session is closed")
	}
	if wf.Record == nil {
		return fmt.Errorf("%w: RECORD file is missing or unparseable", ErrBadWheelFile)
	}
	check, err := NewWheelRecordWithHash(wf.Record.HashAlgo())
	if err != nil {
		return err
	}
	for _, path := range wf.Record.Paths() {
		rc, err := wf.storage.OpenEntry(path)
		if err != nil {
			return fmt.Errorf("%w: recorded member %q cannot be read: %s", ErrBadWheelFile, path, err)
		}
		err = check.Update(path, rc)
		rc.Close()
		if err != nil {
			return err
		}
		wantHash, _ := wf.Record.Hash(path)
		gotHash, _ := check.Hash(path)
		if wantHash != gotHash {
			return fmt.Errorf("%w: hash mismatch for %q: recorded %s, computed %s",
				ErrBadWheelFile, path, wantHash, gotHash)
		}
		wantSize, _ := wf.Record.Size(path)
		gotSize, _ := check.Size(path)
		if wantSize != gotSize {
			return fmt.Errorf("%w: size mismatch for %q: recorded %d, computed %d",
				ErrBadWheelFile, path, wantSize, gotSize)
		}
	}
	for _, e := range wf.Entries() {
		if strings.HasSuffix(e.Path, "/") {
			continue
		}
		if !wf.Record.Contains(e.Path) {
			return fmt.Errorf("%w: %q has no record entry", ErrBadWheelFile, e.Path)
		}
	}
	return nil
}

// refreshRecord re-reads the entry at arcname from storage and updates
// its record row. Directory entries and sessions without a record are
// skipped.
func (wf *WheelFile) refreshRecord(arcname string) error {
	if wf.Record == nil {
		return nil
	}
	if strings.HasSuffix(arcname, "/") {
		return nil
	}
	if wf.closed {
		return errors.New("wheelfile: cannot refresh the record of a closed session")
	}
	rc, err := wf.storage.OpenEntry(arcname)
	if err != nil {
		return err
	}
	defer rc.Close()
	return wf.Record.Update(arcname, rc)
}

// Close writes the metadata members and finalizes the archive. In write
// modes METADATA and WHEEL are written if their models are set, then
// RECORD is written last so that it covers them. A session whose Record
// was cleared still lands an empty RECORD so the archive always carries
// one. Close is idempotent.
func (wf *WheelFile) Close() error {
	if wf.closed {
		return nil
	}
	var errs []error
	if wf.mode.writes() {
		if wf.Metadata != nil {
			errs = append(errs, wf.writeBytes(wf.distInfoPath(metadataFilename), []byte(wf.Metadata.ToText())))
		}
		if wf.WheelData != nil {
			errs = append(errs, wf.writeBytes(wf.distInfoPath(wheelDataFilename), []byte(wf.WheelData.ToText())))
		}
		record := wf.Record
		if record == nil {
			record = NewWheelRecord()
		}
		errs = append(errs, wf.storage.WriteEntry(wf.distInfoPath(recordFilename), []byte(record.ToText())))
	}
	errs = append(errs, wf.storage.Close())
	wf.closed = true
	wf.log().Debug("wheel session closed", "filename", wf.filename)
	return errors.Join(errs...)
}

// Resolved returns the archive name a filesystem path maps to by default:
// the final component of the cleaned path.
func Resolved(path string) string {
	return filepath.Base(filepath.Clean(path))
}
