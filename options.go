package wheelfile

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// Mode selects how a wheel session opens its target.
type Mode string

const (
	// ModeRead opens an existing archive for reading.
	ModeRead Mode = "r"
	// ModeWrite creates a fresh archive, truncating any existing file.
	ModeWrite Mode = "w"
	// ModeExclusiveWrite creates a fresh archive and fails if the target
	// file already exists.
	ModeExclusiveWrite Mode = "x"
)

func (m Mode) validate() error {
	switch m {
	case ModeRead, ModeWrite, ModeExclusiveWrite:
		return nil
	}
	if strings.ContainsAny(string(m), "al") {
		return fmt.Errorf("mode %q is not supported yet", m)
	}
	return fmt.Errorf("unknown mode: %q", m)
}

func (m Mode) writes() bool {
	return m == ModeWrite || m == ModeExclusiveWrite
}

type sessionConfig struct {
	distname    string
	version     string
	buildTag    *int
	languageTag string
	abiTag      string
	platformTag string

	hashAlgo       string
	level          int
	levelSet       bool
	storedOnly     bool
	skipValidation bool
	logger         *slog.Logger
}

func newSessionConfig(opts []Option) *sessionConfig {
	cfg := &sessionConfig{
		hashAlgo: "sha256",
		level:    flate.DefaultCompression,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a wheel session.
type Option func(*sessionConfig)

// WithDistname overrides the distribution name inferred from the target.
func WithDistname(distname string) Option {
	return func(cfg *sessionConfig) { cfg.distname = distname }
}

// WithVersion overrides the version inferred from the target.
func WithVersion(version string) Option {
	return func(cfg *sessionConfig) { cfg.version = version }
}

// WithBuildTag overrides the build tag inferred from the target.
func WithBuildTag(build int) Option {
	return func(cfg *sessionConfig) { cfg.buildTag = &build }
}

// WithLanguageTag overrides the language implementation tag.
func WithLanguageTag(tag string) Option {
	return func(cfg *sessionConfig) { cfg.languageTag = tag }
}

// WithABITag overrides the ABI tag.
func WithABITag(tag string) Option {
	return func(cfg *sessionConfig) { cfg.abiTag = tag }
}

// WithPlatformTag overrides the platform tag.
func WithPlatformTag(tag string) Option {
	return func(cfg *sessionConfig) { cfg.platformTag = tag }
}

// WithHashAlgorithm selects the digest algorithm used for new record
// entries. The default is sha256.
func WithHashAlgorithm(algo string) Option {
	return func(cfg *sessionConfig) { cfg.hashAlgo = algo }
}

// WithCompressionLevel sets the deflate level used when writing entries.
func WithCompressionLevel(level int) Option {
	return func(cfg *sessionConfig) {
		cfg.level = level
		cfg.levelSet = true
	}
}

// WithStoredOnly disables compression entirely; entries are stored verbatim.
func WithStoredOnly() Option {
	return func(cfg *sessionConfig) { cfg.storedOnly = true }
}

// WithoutValidation skips the archive validation normally performed when a
// session opens.
func WithoutValidation() Option {
	return func(cfg *sessionConfig) { cfg.skipValidation = true }
}

// WithLogger sets the logger used by the session. Without it, logging is
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sessionConfig) { cfg.logger = logger }
}

type writeConfig struct {
	arcname    string
	recurse    bool
	skipDirs   bool
	stored     bool
	modTime    time.Time
	modTimeSet bool
}

func newWriteConfig(opts []WriteOption) *writeConfig {
	cfg := &writeConfig{recurse: true, skipDirs: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WriteOption configures a single write operation.
type WriteOption func(*writeConfig)

// WriteWithArcname overrides the archive path derived from the source path.
func WriteWithArcname(arcname string) WriteOption {
	return func(cfg *writeConfig) { cfg.arcname = arcname }
}

// WriteNoRecurse writes only the named directory entry instead of
// descending into it.
func WriteNoRecurse() WriteOption {
	return func(cfg *writeConfig) { cfg.recurse = false }
}

// WriteDirEntries emits explicit directory entries during recursive
// writes. Directory entries never appear in the record.
func WriteDirEntries() WriteOption {
	return func(cfg *writeConfig) { cfg.skipDirs = false }
}

// WriteStored stores the written entries without compression.
func WriteStored() WriteOption {
	return func(cfg *writeConfig) { cfg.stored = true }
}

// WriteWithModTime fixes the modification time recorded for the written
// entries instead of using the source file's.
func WriteWithModTime(t time.Time) WriteOption {
	return func(cfg *writeConfig) {
		cfg.modTime = t
		cfg.modTimeSet = true
	}
}

// overrideState distinguishes "leave as in the source wheel" from an
// explicit value and from an explicit request for the default.
type overrideState int

const (
	overrideUnset overrideState = iota
	overrideDefault
	overrideValue
)

type stringOverride struct {
	state overrideState
	value string
}

type buildOverride struct {
	state overrideState
	value int
}

type cloneConfig struct {
	mode        Mode
	distname    stringOverride
	version     stringOverride
	build       buildOverride
	language    stringOverride
	abi         stringOverride
	platform    stringOverride
	sessionOpts []Option
}

func newCloneConfig(opts []CloneOption) *cloneConfig {
	cfg := &cloneConfig{mode: ModeWrite}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CloneOption configures a clone operation.
type CloneOption func(*cloneConfig)

// CloneWithMode sets the mode of the new session. Read mode is rejected.
func CloneWithMode(mode Mode) CloneOption {
	return func(cfg *cloneConfig) { cfg.mode = mode }
}

// CloneWithDistname renames the cloned distribution.
func CloneWithDistname(distname string) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.distname = stringOverride{overrideValue, distname}
	}
}

// CloneWithVersion changes the version of the cloned distribution.
func CloneWithVersion(version string) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.version = stringOverride{overrideValue, version}
	}
}

// CloneWithBuildTag sets the build tag of the clone instead of copying the
// source's.
func CloneWithBuildTag(build int) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.build = buildOverride{overrideValue, build}
	}
}

// CloneWithoutBuildTag drops the build tag from the clone even if the
// source carries one.
func CloneWithoutBuildTag() CloneOption {
	return func(cfg *cloneConfig) {
		cfg.build = buildOverride{state: overrideDefault}
	}
}

// CloneWithLanguageTag sets the language tag of the clone instead of
// copying the source's.
func CloneWithLanguageTag(tag string) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.language = stringOverride{overrideValue, tag}
	}
}

// CloneWithDefaultLanguageTag resets the clone's language tag to py3.
func CloneWithDefaultLanguageTag() CloneOption {
	return func(cfg *cloneConfig) {
		cfg.language = stringOverride{state: overrideDefault}
	}
}

// CloneWithABITag sets the ABI tag of the clone instead of copying the
// source's.
func CloneWithABITag(tag string) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.abi = stringOverride{overrideValue, tag}
	}
}

// CloneWithDefaultABITag resets the clone's ABI tag to none.
func CloneWithDefaultABITag() CloneOption {
	return func(cfg *cloneConfig) {
		cfg.abi = stringOverride{state: overrideDefault}
	}
}

// CloneWithPlatformTag sets the platform tag of the clone instead of
// copying the source's.
func CloneWithPlatformTag(tag string) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.platform = stringOverride{overrideValue, tag}
	}
}

// CloneWithDefaultPlatformTag resets the clone's platform tag to any.
func CloneWithDefaultPlatformTag() CloneOption {
	return func(cfg *cloneConfig) {
		cfg.platform = stringOverride{state: overrideDefault}
	}
}

// CloneWithSessionOptions passes session options, such as compression or
// hash settings, through to the new session.
func CloneWithSessionOptions(opts ...Option) CloneOption {
	return func(cfg *cloneConfig) {
		cfg.sessionOpts = append(cfg.sessionOpts, opts...)
	}
}
