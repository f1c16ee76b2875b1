package wheelfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Tag defaults applied when the target is unnamed or a directory. Named
// targets with unparseable filenames intentionally get empty tags instead,
// so that a later rename does not silently paper over a bad name.
const (
	defaultLanguageTag = "py3"
	defaultABITag      = "none"
	defaultPlatformTag = "any"
)

// WheelExtension is the required filename extension for wheel archives.
const WheelExtension = ".whl"

// identity is the resolved identity tuple of a wheel session.
type identity struct {
	distname string
	version  *goversion.Version
	build    *int
	language string
	abi      string
	platform string
}

// tagTriple returns the compressed language-abi-platform tag expression
// for this identity.
func (id *identity) tagTriple() string {
	return id.language + "-" + id.abi + "-" + id.platform
}

// resolveIdentity derives the identity tuple from explicit overrides and,
// for named targets, the filename. Explicit values take precedence
// component by component.
//
// Unnamed and directory targets require an explicit distname and version;
// their tags fall back to py3/none/any. Named targets take whatever the
// filename yields, defaulting unparseable tags to the empty string.
func resolveIdentity(filename string, named bool, cfg *sessionConfig) (identity, error) {
	if !named {
		return resolveUnnamed(cfg)
	}
	return resolveNamed(filename, cfg)
}

func resolveUnnamed(cfg *sessionConfig) (identity, error) {
	if cfg.distname == "" {
		return identity{}, fmt.Errorf("%w: no distname provided and an unnamed target given", ErrUnnamedDistribution)
	}
	if cfg.version == "" {
		return identity{}, fmt.Errorf("%w: no version provided and an unnamed target given", ErrUnnamedDistribution)
	}
	version, err := goversion.NewVersion(cfg.version)
	if err != nil {
		return identity{}, fmt.Errorf("invalid version %q: %w", cfg.version, err)
	}

	id := identity{
		distname: cfg.distname,
		version:  version,
		build:    cfg.buildTag,
		language: cfg.languageTag,
		abi:      cfg.abiTag,
		platform: cfg.platformTag,
	}
	if id.language == "" {
		id.language = defaultLanguageTag
	}
	if id.abi == "" {
		id.abi = defaultABITag
	}
	if id.platform == "" {
		id.platform = defaultPlatformTag
	}
	return id, nil
}

func resolveNamed(filename string, cfg *sessionConfig) (identity, error) {
	stem := strings.TrimSuffix(filename, WheelExtension)
	parsed := ParseFilenameStem(stem)

	id := identity{}

	id.distname = cfg.distname
	if id.distname == "" {
		id.distname = parsed.Distname
	}
	if id.distname == "" {
		return identity{}, fmt.Errorf(
			"%w: no distname provided and the filename does not contain a distname segment: %q",
			ErrUnnamedDistribution, filename)
	}

	versionStr := cfg.version
	if versionStr == "" {
		versionStr = parsed.Version
	}
	if versionStr == "" {
		return identity{}, fmt.Errorf(
			"%w: no version provided and the filename does not contain a version segment: %q",
			ErrUnnamedDistribution, filename)
	}
	version, err := goversion.NewVersion(versionStr)
	if err != nil {
		return identity{}, fmt.Errorf("invalid version %q: %w", versionStr, err)
	}
	id.version = version

	id.build = cfg.buildTag
	if id.build == nil && parsed.Build != "" {
		if build, err := strconv.Atoi(parsed.Build); err == nil {
			id.build = &build
		}
		// An unparseable build segment resolves to an absent build tag.
	}

	id.language = cfg.languageTag
	if id.language == "" {
		id.language = parsed.Language
	}
	id.abi = cfg.abiTag
	if id.abi == "" {
		id.abi = parsed.ABI
	}
	id.platform = cfg.platformTag
	if id.platform == "" {
		id.platform = parsed.Platform
	}
	return id, nil
}

// synthesizeFilename builds a wheel filename from the identity tuple:
// distname-version[-build]-language-abi-platform.whl.
func synthesizeFilename(id *identity) string {
	segments := []string{id.distname, id.version.Original()}
	if id.build != nil {
		segments = append(segments, strconv.Itoa(*id.build))
	}
	segments = append(segments, id.language, id.abi, id.platform)
	return strings.Join(segments, "-") + WheelExtension
}

var distnameCollapse = regexp.MustCompile(`[-_.]+`)

// canonicalDistname normalizes a distribution name for use in the
// dist-info directory name: runs of "-", "_", and "." collapse to a single
// separator, the result is lowercased, and separators become underscores.
func canonicalDistname(name string) string {
	return strings.ReplaceAll(distnameCollapse.ReplaceAllString(strings.ToLower(name), "-"), "-", "_")
}

// distInfoPrefix returns the shared "name-version." prefix of the
// .dist-info and .data directory names.
func distInfoPrefix(id *identity) string {
	version := strings.ReplaceAll(id.version.Original(), "-", "_")
	return canonicalDistname(id.distname) + "-" + version + "."
}

// validDistnameChar reports whether c may appear in a distribution name.
func validDistnameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_':
		return true
	}
	return false
}

// validateDistname checks the allowed character set for distribution names.
func validateDistname(name string) error {
	if name == "" {
		return fmt.Errorf("distname cannot be an empty string")
	}
	for _, c := range name {
		if !validDistnameChar(c) {
			return fmt.Errorf(
				"invalid distname %q: distnames may contain only ASCII letters, digits, underscores, and periods",
				name)
		}
	}
	return nil
}
