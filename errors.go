package wheelfile

import (
	"errors"
	"fmt"
)

// Sentinel errors for the wheel error taxonomy.
//
// ErrUnnamedDistribution wraps ErrBadWheelFile, so errors.Is reports both
// for failures where the distribution name or version cannot be determined.
var (
	// ErrBadWheelFile is returned for archive-level structural problems,
	// e.g. zero or multiple .dist-info directories.
	ErrBadWheelFile = errors.New("wheelfile: bad wheel file")

	// ErrUnnamedDistribution is returned when the distribution name or
	// version cannot be deduced from any source.
	ErrUnnamedDistribution = fmt.Errorf("%w: unnamed distribution", ErrBadWheelFile)

	// ErrUnsupportedHashType is returned when the requested record hash
	// algorithm is unavailable or forbidden by the wheel specification.
	ErrUnsupportedHashType = errors.New("wheelfile: unsupported hash type")

	// ErrRecordContainsDirectory is returned when a RECORD entry path ends
	// with a slash. Directories never belong in the record.
	ErrRecordContainsDirectory = errors.New("wheelfile: record entry for a directory")

	// ErrProhibitedWrite is returned when a write would duplicate or corrupt
	// one of the reserved metadata files (METADATA, WHEEL, RECORD).
	ErrProhibitedWrite = errors.New("wheelfile: prohibited write")
)
