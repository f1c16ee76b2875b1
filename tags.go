package wheelfile

import (
	"fmt"
	"strings"
)

// ExpandTag expands a compatibility tag expression into its set of simple
// tags. A tag expression consists of up to three hyphen-separated components
// (language, ABI, platform), each of which may contain dot-separated
// alternatives. The result is the cartesian product of the alternatives,
// ordered language-major:
//
//	ExpandTag("py2.py3-none-any")
//	// ["py2-none-any", "py3-none-any"]
func ExpandTag(expr string) ([]string, error) {
	parts := strings.Split(expr, "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed tag %q: expected 3 components, got %d", expr, len(parts))
	}

	languages := strings.Split(parts[0], ".")
	abis := strings.Split(parts[1], ".")
	platforms := strings.Split(parts[2], ".")

	tags := make([]string, 0, len(languages)*len(abis)*len(platforms))
	for _, lang := range languages {
		for _, abi := range abis {
			for _, plat := range platforms {
				tags = append(tags, lang+"-"+abi+"-"+plat)
			}
		}
	}
	return tags, nil
}

// expandTags expands each tag expression in exprs and concatenates the
// results, preserving order.
func expandTags(exprs []string) ([]string, error) {
	var tags []string
	for _, expr := range exprs {
		expanded, err := ExpandTag(expr)
		if err != nil {
			return nil, err
		}
		tags = append(tags, expanded...)
	}
	return tags, nil
}

// FilenameStem holds the identity components parsed from a wheel filename
// stem (the basename without its ".whl" extension).
//
// A stem carries tag information only when it has exactly 5 or 6
// hyphen-separated segments. For any other segment count every field except
// Distname and Version is left empty and HasTags is false.
type FilenameStem struct {
	Distname string
	Version  string
	Build    string // empty when the stem has no build segment
	Language string
	ABI      string
	Platform string
	HasTags  bool
}

// ParseFilenameStem splits a filename stem on "-" per the wheel naming
// grammar: distname-version[-build]-language-abi-platform.
//
// Segment counts other than 5 or 6 yield no tag information; the distname
// and version are still taken from the first two segments so that callers
// can report naming failures precisely.
func ParseFilenameStem(stem string) FilenameStem {
	segments := strings.Split(stem, "-")

	parsed := FilenameStem{}
	if len(segments) > 0 {
		parsed.Distname = segments[0]
	}
	if len(segments) > 1 {
		parsed.Version = segments[1]
	}

	if len(segments) != 5 && len(segments) != 6 {
		return parsed
	}

	parsed.HasTags = true
	if len(segments) == 6 {
		parsed.Build = segments[2]
	}
	parsed.Language = segments[len(segments)-3]
	parsed.ABI = segments[len(segments)-2]
	parsed.Platform = segments[len(segments)-1]
	return parsed
}
