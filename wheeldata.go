package wheelfile

import (
	"fmt"
	"strconv"

	"github.com/MrMino/wheelfile/internal/rfc822"
)

// WheelVersion is the wheel format version written into every WHEEL file.
// It is fixed and not user-settable.
const WheelVersion = "1.0"

// Version of this library. Used in the default WHEEL Generator value.
const Version = "0.1.0"

// defaultGenerator identifies this library as the wheel producer.
const defaultGenerator = "wheelfile " + Version

// WheelData models the .dist-info/WHEEL file.
//
// Tags holds expanded simple compatibility tags; compressed multi-value
// expressions are expanded on the way in (see SetTags). Build is an
// optional non-negative tie-breaker distinguishing rebuilds of the same
// version; nil means absent.
type WheelData struct {
	Generator     string
	RootIsPurelib bool
	Tags          []string
	Build         *int
}

// NewWheelData creates a WheelData with the format defaults: generator
// identifying this library, purelib root, and the "py3-none-any" tag.
func NewWheelData() *WheelData {
	return &WheelData{
		Generator:     defaultGenerator,
		RootIsPurelib: true,
		Tags:          []string{"py3-none-any"},
	}
}

// SetTags replaces Tags with the expansion of the given tag expressions.
func (w *WheelData) SetTags(exprs ...string) error {
	tags, err := expandTags(exprs)
	if err != nil {
		return err
	}
	w.Tags = tags
	return nil
}

// ToText serializes the WHEEL file contents.
//
// An empty generator or an empty tag list is a contract violation at the
// call site and panics.
func (w *WheelData) ToText() string {
	if w.Generator == "" {
		panic("wheelfile: WheelData.Generator must not be empty")
	}
	if len(w.Tags) == 0 {
		panic("wheelfile: WheelData.Tags must not be empty")
	}

	msg := &rfc822.Message{}
	msg.Add("Wheel-Version", WheelVersion)
	msg.Add("Generator", w.Generator)
	if w.RootIsPurelib {
		msg.Add("Root-Is-Purelib", "true")
	} else {
		msg.Add("Root-Is-Purelib", "false")
	}
	for _, tag := range w.Tags {
		msg.Add("Tag", tag)
	}
	if w.Build != nil {
		msg.Add("Build", strconv.Itoa(*w.Build))
	}
	return msg.String()
}

// WheelDataFromText parses serialized WHEEL file contents. The
// Wheel-Version header must equal the supported constant.
func WheelDataFromText(s string) (*WheelData, error) {
	msg, err := rfc822.Parse(s)
	if err != nil {
		return nil, err
	}

	ver, ok := msg.Get("Wheel-Version")
	if !ok {
		return nil, fmt.Errorf("missing Wheel-Version header")
	}
	if ver != WheelVersion {
		return nil, fmt.Errorf("unsupported Wheel-Version: %q (want %q)", ver, WheelVersion)
	}

	w := &WheelData{}
	w.Generator, _ = msg.Get("Generator")

	purelib, ok := msg.Get("Root-Is-Purelib")
	if ok {
		switch purelib {
		case "true":
			w.RootIsPurelib = true
		case "false":
			w.RootIsPurelib = false
		default:
			return nil, fmt.Errorf("malformed Root-Is-Purelib value: %q", purelib)
		}
	}

	if err := w.SetTags(msg.Values("Tag")...); err != nil {
		return nil, err
	}

	if buildStr, ok := msg.Get("Build"); ok {
		build, err := strconv.Atoi(buildStr)
		if err != nil {
			return nil, fmt.Errorf("malformed Build value: %q", buildStr)
		}
		w.Build = &build
	}
	return w, nil
}

// Equal reports structural equality.
func (w *WheelData) Equal(other *WheelData) bool {
	if other == nil {
		return false
	}
	if w.Generator != other.Generator || w.RootIsPurelib != other.RootIsPurelib {
		return false
	}
	if !stringSlicesEqual(w.Tags, other.Tags) {
		return false
	}
	if (w.Build == nil) != (other.Build == nil) {
		return false
	}
	return w.Build == nil || *w.Build == *other.Build
}

// Clone returns a deep copy.
func (w *WheelData) Clone() *WheelData {
	c := *w
	c.Tags = append([]string(nil), w.Tags...)
	if w.Build != nil {
		build := *w.Build
		c.Build = &build
	}
	return &c
}
