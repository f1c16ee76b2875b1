package wheelfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FromWheelFile opens a new session at path and fills it with the
// contents of src. The new wheel's identity is copied from src, component
// by component, unless overridden; its metadata models are deep copies
// with the name and version rewritten. Entries under the source's
// .dist-info and .data directories move to the new wheel's directories.
//
// The returned session is left open so that further entries can be added
// before Close.
func FromWheelFile(src *WheelFile, path string, opts ...CloneOption) (*WheelFile, error) {
	cfg := newCloneConfig(opts)
	if err := checkCloneMode(cfg.mode); err != nil {
		return nil, err
	}
	sessionOpts := cloneSessionOptions(src, cfg)

	if err := checkCloneTarget(src, path, sessionOpts); err != nil {
		return nil, err
	}
	dest, err := Open(path, cfg.mode, sessionOpts...)
	if err != nil {
		return nil, err
	}
	if err := fillClone(dest, src, cfg); err != nil {
		_ = dest.Close()
		return nil, err
	}
	return dest, nil
}

// FromWheelFileToBuffer clones src into a session over buf. Cloning into
// the buffer backing src is rejected.
func FromWheelFileToBuffer(src *WheelFile, buf *Buffer, opts ...CloneOption) (*WheelFile, error) {
	cfg := newCloneConfig(opts)
	if err := checkCloneMode(cfg.mode); err != nil {
		return nil, err
	}
	if src.buffer != nil && src.buffer == buf {
		return nil, errors.New("wheelfile: cannot clone a wheel into its own buffer")
	}
	dest, err := OpenBuffer(buf, cfg.mode, cloneSessionOptions(src, cfg)...)
	if err != nil {
		return nil, err
	}
	if err := fillClone(dest, src, cfg); err != nil {
		_ = dest.Close()
		return nil, err
	}
	return dest, nil
}

func checkCloneMode(mode Mode) error {
	if strings.Contains(string(mode), "r") {
		return fmt.Errorf("wheelfile: cannot clone into a session opened in mode %q", mode)
	}
	return mode.validate()
}

// cloneSessionOptions turns the clone overrides into explicit session
// options: an override wins, an explicit default restores the component's
// default, and otherwise the source's value carries over.
func cloneSessionOptions(src *WheelFile, cfg *cloneConfig) []Option {
	opts := append([]Option(nil), cfg.sessionOpts...)

	distname := src.Distname()
	if cfg.distname.state == overrideValue {
		distname = cfg.distname.value
	}
	opts = append(opts, WithDistname(distname))

	version := src.Version().Original()
	if cfg.version.state == overrideValue {
		version = cfg.version.value
	}
	opts = append(opts, WithVersion(version))

	switch cfg.build.state {
	case overrideValue:
		opts = append(opts, WithBuildTag(cfg.build.value))
	case overrideUnset:
		if b := src.BuildTag(); b != nil {
			opts = append(opts, WithBuildTag(*b))
		}
	}

	opts = append(opts,
		WithLanguageTag(cloneTag(cfg.language, src.LanguageTag(), defaultLanguageTag)),
		WithABITag(cloneTag(cfg.abi, src.ABITag(), defaultABITag)),
		WithPlatformTag(cloneTag(cfg.platform, src.PlatformTag(), defaultPlatformTag)),
	)
	return opts
}

func cloneTag(ov stringOverride, source, fallback string) string {
	switch ov.state {
	case overrideValue:
		return ov.value
	case overrideDefault:
		return fallback
	}
	if source == "" {
		return fallback
	}
	return source
}

// checkCloneTarget rejects cloning a file-backed wheel onto itself: same
// directory and same resulting filename.
func checkCloneTarget(src *WheelFile, path string, sessionOpts []Option) error {
	if src.targetDir == "" {
		return nil
	}
	scfg := newSessionConfig(sessionOpts)

	isDir := strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
	if !isDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
		}
	}
	var targetDir, filename string
	if isDir {
		id, err := resolveIdentity("", false, scfg)
		if err != nil {
			return err
		}
		targetDir, filename = path, synthesizeFilename(&id)
	} else {
		targetDir, filename = filepath.Dir(path), filepath.Base(path)
	}
	if filename != src.filename {
		return nil
	}

	srcDir, err := filepath.Abs(src.targetDir)
	if err != nil {
		return err
	}
	destDir, err := filepath.Abs(targetDir)
	if err != nil {
		return err
	}
	if srcDir == destDir {
		return fmt.Errorf("wheelfile: cannot clone %q onto itself", filepath.Join(srcDir, filename))
	}
	return nil
}

func fillClone(dest, src *WheelFile, cfg *cloneConfig) error {
	if src.Metadata != nil {
		metadata := src.Metadata.Clone()
		metadata.Name = dest.Distname()
		metadata.Version = dest.Version()
		dest.Metadata = metadata
	}
	if src.WheelData != nil && dest.WheelData != nil {
		dest.WheelData.RootIsPurelib = src.WheelData.RootIsPurelib
		if cfg.build.state == overrideUnset {
			dest.WheelData.Build = cloneBuild(src.WheelData.Build)
		}
		if cfg.language.state == overrideUnset &&
			cfg.abi.state == overrideUnset &&
			cfg.platform.state == overrideUnset {
			dest.WheelData.Tags = append([]string(nil), src.WheelData.Tags...)
		}
	}
	return copyEntries(dest, src)
}

func cloneBuild(b *int) *int {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// copyEntries moves every non-managed entry from src to dest. Entries
// inside the source's .dist-info and .data directories are rewritten
// under the destination's directory names; everything else is copied
// verbatim, preserving compressed bytes when both storages support it.
func copyEntries(dest, src *WheelFile) error {
	srcDistInfo := src.DistInfoDirname()
	srcData := src.DataDirname()
	rawReader, canReadRaw := src.storage.(RawReader)
	rawWriter, canWriteRaw := dest.storage.(RawWriter)

	for _, e := range src.Entries() {
		head, tail, nested := strings.Cut(e.Path, "/")

		var newArc string
		switch {
		case nested && head == srcDistInfo:
			newArc = dest.DistInfoDirname() + "/" + tail
		case nested && head == srcData:
			newArc = dest.DataDirname() + "/" + tail
		}
		if newArc != "" {
			data, err := src.storage.ReadEntry(e.Path)
			if err != nil {
				return err
			}
			if err := dest.writeBytes(newArc, data); err != nil {
				return err
			}
			continue
		}

		if canReadRaw && canWriteRaw {
			raw, err := rawReader.OpenRawEntry(e.Path)
			if err != nil {
				return err
			}
			err = rawWriter.WriteRawEntry(raw, e.Path)
			raw.Raw.Close()
			if err != nil {
				return err
			}
			if err := dest.refreshRecord(e.Path); err != nil {
				return err
			}
			continue
		}

		data, err := src.storage.ReadEntry(e.Path)
		if err != nil {
			return err
		}
		opts := []EntryOption{EntryWithModTime(e.Modified)}
		if !e.Deflated {
			opts = append(opts, EntryStored())
		}
		if err := dest.writeBytes(e.Path, data, opts...); err != nil {
			return err
		}
	}
	return nil
}
