package wheelfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// checkProhibited rejects writes that would clobber the archive members
// managed by the session. The arcname is an archive-root path.
func (wf *WheelFile) checkProhibited(arcname string) error {
	if wf.reservedPaths()[strings.TrimSuffix(arcname, "/")] {
		return fmt.Errorf("%w: %q", ErrProhibitedWrite, arcname)
	}
	return nil
}

// checkProhibitedDistInfo rejects dist-info-relative arcnames that name,
// or start inside, a managed metadata member.
func checkProhibitedDistInfo(arcname string) error {
	name := strings.TrimSuffix(arcname, "/")
	head, _, _ := strings.Cut(name, "/")
	switch head {
	case metadataFilename, wheelDataFilename, recordFilename:
		return fmt.Errorf("%w: %q", ErrProhibitedWrite, arcname)
	}
	return nil
}

func checkSection(section string) error {
	if section == "" {
		return errors.New("wheelfile: the name of the .data section cannot be empty")
	}
	if strings.Contains(section, "/") {
		return fmt.Errorf("wheelfile: the name of the .data section cannot contain slashes: %q", section)
	}
	return nil
}

func (wf *WheelFile) checkWritable() error {
	if wf.closed {
		return errors.New("wheelfile: session is closed")
	}
	if !wf.mode.writes() {
		return fmt.Errorf("wheelfile: session is opened in mode %q, writing is not possible", wf.mode)
	}
	return nil
}

// writeBytes writes an entry and refreshes its record row.
func (wf *WheelFile) writeBytes(arcname string, data []byte, opts ...EntryOption) error {
	if err := wf.storage.WriteEntry(arcname, data, opts...); err != nil {
		return err
	}
	return wf.refreshRecord(arcname)
}

func (cfg *writeConfig) entryOptions(sourceMod func() ([]EntryOption, error)) ([]EntryOption, error) {
	var opts []EntryOption
	if cfg.modTimeSet {
		opts = append(opts, EntryWithModTime(cfg.modTime))
	} else if sourceMod != nil {
		sourceOpts, err := sourceMod()
		if err != nil {
			return nil, err
		}
		opts = append(opts, sourceOpts...)
	}
	if cfg.stored {
		opts = append(opts, EntryStored())
	}
	return opts, nil
}

// Write adds the file or directory at path to the archive. Directories
// are written recursively in lexical order; their contained files get
// record rows, directory entries do not.
func (wf *WheelFile) Write(path string, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	arcname := cfg.arcname
	if arcname == "" {
		arcname = Resolved(path)
	}
	if err := wf.checkProhibited(arcname); err != nil {
		return err
	}
	if err := wf.checkWritable(); err != nil {
		return err
	}
	return wf.writePath(path, arcname, cfg)
}

func (wf *WheelFile) writePath(path, arcname string, cfg *writeConfig) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return wf.writeFile(path, arcname, info, cfg)
	}

	if !cfg.skipDirs {
		opts, err := cfg.entryOptions(nil)
		if err != nil {
			return err
		}
		if err := wf.writeBytes(arcname+"/", nil, opts...); err != nil {
			return err
		}
	}
	if !cfg.recurse {
		return nil
	}
	return filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if sub == path {
			return nil
		}
		rel, err := filepath.Rel(path, sub)
		if err != nil {
			return err
		}
		subArc := arcname + "/" + filepath.ToSlash(rel)
		if d.IsDir() {
			if cfg.skipDirs {
				return nil
			}
			opts, err := cfg.entryOptions(nil)
			if err != nil {
				return err
			}
			return wf.writeBytes(subArc+"/", nil, opts...)
		}
		subInfo, err := d.Info()
		if err != nil {
			return err
		}
		return wf.writeFile(sub, subArc, subInfo, cfg)
	})
}

func (wf *WheelFile) writeFile(path, arcname string, info fs.FileInfo, cfg *writeConfig) error {
	opts, err := cfg.entryOptions(func() ([]EntryOption, error) {
		return []EntryOption{EntryWithModTime(info.ModTime())}, nil
	})
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return wf.writeBytes(arcname, data, opts...)
}

// WriteBytes adds an archive entry at arcname with the given contents.
func (wf *WheelFile) WriteBytes(arcname string, data []byte, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	if err := wf.checkProhibited(arcname); err != nil {
		return err
	}
	if err := wf.checkWritable(); err != nil {
		return err
	}
	entryOpts, err := cfg.entryOptions(nil)
	if err != nil {
		return err
	}
	return wf.writeBytes(arcname, data, entryOpts...)
}

// WriteData adds the file or directory at path under the named section of
// the .data directory.
func (wf *WheelFile) WriteData(path, section string, opts ...WriteOption) error {
	if err := checkSection(section); err != nil {
		return err
	}
	cfg := newWriteConfig(opts)
	arcname := cfg.arcname
	if arcname == "" {
		arcname = Resolved(path)
	}
	arcname = strings.TrimLeft(arcname, "/")
	if arcname == "" {
		return errors.New("wheelfile: arcname inside a .data section cannot be empty")
	}
	cfg.arcname = wf.DataDirname() + "/" + section + "/" + arcname
	if err := wf.checkWritable(); err != nil {
		return err
	}
	return wf.writePath(path, cfg.arcname, cfg)
}

// WriteBytesData adds an entry under the named section of the .data
// directory.
func (wf *WheelFile) WriteBytesData(arcname, section string, data []byte, opts ...WriteOption) error {
	if err := checkSection(section); err != nil {
		return err
	}
	arcname = strings.TrimLeft(arcname, "/")
	if arcname == "" {
		return errors.New("wheelfile: arcname inside a .data section cannot be empty")
	}
	cfg := newWriteConfig(opts)
	if err := wf.checkWritable(); err != nil {
		return err
	}
	entryOpts, err := cfg.entryOptions(nil)
	if err != nil {
		return err
	}
	return wf.writeBytes(wf.DataDirname()+"/"+section+"/"+arcname, data, entryOpts...)
}

// WriteDistInfo adds the file or directory at path to the .dist-info
// directory. The names of the managed metadata members are rejected.
func (wf *WheelFile) WriteDistInfo(path string, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	arcname := cfg.arcname
	if arcname == "" {
		arcname = Resolved(path)
	}
	arcname, err := wf.distInfoArcname(arcname)
	if err != nil {
		return err
	}
	if err := wf.checkWritable(); err != nil {
		return err
	}
	return wf.writePath(path, arcname, cfg)
}

// WriteBytesDistInfo adds an entry to the .dist-info directory.
func (wf *WheelFile) WriteBytesDistInfo(arcname string, data []byte, opts ...WriteOption) error {
	arcname, err := wf.distInfoArcname(arcname)
	if err != nil {
		return err
	}
	cfg := newWriteConfig(opts)
	if err := wf.checkWritable(); err != nil {
		return err
	}
	entryOpts, err := cfg.entryOptions(nil)
	if err != nil {
		return err
	}
	return wf.writeBytes(arcname, data, entryOpts...)
}

func (wf *WheelFile) distInfoArcname(arcname string) (string, error) {
	arcname = strings.TrimLeft(arcname, "/")
	if arcname == "" {
		return "", fmt.Errorf("%w: empty arcname would duplicate the .dist-info directory entry", ErrProhibitedWrite)
	}
	if err := checkProhibitedDistInfo(arcname); err != nil {
		return "", err
	}
	return wf.distInfoPath(arcname), nil
}
