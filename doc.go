// Package wheelfile reads and writes Python wheel archives.
//
// A wheel is a ZIP archive with a fixed layout: the distribution's files,
// a <name>-<version>.dist-info directory holding the METADATA, WHEEL, and
// RECORD members, and optionally a <name>-<version>.data directory with
// install-time sections. [WheelFile] manages all of that bookkeeping: it
// resolves the wheel's identity from the filename or explicit options,
// keeps the RECORD hashes current as entries are written, and emits the
// metadata members on Close.
//
// # Quick Start
//
// Create a wheel from a package directory:
//
//	wf, err := wheelfile.Open("./dist/", wheelfile.ModeWrite,
//	    wheelfile.WithDistname("mypackage"),
//	    wheelfile.WithVersion("1.0.0"),
//	)
//	if err != nil {
//	    return err
//	}
//	wf.Metadata.Summary = "My package"
//	wf.Metadata.RequiresDists = []string{"requests ~= 2.0"}
//	if err := wf.Write("./src/mypackage"); err != nil {
//	    return err
//	}
//	return wf.Close()
//
// Read one back:
//
//	wf, err := wheelfile.Open("./dist/mypackage-1.0.0-py3-none-any.whl", wheelfile.ModeRead)
//	if err != nil {
//	    return err
//	}
//	defer wf.Close()
//	fmt.Println(wf.Metadata.Summary)
//
// # Cloning
//
// [FromWheelFile] copies an open wheel into a new session, optionally
// changing parts of its identity along the way:
//
//	dest, err := wheelfile.FromWheelFile(src, "./out/",
//	    wheelfile.CloneWithVersion("2.0.0"),
//	    wheelfile.CloneWithPlatformTag("manylinux1_x86_64"),
//	)
//
// # Buffers
//
// [OpenBuffer] runs a session over an in-memory [Buffer] instead of a
// file, which is useful for building or inspecting wheels without
// touching the filesystem.
package wheelfile
