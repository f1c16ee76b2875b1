package wheelfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceWheel builds a finished wheel with some contents and reopens it
// for reading.
func sourceWheel(t *testing.T) *WheelFile {
	t.Helper()
	buf := &Buffer{}
	wf, err := OpenBuffer(buf, ModeWrite, WithDistname("mypkg"), WithVersion("1.0"))
	require.NoError(t, err)
	wf.Metadata.Summary = "Source package"
	wf.Metadata.RequiresDists = []string{"requests ~= 2.0"}
	require.NoError(t, wf.WriteBytes("mypkg/__init__.py", []byte("print('hi')\n")))
	require.NoError(t, wf.WriteBytesData("myscript", "scripts", []byte("#!python\n")))
	require.NoError(t, wf.WriteBytesDistInfo("LICENSE", []byte("MIT\n")))
	require.NoError(t, wf.Close())

	src, err := OpenBuffer(buf, ModeRead, WithDistname("mypkg"), WithVersion("1.0"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestCloneCopiesEverything(t *testing.T) {
	src := sourceWheel(t)

	out := &Buffer{}
	dest, err := FromWheelFileToBuffer(src, out)
	require.NoError(t, err)
	require.NoError(t, dest.Close())

	clone, err := OpenBuffer(out, ModeRead, WithDistname("mypkg"), WithVersion("1.0"))
	require.NoError(t, err)
	defer clone.Close()

	assert.Equal(t, "mypkg-1.0-py3-none-any.whl", clone.Filename())
	assert.Equal(t, "Source package", clone.Metadata.Summary)
	assert.Equal(t, []string{"requests ~= 2.0"}, clone.Metadata.RequiresDists)

	data, err := clone.storage.ReadEntry("mypkg/__init__.py")
	require.NoError(t, err)
	assert.Equal(t, []byte("print('hi')\n"), data)

	assert.Contains(t, clone.Names(), "mypkg-1.0.data/scripts/myscript")
	assert.Contains(t, clone.Names(), "mypkg-1.0.dist-info/LICENSE")
	assert.NoError(t, clone.VerifyContents())
}

func TestCloneIdentityOverrides(t *testing.T) {
	src := sourceWheel(t)

	out := &Buffer{}
	dest, err := FromWheelFileToBuffer(src, out,
		CloneWithDistname("copy"),
		CloneWithVersion("123"),
		CloneWithLanguageTag("x"),
		CloneWithABITag("y"),
		CloneWithPlatformTag("z"),
	)
	require.NoError(t, err)
	defer dest.Close()

	assert.Equal(t, "copy-123-x-y-z.whl", dest.Filename())
	assert.Equal(t, "copy", dest.Metadata.Name)
	assert.Equal(t, "123", dest.Metadata.Version.Original())
	assert.Equal(t, []string{"x-y-z"}, dest.WheelData.Tags)

	// dist-info and .data entries moved under the new directory names.
	assert.Contains(t, dest.Names(), "copy-123.dist-info/LICENSE")
	assert.Contains(t, dest.Names(), "copy-123.data/scripts/myscript")
	assert.NotContains(t, dest.Names(), "mypkg-1.0.dist-info/LICENSE")
}

func TestCloneRetainsSourceWheelData(t *testing.T) {
	src := sourceWheel(t)
	src.WheelData.RootIsPurelib = false

	dest, err := FromWheelFileToBuffer(src, &Buffer{})
	require.NoError(t, err)
	defer dest.Close()

	assert.False(t, dest.WheelData.RootIsPurelib)
	assert.Equal(t, src.WheelData.Tags, dest.WheelData.Tags)
}

func TestCloneBuildTagOverrides(t *testing.T) {
	buf := &Buffer{}
	wf, err := OpenBuffer(buf, ModeWrite,
		WithDistname("mypkg"), WithVersion("1.0"), WithBuildTag(7))
	require.NoError(t, err)
	require.NoError(t, wf.Close())
	src, err := OpenBuffer(buf, ModeRead,
		WithDistname("mypkg"), WithVersion("1.0"), WithBuildTag(7))
	require.NoError(t, err)
	defer src.Close()

	t.Run("copied by default", func(t *testing.T) {
		dest, err := FromWheelFileToBuffer(src, &Buffer{})
		require.NoError(t, err)
		defer dest.Close()
		assert.Equal(t, "mypkg-1.0-7-py3-none-any.whl", dest.Filename())
		require.NotNil(t, dest.WheelData.Build)
		assert.Equal(t, 7, *dest.WheelData.Build)
	})
	t.Run("explicit value", func(t *testing.T) {
		dest, err := FromWheelFileToBuffer(src, &Buffer{}, CloneWithBuildTag(8))
		require.NoError(t, err)
		defer dest.Close()
		assert.Equal(t, "mypkg-1.0-8-py3-none-any.whl", dest.Filename())
	})
	t.Run("explicit default drops it", func(t *testing.T) {
		dest, err := FromWheelFileToBuffer(src, &Buffer{}, CloneWithoutBuildTag())
		require.NoError(t, err)
		defer dest.Close()
		assert.Equal(t, "mypkg-1.0-py3-none-any.whl", dest.Filename())
		assert.Nil(t, dest.WheelData.Build)
	})
}

func TestCloneIntoOwnBufferRejected(t *testing.T) {
	src := sourceWheel(t)
	_, err := FromWheelFileToBuffer(src, src.buffer)
	assert.Error(t, err)
}

func TestCloneOntoItselfRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mypkg-1.0-py3-none-any.whl")
	wf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, wf.Close())

	src, err := Open(path, ModeRead)
	require.NoError(t, err)
	defer src.Close()

	_, err = FromWheelFile(src, path)
	assert.ErrorContains(t, err, "onto itself")

	_, err = FromWheelFile(src, dir)
	assert.ErrorContains(t, err, "onto itself")
}

func TestCloneToDifferentDirectoryAllowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mypkg-1.0-py3-none-any.whl")
	wf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, wf.Close())

	src, err := Open(path, ModeRead)
	require.NoError(t, err)
	defer src.Close()

	other := t.TempDir()
	dest, err := FromWheelFile(src, other)
	require.NoError(t, err)
	require.NoError(t, dest.Close())
	assert.FileExists(t, filepath.Join(other, "mypkg-1.0-py3-none-any.whl"))
}

func TestCloneRejectsReadMode(t *testing.T) {
	src := sourceWheel(t)
	_, err := FromWheelFileToBuffer(src, &Buffer{}, CloneWithMode(ModeRead))
	assert.Error(t, err)
}

func TestCloneDefaultTagOverride(t *testing.T) {
	buf := &Buffer{}
	wf, err := OpenBuffer(buf, ModeWrite,
		WithDistname("mypkg"), WithVersion("1.0"), WithPlatformTag("manylinux1_x86_64"))
	require.NoError(t, err)
	require.NoError(t, wf.Close())
	src, err := OpenBuffer(buf, ModeRead,
		WithDistname("mypkg"), WithVersion("1.0"), WithPlatformTag("manylinux1_x86_64"))
	require.NoError(t, err)
	defer src.Close()

	dest, err := FromWheelFileToBuffer(src, &Buffer{}, CloneWithDefaultPlatformTag())
	require.NoError(t, err)
	defer dest.Close()
	assert.Equal(t, "mypkg-1.0-py3-none-any.whl", dest.Filename())
}
