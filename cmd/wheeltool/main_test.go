package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrMino/wheelfile"
)

// buildWheelFile writes a small finished wheel into dir and returns its path.
func buildWheelFile(t *testing.T, dir string) string {
	t.Helper()
	wf, err := wheelfile.Open(dir, wheelfile.ModeWrite,
		wheelfile.WithDistname("mypkg"),
		wheelfile.WithVersion("1.0"),
	)
	require.NoError(t, err)
	wf.Metadata.Summary = "Test package"
	require.NoError(t, wf.WriteBytes("mypkg/__init__.py", []byte("print('hi')\n")))
	require.NoError(t, wf.Close())
	return filepath.Join(dir, wf.Filename())
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMetadataCommand(t *testing.T) {
	path := buildWheelFile(t, t.TempDir())

	out, err := runCommand(t, "metadata", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Name: mypkg")
	assert.Contains(t, out, "Summary: Test package")
}

func TestVerifyCommand(t *testing.T) {
	path := buildWheelFile(t, t.TempDir())

	out, err := runCommand(t, "verify", path)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)
}

func TestListCommand(t *testing.T) {
	path := buildWheelFile(t, t.TempDir())

	out, err := runCommand(t, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mypkg/__init__.py")
	assert.NotContains(t, out, "RECORD")
}

func TestRepackCommand(t *testing.T) {
	path := buildWheelFile(t, t.TempDir())
	dest := t.TempDir()

	out, err := runCommand(t, "repack", path, "--dest", dest, "--build", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "mypkg-1.0-5-py3-none-any.whl")
	assert.FileExists(t, filepath.Join(dest, "mypkg-1.0-5-py3-none-any.whl"))

	repacked, err := wheelfile.Open(filepath.Join(dest, "mypkg-1.0-5-py3-none-any.whl"), wheelfile.ModeRead)
	require.NoError(t, err)
	defer repacked.Close()
	assert.Equal(t, "Test package", repacked.Metadata.Summary)
	assert.NoError(t, repacked.VerifyContents())
}

func TestCommandsRequireOneArg(t *testing.T) {
	for _, sub := range []string{"metadata", "verify", "list", "repack"} {
		t.Run(sub, func(t *testing.T) {
			_, err := runCommand(t, sub)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "arg"))
		})
	}
}

func TestMetadataCommandMissingFile(t *testing.T) {
	_, err := runCommand(t, "metadata", filepath.Join(t.TempDir(), "absent-1.0-py3-none-any.whl"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err) || strings.Contains(err.Error(), "no such file"))
}
