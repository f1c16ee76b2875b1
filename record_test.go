package wheelfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWheelRecordUpdate(t *testing.T) {
	r := NewWheelRecord()
	data := bytes.Repeat([]byte{0}, 1000)
	require.NoError(t, r.Update("dist/zeros.bin", bytes.NewReader(data)))

	hash, err := r.Hash("dist/zeros.bin")
	require.NoError(t, err)
	assert.Equal(t, "sha256=VBs-naoJsgv4X6Jz5cvT6AGFqk7CmOdl24d0K3ATilM", hash)

	size, err := r.Size("dist/zeros.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), size)
}

func TestWheelRecordForbiddenHashes(t *testing.T) {
	for _, algo := range []string{"md5", "sha1", "frobnots"} {
		t.Run(algo, func(t *testing.T) {
			_, err := NewWheelRecordWithHash(algo)
			assert.ErrorIs(t, err, ErrUnsupportedHashType)
		})
	}
}

func TestWheelRecordRejectsDirectories(t *testing.T) {
	r := NewWheelRecord()
	err := r.Update("some/dir/", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrRecordContainsDirectory)
	assert.False(t, r.Contains("some/dir/"))
}

func TestWheelRecordUpdatePanics(t *testing.T) {
	t.Run("stale seekable stream", func(t *testing.T) {
		r := NewWheelRecord()
		stream := strings.NewReader("contents")
		_, err := stream.Seek(3, 0)
		require.NoError(t, err)
		assert.Panics(t, func() { _ = r.Update("file.txt", stream) })
	})
	t.Run("record path", func(t *testing.T) {
		r := NewWheelRecord()
		assert.Panics(t, func() {
			_ = r.Update("dist-1.0.dist-info/RECORD", strings.NewReader(""))
		})
	})
}

func TestWheelRecordRemove(t *testing.T) {
	r := NewWheelRecord()
	require.NoError(t, r.Update("a.txt", strings.NewReader("a")))
	require.NoError(t, r.Remove("a.txt"))
	assert.False(t, r.Contains("a.txt"))
	assert.Zero(t, r.Len())

	assert.Error(t, r.Remove("a.txt"))
}

func TestWheelRecordToText(t *testing.T) {
	r := NewWheelRecord()
	require.NoError(t, r.Update("b.txt", strings.NewReader("bee")))
	require.NoError(t, r.Update("a.txt", strings.NewReader("ay")))

	text := r.ToText()
	lines := strings.Split(strings.TrimRight(text, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	// Insertion order, not lexical.
	assert.True(t, strings.HasPrefix(lines[0], "b.txt,sha256="))
	assert.True(t, strings.HasPrefix(lines[1], "a.txt,sha256="))
	assert.True(t, strings.HasSuffix(lines[0], ",3"))
	assert.True(t, strings.HasSuffix(lines[1], ",2"))
}

func TestWheelRecordRoundTrip(t *testing.T) {
	r := NewWheelRecord()
	require.NoError(t, r.Update("pkg/__init__.py", strings.NewReader("print('hi')\n")))
	require.NoError(t, r.Update("pkg-1.0.dist-info/METADATA", strings.NewReader("Metadata-Version: 2.1\n\n")))

	parsed, err := WheelRecordFromText(r.ToText())
	require.NoError(t, err)
	assert.True(t, r.Equal(parsed))
	assert.Equal(t, r.Paths(), parsed.Paths())
}

func TestWheelRecordFromTextMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"directory row", "some/dir/,sha256=abc,0\r\n", ErrRecordContainsDirectory},
		{"wrong column count", "only-a-path\r\n", nil},
		{"bad size", "a.txt,sha256=abc,big\r\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WheelRecordFromText(tt.text)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestWheelRecordFromTextDropsSelfRow(t *testing.T) {
	text := "a.txt,sha256=abc,1\r\npkg-1.0.dist-info/RECORD,,\r\n"
	r, err := WheelRecordFromText(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, r.Paths())
}

func TestErrUnnamedDistributionIsBadWheelFile(t *testing.T) {
	assert.True(t, errors.Is(ErrUnnamedDistribution, ErrBadWheelFile))
}
