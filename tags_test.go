package wheelfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTag(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"simple", "py3-none-any", []string{"py3-none-any"}},
		{"platform alternatives", "py2-none-win32.win_amd64", []string{
			"py2-none-win32", "py2-none-win_amd64",
		}},
		{"language alternatives", "py2.py3-none-any", []string{
			"py2-none-any", "py3-none-any",
		}},
		{"full cartesian", "py2.py3-a.b-c.d", []string{
			"py2-a-c", "py2-a-d", "py2-b-c", "py2-b-d",
			"py3-a-c", "py3-a-d", "py3-b-c", "py3-b-d",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandTag(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandTagMalformed(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few segments", "py3-none"},
		{"too many segments", "py3-none-any-linux"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandTag(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestParseFilenameStem(t *testing.T) {
	tests := []struct {
		name string
		stem string
		want FilenameStem
	}{
		{
			"five segments",
			"my_awesome.wheel-4.2.0-py38-cp38d-linux_x84_64",
			FilenameStem{
				Distname: "my_awesome.wheel", Version: "4.2.0",
				Language: "py38", ABI: "cp38d", Platform: "linux_x84_64",
				HasTags: true,
			},
		},
		{
			"six segments with build",
			"dist-1.0-7-py3-none-any",
			FilenameStem{
				Distname: "dist", Version: "1.0", Build: "7",
				Language: "py3", ABI: "none", Platform: "any",
				HasTags: true,
			},
		},
		{
			"two segments only",
			"dist-1.0",
			FilenameStem{Distname: "dist", Version: "1.0"},
		},
		{
			"three segments",
			"dist-1.0-junk",
			FilenameStem{Distname: "dist", Version: "1.0"},
		},
		{
			"one segment",
			"dist",
			FilenameStem{Distname: "dist"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilenameStem(tt.stem)
			assert.Equal(t, tt.want, got)
		})
	}
}
