package wheelfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDistname(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "mypkg", "mypkg"},
		{"uppercase", "MyPkg", "mypkg"},
		{"dots and dashes", "my.awesome-pkg", "my_awesome_pkg"},
		{"separator runs", "my--awesome__pkg", "my_awesome_pkg"},
		{"mixed run", "my-._pkg", "my_pkg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalDistname(tt.input))
		})
	}
}

func TestValidateDistname(t *testing.T) {
	assert.NoError(t, validateDistname("my_pkg.extra2"))
	assert.Error(t, validateDistname(""))
	assert.Error(t, validateDistname("my-pkg"))
	assert.Error(t, validateDistname("my pkg"))
	assert.Error(t, validateDistname("pkg✨"))
}
