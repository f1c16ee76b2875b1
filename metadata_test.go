package wheelfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetaData(t *testing.T) {
	m, err := NewMetaData("dist", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "dist", m.Name)
	assert.Equal(t, "1.2.3", m.Version.Original())
}

func TestNewMetaDataBadVersion(t *testing.T) {
	_, err := NewMetaData("dist", "not a version")
	assert.Error(t, err)
}

func TestMetaDataToText(t *testing.T) {
	m, err := NewMetaData("dist", "1.0")
	require.NoError(t, err)
	m.Summary = "A distribution"
	m.Keywords = []string{"one", "two"}
	m.Classifiers = []string{
		"Programming Language :: Python :: 3",
		"License :: OSI Approved :: MIT License",
	}
	m.Description = "Long description.\nSecond line."

	want := "Metadata-Version: 2.1\n" +
		"Name: dist\n" +
		"Version: 1.0\n" +
		"Summary: A distribution\n" +
		"Keywords: one,two\n" +
		"Classifier: Programming Language :: Python :: 3\n" +
		"Classifier: License :: OSI Approved :: MIT License\n" +
		"\n" +
		"Long description.\nSecond line."
	assert.Equal(t, want, m.ToText())
}

func TestMetaDataToTextOmitsEmptyFields(t *testing.T) {
	m, err := NewMetaData("dist", "1.0")
	require.NoError(t, err)

	text := m.ToText()
	assert.NotContains(t, text, "Summary")
	assert.NotContains(t, text, "Requires-Dist")
	assert.True(t, strings.HasPrefix(text, "Metadata-Version: 2.1\n"))
}

func TestMetaDataRoundTrip(t *testing.T) {
	m, err := NewMetaData("dist", "4.2.0")
	require.NoError(t, err)
	m.Summary = "A distribution"
	m.Keywords = []string{"alpha", "beta"}
	m.RequiresDists = []string{"requests ~= 2.0", "click >= 8"}
	m.ProjectURLs = []string{"Homepage, https://example.com"}
	m.Author = "A. Author"
	m.AuthorEmail = "author@example.com"
	m.RequiresPython = ">=3.8"
	m.Description = "The long\ndescription."

	parsed, err := MetaDataFromText(m.ToText())
	require.NoError(t, err)
	assert.True(t, m.Equal(parsed))
}

func TestMetaDataRoundTripNewlineTerminatedDescription(t *testing.T) {
	m, err := NewMetaData("dist", "4.2.0")
	require.NoError(t, err)
	m.Description = "The long description.\n"

	parsed, err := MetaDataFromText(m.ToText())
	require.NoError(t, err)
	assert.Equal(t, "The long description.\n", parsed.Description)
	assert.True(t, m.Equal(parsed))
}

func TestMetaDataFromTextUnknownField(t *testing.T) {
	_, err := MetaDataFromText("Metadata-Version: 2.1\nName: dist\nFrobnicator: yes\n\n")
	assert.Error(t, err)
}

func TestMetaDataFromTextIgnoresMetadataVersion(t *testing.T) {
	m, err := MetaDataFromText("Metadata-Version: 99.0\nName: dist\nVersion: 1.0\n\n")
	require.NoError(t, err)
	assert.Equal(t, "dist", m.Name)
}

func TestMetaDataEqual(t *testing.T) {
	a, err := NewMetaData("dist", "1.0")
	require.NoError(t, err)
	b, err := NewMetaData("dist", "1.0.0")
	require.NoError(t, err)

	// 1.0 and 1.0.0 compare equal as versions.
	assert.True(t, a.Equal(b))

	b.Summary = "changed"
	assert.False(t, a.Equal(b))
}

func TestMetaDataClone(t *testing.T) {
	m, err := NewMetaData("dist", "1.0")
	require.NoError(t, err)
	m.Classifiers = []string{"one"}

	c := m.Clone()
	c.Classifiers[0] = "changed"
	c.Name = "other"

	assert.Equal(t, "one", m.Classifiers[0])
	assert.Equal(t, "dist", m.Name)
}

func TestFieldIsMultipleUse(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  bool
	}{
		{"keywords is single-use", "keywords", false},
		{"summary", "summary", false},
		{"classifiers plural", "classifiers", true},
		{"classifier singular", "classifier", true},
		{"requires_dists", "requires_dists", true},
		{"header form", "Requires-Dist", true},
		{"scalar header form", "Requires-Python", false},
		{"name", "name", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FieldIsMultipleUse(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldIsMultipleUseUnknown(t *testing.T) {
	_, err := FieldIsMultipleUse("frobnicator")
	assert.Error(t, err)
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitKeywords("a,b,c"))
	assert.Nil(t, SplitKeywords(""))
}
