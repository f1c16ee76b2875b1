package wheelfile

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/MrMino/wheelfile/internal/rfc822"
)

// MetadataVersion is the metadata format version written into every
// METADATA file. It is fixed and not user-settable.
const MetadataVersion = "2.1"

// MetaData models the .dist-info/METADATA file, metadata format v2.1.
//
// Name and Version are required; every other field is optional and
// zero-valued by default. Fields map one-to-one onto serialized headers
// (see metadataFields), except Description, which is serialized as the
// free-text body after the header block.
//
// Keywords is a single-use field despite its plural name: it serializes as
// one comma-joined header line. The remaining plural-named fields are
// multiple-use and serialize as one header line per item.
type MetaData struct {
	Name    string
	Version *goversion.Version

	Summary                string
	Description            string
	DescriptionContentType string
	Keywords               []string
	Classifiers            []string

	Author          string
	AuthorEmail     string
	Maintainer      string
	MaintainerEmail string

	License string

	HomePage    string
	DownloadURL string
	ProjectURLs []string

	Platforms          []string
	SupportedPlatforms []string

	RequiresPython    string
	RequiresDists     []string
	RequiresExternals []string
	ProvidesExtras    []string
	ProvidesDists     []string
	ObsoletesDists    []string
}

// NewMetaData creates a MetaData with the two required fields. The version
// string must parse; the parser's error is returned unchanged so callers
// can distinguish an invalid version from other failures.
func NewMetaData(name, ver string) (*MetaData, error) {
	v, err := goversion.NewVersion(ver)
	if err != nil {
		return nil, err
	}
	return &MetaData{Name: name, Version: v}, nil
}

// SplitKeywords converts a comma-separated keyword string into the list
// form stored in MetaData.Keywords.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// metadataField describes one serializable MetaData field: its header name
// (singular form for multiple-use fields), its attribute name in
// snake_case, and typed accessors. The table replaces the attribute
// introspection the file format historically relied on; order here is
// serialization order.
type metadataField struct {
	header   string
	attr     string
	multiple bool

	getScalar func(*MetaData) string
	setScalar func(*MetaData, string)
	getList   func(*MetaData) []string
	setList   func(*MetaData, []string)
}

var metadataFields = []metadataField{
	{header: "Name", attr: "name",
		getScalar: func(m *MetaData) string { return m.Name },
		setScalar: func(m *MetaData, v string) { m.Name = v }},
	{header: "Version", attr: "version",
		getScalar: func(m *MetaData) string {
			if m.Version == nil {
				return ""
			}
			return m.Version.Original()
		},
		setScalar: nil}, // version is parsed, not assigned verbatim
	{header: "Summary", attr: "summary",
		getScalar: func(m *MetaData) string { return m.Summary },
		setScalar: func(m *MetaData, v string) { m.Summary = v }},
	{header: "Description", attr: "description",
		getScalar: func(m *MetaData) string { return m.Description },
		setScalar: func(m *MetaData, v string) { m.Description = v }},
	{header: "Description-Content-Type", attr: "description_content_type",
		getScalar: func(m *MetaData) string { return m.DescriptionContentType },
		setScalar: func(m *MetaData, v string) { m.DescriptionContentType = v }},
	{header: "Keywords", attr: "keywords",
		getList: func(m *MetaData) []string { return m.Keywords },
		setList: func(m *MetaData, v []string) { m.Keywords = v }},
	{header: "Classifier", attr: "classifiers", multiple: true,
		getList: func(m *MetaData) []string { return m.Classifiers },
		setList: func(m *MetaData, v []string) { m.Classifiers = v }},
	{header: "Author", attr: "author",
		getScalar: func(m *MetaData) string { return m.Author },
		setScalar: func(m *MetaData, v string) { m.Author = v }},
	{header: "Author-email", attr: "author_email",
		getScalar: func(m *MetaData) string { return m.AuthorEmail },
		setScalar: func(m *MetaData, v string) { m.AuthorEmail = v }},
	{header: "Maintainer", attr: "maintainer",
		getScalar: func(m *MetaData) string { return m.Maintainer },
		setScalar: func(m *MetaData, v string) { m.Maintainer = v }},
	{header: "Maintainer-email", attr: "maintainer_email",
		getScalar: func(m *MetaData) string { return m.MaintainerEmail },
		setScalar: func(m *MetaData, v string) { m.MaintainerEmail = v }},
	{header: "License", attr: "license",
		getScalar: func(m *MetaData) string { return m.License },
		setScalar: func(m *MetaData, v string) { m.License = v }},
	{header: "Home-page", attr: "home_page",
		getScalar: func(m *MetaData) string { return m.HomePage },
		setScalar: func(m *MetaData, v string) { m.HomePage = v }},
	{header: "Download-URL", attr: "download_url",
		getScalar: func(m *MetaData) string { return m.DownloadURL },
		setScalar: func(m *MetaData, v string) { m.DownloadURL = v }},
	{header: "Project-URL", attr: "project_urls", multiple: true,
		getList: func(m *MetaData) []string { return m.ProjectURLs },
		setList: func(m *MetaData, v []string) { m.ProjectURLs = v }},
	{header: "Platform", attr: "platforms", multiple: true,
		getList: func(m *MetaData) []string { return m.Platforms },
		setList: func(m *MetaData, v []string) { m.Platforms = v }},
	{header: "Supported-Platform", attr: "supported_platforms", multiple: true,
		getList: func(m *MetaData) []string { return m.SupportedPlatforms },
		setList: func(m *MetaData, v []string) { m.SupportedPlatforms = v }},
	{header: "Requires-Python", attr: "requires_python",
		getScalar: func(m *MetaData) string { return m.RequiresPython },
		setScalar: func(m *MetaData, v string) { m.RequiresPython = v }},
	{header: "Requires-Dist", attr: "requires_dists", multiple: true,
		getList: func(m *MetaData) []string { return m.RequiresDists },
		setList: func(m *MetaData, v []string) { m.RequiresDists = v }},
	{header: "Requires-External", attr: "requires_externals", multiple: true,
		getList: func(m *MetaData) []string { return m.RequiresExternals },
		setList: func(m *MetaData, v []string) { m.RequiresExternals = v }},
	{header: "Provides-Extra", attr: "provides_extras", multiple: true,
		getList: func(m *MetaData) []string { return m.ProvidesExtras },
		setList: func(m *MetaData, v []string) { m.ProvidesExtras = v }},
	{header: "Provides-Dist", attr: "provides_dists", multiple: true,
		getList: func(m *MetaData) []string { return m.ProvidesDists },
		setList: func(m *MetaData, v []string) { m.ProvidesDists = v }},
	{header: "Obsoletes-Dist", attr: "obsoletes_dists", multiple: true,
		getList: func(m *MetaData) []string { return m.ObsoletesDists },
		setList: func(m *MetaData, v []string) { m.ObsoletesDists = v }},
}

// metadataFieldByHeader returns the field spec whose serialized header name
// matches, case-insensitively.
func metadataFieldByHeader(header string) (*metadataField, bool) {
	for i := range metadataFields {
		if strings.EqualFold(metadataFields[i].header, header) {
			return &metadataFields[i], true
		}
	}
	return nil, false
}

// FieldIsMultipleUse reports whether the named metadata field serializes as
// repeated header lines. The name may be given as a header ("Requires-Dist")
// or attribute ("requires_dists") in either singular or plural form.
//
// A field is multiple-use iff stripping its trailing "s" does not produce a
// known field name but appending "s" to the stripped form does. "keywords"
// is hard-coded single-use despite its plural name. Unknown names return an
// error.
func FieldIsMultipleUse(name string) (bool, error) {
	normalized := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	stripped := strings.TrimRight(normalized, "s")

	known := func(attr string) bool {
		for i := range metadataFields {
			if metadataFields[i].attr == attr {
				return true
			}
		}
		return false
	}

	if known(stripped) || stripped == "keyword" {
		return false, nil
	}
	if known(stripped + "s") {
		return true, nil
	}
	return false, fmt.Errorf("unknown field: %q", name)
}

// ToText serializes the metadata as an RFC-822-style header block followed
// by a blank line and the description body. Empty fields are omitted.
// Header values are never wrapped; folding a long value such as a
// dependency specifier would corrupt it.
func (m *MetaData) ToText() string {
	msg := &rfc822.Message{}
	msg.Add("Metadata-Version", MetadataVersion)

	for i := range metadataFields {
		f := &metadataFields[i]
		switch {
		case f.attr == "description":
			msg.Body = m.Description
		case f.attr == "keywords":
			if len(m.Keywords) > 0 {
				msg.Add(f.header, strings.Join(m.Keywords, ","))
			}
		case f.multiple:
			for _, v := range f.getList(m) {
				msg.Add(f.header, v)
			}
		default:
			if v := f.getScalar(m); v != "" {
				msg.Add(f.header, v)
			}
		}
	}
	return msg.String()
}

// MetaDataFromText parses serialized metadata. Unknown headers are an
// error. The Metadata-Version header is consumed and discarded rather than
// validated, tolerating format version drift between producers.
func MetaDataFromText(s string) (*MetaData, error) {
	msg, err := rfc822.Parse(s)
	if err != nil {
		return nil, err
	}

	m := &MetaData{}
	seen := make(map[string]bool)
	for _, h := range msg.Headers {
		if strings.EqualFold(h.Name, "Metadata-Version") {
			continue
		}
		f, ok := metadataFieldByHeader(h.Name)
		if !ok {
			return nil, fmt.Errorf("unknown metadata field: %q", h.Name)
		}
		if seen[f.attr] {
			continue // multi-use values are collected on first sight
		}
		seen[f.attr] = true

		switch {
		case f.attr == "version":
			v, err := goversion.NewVersion(h.Value)
			if err != nil {
				return nil, err
			}
			m.Version = v
		case f.attr == "keywords":
			m.Keywords = SplitKeywords(h.Value)
		case f.multiple:
			f.setList(m, msg.Values(f.header))
		default:
			f.setScalar(m, h.Value)
		}
	}

	m.Description = msg.Body
	return m, nil
}

// Equal reports structural equality. All fields must match; the version is
// compared by value, not by pointer.
func (m *MetaData) Equal(other *MetaData) bool {
	if other == nil {
		return false
	}
	if !versionsEqual(m.Version, other.Version) {
		return false
	}
	for i := range metadataFields {
		f := &metadataFields[i]
		if f.attr == "version" {
			continue
		}
		if f.getList != nil {
			if !stringSlicesEqual(f.getList(m), f.getList(other)) {
				return false
			}
		} else if f.getScalar(m) != f.getScalar(other) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *MetaData) Clone() *MetaData {
	c := *m
	for i := range metadataFields {
		f := &metadataFields[i]
		if f.getList != nil {
			f.setList(&c, append([]string(nil), f.getList(m)...))
		}
	}
	return &c
}

func versionsEqual(a, b *goversion.Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
