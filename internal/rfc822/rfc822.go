// Package rfc822 reads and writes the RFC-822-style header blocks used by
// the METADATA and WHEEL metadata files: a sequence of "Name: value" lines,
// a blank line, then an optional free-text body.
//
// Header values are never folded across lines on output. Wrapping a long
// value (for example a dependency specifier) would corrupt it. Folded
// continuation lines are accepted on input for compatibility with other
// producers.
package rfc822

import (
	"fmt"
	"strings"
)

// Header is a single name/value pair in a header block.
type Header struct {
	Name  string
	Value string
}

// Message is a parsed header block: ordered headers plus the body text that
// follows the blank separator line.
type Message struct {
	Headers []Header
	Body    string
}

// Add appends a header to the message.
func (m *Message) Add(name, value string) {
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// Get returns the value of the first header with the given name,
// compared case-insensitively. The second return is false when no such
// header exists.
func (m *Message) Get(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Values returns the values of every header with the given name, in order.
func (m *Message) Values(name string) []string {
	var values []string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// String serializes the message: one "Name: value" line per header in
// order, a blank line, then the body.
func (m *Message) String() string {
	var b strings.Builder
	for _, h := range m.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.Body)
	return b.String()
}

// Parse reads a header block from s. Header names may be any token not
// containing a colon; values run to the end of the line. Lines starting
// with whitespace continue the previous header's value. Everything after
// the first blank line is the body, preserved exactly except that CRLF
// line endings are normalized to LF.
func Parse(s string) (*Message, error) {
	msg := &Message{}
	rest := s
	for rest != "" {
		line, after, hasNewline := strings.Cut(rest, "\n")
		line = strings.TrimRight(line, "\r")

		if line == "" {
			if hasNewline {
				msg.Body = strings.ReplaceAll(after, "\r\n", "\n")
			}
			return msg, nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			if len(msg.Headers) == 0 {
				return nil, fmt.Errorf("continuation line before any header: %q", line)
			}
			last := &msg.Headers[len(msg.Headers)-1]
			last.Value += " " + strings.TrimLeft(line, " \t")
		} else {
			name, value, found := strings.Cut(line, ":")
			if !found {
				return nil, fmt.Errorf("malformed header line: %q", line)
			}
			msg.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}

		rest = after
	}
	return msg, nil
}
