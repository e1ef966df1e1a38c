package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Style captures the newline shape of the source document.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Split separates YAML front matter (`---` delimited) from the document body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input. A closing delimiter at end of input without a
// trailing newline is accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	start := len(open)
	rest := content[start:]
	if bytes.HasPrefix(rest, []byte("---"+nl)) {
		return []byte{}, rest[len("---"+nl):], true, style, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			end := len(rest) - len("---")
			return rest[:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, style, nil
}

// BodyLine returns the 1-based line of content at which body starts.
func BodyLine(content, body []byte) int {
	offset := len(content) - len(body)
	if offset < 0 {
		offset = 0
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
// Errors carry the offending line relative to the front matter block.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, &ParseError{Line: lineOf(err), Err: err}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseError reports malformed front matter.
type ParseError struct {
	Line int // 1-based within the front matter block; 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("front matter line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("front matter: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func lineOf(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
