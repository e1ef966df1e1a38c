package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
	require.Equal(t, 4, BodyLine(input, body))
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, _, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, style, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestParseYAML_ReturnsFields(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Intro\ntags: [a, b]\n"))
	require.NoError(t, err)
	require.Equal(t, "Intro", fields["title"])
	require.Equal(t, []any{"a", "b"}, fields["tags"])
}

func TestParseYAML_MalformedReportsLine(t *testing.T) {
	_, err := ParseYAML([]byte("title: ok\nbad: [unclosed\n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Positive(t, perr.Line)
}

func TestParseYAML_EmptyIsEmptyMap(t *testing.T) {
	fields, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, fields)
	require.NotNil(t, fields)
}

func TestTitleFromName(t *testing.T) {
	cases := map[string]string{
		"getting-started": "Getting Started",
		"API_reference":   "API Reference",
		"faq":             "Faq",
		"a--b":            "A B",
	}
	for in, want := range cases {
		require.Equal(t, want, TitleFromName(in), in)
	}
}
