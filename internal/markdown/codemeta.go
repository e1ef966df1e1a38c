package markdown

import (
	"regexp"
	"strings"
)

// CodeMeta is the parsed info string of a fenced code block:
//
//	```js filename="app.js" {1,3-4} showLineNumbers
type CodeMeta struct {
	Language        string
	Filename        string
	HighlightLines  string
	ShowLineNumbers bool
	Copy            *bool
}

var (
	filenameRe  = regexp.MustCompile(`filename="([^"]*)"`)
	highlightRe = regexp.MustCompile(`\{([\d,\s-]+)\}`)
)

// ParseCodeMeta parses a fenced code info string.
func ParseCodeMeta(info string) CodeMeta {
	info = strings.TrimSpace(info)
	var meta CodeMeta
	if info == "" {
		return meta
	}
	lang, rest, _ := strings.Cut(info, " ")
	if !strings.HasPrefix(lang, "{") {
		meta.Language = lang
	} else {
		rest = info
	}
	if m := filenameRe.FindStringSubmatch(rest); m != nil {
		meta.Filename = m[1]
		rest = strings.Replace(rest, m[0], "", 1)
	}
	if m := highlightRe.FindStringSubmatch(rest); m != nil {
		meta.HighlightLines = strings.ReplaceAll(m[1], " ", "")
	}
	for _, f := range strings.Fields(rest) {
		switch f {
		case "showLineNumbers":
			meta.ShowLineNumbers = true
		case "copy":
			v := true
			meta.Copy = &v
		case "copy=false":
			v := false
			meta.Copy = &v
		}
	}
	return meta
}
