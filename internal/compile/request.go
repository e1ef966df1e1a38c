package compile

import (
	"net/url"
	"strings"
)

// MetadataQuery is the resource query selecting metadata-only mode.
const MetadataQuery = "?metadata"

// Mode selects compile fidelity.
type Mode string

const (
	ModeMetadata Mode = "metadata"
	ModeFull     Mode = "full"
)

// Request is a parsed module request such as "page.mdx?metadata".
type Request struct {
	Path string
	Mode Mode
}

// ParseRequest splits a resource query from a path.
func ParseRequest(raw string) Request {
	path, query, found := strings.Cut(raw, "?")
	if !found {
		return Request{Path: raw, Mode: ModeFull}
	}
	values, err := url.ParseQuery(query)
	if err == nil && values.Has("metadata") {
		return Request{Path: path, Mode: ModeMetadata}
	}
	return Request{Path: path, Mode: ModeFull}
}

// String renders the request back into resource form.
func (r Request) String() string {
	if r.Mode == ModeMetadata {
		return r.Path + MetadataQuery
	}
	return r.Path
}
