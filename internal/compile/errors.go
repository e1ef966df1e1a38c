package compile

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

// ErrNoRenderEntry is returned when rendering a metadata-only module.
var ErrNoRenderEntry = errors.New("module has no render entry point")

// CompileError reports a document that cannot be parsed.
type CompileError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
		if e.Column > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Column)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

func (e *CompileError) Category() ferrors.ErrorCategory { return ferrors.CategoryCompile }
