package tsdoc

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

// ErrUnsupported is returned for exports whose shape cannot be documented.
var ErrUnsupported = errors.New("unsupported declaration")

// UndefinedExportError reports an export name missing from the source.
type UndefinedExportError struct {
	Export string
	File   string
}

func (e *UndefinedExportError) Error() string {
	file := e.File
	if file == "" {
		file = "<source>"
	}
	return fmt.Sprintf("export %q is not defined in %s", e.Export, file)
}

func (e *UndefinedExportError) Category() ferrors.ErrorCategory { return ferrors.CategoryExtract }
