package scan

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

// ErrNotDocument is returned for paths without a markdown extension.
var ErrNotDocument = errors.New("not a markdown document")

// ScanError reports a content tree that cannot be scanned. It is always fatal.
type ScanError struct {
	Path   string
	Locale string
	Reason string
	Err    error
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("scan %s: %s", e.Path, e.Reason)
	if e.Locale != "" {
		msg = fmt.Sprintf("scan %s (locale %q): %s", e.Path, e.Locale, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScanError) Unwrap() error { return e.Err }

func (e *ScanError) Category() ferrors.ErrorCategory { return ferrors.CategoryScan }
