package pagemap

import "fmt"

// Severity grades a non-fatal builder finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal problem found while building a page map.
type Diagnostic struct {
	Severity Severity
	Path     string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %s", d.Severity, d.Path, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Path, d.Message)
}

func warnf(path string, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Path: path, Line: line, Message: fmt.Sprintf(format, args...)}
}

func infof(path string, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Path: path, Message: fmt.Sprintf(format, args...)}
}
