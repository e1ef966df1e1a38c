package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRoute      = "route"
	KeyLocale     = "locale"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyStage      = "stage"
	KeyMode       = "mode"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyExport     = "export"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Route(r string) slog.Attr     { return slog.String(KeyRoute, r) }
func File(p string) slog.Attr      { return slog.String(KeyFile, p) }
func Dir(p string) slog.Attr       { return slog.String(KeyDir, p) }
func Stage(name string) slog.Attr  { return slog.String(KeyStage, name) }
func Mode(m string) slog.Attr      { return slog.String(KeyMode, m) }
func BuildID(id string) slog.Attr  { return slog.String(KeyBuildID, id) }
func Export(name string) slog.Attr { return slog.String(KeyExport, name) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }

func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

// Locale renders the unnamed locale as "_default".
func Locale(l string) slog.Attr {
	if l == "" {
		l = "_default"
	}
	return slog.String(KeyLocale, l)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
