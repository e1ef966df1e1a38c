// Package pageload answers page imports from the rendering host: it resolves
// route segments through the published route tables and loads the compiled
// module behind them.
package pageload

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

// ModuleLoader loads the compiled module of a source file.
type ModuleLoader interface {
	Load(ctx context.Context, req compile.Request, locale string) (*compile.Module, error)
}

// Page is an imported page.
type Page struct {
	// Default writes the page's rendered body.
	Default  func(w io.Writer) error
	TOC      []compile.Heading
	Metadata compile.Metadata
	Module   *compile.Module
	Resolved routes.Resolved
}

// Loader resolves routes and loads their modules.
type Loader struct {
	Registry *routes.Registry
	Modules  ModuleLoader
	Logger   *slog.Logger
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// ImportPage loads the full module of the route named by segments. A route
// absent from the locale's table yields *routes.NotFoundError.
func (l *Loader) ImportPage(ctx context.Context, segments []string, locale string) (*Page, error) {
	m, res, err := l.load(ctx, segments, locale, compile.ModeFull)
	if err != nil {
		return nil, err
	}
	return &Page{
		Default:  m.Render,
		TOC:      m.TOC,
		Metadata: m.Metadata,
		Module:   m,
		Resolved: res,
	}, nil
}

// ImportMetadata loads only the metadata of the route named by segments.
func (l *Loader) ImportMetadata(ctx context.Context, segments []string, locale string) (compile.Metadata, error) {
	m, _, err := l.load(ctx, segments, locale, compile.ModeMetadata)
	if err != nil {
		return compile.Metadata{}, err
	}
	return m.Metadata, nil
}

func (l *Loader) load(ctx context.Context, segments []string, locale string, mode compile.Mode) (*compile.Module, routes.Resolved, error) {
	route := routes.FromSegments(segments)
	res, err := l.Registry.Lookup(route, locale)
	if err != nil {
		return nil, routes.Resolved{}, err
	}
	if res.Fallback {
		l.logger().Debug("Serving default locale document",
			logfields.Route(route), logfields.Locale(locale), logfields.File(res.FilePath))
	}
	m, err := l.Modules.Load(ctx, compile.Request{Path: res.FilePath, Mode: mode}, res.Locale)
	if err != nil {
		return nil, res, err
	}
	return m, res, nil
}

// GenerateStaticParamsFor enumerates every route of every configured locale
// as parameter maps. segmentKey receives the route segments; localeKey
// receives the locale and is omitted for the unnamed locale or when empty.
func (l *Loader) GenerateStaticParamsFor(segmentKey, localeKey string) []map[string]any {
	s := l.Registry.Snapshot()
	if s == nil {
		return nil
	}
	params := s.StaticParams()
	out := make([]map[string]any, 0, len(params))
	for _, p := range params {
		entry := map[string]any{segmentKey: p.Segments}
		if localeKey != "" && p.Locale != "" {
			entry[localeKey] = p.Locale
		}
		out = append(out, entry)
	}
	return out
}
