package routes

import (
	"fmt"
	"slices"
	"sync/atomic"

	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
)

// Fallback selects the behaviour for a route missing in a secondary locale.
type Fallback int

const (
	// FallbackNone answers with NotFoundError.
	FallbackNone Fallback = iota
	// FallbackDefault serves the default locale's document instead.
	FallbackDefault
)

// Snapshot is a complete, consistent set of page maps and route tables.
type Snapshot struct {
	Locales  []string
	PageMaps map[string]*pagemap.PageMap
	Tables   map[string]*Table
}

// NewSnapshot compiles a table for every page map. A snapshot is only
// returned when every locale compiled.
func NewSnapshot(locales []string, pageMaps map[string]*pagemap.PageMap) (*Snapshot, error) {
	s := &Snapshot{
		Locales:  append([]string(nil), locales...),
		PageMaps: make(map[string]*pagemap.PageMap, len(pageMaps)),
		Tables:   make(map[string]*Table, len(pageMaps)),
	}
	for _, locale := range locales {
		pm, ok := pageMaps[locale]
		if !ok {
			return nil, fmt.Errorf("snapshot: no page map for locale %q", locale)
		}
		t, err := Compile(pm)
		if err != nil {
			return nil, err
		}
		s.PageMaps[locale] = pm
		s.Tables[locale] = t
	}
	return s, nil
}

// With returns a copy of s where one locale's page map is replaced.
func (s *Snapshot) With(locale string, pm *pagemap.PageMap) (*Snapshot, error) {
	maps := make(map[string]*pagemap.PageMap, len(s.PageMaps))
	for k, v := range s.PageMaps {
		maps[k] = v
	}
	maps[locale] = pm
	t, err := Compile(pm)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]*Table, len(s.Tables))
	for k, v := range s.Tables {
		tables[k] = v
	}
	tables[locale] = t
	return &Snapshot{Locales: s.Locales, PageMaps: maps, Tables: tables}, nil
}

// Registry owns the current snapshot. Readers never observe a partial update.
type Registry struct {
	current       atomic.Pointer[Snapshot]
	fallback      Fallback
	defaultLocale string
}

// NewRegistry creates an empty registry.
func NewRegistry(fallback Fallback, defaultLocale string) *Registry {
	return &Registry{fallback: fallback, defaultLocale: defaultLocale}
}

// Publish swaps in a new snapshot.
func (r *Registry) Publish(s *Snapshot) {
	r.current.Store(s)
}

// Snapshot returns the current snapshot, or nil before the first publish.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Resolved is the outcome of a lookup.
type Resolved struct {
	Route    string
	Locale   string
	FilePath string
	// Fallback is set when the document came from the default locale.
	Fallback bool
}

// Lookup resolves a route in a locale. With no configured locales the
// only locale is "".
func (r *Registry) Lookup(route, locale string) (Resolved, error) {
	route = pagemap.NormalizeRoute(route)
	s := r.current.Load()
	if s == nil {
		return Resolved{}, &NotFoundError{Route: route, Locale: locale}
	}
	if t, ok := s.Tables[locale]; ok {
		if p, ok := t.Lookup(route); ok {
			return Resolved{Route: route, Locale: locale, FilePath: p}, nil
		}
	} else if !slices.Contains(s.Locales, locale) {
		return Resolved{}, &NotFoundError{Route: route, Locale: locale}
	}
	if r.fallback == FallbackDefault && locale != r.defaultLocale {
		if t, ok := s.Tables[r.defaultLocale]; ok {
			if p, ok := t.Lookup(route); ok {
				return Resolved{Route: route, Locale: r.defaultLocale, FilePath: p, Fallback: true}, nil
			}
		}
	}
	return Resolved{}, &NotFoundError{Route: route, Locale: locale}
}

// StaticParam is one entry of the static path enumeration.
type StaticParam struct {
	Locale   string
	Segments []string
}

// StaticParams enumerates every route of every locale in table order.
func (s *Snapshot) StaticParams() []StaticParam {
	var out []StaticParam
	for _, locale := range s.Locales {
		t := s.Tables[locale]
		for _, route := range t.Routes() {
			out = append(out, StaticParam{Locale: locale, Segments: Segments(route)})
		}
	}
	return out
}
