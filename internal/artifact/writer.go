// Package artifact writes and reads build outputs: one page map module per
// locale, one encoded module per route and a manifest.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

// DefaultLocaleDir names the directory of the unnamed locale.
const DefaultLocaleDir = "_default"

// LocaleDir maps a locale tag to its directory name.
func LocaleDir(locale string) string {
	if locale == "" {
		return DefaultLocaleDir
	}
	return locale
}

// PageMapPath is the slash-separated page map location for a locale.
func PageMapPath(locale string) string {
	return path.Join("pagemap", LocaleDir(locale)+".json")
}

// ModulePath is the slash-separated module location for a route.
func ModulePath(locale, route string) string {
	rel := strings.Trim(route, "/")
	if rel == "" {
		rel = "index"
	}
	return path.Join("modules", LocaleDir(locale), rel+".json")
}

// PageMapModule is the per-locale page map artifact.
type PageMapModule struct {
	PageMap         []pagemap.Item `json:"pageMap"`
	RouteToFilepath *routes.Table  `json:"routeToFilepath"`
}

// Writer writes artifacts below a root directory. It is safe for
// concurrent use.
type Writer struct {
	root string

	mu       sync.Mutex
	manifest Manifest
}

// NewWriter creates a writer for one build.
func NewWriter(root, buildID string, locales []string) *Writer {
	return &Writer{root: root, manifest: Manifest{
		BuildID:   buildID,
		Timestamp: time.Now().UTC(),
		Locales:   append([]string(nil), locales...),
	}}
}

// WritePageMap writes a locale's page map and route table.
func (w *Writer) WritePageMap(locale string, pm *pagemap.PageMap, table *routes.Table) error {
	data, err := json.MarshalIndent(PageMapModule{PageMap: pm.Items(), RouteToFilepath: table}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal page map: %w", err)
	}
	rel := PageMapPath(locale)
	if err := w.write(rel, data); err != nil {
		return err
	}
	w.mu.Lock()
	w.manifest.PageMaps = append(w.manifest.PageMaps, rel)
	w.mu.Unlock()
	return nil
}

// WriteModule writes a compiled module for a route.
func (w *Writer) WriteModule(locale, route string, m *compile.Module) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	rel := ModulePath(locale, route)
	if err := w.write(rel, data); err != nil {
		return err
	}
	w.mu.Lock()
	w.manifest.Modules = append(w.manifest.Modules, ModuleEntry{
		Route:    route,
		Locale:   locale,
		Source:   m.Path,
		Artifact: rel,
		Hash:     contentHash(data),
	})
	w.mu.Unlock()
	return nil
}

// Finish writes the manifest with entries in a stable order.
func (w *Writer) Finish(duration time.Duration) (*Manifest, error) {
	w.mu.Lock()
	m := w.manifest
	m.Duration = duration.Milliseconds()
	m.PageMaps = append([]string(nil), m.PageMaps...)
	m.Modules = append([]ModuleEntry(nil), m.Modules...)
	w.mu.Unlock()

	sort.Strings(m.PageMaps)
	sort.Slice(m.Modules, func(i, j int) bool {
		if m.Modules[i].Locale != m.Modules[j].Locale {
			return m.Modules[i].Locale < m.Modules[j].Locale
		}
		return m.Modules[i].Route < m.Modules[j].Route
	})
	data, err := m.ToJSON()
	if err != nil {
		return nil, err
	}
	if err := w.write(ManifestFile, data); err != nil {
		return nil, err
	}
	return &m, nil
}

func (w *Writer) write(rel string, data []byte) error {
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(full), err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("atomic rename %s: %w", rel, err)
	}
	return nil
}
