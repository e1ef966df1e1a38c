package pageload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pagecompiler/internal/artifact"
	"git.home.luguber.info/inful/pagecompiler/internal/cache"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// CompilingLoader reads and compiles sources on demand through a cache.
type CompilingLoader struct {
	Cache *cache.Cache
}

func (c *CompilingLoader) Load(ctx context.Context, req compile.Request, locale string) (*compile.Module, error) {
	src, err := scan.ReadSource(req.Path, locale)
	if err != nil {
		return nil, err
	}
	return c.Cache.Get(ctx, src, req.Mode)
}

// ArtifactLoader serves modules written by a build.
type ArtifactLoader struct {
	dir     string
	modules map[string]artifact.ModuleEntry
}

// NewArtifactLoader indexes the manifest of an output directory.
func NewArtifactLoader(dir string) (*ArtifactLoader, error) {
	m, err := artifact.ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	l := &ArtifactLoader{dir: dir, modules: make(map[string]artifact.ModuleEntry, len(m.Modules))}
	for _, e := range m.Modules {
		l.modules[artifactKey(e.Locale, e.Source)] = e
	}
	return l, nil
}

func artifactKey(locale, source string) string {
	return locale + "\x00" + source
}

func (a *ArtifactLoader) Load(_ context.Context, req compile.Request, locale string) (*compile.Module, error) {
	e, ok := a.modules[artifactKey(locale, req.Path)]
	if !ok {
		return nil, fmt.Errorf("no artifact for %s (locale %q)", req.Path, locale)
	}
	data, err := os.ReadFile(filepath.Join(a.dir, filepath.FromSlash(e.Artifact)))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	m, err := compile.Decode(data)
	if err != nil {
		return nil, err
	}
	if req.Mode == compile.ModeMetadata && m.Mode == compile.ModeFull {
		return &compile.Module{Path: m.Path, Locale: m.Locale, Mode: compile.ModeMetadata, Metadata: m.Metadata}, nil
	}
	return m, nil
}
