package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "pagemap/_default.json", PageMapPath(""))
	assert.Equal(t, "pagemap/en.json", PageMapPath("en"))
	assert.Equal(t, "modules/_default/index.json", ModulePath("", "/"))
	assert.Equal(t, "modules/de/docs/setup.json", ModulePath("de", "/docs/setup"))
}

func TestWriterProducesPageMapModulesAndManifest(t *testing.T) {
	content := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(content, "index.md"), []byte("# Home\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(content, "guide.md"), []byte("# Guide\n"), 0o600))

	dir, err := scan.ScanDir(context.Background(), content, scan.Options{})
	require.NoError(t, err)
	pm, _, err := (&pagemap.Builder{}).Build(context.Background(), dir, "")
	require.NoError(t, err)
	table, err := routes.Compile(pm)
	require.NoError(t, err)

	out := t.TempDir()
	w := NewWriter(out, "build-1", []string{""})
	require.NoError(t, w.WritePageMap("", pm, table))

	c := compile.New(compile.Options{})
	for _, route := range table.Routes() {
		p, _ := table.Lookup(route)
		src, err := scan.ReadSource(p, "")
		require.NoError(t, err)
		m, err := c.Compile(context.Background(), src)
		require.NoError(t, err)
		require.NoError(t, w.WriteModule("", route, m))
	}
	_, err = w.Finish(time.Second)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, "pagemap", "_default.json"))
	require.NoError(t, err)
	var pmFile struct {
		PageMap         []map[string]any  `json:"pageMap"`
		RouteToFilepath map[string]string `json:"routeToFilepath"`
	}
	require.NoError(t, json.Unmarshal(raw, &pmFile))
	assert.Equal(t, filepath.Join(content, "guide.md"), pmFile.RouteToFilepath["/guide"])
	assert.NotEmpty(t, pmFile.PageMap)

	manifest, err := ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, "build-1", manifest.BuildID)
	assert.Equal(t, int64(1000), manifest.Duration)
	require.Len(t, manifest.Modules, 2)
	assert.Equal(t, "/", manifest.Modules[0].Route)
	assert.Equal(t, "/guide", manifest.Modules[1].Route)

	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(manifest.Modules[1].Artifact)))
	require.NoError(t, err)
	m, err := compile.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Guide", m.Metadata.Title)
}

func TestStagingPromoteReplacesOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(output, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(output, "old.txt"), []byte("old"), 0o600))

	s, err := BeginStaging(output)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "new.txt"), []byte("new"), 0o600))
	require.NoError(t, s.Promote())

	assert.FileExists(t, filepath.Join(output, "new.txt"))
	assert.NoFileExists(t, filepath.Join(output, "old.txt"))
	assert.NoDirExists(t, output+".prev")
}

func TestStagingAbortKeepsOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(output, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(output, "old.txt"), []byte("old"), 0o600))

	s, err := BeginStaging(output)
	require.NoError(t, err)
	stage := s.Dir()
	s.Abort()

	assert.NoDirExists(t, stage)
	assert.FileExists(t, filepath.Join(output, "old.txt"))
	assert.Error(t, s.Promote())
}
