package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecompiler/internal/artifact"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	var out bytes.Buffer
	global := &Global{Out: &out}
	parser, err := kong.New(&cli, Vars("test"), kong.Bind(global), kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = ctx.Run(global, &cli)
	return out.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["pagecompiler.yaml"] = "content_dir: content\noutput_dir: out\nlogging:\n  level: warn\n"
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func TestBuildCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"content/index.md":      "# Home\n",
		"content/docs/start.md": "# Start\n",
	})
	out, err := run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 modules")

	m, err := artifact.ReadManifest(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, m.Modules, 2)
}

func TestBuildCommandFailureMapsExitCode(t *testing.T) {
	dir := writeProject(t, map[string]string{"content/a.md": "---\ntitle: x\n"})
	_, err := run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "build")
	require.Error(t, err)
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRoutesCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"content/index.md":      "# Home\n",
		"content/docs/start.md": "# Start\n",
	})
	out, err := run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/docs/start")
	assert.Contains(t, out, filepath.Join(dir, "content", "index.md"))

	_, err = run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "routes", "--locale", "fr")
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCompileCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{"content/page.md": "---\ntitle: Page\n---\n\n## Part\n"})
	file := filepath.Join(dir, "content", "page.md")

	out, err := run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "compile", file)
	require.NoError(t, err)
	var m compile.Module
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, compile.ModeFull, m.Mode)
	assert.Equal(t, "Page", m.Metadata.Title)
	assert.NotEmpty(t, m.TOC)

	out, err = run(t, "-c", filepath.Join(dir, "pagecompiler.yaml"), "compile", file+"?metadata")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, compile.ModeMetadata, m.Mode)
}

func TestTsdocCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "props.ts")
	require.NoError(t, os.WriteFile(file, []byte("export interface Props {\n  /** The label. */\n  label: string\n}\n"), 0o600))

	out, err := run(t, "tsdoc", file, "--export", "Props")
	require.NoError(t, err)
	assert.Contains(t, out, `"label"`)

	out, err = run(t, "tsdoc", file, "--export", "Props", "--table")
	require.NoError(t, err)
	assert.Contains(t, out, "<table")

	_, err = run(t, "tsdoc", file, "--export", "Missing")
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagecompiler.yaml")
	out, err := run(t, "-c", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "-c", path, "init")
	require.Error(t, err)
	_, err = run(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}
