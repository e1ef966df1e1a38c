package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecompiler/internal/artifact"
	"git.home.luguber.info/inful/pagecompiler/internal/cache"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	stages   map[string]metrics.ResultLabel
	routes   map[string]int
}

func newOutcomeRecorder() *outcomeRecorder {
	return &outcomeRecorder{stages: map[string]metrics.ResultLabel{}, routes: map[string]int{}}
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = res
}

func (r *outcomeRecorder) SetRoutes(locale string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[locale] = n
}

func newBuilder(t *testing.T, cfg *config.Config) *Builder {
	t.Helper()
	opts, err := CompileOptions(cfg, nil)
	require.NoError(t, err)
	return &Builder{
		Config:   cfg,
		Compiler: compile.New(opts),
		Registry: routes.NewRegistry(FallbackFor(cfg), cfg.DefaultLocale),
	}
}

func testConfig(content string) *config.Config {
	cfg := config.Default()
	cfg.ContentDir = content
	cfg.OutputDir = filepath.Join(filepath.Dir(content), "out")
	return cfg
}

func TestBuildWritesArtifacts(t *testing.T) {
	content := writeTree(t, map[string]string{
		"index.md":        "# Home\n",
		"docs/intro.md":   "---\ntitle: Intro\n---\n\n## Start\n",
		"docs/_meta.yaml": "intro: Introduction\n",
	})
	cfg := testConfig(content)
	rec := newOutcomeRecorder()
	b := newBuilder(t, cfg)
	b.Recorder = rec

	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Report.Outcome)
	assert.Equal(t, 2, res.Report.Documents)
	assert.Equal(t, 2, res.Report.Modules)
	assert.Equal(t, map[string]int{"": 2}, res.Report.Routes)

	m, err := artifact.ReadManifest(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, res.Report.BuildID, m.BuildID)
	assert.Equal(t, []string{"pagemap/_default.json"}, m.PageMaps)
	require.Len(t, m.Modules, 2)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "modules", "_default", "docs", "intro.json"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, ReportFile))
	assert.NoDirExists(t, cfg.OutputDir+"_stage")

	snap := b.Registry.Snapshot()
	require.NotNil(t, snap)
	r, err := b.Registry.Lookup("/docs/intro", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(content, "docs", "intro.md"), r.FilePath)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, rec.stages[string(StageFinalize)])
	assert.Equal(t, 2, rec.routes[""])
}

func TestBuildFailureLeavesOutputUntouched(t *testing.T) {
	content := writeTree(t, map[string]string{
		"index.md":  "# Home\n",
		"broken.md": "---\ntitle: [unterminated\n---\n",
	})
	cfg := testConfig(content)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o750))
	marker := filepath.Join(cfg.OutputDir, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("old"), 0o600))

	rec := newOutcomeRecorder()
	b := newBuilder(t, cfg)
	b.Recorder = rec

	res, err := b.Build(context.Background())
	require.Error(t, err)
	var ce *compile.CompileError
	require.ErrorAs(t, err, &ce)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StagePageMap, se.Stage)

	assert.Equal(t, OutcomeFailed, res.Report.Outcome)
	assert.FileExists(t, marker)
	assert.NoDirExists(t, cfg.OutputDir+"_stage")
	assert.Nil(t, b.Registry.Snapshot())
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)
}

func TestBuildDuplicateRouteAborts(t *testing.T) {
	content := writeTree(t, map[string]string{"a.md": "# A\n", "a.mdx": "# A\n"})
	b := newBuilder(t, testConfig(content))

	_, err := b.Build(context.Background())
	var dup *routes.DuplicateRouteError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/a", dup.Route)
}

func TestBuildCanceled(t *testing.T) {
	content := writeTree(t, map[string]string{"index.md": "# Home\n"})
	b := newBuilder(t, testConfig(content))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := b.Build(ctx)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, OutcomeCanceled, res.Report.Outcome)
}

func TestBuildLocales(t *testing.T) {
	content := writeTree(t, map[string]string{
		"en/index.md": "# Home\n",
		"en/about.md": "# About\n",
		"de/index.md": "# Start\n",
	})
	cfg := testConfig(content)
	cfg.Locales = []string{"en", "de"}
	cfg.DefaultLocale = "en"
	cfg.LocaleFallback = config.LocaleFallbackDefault
	b := newBuilder(t, cfg)

	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"en": 2, "de": 1}, res.Report.Routes)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "pagemap", "de.json"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "modules", "en", "about.json"))

	r, err := b.Registry.Lookup("/about", "de")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
}

func TestIndexPublishesWithoutOutput(t *testing.T) {
	content := writeTree(t, map[string]string{"index.md": "# Home\n"})
	cfg := testConfig(content)
	b := newBuilder(t, cfg)
	b.Cache = cache.New(b.Compiler, cache.Options{})

	res, err := b.Index(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Manifest)
	assert.NotNil(t, b.Registry.Snapshot())
	assert.NoDirExists(t, cfg.OutputDir)
	assert.Equal(t, 1, b.Cache.Len())
}

func TestCompileOptions(t *testing.T) {
	cfg := config.Default()
	cfg.ContentDir = t.TempDir()
	cfg.Math.InlineMath = []string{"$", "$"}
	cfg.Math.Src = "https://cdn.example.com/mathjax.js"
	cfg.GitTimestamps = true

	opts, err := CompileOptions(cfg, nil)
	require.NoError(t, err)
	assert.True(t, opts.Math)
	assert.Equal(t, [2]string{"$", "$"}, opts.MathOptions.InlineMath)
	assert.Equal(t, [2]string{`\[`, `\]`}, opts.MathOptions.DisplayMath)
	assert.Equal(t, "https://cdn.example.com/mathjax.js", opts.MathOptions.Src)
	assert.Nil(t, opts.Timestamps)
	assert.True(t, filepath.IsAbs(opts.Root))
}

func TestReportSummary(t *testing.T) {
	r := newReport("id", []string{""})
	r.Routes[""] = 3
	r.Modules = 3
	r.Start = time.Now().Add(-time.Second)
	r.Finish()
	assert.Contains(t, r.Summary(), "routes=3")
	assert.Contains(t, r.Summary(), "outcome=success")
}
