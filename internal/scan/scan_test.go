package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestScan_EnumeratesDocumentsDirsAndMeta(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.mdx":        "# Home",
		"b.md":             "b",
		"a.md":             "a",
		"_meta.yaml":       "a: A",
		"_app.mdx":         "private",
		".hidden.md":       "x",
		"image.png":        "png",
		"guide/intro.mdx":  "x",
		"guide/_meta.json": "{}",
		"guide/_meta.yaml": "dup: x",
	})

	res, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)
	d := res.Roots[""]
	require.NotNil(t, d)

	assert.Equal(t, []string{"a", "b", "guide", "index"}, names(d.Entries))
	require.NotNil(t, d.Meta)
	assert.Equal(t, filepath.Join(root, "_meta.yaml"), d.Meta.Path)
	assert.Equal(t, FormatMDX, d.Entries[3].Format)

	guide := d.Entries[2].Dir
	require.NotNil(t, guide)
	assert.Equal(t, []string{"intro"}, names(guide.Entries))
	assert.Equal(t, filepath.Join(root, "guide", "_meta.json"), guide.Meta.Path)
}

func TestScan_MissingRootIsScanError(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	var serr *ScanError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, ferrors.CategoryScan, ferrors.GetCategory(err))
}

func TestScan_MissingLocaleFolderIsScanError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"en/index.md": "x"})

	_, err := Scan(context.Background(), root, Options{Locales: []string{"en", "de"}})
	var serr *ScanError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "de", serr.Locale)
}

func TestScan_PerLocaleRoots(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"en/index.md": "x", "de/index.md": "y"})

	res, err := Scan(context.Background(), root, Options{Locales: []string{"en", "de"}})
	require.NoError(t, err)
	require.Len(t, res.Roots, 2)
	require.Equal(t, []string{"index"}, names(res.Roots["de"].Entries))
}

func TestDir_FindAndDocuments(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/b/c.md": "x", "a/d.md": "y"})
	d, err := ScanDir(context.Background(), root, Options{})
	require.NoError(t, err)

	found := d.Find(filepath.Join(root, "a", "b"))
	require.NotNil(t, found)
	require.Equal(t, "b", found.Name)
	require.Len(t, d.Documents(), 2)
}

func TestReadSource_DetectsFormat(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"x.mdx": "hello"})
	src, err := ReadSource(filepath.Join(root, "x.mdx"), "en")
	require.NoError(t, err)
	require.Equal(t, FormatMDX, src.Format)
	require.Equal(t, "en", src.Locale)
	require.Equal(t, []byte("hello"), src.Content)

	_, err = ReadSource(filepath.Join(root, "x.txt"), "")
	require.ErrorIs(t, err, ErrNotDocument)
}
