// Package scan walks a content root and describes its directories,
// documents and ordering files without interpreting them.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
)

// Format is the source dialect of a document.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatMDX      Format = "mdx"
)

// FormatOf reports the dialect implied by a file name.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		return FormatMarkdown, true
	case ".mdx":
		return FormatMDX, true
	}
	return "", false
}

// EntryKind distinguishes documents from sub-directories.
type EntryKind int

const (
	KindDoc EntryKind = iota
	KindDir
)

// Entry is one child of a directory in filesystem enumeration order.
type Entry struct {
	Kind   EntryKind
	Name   string // extension stripped for documents
	Path   string
	Format Format
	Dir    *Dir // set for KindDir
}

// MetaFile is a per-directory ordering file.
type MetaFile struct {
	Path string
}

// Dir describes one scanned directory.
type Dir struct {
	Name    string
	Path    string
	Entries []Entry
	Meta    *MetaFile
}

// Options configures a scan.
type Options struct {
	Locales      []string
	MetaBaseName string
	Logger       *slog.Logger
}

func (o Options) metaBase() string {
	if o.MetaBaseName == "" {
		return "_meta"
	}
	return o.MetaBaseName
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result holds one scanned tree per locale; the unnamed locale is "".
type Result struct {
	Root  string
	Roots map[string]*Dir
}

// metaExtensions lists accepted ordering file extensions. When several
// exist, the first in enumeration order wins.
var metaExtensions = []string{".yaml", ".yml", ".json"}

// Scan walks root. With locales configured, each locale must have its own
// top-level folder.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Path: root, Reason: "invalid content root", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &ScanError{Path: abs, Reason: "content root missing", Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: abs, Reason: "content root is not a directory"}
	}

	res := &Result{Root: abs, Roots: map[string]*Dir{}}
	if len(opts.Locales) == 0 {
		d, err := ScanDir(ctx, abs, opts)
		if err != nil {
			return nil, err
		}
		res.Roots[""] = d
		return res, nil
	}

	for _, locale := range opts.Locales {
		p := filepath.Join(abs, locale)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			return nil, &ScanError{Path: p, Locale: locale, Reason: "locale folder missing", Err: err}
		}
		d, err := ScanDir(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		res.Roots[locale] = d
	}
	return res, nil
}

// ScanDir scans one directory subtree.
func ScanDir(ctx context.Context, path string, opts Options) (*Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &ScanError{Path: path, Reason: "read directory", Err: err}
	}

	d := &Dir{Name: filepath.Base(path), Path: path}
	metaBase := opts.metaBase()
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(path, name)

		if isMetaFile(name, metaBase) && !e.IsDir() {
			if d.Meta != nil {
				opts.logger().Warn("Ignoring duplicate ordering file",
					logfields.File(full), slog.String("using", d.Meta.Path))
				continue
			}
			d.Meta = &MetaFile{Path: full}
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		if e.IsDir() {
			sub, err := ScanDir(ctx, full, opts)
			if err != nil {
				return nil, err
			}
			d.Entries = append(d.Entries, Entry{Kind: KindDir, Name: name, Path: full, Dir: sub})
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(full); err != nil || fi.IsDir() {
				continue
			}
		}
		format, ok := FormatOf(name)
		if !ok {
			continue
		}
		d.Entries = append(d.Entries, Entry{
			Kind:   KindDoc,
			Name:   strings.TrimSuffix(name, filepath.Ext(name)),
			Path:   full,
			Format: format,
		})
	}
	return d, nil
}

func isMetaFile(name, base string) bool {
	for _, ext := range metaExtensions {
		if name == base+ext {
			return true
		}
	}
	return false
}

// Find returns the scanned directory at path within d, or nil.
func (d *Dir) Find(path string) *Dir {
	if d == nil {
		return nil
	}
	if d.Path == path {
		return d
	}
	for _, e := range d.Entries {
		if e.Kind == KindDir && strings.HasPrefix(path, e.Path) {
			if found := e.Dir.Find(path); found != nil {
				return found
			}
		}
	}
	return nil
}

// Documents returns every document path under d in enumeration order.
func (d *Dir) Documents() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Kind == KindDir {
			out = append(out, e.Dir.Documents()...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// SourceFile is the immutable input to one compilation.
type SourceFile struct {
	Path    string
	Format  Format
	Locale  string
	Content []byte
}

// ReadSource reads a document from disk.
func ReadSource(path, locale string) (SourceFile, error) {
	format, ok := FormatOf(path)
	if !ok {
		return SourceFile{}, fmt.Errorf("%w: %s", ErrNotDocument, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return SourceFile{Path: path, Format: format, Locale: locale, Content: content}, nil
}
