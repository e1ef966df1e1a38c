// Package gitinfo reads last-commit timestamps for content files.
package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
)

// Timestamps resolves the time of the last commit touching a file. Results
// are memoized per path until Forget is called.
type Timestamps struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	known map[string]stamp
}

type stamp struct {
	at time.Time
	ok bool
}

// Open finds the repository containing dir.
func Open(dir string) (*Timestamps, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Timestamps{repo: repo, root: root, known: map[string]stamp{}}, nil
}

// Timestamp returns the commit time of the last commit touching path.
// ok is false for files never committed.
func (t *Timestamps) Timestamp(ctx context.Context, path string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, err
	}
	rel, err := filepath.Rel(t.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return time.Time{}, false, nil
	}
	rel = filepath.ToSlash(rel)

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.known[rel]; ok {
		return s.at, s.ok, nil
	}

	s, err := t.lastCommit(rel)
	if err != nil {
		return time.Time{}, false, err
	}
	t.known[rel] = s
	return s.at, s.ok, nil
}

func (t *Timestamps) lastCommit(rel string) (stamp, error) {
	head, err := t.repo.Head()
	if err != nil {
		// An empty repository has no HEAD yet.
		return stamp{}, nil
	}
	iter, err := t.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel})
	if err != nil {
		return stamp{}, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if errors.Is(err, io.EOF) {
		return stamp{}, nil
	}
	if err != nil {
		return stamp{}, fmt.Errorf("git log %s: %w", rel, err)
	}
	return stamp{at: c.Committer.When, ok: true}, nil
}

// Forget drops every memoized timestamp, e.g. after a new commit.
func (t *Timestamps) Forget() {
	t.mu.Lock()
	t.known = map[string]stamp{}
	t.mu.Unlock()
}
