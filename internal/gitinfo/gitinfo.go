// Package gitinfo reads source control metadata for a site source directory:
// the checked out commit for the build manifest and per-file last update
// times for docs pages.
package gitinfo

import (
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Head describes the checked out revision.
type Head struct {
	Commit string
	Branch string
	Dirty  bool
}

// Repo wraps the repository containing a site source directory.
type Repo struct {
	repo *git.Repository
	root string
	head plumbing.Hash

	mu    sync.Mutex
	cache map[string]lastUpdate
}

type lastUpdate struct {
	at time.Time
	ok bool
}

// Open finds the repository containing dir. A directory outside any
// repository yields a not_found error.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.NotFoundError("source directory is not a git repository").
				WithPath(dir).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryGit, "open repository").WithPath(dir).Build()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "get worktree").WithPath(dir).Build()
	}

	r := &Repo{repo: repo, root: wt.Filesystem.Root(), cache: make(map[string]lastUpdate)}
	if ref, err := repo.Head(); err == nil {
		r.head = ref.Hash()
	}
	return r, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string { return r.root }

// Head returns the checked out commit, branch and worktree state. A
// repository without commits returns an empty Head.
func (r *Repo) Head() (Head, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return Head{}, nil
		}
		return Head{}, errors.WrapError(err, errors.CategoryGit, "resolve HEAD").Build()
	}

	h := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return Head{}, errors.WrapError(err, errors.CategoryGit, "get worktree").Build()
	}
	status, err := wt.Status()
	if err != nil {
		return Head{}, errors.WrapError(err, errors.CategoryGit, "read worktree status").Build()
	}
	h.Dirty = !status.IsClean()
	return h, nil
}

// LastUpdated returns the committer time of the most recent commit touching
// path. Paths may be absolute or relative to the worktree root. Files that
// were never committed report false.
func (r *Repo) LastUpdated(path string) (time.Time, bool) {
	rel, ok := r.relative(path)
	if !ok || r.head.IsZero() {
		return time.Time{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, hit := r.cache[rel]; hit {
		return cached.at, cached.ok
	}

	entry := r.lookup(rel)
	r.cache[rel] = entry
	return entry.at, entry.ok
}

func (r *Repo) lookup(rel string) lastUpdate {
	iter, err := r.repo.Log(&git.LogOptions{From: r.head, FileName: &rel})
	if err != nil {
		return lastUpdate{}
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil || commit == nil {
		return lastUpdate{}
	}
	return lastUpdate{at: commit.Committer.When.UTC(), ok: true}
}

func (r *Repo) relative(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), true
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
