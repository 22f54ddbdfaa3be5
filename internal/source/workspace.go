package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib"
)

// ErrForeignRepository is returned by Release for repositories that were not
// acquired from the same Workspaces.
var ErrForeignRepository = errors.New("repository was not acquired here")

const cloneDirName = "git"

// Repository is an opened working copy.
type Repository struct {
	url   string
	dir   string
	owned bool
	repo  *gitlib.Repository
}

var _ batch.Repository = (*Repository)(nil)

// URL returns the address the repository was acquired from.
func (r *Repository) URL() string {
	return r.url
}

// Dir returns the directory holding the repository.
func (r *Repository) Dir() string {
	return r.dir
}

// Walk calls fn for every commit reachable from HEAD, newest first.
func (r *Repository) Walk(ctx context.Context, fn func(mining.Commit) error) error {
	iter, err := r.repo.Log(nil)
	if errors.Is(err, gitlib.ErrEmptyRepository) {
		return fmt.Errorf("%s: %w", r.url, batch.ErrEmptyRepository)
	}

	if err != nil {
		return err
	}

	return iter.ForEach(func(c *gitlib.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return fn(&commit{repo: r.repo, commit: c})
	})
}

// Workspaces clones remote repositories into fresh directories under a root
// and removes them on release. Local directories are opened in place and
// left untouched.
type Workspaces struct {
	root    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ batch.Workspaces = (*Workspaces)(nil)

// NewWorkspaces creates the root directory if needed. clonesPerSecond paces
// clones; zero or less means unlimited.
func NewWorkspaces(root string, clonesPerSecond float64, burst int, logger *slog.Logger) (*Workspaces, error) {
	err := os.MkdirAll(root, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	limit := rate.Inf
	if clonesPerSecond > 0 {
		limit = rate.Limit(clonesPerSecond)
	}

	if burst < 1 {
		burst = 1
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Workspaces{root: root, limiter: rate.NewLimiter(limit, burst), logger: logger}, nil
}

// Acquire opens url when it is a local directory, otherwise clones it.
func (w *Workspaces) Acquire(ctx context.Context, url string) (batch.Repository, error) {
	if info, err := os.Stat(url); err == nil && info.IsDir() {
		repo, openErr := gitlib.OpenRepository(url)
		if openErr != nil {
			return nil, openErr
		}

		return &Repository{url: url, dir: url, repo: repo}, nil
	}

	err := w.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for clone slot: %w", err)
	}

	dir, err := os.MkdirTemp(w.root, "repo-")
	if err != nil {
		return nil, fmt.Errorf("create clone dir: %w", err)
	}

	w.logger.DebugContext(ctx, "cloning", "repo", url, "dir", dir)

	repo, err := gitlib.CloneRepository(ctx, url, filepath.Join(dir, cloneDirName))
	if err != nil {
		removeErr := os.RemoveAll(dir)

		return nil, errors.Join(err, removeErr)
	}

	return &Repository{url: url, dir: dir, owned: true, repo: repo}, nil
}

// Release frees the repository and deletes cloned directories.
func (w *Workspaces) Release(r batch.Repository) error {
	repo, ok := r.(*Repository)
	if !ok {
		return ErrForeignRepository
	}

	repo.repo.Free()

	if !repo.owned {
		return nil
	}

	err := os.RemoveAll(repo.dir)
	if err != nil {
		return fmt.Errorf("remove %s: %w", repo.dir, err)
	}

	return nil
}
