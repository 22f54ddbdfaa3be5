// Package source exposes libgit2 repositories as mining input: commits and
// their file changes, and cloned working copies with a managed lifetime.
package source

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib"
)

// commit adapts a gitlib commit. It is only valid while the underlying
// commit handle is alive, i.e. inside the Walk callback.
type commit struct {
	repo   *gitlib.Repository
	commit *gitlib.Commit
}

var _ mining.Commit = (*commit)(nil)

func (c *commit) ID() string {
	return c.commit.Hash().String()
}

func (c *commit) ParentIDs() []string {
	hashes := c.commit.ParentHashes()
	ids := make([]string, len(hashes))

	for i, hash := range hashes {
		ids[i] = hash.String()
	}

	return ids
}

func (c *commit) Message() string {
	return c.commit.Message()
}

// Changes diffs the commit tree against its first parent, or against the
// empty tree for a root commit.
func (c *commit) Changes(_ context.Context) ([]mining.FileChange, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	var parentTree *gitlib.Tree

	if c.commit.NumParents() > 0 {
		parent, parentErr := c.commit.Parent(0)
		if parentErr != nil {
			return nil, fmt.Errorf("commit %s: %w", c.commit.Hash(), parentErr)
		}
		defer parent.Free()

		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
		defer parentTree.Free()
	}

	changes, err := gitlib.TreeDiff(c.repo, parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", c.commit.Hash(), err)
	}

	out := make([]mining.FileChange, 0, len(changes))
	for _, change := range changes {
		out = append(out, &fileChange{repo: c.repo, change: change})
	}

	return out, nil
}

// fileChange reads blobs lazily so that skipped files are never loaded.
type fileChange struct {
	repo   *gitlib.Repository
	change *gitlib.Change
}

var _ mining.FileChange = (*fileChange)(nil)

func (f *fileChange) OldPath() string { return f.change.From.Name }
func (f *fileChange) NewPath() string { return f.change.To.Name }

// Kind maps the tree diff action. A rename that edited the file counts as a
// modification.
func (f *fileChange) Kind() mining.ChangeKind {
	switch f.change.Action {
	case gitlib.Insert:
		return mining.Added
	case gitlib.Delete:
		return mining.Deleted
	case gitlib.Rename:
		if f.change.ContentChanged() {
			return mining.Modified
		}

		return mining.Renamed
	default:
		return mining.Modified
	}
}

func (f *fileChange) OldContent(_ context.Context) ([]byte, error) {
	return f.repo.BlobContents(f.change.From.Hash)
}

func (f *fileChange) NewContent(_ context.Context) ([]byte, error) {
	return f.repo.BlobContents(f.change.To.Hash)
}
