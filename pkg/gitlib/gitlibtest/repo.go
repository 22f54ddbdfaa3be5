// Package gitlibtest builds throwaway git repositories for tests.
package gitlibtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib"
)

// Repo is a non-bare repository in a temporary directory. Files are written
// to the working tree and every commit stages the whole tree.
type Repo struct {
	t      testing.TB
	path   string
	native *git2go.Repository
	when   time.Time
}

// New initializes an empty repository. It is freed when the test ends.
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &Repo{
		t:      t,
		path:   dir,
		native: repo,
		when:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Path returns the working tree directory.
func (r *Repo) Path() string {
	return r.path
}

// Write creates or overwrites a file in the working tree.
func (r *Repo) Write(name, content string) {
	r.t.Helper()

	path := filepath.Join(r.path, name)

	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// Remove deletes a file from the working tree.
func (r *Repo) Remove(name string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.path, name)))
}

// Rename moves a file inside the working tree.
func (r *Repo) Rename(oldName, newName string) {
	r.t.Helper()

	newPath := filepath.Join(r.path, newName)

	require.NoError(r.t, os.MkdirAll(filepath.Dir(newPath), 0o755))
	require.NoError(r.t, os.Rename(filepath.Join(r.path, oldName), newPath))
}

// Commit stages the working tree and commits it on top of HEAD.
func (r *Repo) Commit(message string) gitlib.Hash {
	r.t.Helper()

	return r.create("HEAD", message, r.headParents()...)
}

// Side commits the working tree on top of HEAD without moving HEAD, which
// yields a second branch tip for Merge.
func (r *Repo) Side(message string) gitlib.Hash {
	r.t.Helper()

	return r.create("", message, r.headParents()...)
}

// Merge commits the working tree with HEAD and other as parents.
func (r *Repo) Merge(message string, other gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	return r.create("HEAD", message, append(r.headParents(), other)...)
}

func (r *Repo) headParents() []gitlib.Hash {
	head, err := r.native.Head()
	if err != nil {
		return nil
	}
	defer head.Free()

	return []gitlib.Hash{gitlib.HashFromOid(head.Target())}
}

func (r *Repo) create(ref, message string, parents ...gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	require.NoError(r.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(r.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(r.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	defer tree.Free()

	parentCommits := make([]*git2go.Commit, 0, len(parents))

	for _, parent := range parents {
		commit, lookupErr := r.native.LookupCommit(parent.ToOid())
		require.NoError(r.t, lookupErr)

		defer commit.Free()

		parentCommits = append(parentCommits, commit)
	}

	r.when = r.when.Add(time.Minute)

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  r.when,
	}

	oid, err := r.native.CreateCommit(ref, sig, sig, message, tree, parentCommits...)
	require.NoError(r.t, err)

	return gitlib.HashFromOid(oid)
}
