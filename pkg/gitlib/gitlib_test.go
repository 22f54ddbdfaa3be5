package gitlib_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib"
	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib/gitlibtest"
)

func open(t *testing.T, path string) *gitlib.Repository {
	t.Helper()

	repo, err := gitlib.OpenRepository(path)
	require.NoError(t, err)
	t.Cleanup(repo.Free)

	return repo
}

func TestParseHash(t *testing.T) {
	t.Parallel()

	const hexID = "00000000000000000000000000000000000000ff"

	hash, err := gitlib.ParseHash(hexID)
	require.NoError(t, err)
	assert.Equal(t, hexID, hash.String())
	assert.False(t, hash.IsZero())

	_, err = gitlib.ParseHash("abc")
	require.ErrorIs(t, err, gitlib.ErrInvalidHash)

	_, err = gitlib.ParseHash("zz00000000000000000000000000000000000000")
	require.ErrorIs(t, err, gitlib.ErrInvalidHash)
}

func TestHashFromNilOid(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlib.HashFromOid(nil).IsZero())
}

func TestOpenRepositoryNotFound(t *testing.T) {
	t.Parallel()

	repo, err := gitlib.OpenRepository(filepath.Join(t.TempDir(), "missing"))

	assert.Nil(t, repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repository")
}

func TestHeadOfEmptyRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	repo := open(t, tr.Path())

	_, err := repo.Head()
	require.ErrorIs(t, err, gitlib.ErrEmptyRepository)

	_, err = repo.Log(nil)
	require.ErrorIs(t, err, gitlib.ErrEmptyRepository)
}

func TestRepositoryFreeTwice(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("x.txt", "x")
	tr.Commit("init")

	repo, err := gitlib.OpenRepository(tr.Path())
	require.NoError(t, err)

	repo.Free()
	repo.Free()
}

func TestLogNewestFirst(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "one\n")
	first := tr.Commit("first")
	tr.Write("a.txt", "two\n")
	second := tr.Commit("second")
	tr.Write("a.txt", "three\n")
	third := tr.Commit("third")

	repo := open(t, tr.Path())

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, third, head)

	iter, err := repo.Log(nil)
	require.NoError(t, err)

	var seen []gitlib.Hash

	err = iter.ForEach(func(c *gitlib.Commit) error {
		seen = append(seen, c.Hash())

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []gitlib.Hash{third, second, first}, seen)
}

func TestCommitIterStopsWithEOF(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "one\n")
	tr.Commit("only")

	repo := open(t, tr.Path())

	iter, err := repo.Log(nil)
	require.NoError(t, err)

	commit, err := iter.Next()
	require.NoError(t, err)
	commit.Free()

	_, err = iter.Next()
	require.ErrorIs(t, err, io.EOF)

	_, err = iter.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestForEachPropagatesCallbackError(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "one\n")
	tr.Commit("one")
	tr.Write("a.txt", "two\n")
	tr.Commit("two")

	repo := open(t, tr.Path())

	iter, err := repo.Log(nil)
	require.NoError(t, err)

	errStop := errors.New("stop")
	calls := 0

	err = iter.ForEach(func(*gitlib.Commit) error {
		calls++

		return errStop
	})
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, calls)
}

func TestCommitParents(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "base\n")
	root := tr.Commit("root")
	tr.Write("b.txt", "side\n")
	side := tr.Side("side")
	tr.Write("c.txt", "merge\n")
	merge := tr.Merge("merge", side)

	repo := open(t, tr.Path())

	rootCommit, err := repo.LookupCommit(root)
	require.NoError(t, err)

	defer rootCommit.Free()

	assert.Equal(t, 0, rootCommit.NumParents())
	assert.Empty(t, rootCommit.ParentHashes())

	_, err = rootCommit.Parent(0)
	require.ErrorIs(t, err, gitlib.ErrParentNotFound)

	mergeCommit, err := repo.LookupCommit(merge)
	require.NoError(t, err)

	defer mergeCommit.Free()

	assert.Equal(t, "merge", mergeCommit.Message())
	assert.Equal(t, []gitlib.Hash{root, side}, mergeCommit.ParentHashes())

	parent, err := mergeCommit.Parent(1)
	require.NoError(t, err)

	defer parent.Free()

	assert.Equal(t, side, parent.Hash())
}

func changesBetween(t *testing.T, repo *gitlib.Repository, hash gitlib.Hash) gitlib.Changes {
	t.Helper()

	commit, err := repo.LookupCommit(hash)
	require.NoError(t, err)

	defer commit.Free()

	tree, err := commit.Tree()
	require.NoError(t, err)

	defer tree.Free()

	var parentTree *gitlib.Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		require.NoError(t, parentErr)

		defer parent.Free()

		parentTree, err = parent.Tree()
		require.NoError(t, err)

		defer parentTree.Free()
	}

	changes, err := gitlib.TreeDiff(repo, parentTree, tree)
	require.NoError(t, err)

	return changes
}

func TestTreeDiffActions(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("keep.txt", "alpha\nbeta\n")
	tr.Write("gone.txt", "bye\n")
	tr.Commit("init")
	tr.Write("keep.txt", "alpha\nbeat\n")
	tr.Write("new.txt", "hello\n")
	tr.Remove("gone.txt")
	hash := tr.Commit("edit")

	repo := open(t, tr.Path())

	byPath := make(map[string]*gitlib.Change)

	for _, change := range changesBetween(t, repo, hash) {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}

		byPath[name] = change
	}

	require.Len(t, byPath, 3)
	assert.Equal(t, gitlib.Modify, byPath["keep.txt"].Action)
	assert.True(t, byPath["keep.txt"].ContentChanged())
	assert.Equal(t, gitlib.Insert, byPath["new.txt"].Action)
	assert.True(t, byPath["new.txt"].From.Hash.IsZero())
	assert.Equal(t, gitlib.Delete, byPath["gone.txt"].Action)
	assert.True(t, byPath["gone.txt"].To.Hash.IsZero())

	data, err := repo.BlobContents(byPath["keep.txt"].To.Hash)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeat\n", string(data))
}

func TestTreeDiffDetectsRename(t *testing.T) {
	t.Parallel()

	content := "line one\nline two\nline three\nline four\nline five\n"

	tr := gitlibtest.New(t)
	tr.Write("old.txt", content)
	tr.Commit("init")
	tr.Rename("old.txt", "moved.txt")
	hash := tr.Commit("move")

	repo := open(t, tr.Path())
	changes := changesBetween(t, repo, hash)

	require.Len(t, changes, 1)
	assert.Equal(t, gitlib.Rename, changes[0].Action)
	assert.Equal(t, "old.txt", changes[0].From.Name)
	assert.Equal(t, "moved.txt", changes[0].To.Name)
	assert.False(t, changes[0].ContentChanged())
}

func TestTreeDiffRootCommit(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "a\n")
	tr.Write("dir/b.txt", "b\n")
	hash := tr.Commit("root")

	repo := open(t, tr.Path())
	changes := changesBetween(t, repo, hash)

	require.Len(t, changes, 2)

	for _, change := range changes {
		assert.Equal(t, gitlib.Insert, change.Action)
	}
}

func TestChangeActionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", gitlib.Insert.String())
	assert.Equal(t, "D", gitlib.Delete.String())
	assert.Equal(t, "M", gitlib.Modify.String())
	assert.Equal(t, "R", gitlib.Rename.String())
	assert.Equal(t, "?", gitlib.ChangeAction(42).String())
}

func TestCloneRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "a\n")
	head := tr.Commit("root")

	dir := filepath.Join(t.TempDir(), "clone.git")

	repo, err := gitlib.CloneRepository(context.Background(), tr.Path(), dir)
	require.NoError(t, err)

	defer repo.Free()

	assert.True(t, repo.Native().IsBare())

	got, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head, got)
}

func TestCloneRepositoryFailure(t *testing.T) {
	t.Parallel()

	_, err := gitlib.CloneRepository(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "dst"))
	require.Error(t, err)
}
