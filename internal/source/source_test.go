package source_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/internal/source"
	"github.com/Sumatoshi-tech/typocorpus/pkg/gitlib/gitlibtest"
)

func newWorkspaces(t *testing.T) *source.Workspaces {
	t.Helper()

	ws, err := source.NewWorkspaces(t.TempDir(), 0, 1, nil)
	require.NoError(t, err)

	return ws
}

func acquire(t *testing.T, ws *source.Workspaces, url string) batch.Repository {
	t.Helper()

	repo, err := ws.Acquire(context.Background(), url)
	require.NoError(t, err)

	t.Cleanup(func() { _ = ws.Release(repo) })

	return repo
}

type walked struct {
	id      string
	parents []string
	message string
	kinds   map[string]mining.ChangeKind
	paths   map[string]string
}

func walkAll(t *testing.T, repo batch.Repository) []walked {
	t.Helper()

	var out []walked

	err := repo.Walk(context.Background(), func(c mining.Commit) error {
		w := walked{
			id:      c.ID(),
			parents: c.ParentIDs(),
			message: c.Message(),
			kinds:   make(map[string]mining.ChangeKind),
			paths:   make(map[string]string),
		}

		changes, err := c.Changes(context.Background())
		if err != nil {
			return err
		}

		for _, ch := range changes {
			name := ch.NewPath()
			if name == "" {
				name = ch.OldPath()
			}

			w.kinds[name] = ch.Kind()
			w.paths[name] = ch.OldPath()
		}

		out = append(out, w)

		return nil
	})
	require.NoError(t, err)

	return out
}

func numbered(prefix string, n int) string {
	var b strings.Builder

	for i := range n {
		fmt.Fprintf(&b, "%s %d\n", prefix, i)
	}

	return b.String()
}

func TestWalkAdaptsCommits(t *testing.T) {
	t.Parallel()

	body := numbered("moved content line", 30)
	other := numbered("edited content entry", 30)

	tr := gitlibtest.New(t)
	tr.Write("keep.txt", "teh cat\n")
	tr.Write("move.txt", body)
	tr.Write("edit-move.txt", other)
	tr.Write("gone.txt", "x\n")
	root := tr.Commit("root")

	tr.Write("keep.txt", "the cat\n")
	tr.Rename("move.txt", "moved.txt")
	tr.Rename("edit-move.txt", "edited.txt")
	tr.Write("edited.txt", other+"six entries\n")
	tr.Remove("gone.txt")
	tr.Write("new.txt", "n\n")
	second := tr.Commit("fix typo")

	ws := newWorkspaces(t)
	repo := acquire(t, ws, tr.Path())
	assert.Equal(t, tr.Path(), repo.URL())

	commits := walkAll(t, repo)
	require.Len(t, commits, 2)

	head := commits[0]
	assert.Equal(t, second.String(), head.id)
	assert.Equal(t, []string{root.String()}, head.parents)
	assert.Equal(t, "fix typo", head.message)
	assert.Equal(t, map[string]mining.ChangeKind{
		"keep.txt":   mining.Modified,
		"moved.txt":  mining.Renamed,
		"edited.txt": mining.Modified,
		"gone.txt":   mining.Deleted,
		"new.txt":    mining.Added,
	}, head.kinds)
	assert.Equal(t, "edit-move.txt", head.paths["edited.txt"])

	assert.Empty(t, commits[1].parents)
	assert.Len(t, commits[1].kinds, 4)
}

func TestWalkEmptyRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	ws := newWorkspaces(t)
	repo := acquire(t, ws, tr.Path())

	err := repo.Walk(context.Background(), func(mining.Commit) error { return nil })
	require.ErrorIs(t, err, batch.ErrEmptyRepository)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "1\n")
	tr.Commit("one")
	tr.Write("a.txt", "2\n")
	tr.Commit("two")

	repo := acquire(t, newWorkspaces(t), tr.Path())
	errStop := errors.New("stop")
	calls := 0

	err := repo.Walk(context.Background(), func(mining.Commit) error {
		calls++

		return errStop
	})
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, calls)
}

func TestFileContents(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "foo\nbar\n")
	tr.Commit("one")
	tr.Write("a.txt", "foo\nbaz\n")
	tr.Commit("two")

	repo := acquire(t, newWorkspaces(t), tr.Path())
	seen := false

	err := repo.Walk(context.Background(), func(c mining.Commit) error {
		if len(c.ParentIDs()) == 0 {
			return nil
		}

		changes, err := c.Changes(context.Background())
		require.NoError(t, err)
		require.Len(t, changes, 1)

		oldData, err := changes[0].OldContent(context.Background())
		require.NoError(t, err)

		newData, err := changes[0].NewContent(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "foo\nbar\n", string(oldData))
		assert.Equal(t, "foo\nbaz\n", string(newData))

		seen = true

		return nil
	})
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMinerOverRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("README.md", "teh cat\nteh dog\n")
	tr.Commit("init")
	tr.Write("README.md", "the cat\nthe dog\n")
	fix := tr.Commit("fix typo")

	repo := acquire(t, newWorkspaces(t), tr.Path())
	miner := mining.NewMiner(mining.DefaultConfig(), nil)

	var records []*mining.CommitRecord

	err := repo.Walk(context.Background(), func(c mining.Commit) error {
		out := miner.ProcessCommit(context.Background(), repo.URL(), c)
		if out.Accepted() {
			records = append(records, out.Record)
		}

		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, fix.String(), records[0].Commit)
	assert.Equal(t, []mining.EditPair{
		{Removed: "teh cat", Added: "the cat"},
		{Removed: "teh dog", Added: "the dog"},
	}, records[0].Diffs)
	assert.Equal(t, []mining.PathPair{
		{Old: "README.md", New: "README.md"},
		{Old: "README.md", New: "README.md"},
	}, records[0].Paths)
}

func TestCloneAndRelease(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "a\n")
	head := tr.Commit("root")

	ws := newWorkspaces(t)

	repo, err := ws.Acquire(context.Background(), "file://"+tr.Path())
	require.NoError(t, err)

	cloned, ok := repo.(*source.Repository)
	require.True(t, ok)
	assert.DirExists(t, cloned.Dir())

	commits := walkAll(t, repo)
	require.Len(t, commits, 1)
	assert.Equal(t, head.String(), commits[0].id)

	require.NoError(t, ws.Release(repo))

	_, statErr := os.Stat(cloned.Dir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestReleaseKeepsLocalRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.Write("a.txt", "a\n")
	tr.Commit("root")

	ws := newWorkspaces(t)

	repo, err := ws.Acquire(context.Background(), tr.Path())
	require.NoError(t, err)
	require.NoError(t, ws.Release(repo))

	assert.DirExists(t, tr.Path())
}

func TestAcquireCloneFailureCleansUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	ws, err := source.NewWorkspaces(root, 0, 1, nil)
	require.NoError(t, err)

	_, err = ws.Acquire(context.Background(), "file:///nonexistent/typocorpus/repo")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcquireCanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	ws, err := source.NewWorkspaces(t.TempDir(), 0.001, 1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ws.Acquire(ctx, "https://example.invalid/repo.git")
	require.Error(t, err)
}

type foreign struct{}

func (foreign) URL() string                                           { return "" }
func (foreign) Walk(context.Context, func(mining.Commit) error) error { return nil }

func TestReleaseForeign(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, newWorkspaces(t).Release(foreign{}), source.ErrForeignRepository)
}
