package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/ledger"
)

func openLedger(t *testing.T, path string) *ledger.Ledger {
	t.Helper()

	l, err := ledger.Open(path)
	require.NoError(t, err)

	return l
}

func TestDoneAndRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := openLedger(t, filepath.Join(t.TempDir(), "state", "ledger.db"))

	defer l.Close()

	done, err := l.Done(ctx, "https://example.com/a.git")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, l.Record(ctx, batch.Result{URL: "https://example.com/a.git", Status: batch.StatusDone, Records: 3, Commits: 40}))
	require.NoError(t, l.Record(ctx, batch.Result{URL: "https://example.com/b.git", Status: batch.StatusEmpty}))
	require.NoError(t, l.Record(ctx, batch.Result{URL: "https://example.com/c.git", Status: batch.StatusCloneFailed, Err: errors.New("404")}))

	for url, want := range map[string]bool{
		"https://example.com/a.git": true,
		"https://example.com/b.git": true,
		"https://example.com/c.git": false,
	} {
		got, doneErr := l.Done(ctx, url)
		require.NoError(t, doneErr)
		assert.Equal(t, want, got, url)
	}

	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Records)
	assert.Equal(t, 40, entries[0].Commits)
	assert.Equal(t, "404", entries[2].Error)
	assert.Empty(t, entries[0].Error)
}

func TestRecordReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := openLedger(t, filepath.Join(t.TempDir(), "ledger.db"))

	defer l.Close()

	require.NoError(t, l.Record(ctx, batch.Result{URL: "r", Status: batch.StatusWalkFailed, Err: errors.New("boom")}))
	require.NoError(t, l.Record(ctx, batch.Result{URL: "r", Status: batch.StatusDone, Records: 1}))

	entries, err := l.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, batch.StatusDone, entries[0].Status)
	assert.Empty(t, entries[0].Error)
}

func TestLedgerPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l := openLedger(t, path)
	require.NoError(t, l.Record(ctx, batch.Result{URL: "r", Status: batch.StatusDone}))
	require.NoError(t, l.Close())

	reopened := openLedger(t, path)

	defer reopened.Close()

	done, err := reopened.Done(ctx, "r")
	require.NoError(t, err)
	assert.True(t, done)
}
