package linediff_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typocorpus/pkg/linediff"
)

func render(ops []linediff.Op) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.String())
	}

	return out
}

func withoutMarkers(ops []linediff.Op) []string {
	out := make([]string, 0, len(ops))

	for _, op := range ops {
		if op.Kind == linediff.IntralineMarker {
			continue
		}

		out = append(out, op.String())
	}

	return out
}

func TestDiff_IdenticalTexts(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("a\nb\nc\n"), []byte("a\nb\nc\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"  a", "  b", "  c", "  "}, render(ops))
}

func TestDiff_SingleLineReplaced(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("foo\nbar\n"), []byte("foo\nbaz\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"  foo", "- bar", "+ baz", "  "}, render(ops))
}

func TestDiff_TwoLinesReplaceOne(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("a\nb\nc\n"), []byte("a\nx\ny\nc\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"  a", "- b", "+ x", "+ y", "  c", "  "}, render(ops))
}

func TestDiff_SimilarLinesAreInterleaved(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("teh cat\nteh dog\n"), []byte("the cat\nthe dog\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"- teh cat",
		"+ the cat",
		"- teh dog",
		"+ the dog",
		"  ",
	}, withoutMarkers(ops))

	markers := 0

	for _, op := range ops {
		if op.Kind != linediff.IntralineMarker {
			continue
		}

		markers++

		assert.NotEmpty(t, op.Text)
		assert.Empty(t, strings.Trim(op.Text, "^-+ \t"), "guide %q has foreign characters", op.Text)
	}

	assert.Equal(t, 4, markers)
}

func TestDiff_ShorterAddedBlockGoesFirst(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("one\ntwo\nthree\nend"), []byte("uno\nend"))
	require.NoError(t, err)

	assert.Equal(t, []string{"+ uno", "- one", "- two", "- three", "  end"}, render(ops))
}

func TestDiff_PureInsertion(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("a\n"), []byte("a\nb\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"  a", "+ b", "  "}, render(ops))
}

func TestDiff_PureDeletion(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte("a\nb\nc"), []byte("a\nc"))
	require.NoError(t, err)

	assert.Equal(t, []string{"  a", "- b", "  c"}, render(ops))
}

func TestDiff_EmptyTexts(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"  "}, render(ops))
}

func TestDiff_InvalidUTF8(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.Diff([]byte{0xff, 0xfe}, []byte("ok\n"))
	require.ErrorIs(t, err, linediff.ErrNotText)
	assert.Nil(t, ops)

	ops, err = d.Diff([]byte("ok\n"), []byte("bad\xc3"))
	require.ErrorIs(t, err, linediff.ErrNotText)
	assert.Nil(t, ops)
}

func TestDiff_SizeGuard(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())
	limit := strings.Repeat("a", linediff.DefaultMaxChars)
	over := limit + "b"

	_, err := d.Diff([]byte(limit), []byte(limit))
	require.NoError(t, err)

	ops, err := d.Diff([]byte(over), []byte("a"))
	require.ErrorIs(t, err, linediff.ErrTooLarge)
	assert.Nil(t, ops)

	ops, err = d.Diff([]byte("a"), []byte(over))
	require.ErrorIs(t, err, linediff.ErrTooLarge)
	assert.Nil(t, ops)
}

func TestDiff_SizeGuardCountsCodePoints(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.Options{MaxChars: 4})

	_, err := d.Diff([]byte("äöüß"), []byte("äöüs"))
	require.NoError(t, err)

	_, err = d.Diff([]byte("äöüßx"), []byte("äöüs"))
	require.ErrorIs(t, err, linediff.ErrTooLarge)
}

func TestDiff_DepthGuard(t *testing.T) {
	t.Parallel()

	oldText := []byte("x = 1\nx = 2\nx = 3\nx = 4\nx = 5")
	newText := []byte("y = 1\ny = 2\ny = 3\ny = 4\ny = 5")

	shallow := linediff.New(linediff.Options{MaxDepth: 2})

	ops, err := shallow.Diff(oldText, newText)
	require.ErrorIs(t, err, linediff.ErrDepthExceeded)
	assert.Nil(t, ops)

	deep := linediff.New(linediff.DefaultOptions())

	ops, err = deep.Diff(oldText, newText)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"- x = 1", "+ y = 1",
		"- x = 2", "+ y = 2",
		"- x = 3", "+ y = 3",
		"- x = 4", "+ y = 4",
		"- x = 5", "+ y = 5",
	}, withoutMarkers(ops))
}

func TestDiffLines_PreservesUnchangedOrder(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	ops, err := d.DiffLines([]string{"a", "b", "a", "b"}, []string{"a", "b", "a", "b"})
	require.NoError(t, err)

	for _, op := range ops {
		assert.Equal(t, linediff.Unchanged, op.Kind)
	}

	assert.Len(t, ops, 4)
}

func TestNew_FillsDefaults(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.Options{Cutoff: 2})

	assert.Equal(t, linediff.DefaultOptions(), d.Options())
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	d := linediff.New(linediff.DefaultOptions())

	assert.InDelta(t, 1.0, d.Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, d.Similarity("same", "same"), 1e-9)
	assert.InDelta(t, 0.0, d.Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.8, d.Similarity("x = 1", "y = 1"), 1e-9)
}
