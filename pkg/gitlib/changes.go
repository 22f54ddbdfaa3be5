package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction represents the type of change in a diff.
type ChangeAction int

const (
	// Insert indicates a new file was added.
	Insert ChangeAction = iota
	// Delete indicates a file was removed.
	Delete
	// Modify indicates a file was modified in place.
	Modify
	// Rename indicates a file was moved, possibly with edits.
	Rename
)

// String returns the git status letter of the action.
func (a ChangeAction) String() string {
	switch a {
	case Insert:
		return "A"
	case Delete:
		return "D"
	case Modify:
		return "M"
	case Rename:
		return "R"
	default:
		return "?"
	}
}

// Change represents a single file change between two trees.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// ContentChanged reports whether the blob differs between both sides.
func (c *Change) ContentChanged() bool {
	return c.From.Hash != c.To.Hash
}

// ChangeEntry represents one side of a change (old or new file).
type ChangeEntry struct {
	Name string
	Hash Hash
	Size int64
	Mode uint16
}

// Changes is a collection of Change objects.
type Changes []*Change

// Diff wraps a libgit2 tree diff.
type Diff struct {
	diff *git2go.Diff
}

// DiffDelta is one file entry of a Diff.
type DiffDelta struct {
	Status     git2go.Delta
	Similarity uint16
	OldFile    ChangeEntry
	NewFile    ChangeEntry
}

// NumDeltas returns the number of file entries in the diff.
func (d *Diff) NumDeltas() (int, error) {
	n, err := d.diff.NumDeltas()
	if err != nil {
		return 0, fmt.Errorf("count deltas: %w", err)
	}

	return n, nil
}

// Delta returns the i-th file entry.
func (d *Diff) Delta(i int) (DiffDelta, error) {
	delta, err := d.diff.Delta(i)
	if err != nil {
		return DiffDelta{}, fmt.Errorf("delta %d: %w", i, err)
	}

	return DiffDelta{
		Status:     delta.Status,
		Similarity: delta.Similarity,
		OldFile:    entryFromFile(delta.OldFile),
		NewFile:    entryFromFile(delta.NewFile),
	}, nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff != nil {
		_ = d.diff.Free()
		d.diff = nil
	}
}

func entryFromFile(f git2go.DiffFile) ChangeEntry {
	return ChangeEntry{
		Name: f.Path,
		Hash: HashFromOid(f.Oid),
		Size: int64(f.Size),
		Mode: f.Mode,
	}
}

// TreeDiff computes the changes between two trees. A nil oldTree diffs
// against the empty tree. Renames are detected and reported as Rename.
// Skips diff when both tree OIDs are equal (e.g. metadata-only commits).
func TreeDiff(repo *Repository, oldTree, newTree *Tree) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return make(Changes, 0), nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, err
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, err
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, deltaErr
		}

		change := &Change{From: delta.OldFile, To: delta.NewFile}

		switch delta.Status {
		case git2go.DeltaAdded:
			change.Action = Insert
			change.From = ChangeEntry{}
		case git2go.DeltaDeleted:
			change.Action = Delete
			change.To = ChangeEntry{}
		case git2go.DeltaModified:
			change.Action = Modify
		case git2go.DeltaRenamed:
			change.Action = Rename
		case git2go.DeltaUnmodified, git2go.DeltaCopied, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaTypeChange, git2go.DeltaUnreadable, git2go.DeltaConflicted:
			continue
		}

		changes = append(changes, change)
	}

	return changes, nil
}
