package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// EntryByPath returns the object hash stored at path.
func (t *Tree) EntryByPath(path string) (Hash, error) {
	entry, err := t.tree.EntryByPath(path)
	if err != nil {
		return Hash{}, fmt.Errorf("entry by path %s: %w", path, err)
	}

	return HashFromOid(entry.Id), nil
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// Native returns the underlying libgit2 tree.
func (t *Tree) Native() *git2go.Tree {
	return t.tree
}
