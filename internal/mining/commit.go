package mining

import "context"

// ChangeKind classifies a file change between a commit and its parent.
type ChangeKind int

const (
	// Added is a file that only exists in the commit.
	Added ChangeKind = iota
	// Deleted is a file that only exists in the parent.
	Deleted
	// Modified is a file whose content changed. A rename with edited
	// content is reported as Modified with differing paths.
	Modified
	// Renamed is a file that moved without content changes.
	Renamed
)

// String returns the lowercase name of the kind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileChange is one file-level difference between a commit and its parent.
type FileChange interface {
	OldPath() string
	NewPath() string
	Kind() ChangeKind
	OldContent(ctx context.Context) ([]byte, error)
	NewContent(ctx context.Context) ([]byte, error)
}

// Commit is a commit read from history.
type Commit interface {
	// ID is the lowercase hexadecimal content hash.
	ID() string
	ParentIDs() []string
	Message() string
	// Changes lists the file changes against the single parent.
	Changes(ctx context.Context) ([]FileChange, error)
}
