package mining

// SkipReason explains why a commit produced no record. The empty reason
// means the commit was accepted.
type SkipReason string

// Commit-level skip reasons.
const (
	Accepted        SkipReason = ""
	NotSingleParent SkipReason = "not_single_parent"
	MessageFiltered SkipReason = "message_filtered"
	SampledOut      SkipReason = "sampled_out"
	NoPairs         SkipReason = "no_pairs"
	TooManyPairs    SkipReason = "too_many_pairs"
	DiffFailed      SkipReason = "diff_failed"
	Canceled        SkipReason = "canceled"
)

// Label returns the reason as a metric label; accepted commits are "accepted".
func (r SkipReason) Label() string {
	if r == Accepted {
		return "accepted"
	}

	return string(r)
}

// FileStatus is the result of diffing one modified file.
type FileStatus string

// File-level statuses. Everything but FileOK contributes zero pairs.
const (
	FileOK            FileStatus = "ok"
	FileNotText       FileStatus = "not_text"
	FileTooLarge      FileStatus = "too_large"
	FileDepthExceeded FileStatus = "depth_exceeded"
	FileReadFailed    FileStatus = "read_failed"
	FileVendored      FileStatus = "vendored"
)

// FileOutcome reports what happened to one modified file of a commit.
type FileOutcome struct {
	OldPath string
	NewPath string
	Status  FileStatus
	Pairs   int
}

// Outcome is the result of processing one commit: a record when accepted,
// otherwise the reason it was skipped.
type Outcome struct {
	CommitID string
	Record   *CommitRecord
	Skip     SkipReason
	Files    []FileOutcome
	// Pairs is the number of pairs found before the count bound was applied.
	// It stops growing once the commit is known to exceed the bound.
	Pairs int
	Err   error
}

// Accepted reports whether the outcome carries a record.
func (o Outcome) Accepted() bool {
	return o.Record != nil
}
