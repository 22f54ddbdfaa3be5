// Package batch drives mining over a list of repositories: it acquires a
// working copy, walks its history through the miner, emits accepted records
// and releases the working copy, isolating failures per repository.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// ErrEmptyRepository is returned by Repository.Walk when there is no commit
// to walk.
var ErrEmptyRepository = errors.New("repository has no commits")

// Repository is an acquired working copy.
type Repository interface {
	URL() string
	// Walk calls fn for every commit reachable from HEAD, newest first. The
	// commit is only valid during the call.
	Walk(ctx context.Context, fn func(mining.Commit) error) error
}

// Workspaces acquires and releases working copies. Every successfully
// acquired repository is released exactly once.
type Workspaces interface {
	Acquire(ctx context.Context, url string) (Repository, error)
	Release(repo Repository) error
}

// Processor mines a single commit. *mining.Miner implements it.
type Processor interface {
	ProcessCommit(ctx context.Context, repo string, commit mining.Commit) mining.Outcome
}

// Sink receives accepted records.
type Sink interface {
	Write(rec *mining.CommitRecord) error
}

// Ledger remembers finished repositories across runs.
type Ledger interface {
	Done(ctx context.Context, url string) (bool, error)
	Record(ctx context.Context, res Result) error
}

// Observer is notified of every processed commit and repository.
type Observer interface {
	ObserveCommit(ctx context.Context, out mining.Outcome)
	ObserveRepository(ctx context.Context, res Result)
}

// Status is the final state of one repository.
type Status string

// Repository statuses.
const (
	StatusDone        Status = "done"
	StatusEmpty       Status = "empty"
	StatusCloneFailed Status = "clone_failed"
	StatusWalkFailed  Status = "walk_failed"
	StatusSkipped     Status = "skipped"
	StatusCanceled    Status = "canceled"
)

// Final reports whether a repository in this status needs no further run.
func (s Status) Final() bool {
	return s == StatusDone || s == StatusEmpty
}

// Result describes how one repository was processed.
type Result struct {
	URL      string
	Status   Status
	Commits  int
	Records  int
	Duration time.Duration
	Err      error
}
