package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// ErrNoWorkspaces is returned by NewRunner when no Workspaces is given.
var ErrNoWorkspaces = errors.New("batch: workspaces are required")

// ErrNoProcessor is returned by NewRunner when no Processor is given.
var ErrNoProcessor = errors.New("batch: processor is required")

// ErrNoSink is returned by NewRunner when no Sink is given.
var ErrNoSink = errors.New("batch: sink is required")

// Options configures a Runner. Ledger, Observer and Logger are optional.
type Options struct {
	Workspaces Workspaces
	Processor  Processor
	Sink       Sink
	Ledger     Ledger
	Observer   Observer
	Logger     *slog.Logger
	// Workers is the number of repositories processed concurrently.
	Workers int
}

// Runner processes repositories.
type Runner struct {
	opts Options

	// writeMu keeps the records of one repository contiguous in the sink.
	writeMu sync.Mutex
}

// NewRunner creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	switch {
	case opts.Workspaces == nil:
		return nil, ErrNoWorkspaces
	case opts.Processor == nil:
		return nil, ErrNoProcessor
	case opts.Sink == nil:
		return nil, ErrNoSink
	}

	if opts.Workers < 1 {
		opts.Workers = 1
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runner{opts: opts}, nil
}

// Run processes urls in order, up to Workers at a time. Repository failures
// are recorded in the returned Stats; only cancellation and sink or ledger
// failures end the run early with an error.
func (r *Runner) Run(ctx context.Context, urls []string) (Stats, error) {
	start := time.Now()
	stats := newStats()

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, url := range urls {
		if gctx.Err() != nil {
			mu.Lock()
			stats.Repositories[StatusCanceled]++
			mu.Unlock()

			continue
		}

		g.Go(func() error {
			res, repoStats, err := r.processRepository(gctx, url)

			mu.Lock()
			stats.merge(repoStats)
			stats.Repositories[res.Status]++
			mu.Unlock()

			return err
		})
	}

	err := g.Wait()
	stats.Duration = time.Since(start)

	if err == nil {
		err = ctx.Err()
	}

	return stats, err
}

// processRepository returns a non-nil error only for failures that must stop
// the run.
func (r *Runner) processRepository(ctx context.Context, url string) (Result, Stats, error) {
	res := Result{URL: url}
	stats := newStats()
	log := r.opts.Logger.With("repo", url)
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)

		if r.opts.Observer != nil {
			r.opts.Observer.ObserveRepository(ctx, res)
		}
	}()

	if r.opts.Ledger != nil {
		done, err := r.opts.Ledger.Done(ctx, url)
		if err != nil {
			res.Status = StatusCanceled

			return res, stats, fmt.Errorf("ledger lookup %s: %w", url, err)
		}

		if done {
			log.DebugContext(ctx, "already processed")

			res.Status = StatusSkipped

			return res, stats, nil
		}
	}

	records, err := r.mine(ctx, log, url, &res, &stats)
	if err != nil {
		return res, stats, err
	}

	if res.Status == StatusDone {
		err = r.emit(records)
		if err != nil {
			return res, stats, err
		}

		res.Records = len(records)
		stats.addRecords(records)
	}

	log.InfoContext(ctx, "repository finished",
		"status", string(res.Status), "commits", res.Commits, "records", res.Records)

	if r.opts.Ledger != nil && res.Status != StatusCanceled {
		err = r.opts.Ledger.Record(ctx, res)
		if err != nil {
			return res, stats, fmt.Errorf("ledger record %s: %w", url, err)
		}
	}

	return res, stats, nil
}

// mine walks one repository and buffers its accepted records. It sets the
// repository status; the returned error is reserved for cancellation.
func (r *Runner) mine(ctx context.Context, log *slog.Logger, url string, res *Result, stats *Stats) ([]*mining.CommitRecord, error) {
	repo, err := r.opts.Workspaces.Acquire(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			res.Status = StatusCanceled

			return nil, ctx.Err()
		}

		log.WarnContext(ctx, "acquire failed", "error", err)

		res.Status, res.Err = StatusCloneFailed, err

		return nil, nil
	}

	defer func() {
		releaseErr := r.opts.Workspaces.Release(repo)
		if releaseErr != nil {
			log.WarnContext(ctx, "release failed", "error", releaseErr)
		}
	}()

	var records []*mining.CommitRecord

	err = repo.Walk(ctx, func(commit mining.Commit) error {
		out := r.opts.Processor.ProcessCommit(ctx, url, commit)
		if out.Skip == mining.Canceled {
			return out.Err
		}

		res.Commits++
		stats.addOutcome(out)

		if r.opts.Observer != nil {
			r.opts.Observer.ObserveCommit(ctx, out)
		}

		if out.Accepted() {
			records = append(records, out.Record)
		}

		return nil
	})

	switch {
	case err == nil:
		res.Status = StatusDone
	case errors.Is(err, ErrEmptyRepository):
		log.InfoContext(ctx, "empty repository")

		res.Status = StatusEmpty
	case ctx.Err() != nil:
		res.Status = StatusCanceled

		return nil, ctx.Err()
	default:
		log.WarnContext(ctx, "history walk failed", "error", err)

		res.Status, res.Err = StatusWalkFailed, err
	}

	if res.Status != StatusDone {
		records = nil
	}

	return records, nil
}

func (r *Runner) emit(records []*mining.CommitRecord) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	for _, rec := range records {
		err := r.opts.Sink.Write(rec)
		if err != nil {
			return fmt.Errorf("write record %s: %w", rec.Commit, err)
		}
	}

	return nil
}
