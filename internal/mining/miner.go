// Package mining turns commits into typo-correction records: it filters
// commits, diffs their modified files line by line and keeps commits whose
// removed/added line pairs fall within a bounded count.
package mining

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/typocorpus/pkg/linediff"
	"github.com/Sumatoshi-tech/typocorpus/pkg/textutil"
)

// Defaults of Config.
const (
	DefaultMinPairs      = 1
	DefaultMaxPairs      = 10
	DefaultMessageLength = 100
)

// Config configures a Miner.
type Config struct {
	MinPairs      int
	MaxPairs      int
	MessageMarker string
	SampleModulus uint64
	// MessageLength is the number of runes of the commit message kept in a
	// record.
	MessageLength int
	// SkipVendored drops files classified as vendored before reading them.
	SkipVendored bool
	Diff         linediff.Options
}

// DefaultConfig returns the configuration of an unfiltered run.
func DefaultConfig() Config {
	return Config{
		MinPairs:      DefaultMinPairs,
		MaxPairs:      DefaultMaxPairs,
		MessageLength: DefaultMessageLength,
		Diff:          linediff.DefaultOptions(),
	}
}

// Miner processes commits. It keeps no per-commit state and is safe for
// concurrent use.
type Miner struct {
	filter        Filter
	differ        *linediff.Differ
	messageLength int
	skipVendored  bool
	logger        *slog.Logger
}

// NewMiner creates a Miner. A nil logger discards diagnostics.
func NewMiner(cfg Config, logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.MessageLength <= 0 {
		cfg.MessageLength = DefaultMessageLength
	}

	return &Miner{
		filter: Filter{
			MessageMarker: cfg.MessageMarker,
			SampleModulus: cfg.SampleModulus,
			MinPairs:      cfg.MinPairs,
			MaxPairs:      cfg.MaxPairs,
		},
		differ:        linediff.New(cfg.Diff),
		messageLength: cfg.MessageLength,
		skipVendored:  cfg.SkipVendored,
		logger:        logger,
	}
}

// Filter returns the commit filter in use.
func (m *Miner) Filter() *Filter {
	return &m.filter
}

// ProcessCommit mines one commit of repo. Failures of single files only
// remove their pairs; a failure to list the changes skips the commit.
func (m *Miner) ProcessCommit(ctx context.Context, repo string, commit Commit) Outcome {
	out := Outcome{CommitID: commit.ID()}

	out.Skip = m.filter.Eligible(commit)
	if out.Skip != Accepted {
		return out
	}

	changes, err := commit.Changes(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "commit diff failed", "repo", repo, "commit", out.CommitID, "error", err)

		out.Skip, out.Err = DiffFailed, err

		return out
	}

	var (
		diffs []EditPair
		paths []PathPair
	)

	for _, change := range changes {
		if change.Kind() != Modified {
			continue
		}

		if ctx.Err() != nil {
			out.Skip, out.Err = Canceled, ctx.Err()

			return out
		}

		file := m.processFile(ctx, repo, out.CommitID, change)
		out.Files = append(out.Files, file.FileOutcome)

		provenance := PathPair{Old: change.OldPath(), New: change.NewPath()}
		for _, pair := range file.pairs {
			diffs = append(diffs, pair)
			paths = append(paths, provenance)
		}

		out.Pairs = len(diffs)

		if m.filter.Exceeds(out.Pairs) {
			out.Skip = TooManyPairs

			return out
		}
	}

	// Totals above MaxPairs returned early, so a rejection here means too few.
	if !m.filter.CountAcceptable(out.Pairs) {
		out.Skip = NoPairs

		return out
	}

	out.Record = &CommitRecord{
		Repo:    repo,
		Commit:  out.CommitID,
		Message: textutil.Truncate(commit.Message(), m.messageLength),
		Diffs:   diffs,
		Paths:   paths,
	}

	return out
}

type fileResult struct {
	FileOutcome

	pairs []EditPair
}

func (m *Miner) processFile(ctx context.Context, repo, commitID string, change FileChange) fileResult {
	res := fileResult{FileOutcome: FileOutcome{OldPath: change.OldPath(), NewPath: change.NewPath()}}
	log := m.logger.With("repo", repo, "commit", commitID, "path", res.NewPath)

	if m.skipVendored && (enry.IsVendor(res.OldPath) || enry.IsVendor(res.NewPath)) {
		res.Status = FileVendored

		return res
	}

	oldData, err := change.OldContent(ctx)
	if err == nil {
		var newData []byte

		newData, err = change.NewContent(ctx)
		if err == nil {
			return m.diffFile(ctx, log, res, oldData, newData)
		}
	}

	log.DebugContext(ctx, "file read failed", "error", err)

	res.Status = FileReadFailed

	return res
}

func (m *Miner) diffFile(ctx context.Context, log *slog.Logger, res fileResult, oldData, newData []byte) fileResult {
	ops, err := m.differ.Diff(oldData, newData)

	switch {
	case err == nil:
		res.Status = FileOK
		res.pairs = ExtractPairs(ops)
		res.Pairs = len(res.pairs)
	case errors.Is(err, linediff.ErrNotText):
		res.Status = FileNotText
	case errors.Is(err, linediff.ErrTooLarge):
		res.Status = FileTooLarge
	case errors.Is(err, linediff.ErrDepthExceeded):
		res.Status = FileDepthExceeded
	default:
		res.Status = FileReadFailed
	}

	if err != nil {
		log.DebugContext(ctx, "file skipped", "status", string(res.Status), "error", err)
	}

	return res
}
