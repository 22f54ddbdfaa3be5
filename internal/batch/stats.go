package batch

import (
	"time"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// Stats summarizes a run. Records and Pairs count what reached the sink;
// records of a repository whose walk failed are dropped.
type Stats struct {
	Repositories map[Status]int
	Commits      int
	Records      int
	Pairs        int
	Skips        map[mining.SkipReason]int
	Files        map[mining.FileStatus]int
	Duration     time.Duration
}

func newStats() Stats {
	return Stats{
		Repositories: make(map[Status]int),
		Skips:        make(map[mining.SkipReason]int),
		Files:        make(map[mining.FileStatus]int),
	}
}

func (s *Stats) addOutcome(out mining.Outcome) {
	s.Commits++

	if !out.Accepted() {
		s.Skips[out.Skip]++
	}

	for _, file := range out.Files {
		s.Files[file.Status]++
	}
}

// merge adds other into s. Repository counts are merged too.
func (s *Stats) merge(other Stats) {
	s.Commits += other.Commits
	s.Records += other.Records
	s.Pairs += other.Pairs

	for status, n := range other.Repositories {
		s.Repositories[status] += n
	}

	for reason, n := range other.Skips {
		s.Skips[reason] += n
	}

	for status, n := range other.Files {
		s.Files[status] += n
	}
}

func (s *Stats) addRecords(records []*mining.CommitRecord) {
	s.Records += len(records)

	for _, rec := range records {
		s.Pairs += len(rec.Diffs)
	}
}
