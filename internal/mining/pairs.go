package mining

import (
	"github.com/Sumatoshi-tech/typocorpus/pkg/linediff"
)

// ExtractPairs scans ops left to right and returns a pair for every removed
// line immediately followed by an added line. Intraline markers are
// transparent: they neither break nor form a pair.
func ExtractPairs(ops []linediff.Op) []EditPair {
	var (
		pairs []EditPair
		prev  *linediff.Op
	)

	for i := range ops {
		cur := &ops[i]
		if cur.Kind == linediff.IntralineMarker {
			continue
		}

		if cur.Kind == linediff.Added && prev != nil && prev.Kind == linediff.Removed {
			pairs = append(pairs, EditPair{Removed: prev.Text, Added: cur.Text})
		}

		prev = cur
	}

	return pairs
}
