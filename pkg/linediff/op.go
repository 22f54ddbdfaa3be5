package linediff

// Kind tags a line operation.
type Kind int

const (
	// Unchanged is a line present on both sides.
	Unchanged Kind = iota
	// Removed is a line present only in the old text.
	Removed
	// Added is a line present only in the new text.
	Added
	// IntralineMarker annotates character-level changes of the preceding
	// removed or added line. Its Text is a guide, not file content.
	IntralineMarker
)

// markerWidth is the length of the two-character prefix rendered in front of
// every operation.
const markerWidth = 2

var kindPrefixes = [...]string{
	Unchanged:       "  ",
	Removed:         "- ",
	Added:           "+ ",
	IntralineMarker: "? ",
}

var kindNames = [...]string{
	Unchanged:       "unchanged",
	Removed:         "removed",
	Added:           "added",
	IntralineMarker: "intraline",
}

// Prefix returns the two-character diff marker of the kind.
func (k Kind) Prefix() string {
	if k < Unchanged || k > IntralineMarker {
		return "  "
	}

	return kindPrefixes[k]
}

func (k Kind) String() string {
	if k < Unchanged || k > IntralineMarker {
		return "unknown"
	}

	return kindNames[k]
}

// Op is one tagged line operation. Text never includes the diff marker.
type Op struct {
	Kind Kind
	Text string
}

// String renders the operation the way ndiff prints it: marker then text.
func (o Op) String() string {
	return o.Kind.Prefix() + o.Text
}

// ParseOp parses a rendered operation back into an Op. Lines shorter than the
// marker or with an unknown marker are reported as not ok.
func ParseOp(line string) (Op, bool) {
	if len(line) < markerWidth {
		return Op{}, false
	}

	for kind, prefix := range kindPrefixes {
		if line[:markerWidth] == prefix {
			return Op{Kind: Kind(kind), Text: line[markerWidth:]}, true
		}
	}

	return Op{}, false
}
