package mining

import (
	"math/big"
	"strings"
)

// Filter decides which commits are worth diffing and which pair counts are
// kept.
type Filter struct {
	// MessageMarker keeps only commits whose message contains it. Empty
	// disables the check.
	MessageMarker string
	// SampleModulus keeps only commits whose hash, read as a base-16
	// integer, is divisible by it. Zero disables sampling.
	SampleModulus uint64
	MinPairs      int
	MaxPairs      int
}

// Eligible returns Accepted when the commit should be diffed, or the reason
// it is skipped. Checks run in order: parents, message, sampling.
func (f *Filter) Eligible(c Commit) SkipReason {
	if len(c.ParentIDs()) != 1 {
		return NotSingleParent
	}

	if f.MessageMarker != "" && !strings.Contains(c.Message(), f.MessageMarker) {
		return MessageFiltered
	}

	if f.SampleModulus > 0 && !sampled(c.ID(), f.SampleModulus) {
		return SampledOut
	}

	return Accepted
}

// IsEligible reports whether Eligible accepts the commit.
func (f *Filter) IsEligible(c Commit) bool {
	return f.Eligible(c) == Accepted
}

// CountAcceptable reports whether n lies in [MinPairs, MaxPairs].
func (f *Filter) CountAcceptable(n int) bool {
	return n >= f.MinPairs && n <= f.MaxPairs
}

// Exceeds reports whether a running total is already past MaxPairs.
func (f *Filter) Exceeds(n int) bool {
	return n > f.MaxPairs
}

// sampled reports whether the hex id is congruent to 0 modulo n. Ids that
// are not hexadecimal never pass.
func sampled(id string, n uint64) bool {
	value, ok := new(big.Int).SetString(id, 16)
	if !ok {
		return false
	}

	return new(big.Int).Mod(value, new(big.Int).SetUint64(n)).Sign() == 0
}
