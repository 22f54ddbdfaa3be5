package mining_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

func TestFilter_Parents(t *testing.T) {
	t.Parallel()

	f := &mining.Filter{MinPairs: 1, MaxPairs: 10}

	assert.Equal(t, mining.NotSingleParent, f.Eligible(&fakeCommit{id: hashA}))
	assert.Equal(t, mining.NotSingleParent, f.Eligible(&fakeCommit{id: hashA, parents: []string{hashB, hashC}}))
	assert.Equal(t, mining.Accepted, f.Eligible(&fakeCommit{id: hashA, parents: []string{hashB}}))
	assert.True(t, f.IsEligible(&fakeCommit{id: hashA, parents: []string{hashB}}))
}

func TestFilter_MessageMarker(t *testing.T) {
	t.Parallel()

	f := &mining.Filter{MessageMarker: "typo"}

	assert.Equal(t, mining.Accepted, f.Eligible(&fakeCommit{id: hashA, parents: []string{hashB}, message: "fix typo in docs"}))
	assert.Equal(t, mining.MessageFiltered, f.Eligible(&fakeCommit{id: hashA, parents: []string{hashB}, message: "Fix Typo"}))
	assert.Equal(t, mining.MessageFiltered, f.Eligible(&fakeCommit{id: hashA, parents: []string{hashB}, message: "refactor"}))
}

func TestFilter_Sampling(t *testing.T) {
	t.Parallel()

	ids := []string{
		"0000000000000000000000000000000000000005",
		"0000000000000000000000000000000000000007",
		"ffffffffffffffffffffffffffffffffffffffff",
		"fedcba9876543210fedcba9876543210fedcba98",
		"1234567890abcdef1234567890abcdef12345678",
	}

	for _, n := range []uint64{2, 3, 5} {
		f := &mining.Filter{SampleModulus: n}

		for _, id := range ids {
			value, _ := new(big.Int).SetString(id, 16)
			divisible := new(big.Int).Mod(value, new(big.Int).SetUint64(n)).Sign() == 0

			got := f.Eligible(&fakeCommit{id: id, parents: []string{hashB}})
			if divisible {
				assert.Equal(t, mining.Accepted, got, "%s mod %d", id, n)
			} else {
				assert.Equal(t, mining.SampledOut, got, "%s mod %d", id, n)
			}
		}
	}

	disabled := &mining.Filter{}
	for _, id := range ids {
		assert.Equal(t, mining.Accepted, disabled.Eligible(&fakeCommit{id: id, parents: []string{hashB}}))
	}

	assert.Equal(t, mining.SampledOut, (&mining.Filter{SampleModulus: 2}).Eligible(&fakeCommit{id: "not-hex", parents: []string{hashB}}))
}

func TestFilter_CountAcceptable(t *testing.T) {
	t.Parallel()

	f := &mining.Filter{MinPairs: 1, MaxPairs: 10}

	assert.False(t, f.CountAcceptable(0))
	assert.True(t, f.CountAcceptable(1))
	assert.True(t, f.CountAcceptable(10))
	assert.False(t, f.CountAcceptable(11))
	assert.False(t, f.Exceeds(10))
	assert.True(t, f.Exceeds(11))
}
