package config

import (
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/pkg/linediff"
)

// Mining defaults.
const (
	DefaultMiningMaxChars        = linediff.DefaultMaxChars
	DefaultMiningMinPairs        = mining.DefaultMinPairs
	DefaultMiningMaxPairs        = mining.DefaultMaxPairs
	DefaultMiningMessageMarker   = ""
	DefaultMiningSampleModulus   = 0
	DefaultMiningMessageLength   = mining.DefaultMessageLength
	DefaultMiningSkipVendored    = false
	DefaultMiningCutoff          = linediff.DefaultCutoff
	DefaultMiningMaxReplaceDepth = linediff.DefaultMaxDepth
	DefaultMiningDiffTimeout     = "0s"
)

// Batch defaults.
const (
	DefaultBatchWorkers    = 1
	DefaultBatchWorkDir    = "repos"
	DefaultBatchCloneRate  = 0.0
	DefaultBatchCloneBurst = 1
	DefaultBatchStateDB    = ""
)

// Output defaults.
const (
	DefaultOutputPath     = "-"
	DefaultOutputCompress = false
)

// Log defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPHeaders  = ""
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
)
