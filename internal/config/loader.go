package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".typocorpus"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for typocorpus settings.
const envPrefix = "TYPOCORPUS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
// The result is not validated so that command-line flags can still be
// applied; call Validate afterwards.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("mining.max_chars", DefaultMiningMaxChars)
	viperCfg.SetDefault("mining.min_pairs", DefaultMiningMinPairs)
	viperCfg.SetDefault("mining.max_pairs", DefaultMiningMaxPairs)
	viperCfg.SetDefault("mining.message_marker", DefaultMiningMessageMarker)
	viperCfg.SetDefault("mining.sample_modulus", DefaultMiningSampleModulus)
	viperCfg.SetDefault("mining.message_length", DefaultMiningMessageLength)
	viperCfg.SetDefault("mining.skip_vendored", DefaultMiningSkipVendored)
	viperCfg.SetDefault("mining.similarity_cutoff", DefaultMiningCutoff)
	viperCfg.SetDefault("mining.max_replace_depth", DefaultMiningMaxReplaceDepth)
	viperCfg.SetDefault("mining.diff_timeout", DefaultMiningDiffTimeout)

	viperCfg.SetDefault("batch.workers", DefaultBatchWorkers)
	viperCfg.SetDefault("batch.work_dir", DefaultBatchWorkDir)
	viperCfg.SetDefault("batch.clone_rate", DefaultBatchCloneRate)
	viperCfg.SetDefault("batch.clone_burst", DefaultBatchCloneBurst)
	viperCfg.SetDefault("batch.state_db", DefaultBatchStateDB)

	viperCfg.SetDefault("output.path", DefaultOutputPath)
	viperCfg.SetDefault("output.compress", DefaultOutputCompress)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", DefaultLogJSON)

	viperCfg.SetDefault("observability.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_headers", DefaultOTLPHeaders)
	viperCfg.SetDefault("observability.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("observability.metrics_addr", DefaultMetricsAddr)
}
