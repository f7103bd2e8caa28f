/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the punk fuzzer commands. Provides configuration loading,
logging setup and the mapping from viper keys to engine configuration.
*/

package commands

import (
	"fmt"
	"strings"

	"github.com/kleascm/punk-fuzzer/pkg/core"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/logging"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from the config file and PUNK_* environment variables
func LoadConfig() error {
	viper.SetEnvPrefix("PUNK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// SetupLogging builds the logger from the log_* keys
func SetupLogging() (*logging.Logger, error) {
	cfg := &logging.LoggerConfig{
		Level:     viper.GetString("log_level"),
		Format:    logging.OutputFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		Timestamp: true,
		Colors:    !viper.GetBool("no_color"),
	}
	if viper.GetBool("json_logs") {
		cfg.Format = logging.FormatJSON
	}
	return logging.NewLogger(cfg)
}

// buildEngineConfig maps the fuzz.* keys onto the engine configuration,
// keeping defaults for anything unset
func buildEngineConfig() (*core.Config, error) {
	cfg := core.DefaultConfig()

	if v := viper.GetInt64("fuzz.pagesize_limit"); v > 0 {
		cfg.PageSizeLimit = v
	}
	if v := viper.GetInt64("fuzz.page_memory_load_limit"); v > 0 {
		cfg.PageMemoryLoadLimit = v
	}
	if v := viper.GetStringSlice("fuzz.allowed_content_types"); len(v) > 0 {
		cfg.AllowedContentTypes = v
	}
	cfg.FullContentTypeMatch = viper.GetBool("fuzz.full_content_type_match")
	if viper.IsSet("fuzz.stability_tolerance") {
		cfg.StabilityTolerance = viper.GetInt("fuzz.stability_tolerance")
	}
	if viper.IsSet("fuzz.differential_threshold") {
		cfg.DifferentialThreshold = viper.GetInt("fuzz.differential_threshold")
	}

	cfg.Client = buildClientConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildClientConfig() execution.ClientConfig {
	c := execution.DefaultClientConfig()
	if v := viper.GetDuration("fuzz.soft_timeout"); v > 0 {
		c.SoftTimeout = v
	}
	if v := viper.GetDuration("fuzz.hard_timeout"); v > 0 {
		c.HardTimeout = v
	}
	if v := viper.GetString("fuzz.user_agent"); v != "" {
		c.UserAgent = v
	}
	c.Proxy = viper.GetString("fuzz.proxy")
	c.RateLimit = viper.GetFloat64("fuzz.rate_limit")
	c.InsecureSkipVerify = viper.GetBool("fuzz.insecure")
	return c
}

// loadCorpus reads fuzz.payloads, or falls back to the built-in corpus
func loadCorpus() (payloads.Corpus, error) {
	path := viper.GetString("fuzz.payloads")
	if path == "" {
		return payloads.Default(), nil
	}
	corpus, err := payloads.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load payloads: %w", err)
	}
	return corpus, nil
}
