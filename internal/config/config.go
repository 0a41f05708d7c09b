// Package config loads ambient configuration the way
// other_examples/.../dylanlott-orderbook does: spf13/viper reads an
// optional YAML file plus environment variables (prefixed IRONBOOK_) into
// a typed Config. None of this has any bearing on matching semantics —
// it only governs logging and the metrics listen address.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the ambient configuration surface for cmd/ironbookd.
type Config struct {
	// LogLevel is one of zerolog's level names: trace, debug, info, warn,
	// error. Defaults to "info".
	LogLevel string `mapstructure:"log_level"`

	// MetricsAddr, if non-empty, is where VictoriaMetrics/metrics should
	// expose its /metrics page (see cmd/ironbookd).
	MetricsAddr string `mapstructure:"metrics_addr"`

	// QueueBufferHint is loaded and defaulted but not read by anything
	// else: the request queue is an unbounded list and takes no sizing
	// parameter.
	QueueBufferHint int `mapstructure:"queue_buffer_hint"`
}

// Default returns the out-of-the-box configuration.
func Default() Config {
	return Config{
		LogLevel:        "info",
		MetricsAddr:     "",
		QueueBufferHint: 128,
	}
}

// Load reads configPath (may be empty, in which case only environment and
// defaults apply) and environment variables under the IRONBOOK_ prefix.
func Load(configPath string) (Config, error) {
	v := viper.New()
	cfg := Default()

	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("queue_buffer_hint", cfg.QueueBufferHint)

	v.SetEnvPrefix("ironbook")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
