// Package config provides configuration management for the druidql CLI.
//
// Values are layered from defaults, a druidql.yaml file, DRUIDQL_ environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/druidql/pkg/query"
	"gopkg.in/yaml.v3"
)

// Defaults applied before any other source.
const (
	DefaultBroker   = "localhost:8082"
	DefaultTimeout  = 60 * time.Second
	DefaultOutput   = "auto"
	DefaultParallel = 4
	DefaultHistory  = ".druidql_history"
)

// Output formats accepted by --output.
var OutputFormats = []string{"auto", "table", "json", "csv", "markdown"}

// Config holds all CLI configuration options.
type Config struct {
	// Brokers lists broker addresses as host:port.
	Brokers []string `koanf:"brokers"`
	// Strategy is the broker selection strategy: "round-robin" or "constant".
	// Empty picks by broker count.
	Strategy string        `koanf:"strategy"`
	Timeout  time.Duration `koanf:"timeout"`
	Output   string        `koanf:"output"`
	Verbose  bool          `koanf:"verbose"`
	Parallel int           `koanf:"parallel"`
	// History is the REPL history file, relative to the home directory
	// unless absolute.
	History string `koanf:"history"`
	// Context holds query context defaults merged into every query.
	Context map[string]any `koanf:"context"`
}

// Default returns a Config carrying only the built-in defaults.
func Default() *Config {
	return &Config{
		Brokers:  []string{DefaultBroker},
		Timeout:  DefaultTimeout,
		Output:   DefaultOutput,
		Parallel: DefaultParallel,
		History:  DefaultHistory,
	}
}

// QueryContext returns the configured context defaults. String values, as
// produced by flags and environment variables, are read as YAML scalars so
// "30000" becomes a number and "true" a boolean.
func (c *Config) QueryContext() query.Context {
	if len(c.Context) == 0 {
		return nil
	}
	out := make(query.Context, len(c.Context))
	for k, v := range c.Context {
		if s, ok := v.(string); ok {
			out[k] = scalar(s)
			continue
		}
		out[k] = v
	}
	return out
}

func scalar(s string) any {
	if strings.TrimSpace(s) == "" {
		return s
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case int, float64, bool:
		return v
	}
	return s
}
