package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so no druidql.yaml is found.
func isolate(t *testing.T) string {
	t.Helper()
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "druidql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("broker", nil, "broker addresses")
	flags.Duration("timeout", 0, "request timeout")
	flags.String("output", "", "output format")
	flags.StringToString("context", nil, "query context")
	flags.Int("parallel", 0, "concurrent queries")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultBroker}, cfg.Brokers)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultParallel, cfg.Parallel)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `brokers:
  - broker-1:8082
  - broker-2:8082
strategy: constant
timeout: 5s
output: CSV
context:
  priority: 10
  useCache: false
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:8082", "broker-2:8082"}, cfg.Brokers)
	assert.Equal(t, "constant", cfg.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, query.Context{"priority": 10, "useCache": false}, cfg.QueryContext())
	assert.Equal(t, filepath.Join(dir, "druidql.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_FileFoundUpward(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "brokers: [upward:8082]\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"upward:8082"}, cfg.Brokers)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := LoadConfig(filepath.Join(dir, "nope.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "brokers: [from-file:8082]\ntimeout: 5s\n")
	t.Setenv("DRUIDQL_BROKERS", "env-1:8082, env-2:8082")
	t.Setenv("DRUIDQL_TIMEOUT", "2s")
	t.Setenv("DRUIDQL_CONTEXT__PRIORITY", "5")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"env-1:8082", "env-2:8082"}, cfg.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, query.Context{"priority": 5}, cfg.QueryContext())
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "brokers: [from-file:8082]\ncontext:\n  priority: 1\n")
	t.Setenv("DRUIDQL_BROKERS", "from-env:8082")

	flags := testFlags()
	require.NoError(t, flags.Set("broker", "from-flag:8082"))
	require.NoError(t, flags.Set("timeout", "750ms"))
	require.NoError(t, flags.Set("context", "queryId=abc,useCache=true"))
	require.NoError(t, flags.Set("parallel", "2"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, []string{"from-flag:8082"}, cfg.Brokers, "flag value should override config file and env var")
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 2, cfg.Parallel)
	assert.Equal(t, query.Context{"priority": 1, "queryId": "abc", "useCache": true}, cfg.QueryContext(),
		"flag context should merge with the file's")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DRUIDQL_OUTPUT", "json")

	cfg, err := LoadConfig("", testFlags())
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output, "env var should be used when flag is not set")
	assert.Equal(t, []string{DefaultBroker}, cfg.Brokers)
}

func TestLoadConfig_ExpandsBrokerEnvVars(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "brokers: ['${DRUID_HOST}:8082']\n")
	t.Setenv("DRUID_HOST", "druid.internal")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"druid.internal:8082"}, cfg.Brokers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "brokers: [no-port]\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hint:")
	assert.Nil(t, GetCurrentConfig())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "ipv6 broker", mutate: func(c *Config) { c.Brokers = []string{"[::1]:8082"} }},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, errSubstr: "no brokers"},
		{name: "missing port", mutate: func(c *Config) { c.Brokers = []string{"localhost"} }, errSubstr: "invalid broker"},
		{name: "missing host", mutate: func(c *Config) { c.Brokers = []string{":8082"} }, errSubstr: "missing host"},
		{name: "bad port", mutate: func(c *Config) { c.Brokers = []string{"h:99999"} }, errSubstr: "bad port"},
		{name: "strategy", mutate: func(c *Config) { c.Strategy = "random" }, errSubstr: "unknown broker strategy"},
		{name: "output", mutate: func(c *Config) { c.Output = "xml" }, errSubstr: "unknown output format"},
		{name: "timeout", mutate: func(c *Config) { c.Timeout = 0 }, errSubstr: "timeout"},
		{name: "parallel", mutate: func(c *Config) { c.Parallel = 0 }, errSubstr: "parallel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR_ONE}:8082", "value_one:8082"},
		{"${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"plain:1", "plain:1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, expandEnvVars(tt.input), tt.input)
	}
}

func TestQueryContext_Scalars(t *testing.T) {
	cfg := &Config{Context: map[string]any{
		"timeout":  "30000",
		"useCache": "false",
		"ratio":    "0.5",
		"queryId":  "abc",
		"blank":    "",
		"nested":   map[string]any{"a": 1},
	}}
	assert.Equal(t, query.Context{
		"timeout":  30000,
		"useCache": false,
		"ratio":    0.5,
		"queryId":  "abc",
		"blank":    "",
		"nested":   map[string]any{"a": 1},
	}, cfg.QueryContext())
	assert.Nil(t, Default().QueryContext())
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
}
