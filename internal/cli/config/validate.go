package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/druidql/pkg/broker"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("no brokers configured\nHint: set brokers in druidql.yaml, DRUIDQL_BROKERS or --broker")
	}
	for _, b := range c.Brokers {
		if err := validateBroker(b); err != nil {
			return err
		}
	}
	if _, err := broker.StrategyByName(c.Strategy); err != nil {
		return fmt.Errorf("%w\nHint: use round-robin or constant", err)
	}
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("unknown output format %q\nHint: use one of %s", c.Output, strings.Join(OutputFormats, ", "))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	return nil
}

func validateBroker(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid broker address %q: %w\nHint: brokers are host:port, e.g. localhost:8082", addr, err)
	}
	if host == "" {
		return fmt.Errorf("invalid broker address %q: missing host", addr)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid broker address %q: bad port %q", addr, port)
	}
	return nil
}
