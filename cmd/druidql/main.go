// Package main provides the druidql command.
package main

import (
	"os"

	"github.com/leapstack-labs/druidql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
