package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/druidql/internal/cli/config"
)

// ConfigField documents one druidql.yaml key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

// getConfigSchema mirrors internal/cli/config.Config.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "brokers", Type: "[]string", Default: config.DefaultBroker, Description: "Broker addresses as host:port"},
		{Name: "strategy", Type: "string", Description: "Broker selection: round-robin or constant. Empty picks round-robin for several brokers"},
		{Name: "timeout", Type: "duration", Default: config.DefaultTimeout.String(), Description: "HTTP timeout per query"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, table, json, csv, markdown"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Log debug records to stderr"},
		{Name: "parallel", Type: "int", Default: strconv.Itoa(config.DefaultParallel), Description: "Maximum queries in flight"},
		{Name: "history", Type: "string", Default: config.DefaultHistory, Description: "REPL history file, relative to the home directory"},
		{Name: "context", Type: "map[string]any", Description: "Query context defaults merged into every query"},
	}
}

// envName is the environment variable that sets f. Map fields take one
// variable per key.
func envName(f ConfigField) string {
	name := config.EnvPrefix + strings.ToUpper(f.Name)
	if strings.HasPrefix(f.Type, "map[") {
		name += "__<key>"
	}
	return name
}

// generateConfigDocs writes configuration.md.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "druidql configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("druidql reads `druidql.yaml` (or `druidql.yml`) from the current directory or the nearest parent. " +
		"Environment variables override the file and flags override both.")

	fields := getConfigSchema()
	var rows, envRows [][]string
	for _, f := range fields {
		def := "-"
		if f.Default != "" {
			def = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, def, f.Description})
		envRows = append(envRows, []string{InlineCode(envName(f)), InlineCode(f.Name)})
	}

	w.Header(2, "Fields")
	w.Table([]string{"Field", "Type", "Default", "Description"}, rows)

	w.Header(2, "Environment Variables")
	w.Paragraph("A double underscore separates nested keys.")
	w.Table([]string{"Variable", "Field"}, envRows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `brokers:
  - broker-1:8082
  - broker-2:8082
strategy: round-robin
timeout: 30s
output: table
context:
  timeout: 30000
  priority: 10`)

	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}

