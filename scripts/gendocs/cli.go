package main

import (
	"cmp"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/druidql/internal/cli"
	"github.com/leapstack-labs/druidql/internal/cli/config"
	"github.com/leapstack-labs/druidql/internal/cli/output"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// queryTypes lists the native query types with the result each decodes to.
var queryTypes = [][]string{
	{query.TypeTopN, "`TopN`", "ranked dimension values per time bucket"},
	{query.TypeGroupBy, "`GroupBy`", "one row per dimension combination"},
	{query.TypeScan, "`Scan`", "raw rows in batches per segment"},
	{query.TypeSearch, "`Search`", "dimension values matching a search spec"},
	{query.TypeTimeseries, "`Timeseries`", "aggregates per time bucket"},
	{query.TypeTimeBoundary, "`TimeBoundary`", "earliest and latest timestamps"},
	{query.TypeSegmentMetadata, "`SegmentMetadata`", "column analysis per segment"},
	{query.TypeDataSourceMetadata, "`DataSourceMetadata`", "last ingested event time"},
}

var formatHelp = map[output.Mode]string{
	output.ModeAuto:     "table on a terminal, json otherwise",
	output.ModeTable:    "aligned columns",
	output.ModeJSON:     "the decoded results, indented",
	output.ModeCSV:      "header row then one line per result row",
	output.ModeMarkdown: "pipe table",
}

// generateCLIDocs writes index.md plus one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	if err := writeDoc(outDir, "index.md", cliIndex(root)); err != nil {
		return err
	}
	for _, cmd := range commands(root) {
		if err := writeDoc(outDir, cmd.Name()+".md", commandPage(cmd)); err != nil {
			return err
		}
	}
	return nil
}

func commands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.IsAvailableCommand() {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func writeDoc(dir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(dir, name), w.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	log.Printf("  Generated %s", name)
	return nil
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for druidql")
	w.GeneratedMarker()
	w.Header(1, "CLI Reference")
	w.Paragraph(cleanDescription(root.Long))
	w.CodeBlock("bash", "go install github.com/leapstack-labs/druidql/cmd/druidql@latest")

	var rows [][]string
	for _, cmd := range commands(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Header(2, "Commands")
	w.Table([]string{"Command", "Description"}, rows)

	rows = nil
	for _, qt := range queryTypes {
		rows = append(rows, []string{InlineCode(qt[0]), qt[1], qt[2]})
	}
	w.Header(2, "Query Types")
	w.Paragraph("`druidql query` accepts any of these as JSON or YAML, selected by `queryType`.")
	w.Table([]string{"queryType", "Go type", "Result"}, rows)

	rows = nil
	for _, f := range config.OutputFormats {
		rows = append(rows, []string{InlineCode(f), formatHelp[output.Mode(f)]})
	}
	w.Header(2, "Output Formats")
	w.Table([]string{"--output", "Rendering"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	rows = nil
	for _, f := range getConfigSchema() {
		rows = append(rows, []string{InlineCode(envName(f)), f.Description})
	}
	w.Header(2, "Environment Variables")
	w.Paragraph("Flags override the environment, which overrides `druidql.yaml`. See [Configuration](/configuration).")
	w.Table([]string{"Variable", "Description"}, rows)
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()
	w.Header(1, cmd.Name())
	w.Paragraph(cmp.Or(cmd.Long, cmd.Short))

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())
	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w
}

// writeFlagsTable lists flags as "--name, -n" with their value type.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name += ", " + InlineCode("-"+f.Shorthand)
		}
		def := ""
		switch f.DefValue {
		case "", "[]", "false", "0", "0s":
		default:
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Type", "Default", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(strings.TrimRight(example, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if lead := len(line) - len(strings.TrimLeft(line, " \t")); indent < 0 || lead < indent {
			indent = lead
		}
	}
	for i, line := range lines {
		lines[i] = line[min(max(indent, 0), len(line)):]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
