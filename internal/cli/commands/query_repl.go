package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/druidql/pkg/broker"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/spf13/cobra"
)

const (
	replPrompt         = "druid> "
	replContinuePrompt = "   ...> "
)

// repl holds the state of an interactive session. Queries span lines until
// one ends with a semicolon.
type repl struct {
	cmdCtx *CommandContext
	out    io.Writer
	errOut io.Writer
	buf    strings.Builder
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyPath(cmdCtx.Cfg.History),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	session := &repl{cmdCtx: cmdCtx, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}

	_, _ = fmt.Fprintf(session.out, "druidql REPL (brokers: %s)\n", strings.Join(cmdCtx.Cfg.Brokers, ", "))
	_, _ = fmt.Fprintln(session.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(session.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if session.handleLine(ctx, line) {
			break
		}
		if session.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
	return nil
}

// historyPath resolves the history file against the home directory.
func historyPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, name)
}

// pending reports whether a query is partially entered.
func (s *repl) pending() bool { return s.buf.Len() > 0 }

// handleLine processes one input line and reports whether the session
// should end.
func (s *repl) handleLine(ctx context.Context, line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if !s.pending() && strings.HasPrefix(trimmed, ".") {
		return s.handleDotCommand(ctx, trimmed)
	}

	// Leading whitespace is kept for YAML indentation.
	line = strings.TrimRight(line, " \t\r")
	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	text := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()

	reqs, err := parseQueries("repl", []byte(text))
	if err == nil && len(reqs) == 0 {
		err = errors.New("no query entered")
	}
	if err == nil {
		err = runAndRender(ctx, s.cmdCtx, reqs, false)
	}
	if err != nil {
		s.printError(err)
	}
	_, _ = fmt.Fprintln(s.out)
	return false
}

func (s *repl) printError(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %s\n", describeError(err))
}

func (s *repl) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".brokers":
		if p, ok := s.cmdCtx.Client.Pool().(*broker.StaticPool); ok {
			_, _ = fmt.Fprintf(s.out, "%s (%s)\n", strings.Join(p.Brokers(), ", "), p.Strategy().Name())
		}

	case ".boundary", ".metadata":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.errOut, "Usage: %s <dataSource>\n", command)
			return false
		}
		var req query.Request = &query.TimeBoundary{DataSource: query.Table(parts[1])}
		if command == ".metadata" {
			req = &query.DataSourceMetadata{DataSource: query.Table(parts[1])}
		}
		if err := runAndRender(ctx, s.cmdCtx, []namedRequest{{name: parts[1], req: req}}, false); err != nil {
			s.printError(err)
		}

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help               Show this help message
  .brokers            Show the broker pool
  .boundary <source>  Show the time boundary of a data source
  .metadata <source>  Show the latest ingested event time of a data source
  .clear              Clear the screen
  .quit / .exit       Exit the REPL

Tips:
  - Queries are JSON or YAML and must end with a semicolon (;)
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter completes dot commands and query types.
func newREPLCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".brokers"),
		readline.PcItem(".boundary"),
		readline.PcItem(".metadata"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for _, t := range []string{
		query.TypeTopN, query.TypeGroupBy, query.TypeScan, query.TypeSearch,
		query.TypeTimeBoundary, query.TypeSegmentMetadata, query.TypeTimeseries,
		query.TypeDataSourceMetadata,
	} {
		items = append(items, readline.PcItem(fmt.Sprintf(`{"queryType":%q,`, t)))
	}
	return readline.NewPrefixCompleter(items...)
}
