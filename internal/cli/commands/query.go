package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/leapstack-labs/druidql/internal/cli/output"
	"github.com/leapstack-labs/druidql/pkg/druid"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/serde"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
	Raw   bool
}

// namedRequest is a decoded query and where it came from.
type namedRequest struct {
	name string
	req  query.Request
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [FILE...]",
		Short: "Run native queries against a broker",
		Long: `Run Druid native queries and render the results.

Queries are read from files, from --input, or from stdin, as JSON (one object
or an array) or YAML (one query per document). Several queries run
concurrently, up to --parallel at a time, and are printed in input order.

When invoked without input on a terminal, enters interactive REPL mode.`,
		Example: `  # Run a query file
  druidql query topn.json

  # Inline query
  druidql query -i '{"queryType":"timeBoundary","dataSource":"wikipedia"}'

  # Several queries from YAML, as CSV
  druidql query reports.yaml -o csv

  # Raw broker response
  cat scan.json | druidql query --raw

  # Interactive mode
  druidql query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Inline query text (JSON or YAML)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print the broker's response body unchanged")
	cmd.Flags().IntP("parallel", "p", 0, "Maximum queries in flight (default from config)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var reqs []namedRequest
	switch {
	case len(args) > 0:
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			parsed, err := parseQueries(path, data)
			if err != nil {
				return err
			}
			reqs = append(reqs, parsed...)
		}
	case opts.Input != "":
		reqs, err = parseQueries("input", []byte(opts.Input))
		if err != nil {
			return err
		}
	case !output.IsTerminal(cmd.InOrStdin()):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		reqs, err = parseQueries("stdin", data)
		if err != nil {
			return err
		}
	default:
		return runQueryREPL(cmd, cmdCtx)
	}

	if len(reqs) == 0 {
		return errors.New("no queries found in input")
	}
	return runAndRender(cmd.Context(), cmdCtx, reqs, opts.Raw)
}

// parseQueries decodes one or more queries. JSON input is a single query
// object or an array of them; anything else is read as YAML documents.
func parseQueries(name string, data []byte) ([]namedRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var docs [][]byte
	switch trimmed[0] {
	case '{':
		docs = [][]byte{trimmed}
	case '[':
		var raws []serde.RawMessage
		if err := serde.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, raw := range raws {
			docs = append(docs, raw)
		}
	default:
		var err error
		docs, err = yamlDocuments(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	out := make([]namedRequest, 0, len(docs))
	for i, doc := range docs {
		req, err := query.DecodeRequest(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: query %d: %w", name, i+1, err)
		}
		label := name
		if len(docs) > 1 {
			label = fmt.Sprintf("%s#%d", name, i+1)
		}
		out = append(out, namedRequest{name: label, req: req})
	}
	return out, nil
}

// yamlDocuments converts every YAML document to JSON. A document holding a
// sequence contributes one query per element.
func yamlDocuments(data []byte) ([][]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs [][]byte
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		items := []any{doc}
		if list, ok := doc.([]any); ok {
			items = list
		}
		for _, item := range items {
			if item == nil {
				continue
			}
			js, err := serde.Marshal(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, js)
		}
	}
	return docs, nil
}

// contextOf returns a pointer to the request's context field.
func contextOf(req query.Request) *query.Context {
	switch q := req.(type) {
	case *query.TopN:
		return &q.Context
	case *query.GroupBy:
		return &q.Context
	case *query.Scan:
		return &q.Context
	case *query.Search:
		return &q.Context
	case *query.Timeseries:
		return &q.Context
	case *query.TimeBoundary:
		return &q.Context
	case *query.SegmentMetadata:
		return &q.Context
	case *query.DataSourceMetadata:
		return &q.Context
	}
	return nil
}

// applyContext merges defaults under the request's own context and assigns
// a queryId when none is set.
func applyContext(req query.Request, defaults query.Context) {
	ctx := contextOf(req)
	if ctx == nil {
		return
	}
	merged := make(query.Context, len(defaults)+len(*ctx)+1)
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range *ctx {
		merged[k] = v
	}
	if _, ok := merged["queryId"]; !ok {
		merged["queryId"] = uuid.NewString()
	}
	*ctx = merged
}

// runAndRender executes reqs concurrently and renders results in order.
func runAndRender(ctx context.Context, cmdCtx *CommandContext, reqs []namedRequest, raw bool) error {
	defaults := cmdCtx.Cfg.QueryContext()
	results := make([]*result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cmdCtx.Cfg.Parallel)
	for i, nr := range reqs {
		applyContext(nr.req, defaults)
		g.Go(func() error {
			var (
				res *result
				err error
			)
			if raw {
				res, err = executeRaw(gctx, cmdCtx.Client, nr.req)
			} else {
				res, err = execute(gctx, cmdCtx.Client, nr.req)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", nr.name, err)
			}
			res.name = nr.name
			results[i] = res
			cmdCtx.Logger.Debug("query finished", "name", nr.name, "query_type", nr.req.QueryType())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return renderResults(cmdCtx.Renderer, results)
}

// executeRaw posts req and keeps the body as is.
func executeRaw(ctx context.Context, c *druid.Client, req query.Request) (*result, error) {
	body, err := serde.Marshal(req)
	if err != nil {
		return nil, &druid.Error{Kind: druid.KindSerialization, Err: err}
	}
	data, err := c.DoRaw(ctx, body)
	if err != nil {
		return nil, err
	}
	return &result{queryType: req.QueryType(), raw: data}, nil
}

// describeError adds the broker's diagnostic fields to server errors.
func describeError(err error) string {
	var derr *druid.Error
	if errors.As(err, &derr) {
		if msg, ok := derr.ServerMessage(); ok {
			text := msg.Error
			if msg.ErrorMessage != "" {
				text += ": " + msg.ErrorMessage
			}
			if msg.ErrorClass != "" {
				text += " (" + msg.ErrorClass + ")"
			}
			return text
		}
	}
	return err.Error()
}
