package commands

import (
	"fmt"

	"github.com/leapstack-labs/druidql/internal/cli/output"
	"github.com/leapstack-labs/druidql/pkg/broker"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/spf13/cobra"
)

// NewBoundaryCommand creates the boundary command.
func NewBoundaryCommand() *cobra.Command {
	var bound string

	cmd := &cobra.Command{
		Use:   "boundary <dataSource>",
		Short: "Show the earliest and latest timestamps of a data source",
		Args:  cobra.ExactArgs(1),
		Example: `  druidql boundary wikipedia
  druidql boundary wikipedia --bound maxTime`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := &query.TimeBoundary{DataSource: query.Table(args[0]), Bound: query.TimeBound(bound)}
			switch q.Bound {
			case query.BoundMinMaxTime, query.BoundMaxTime, query.BoundMinTime:
			default:
				return fmt.Errorf("unknown bound %q\nHint: use minTime or maxTime, or omit for both", bound)
			}
			return runSingle(cmd, args[0], q)
		},
	}
	cmd.Flags().StringVar(&bound, "bound", "", "Return only minTime or maxTime")
	return cmd
}

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <dataSource>",
		Short: "Show the latest ingested event time of a data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd, args[0], &query.DataSourceMetadata{DataSource: query.Table(args[0])})
		},
	}
}

// SegmentsOptions holds options for the segments command.
type SegmentsOptions struct {
	Intervals []string
	Merge     bool
	Analysis  []string
	Columns   bool
}

// NewSegmentsCommand creates the segments command.
func NewSegmentsCommand() *cobra.Command {
	opts := &SegmentsOptions{}

	cmd := &cobra.Command{
		Use:   "segments <dataSource>",
		Short: "Analyse the segments of a data source",
		Long: `Run a segmentMetadata query and list the segments it reports.

With --columns, every segment's column analysis is shown instead.`,
		Args: cobra.ExactArgs(1),
		Example: `  druidql segments wikipedia --merge
  druidql segments wikipedia --interval 2013-01-01/2014-01-01 --analysis cardinality,minmax --columns`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegments(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Intervals, "interval", nil, "ISO-8601 intervals to analyse")
	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "Merge all segments into one result")
	cmd.Flags().StringSliceVar(&opts.Analysis, "analysis", nil, "Analysis types (cardinality, minmax, size, interval, ...)")
	cmd.Flags().BoolVar(&opts.Columns, "columns", false, "Show per-column analysis")
	return cmd
}

func runSegments(cmd *cobra.Command, dataSource string, opts *SegmentsOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	q := &query.SegmentMetadata{
		DataSource: query.Table(dataSource),
		Intervals:  opts.Intervals,
		ToInclude:  query.ToIncludeAll,
		Merge:      opts.Merge,
	}
	for _, a := range opts.Analysis {
		q.AnalysisTypes = append(q.AnalysisTypes, query.AnalysisType(a))
	}
	applyContext(q, cmdCtx.Cfg.QueryContext())

	segments, err := cmdCtx.Client.SegmentMetadata(cmd.Context(), q)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(segments)
	}
	if !opts.Columns {
		return r.Table(segmentTable(segments))
	}
	for i, s := range segments {
		if i > 0 {
			r.Println()
		}
		r.Header(s.ID)
		if err := r.Table(columnTable(s)); err != nil {
			return err
		}
	}
	return nil
}

// runSingle runs one request built from flags.
func runSingle(cmd *cobra.Command, name string, req query.Request) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	return runAndRender(cmd.Context(), cmdCtx, []namedRequest{{name: name, req: req}}, false)
}

// NewBrokersCommand creates the brokers command.
func NewBrokersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "brokers",
		Short: "List the configured brokers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			pool, ok := cmdCtx.Client.Pool().(*broker.StaticPool)
			if !ok {
				return fmt.Errorf("broker pool is not listable")
			}
			t := output.Table{Columns: []string{"#", "broker", "strategy"}}
			for i, b := range pool.Brokers() {
				t.Rows = append(t.Rows, []any{i + 1, b, pool.Strategy().Name()})
			}
			return cmdCtx.Renderer.Table(t)
		},
	}
}
