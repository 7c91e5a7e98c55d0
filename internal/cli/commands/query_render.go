package commands

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/druidql/internal/cli/output"
	"github.com/leapstack-labs/druidql/pkg/druid"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/response"
)

// result is one answered query ready for rendering.
type result struct {
	name      string
	queryType string
	// value is the typed response, printed in JSON mode.
	value any
	table output.Table
	// raw is set instead of value and table by --raw.
	raw []byte
}

type row = map[string]any

// execute runs req through the typed client call for its query type.
func execute(ctx context.Context, c *druid.Client, req query.Request) (*result, error) {
	res := &result{queryType: req.QueryType()}

	switch q := req.(type) {
	case *query.TopN:
		buckets, err := druid.TopN[row](ctx, c, q)
		if err != nil {
			return nil, err
		}
		var rows []row
		for _, b := range buckets {
			for _, r := range b.Result {
				rows = append(rows, withTimestamp(b.Timestamp, r))
			}
		}
		res.value, res.table = buckets, objectTable([]string{"timestamp"}, rows)

	case *query.GroupBy:
		events, err := druid.GroupBy[row](ctx, c, q)
		if err != nil {
			return nil, err
		}
		rows := make([]row, 0, len(events))
		for _, e := range events {
			rows = append(rows, withTimestamp(e.Timestamp, e.Event))
		}
		res.value, res.table = events, objectTable([]string{"timestamp"}, rows)

	case *query.Scan:
		batches, err := druid.Scan[any](ctx, c, q)
		if err != nil {
			return nil, err
		}
		res.value, res.table = batches, scanTable(batches)

	case *query.Timeseries:
		buckets, err := druid.Timeseries[row](ctx, c, q)
		if err != nil {
			return nil, err
		}
		rows := make([]row, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, withTimestamp(b.Timestamp, b.Result))
		}
		res.value, res.table = buckets, objectTable([]string{"timestamp"}, rows)

	case *query.Search:
		buckets, err := c.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		res.value, res.table = buckets, searchTable(buckets)

	case *query.TimeBoundary:
		bounds, err := c.TimeBoundary(ctx, q)
		if err != nil {
			return nil, err
		}
		res.value, res.table = bounds, boundaryTable(bounds)

	case *query.SegmentMetadata:
		segments, err := c.SegmentMetadata(ctx, q)
		if err != nil {
			return nil, err
		}
		res.value, res.table = segments, segmentTable(segments)

	case *query.DataSourceMetadata:
		buckets, err := druid.DataSourceMetadata[row](ctx, c, q)
		if err != nil {
			return nil, err
		}
		rows := make([]row, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, withTimestamp(b.Timestamp, b.Result))
		}
		res.value, res.table = buckets, objectTable([]string{"timestamp"}, rows)

	default:
		return nil, fmt.Errorf("unsupported query type %q", req.QueryType())
	}
	return res, nil
}

func withTimestamp(ts string, r row) row {
	out := make(row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out["timestamp"] = ts
	return out
}

// objectTable lays rows out with the fixed columns first and the remaining
// keys sorted.
func objectTable(fixed []string, rows []row) output.Table {
	seen := make(map[string]bool)
	for _, c := range fixed {
		seen[c] = true
	}
	var extra []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	columns := append(slices.Clone(fixed), extra...)

	t := output.Table{Columns: columns, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		vals := make([]any, len(columns))
		for i, c := range columns {
			vals[i] = r[c]
		}
		t.Rows = append(t.Rows, vals)
	}
	return t
}

// scanTable keeps the column order reported by the broker. Events are
// objects for the list result format and arrays for compactedList.
func scanTable(batches []response.Scan[any]) output.Table {
	var columns []string
	for _, b := range batches {
		for _, c := range b.Columns {
			if !slices.Contains(columns, c) {
				columns = append(columns, c)
			}
		}
	}

	t := output.Table{Columns: columns}
	for _, b := range batches {
		for _, e := range b.Events {
			switch e := e.(type) {
			case map[string]any:
				vals := make([]any, len(columns))
				for i, c := range columns {
					vals[i] = e[c]
				}
				t.Rows = append(t.Rows, vals)
			case []any:
				vals := make([]any, len(columns))
				for i, c := range b.Columns {
					if i < len(e) {
						vals[slices.Index(columns, c)] = e[i]
					}
				}
				t.Rows = append(t.Rows, vals)
			}
		}
	}
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		t.Columns = []string{"events"}
	}
	return t
}

func searchTable(buckets []response.Search) output.Table {
	t := output.Table{Columns: []string{"timestamp", "dimension", "value", "count"}}
	for _, b := range buckets {
		for _, v := range b.Result {
			t.Rows = append(t.Rows, []any{b.Timestamp, v.Dimension, v.Value, v.Count})
		}
	}
	return t
}

func boundaryTable(bounds []response.TimeBoundary) output.Table {
	t := output.Table{Columns: []string{"timestamp", "minTime", "maxTime"}}
	for _, b := range bounds {
		t.Rows = append(t.Rows, []any{b.Timestamp, b.Result.MinTime, b.Result.MaxTime})
	}
	return t
}

func segmentTable(segments []response.SegmentMetadata) output.Table {
	t := output.Table{Columns: []string{"id", "intervals", "columns", "numRows", "size", "queryGranularity", "rollup"}}
	for _, s := range segments {
		t.Rows = append(t.Rows, []any{
			s.ID,
			strings.Join(s.Intervals, ", "),
			len(s.Columns),
			s.NumRows,
			s.Size,
			emptyAsNil(s.QueryGranularity),
			s.Rollup,
		})
	}
	return t
}

// columnTable lists the analysed columns of one segment, sorted by name.
func columnTable(s response.SegmentMetadata) output.Table {
	names := make([]string, 0, len(s.Columns))
	for name := range s.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	t := output.Table{Columns: []string{
		"column", "type", "hasMultipleValues", "hasNulls", "size", "cardinality", "minValue", "maxValue", "errorMessage",
	}}
	for _, name := range names {
		c := s.Columns[name]
		t.Rows = append(t.Rows, []any{
			name, c.Type, c.HasMultipleValues, c.HasNulls, c.Size, c.Cardinality, c.MinValue, c.MaxValue, c.ErrorMessage,
		})
	}
	return t
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// renderResults prints results in input order. In JSON mode several
// results form one array.
func renderResults(r *output.Renderer, results []*result) error {
	if len(results) > 0 && results[0].raw != nil {
		for _, res := range results {
			r.Println(strings.TrimRight(string(res.raw), "\n"))
		}
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		if len(results) == 1 {
			return r.JSON(results[0].value)
		}
		values := make([]any, len(results))
		for i, res := range results {
			values[i] = res.value
		}
		return r.JSON(values)
	}

	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				r.Println()
			}
			r.Header(fmt.Sprintf("%s (%s)", res.name, res.queryType))
		}
		if err := r.Table(res.table); err != nil {
			return err
		}
	}
	return nil
}
