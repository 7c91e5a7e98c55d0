package druid

import (
	"context"

	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/response"
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// run decodes a list response into []R. A null body yields an empty slice.
func run[R any](ctx context.Context, c *Client, req query.Request) ([]R, error) {
	var out []R
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return serde.OrEmpty(out), nil
}

// Query runs any query and decodes each element of the response into T.
func Query[T any](ctx context.Context, c *Client, q query.Query) ([]T, error) {
	return run[T](ctx, c, q)
}

// TopN runs a topN query. T is the row type of each bucket's result list.
func TopN[T any](ctx context.Context, c *Client, q *query.TopN) ([]response.List[T], error) {
	return run[response.List[T]](ctx, c, q)
}

// GroupBy runs a groupBy query. T is the row type of each event.
func GroupBy[T any](ctx context.Context, c *Client, q *query.GroupBy) ([]response.GroupBy[T], error) {
	return run[response.GroupBy[T]](ctx, c, q)
}

// Scan runs a scan query. T is the event type: an object type for the list
// result format, a slice type for compactedList.
func Scan[T any](ctx context.Context, c *Client, q *query.Scan) ([]response.Scan[T], error) {
	return run[response.Scan[T]](ctx, c, q)
}

// Timeseries runs a timeseries query. T is the per-bucket result type.
func Timeseries[T any](ctx context.Context, c *Client, q *query.Timeseries) ([]response.Result[T], error) {
	return run[response.Result[T]](ctx, c, q)
}

// DataSourceMetadata runs a dataSourceMetadata request. T is usually
// map[string]string carrying maxIngestedEventTime.
func DataSourceMetadata[T any](ctx context.Context, c *Client, q *query.DataSourceMetadata) ([]response.Result[T], error) {
	return run[response.Result[T]](ctx, c, q)
}

// Search runs a search query.
func (c *Client) Search(ctx context.Context, q *query.Search) ([]response.Search, error) {
	return run[response.Search](ctx, c, q)
}

// TimeBoundary runs a timeBoundary query.
func (c *Client) TimeBoundary(ctx context.Context, q *query.TimeBoundary) ([]response.TimeBoundary, error) {
	return run[response.TimeBoundary](ctx, c, q)
}

// SegmentMetadata runs a segmentMetadata query.
func (c *Client) SegmentMetadata(ctx context.Context, q *query.SegmentMetadata) ([]response.SegmentMetadata, error) {
	return run[response.SegmentMetadata](ctx, c, q)
}
