package druid

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/leapstack-labs/druidql/internal/testutil"
	"github.com/leapstack-labs/druidql/pkg/broker"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

func newTestClient(t *testing.T, brokers ...*testutil.FakeBroker) *Client {
	t.Helper()
	addrs := make([]string, len(brokers))
	for i, b := range brokers {
		addrs[i] = b.Addr()
	}
	c, err := New(addrs, WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	return c
}

func wikipediaTopN() *query.TopN {
	return &query.TopN{
		DataSource:   query.Table("wikipedia"),
		Dimension:    query.Dim("page"),
		Threshold:    10,
		Metric:       "count",
		Aggregations: []query.Aggregation{query.Count("count")},
		Intervals:    []string{"2016-06-27/2016-06-28"},
		Granularity:  query.GranularityAll,
	}
}

func TestClient_TopN(t *testing.T) {
	fake := testutil.NewFakeBroker(t)
	fake.Respond(query.TypeTopN, http.StatusOK, `[
		{"timestamp": "2016-06-27T00:00:00.000Z", "result": [{"page": "Main", "count": 3}]}
	]`)
	c := newTestClient(t, fake)

	rows, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []pageCount{{"Main", 3}}, rows[0].Result)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, query.TypeTopN, reqs[0].QueryType)
	assert.True(t, reqs[0].Pretty)
	assert.JSONEq(t, `{
		"queryType": "topN",
		"dataSource": {"type": "table", "name": "wikipedia"},
		"dimension": {"type": "default", "dimension": "page", "outputName": "page", "outputType": "STRING"},
		"threshold": 10,
		"metric": "count",
		"aggregations": [{"type": "count", "name": "count"}],
		"intervals": ["2016-06-27/2016-06-28"],
		"granularity": "all"
	}`, string(reqs[0].Body))
}

func TestClient_Operations(t *testing.T) {
	fake := testutil.NewFakeBroker(t)
	fake.Respond(query.TypeGroupBy, http.StatusOK, `[{"version":"v1","timestamp":"2016-06-27T00:00:00.000Z","event":{"page":"Main","count":2}}]`)
	fake.Respond(query.TypeScan, http.StatusOK, `[{"segmentId":"s1","columns":["page"],"events":null}]`)
	fake.Respond(query.TypeTimeseries, http.StatusOK, `[{"timestamp":"2016-06-27T00:00:00.000Z","result":{"count":5}}]`)
	fake.Respond(query.TypeSearch, http.StatusOK, `[{"timestamp":"2016-06-27T00:00:00.000Z","result":[{"dimension":"page","value":"Main","count":1}]}]`)
	fake.Respond(query.TypeTimeBoundary, http.StatusOK, `[{"timestamp":"2016-06-27T00:00:00.000Z","result":{"minTime":"2016-06-27T00:00:00.000Z","maxTime":"2016-06-27T23:59:59.000Z"}}]`)
	fake.Respond(query.TypeSegmentMetadata, http.StatusOK, `[{"id":"merged","intervals":null,"columns":{},"aggregators":null}]`)
	fake.Respond(query.TypeDataSourceMetadata, http.StatusOK, `[{"timestamp":"2016-06-27T00:00:00.000Z","result":{"maxIngestedEventTime":"2016-06-27T23:59:59.000Z"}}]`)
	c := newTestClient(t, fake)
	ctx := context.Background()
	ds := query.Table("wikipedia")

	groupBy, err := query.NewGroupBy(ds).Intervals("2016-06-27/2016-06-28").Build()
	require.NoError(t, err)
	gb, err := GroupBy[pageCount](ctx, c, groupBy)
	require.NoError(t, err)
	assert.Equal(t, pageCount{"Main", 2}, gb[0].Event)

	scan, err := Scan[map[string]any](ctx, c, &query.Scan{DataSource: ds})
	require.NoError(t, err)
	assert.Equal(t, "s1", scan[0].SegmentID)
	assert.NotNil(t, scan[0].Events)

	ts, err := Timeseries[map[string]int](ctx, c, &query.Timeseries{DataSource: ds})
	require.NoError(t, err)
	assert.Equal(t, 5, ts[0].Result["count"])

	search, err := c.Search(ctx, &query.Search{DataSource: ds, Query: query.ContainsSearch{Value: "Ma"}})
	require.NoError(t, err)
	assert.Equal(t, query.AnyString("Main"), search[0].Result[0].Value)

	tb, err := c.TimeBoundary(ctx, &query.TimeBoundary{DataSource: ds})
	require.NoError(t, err)
	assert.Equal(t, "2016-06-27T23:59:59.000Z", *tb[0].Result.MaxTime)

	sm, err := c.SegmentMetadata(ctx, &query.SegmentMetadata{DataSource: ds})
	require.NoError(t, err)
	assert.Equal(t, []string{}, sm[0].Intervals)
	assert.Equal(t, map[string]response.AggregatorDefinition{}, sm[0].Aggregators)

	dsm, err := DataSourceMetadata[map[string]string](ctx, c, &query.DataSourceMetadata{DataSource: ds})
	require.NoError(t, err)
	assert.Equal(t, "2016-06-27T23:59:59.000Z", dsm[0].Result["maxIngestedEventTime"])

	generic, err := Query[map[string]any](ctx, c, &query.Timeseries{DataSource: ds})
	require.NoError(t, err)
	assert.Len(t, generic, 1)

	assert.Len(t, fake.Requests(), 8)
}

func TestClient_ServerError(t *testing.T) {
	const body = `{"error": "some failure"}`
	fake := testutil.NewFakeBroker(t)
	fake.Respond("", http.StatusInternalServerError, body)
	c := newTestClient(t, fake)
	ctx := context.Background()
	ds := query.Table("wikipedia")

	calls := map[string]func() error{
		"topN": func() error { _, err := TopN[pageCount](ctx, c, wikipediaTopN()); return err },
		"groupBy": func() error {
			_, err := GroupBy[pageCount](ctx, c, &query.GroupBy{DataSource: ds})
			return err
		},
		"scan":       func() error { _, err := Scan[[]any](ctx, c, &query.Scan{DataSource: ds}); return err },
		"timeseries": func() error { _, err := Timeseries[any](ctx, c, &query.Timeseries{DataSource: ds}); return err },
		"search": func() error {
			_, err := c.Search(ctx, &query.Search{DataSource: ds, Query: query.ContainsSearch{Value: "x"}})
			return err
		},
		"timeBoundary":    func() error { _, err := c.TimeBoundary(ctx, &query.TimeBoundary{DataSource: ds}); return err },
		"segmentMetadata": func() error { _, err := c.SegmentMetadata(ctx, &query.SegmentMetadata{DataSource: ds}); return err },
		"dataSourceMetadata": func() error {
			_, err := DataSourceMetadata[any](ctx, c, &query.DataSourceMetadata{DataSource: ds})
			return err
		},
		"query": func() error { _, err := Query[any](ctx, c, wikipediaTopN()); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, ErrServer)

			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, KindServer, derr.Kind)
			assert.Equal(t, body, string(derr.Body))
			assert.Equal(t, http.StatusInternalServerError, derr.Status)
			assert.Contains(t, err.Error(), "some failure")
		})
	}
}

func TestClient_ServerErrorShortCircuits(t *testing.T) {
	// The envelope fields would decode fine; the error marker still wins.
	fake := testutil.NewFakeBroker(t)
	fake.Respond(query.TypeTimeBoundary, http.StatusOK,
		`{"error": "Query timeout", "errorMessage": "Timeout waiting for task.", "errorClass": "java.util.concurrent.TimeoutException", "host": "historical:8083", "timestamp": "x", "result": {}}`)
	c := newTestClient(t, fake)

	_, err := c.TimeBoundary(context.Background(), &query.TimeBoundary{DataSource: query.Table("t")})
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindServer, derr.Kind)

	msg, ok := derr.ServerMessage()
	require.True(t, ok)
	assert.Equal(t, ServerMessage{
		Error:        "Query timeout",
		ErrorMessage: "Timeout waiting for task.",
		ErrorClass:   "java.util.concurrent.TimeoutException",
		Host:         "historical:8083",
	}, msg)
}

func TestClient_ResponseParsingError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"wrong shape", http.StatusOK, `{"unexpected": true}`},
		{"wrong field type", http.StatusOK, `[{"timestamp": 12, "result": []}]`},
		{"wrong shape on failure status", http.StatusInternalServerError, `{"unexpected": true}`},
		{"not json", http.StatusBadGateway, `<html>Bad Gateway</html>`},
		{"empty", http.StatusOK, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeBroker(t)
			fake.Respond(query.TypeTopN, tt.status, tt.body)
			c := newTestClient(t, fake)

			_, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
			require.ErrorIs(t, err, ErrResponseParsing)
			assert.NotErrorIs(t, err, ErrServer)

			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.body, string(derr.Body))
			assert.Equal(t, tt.status, derr.Status)
		})
	}
}

func TestClient_SerializationError(t *testing.T) {
	fake := testutil.NewFakeBroker(t)
	c := newTestClient(t, fake)

	_, err := TopN[pageCount](context.Background(), c, &query.TopN{Dimension: query.Dim("page")})
	require.ErrorIs(t, err, ErrSerialization)
	assert.ErrorIs(t, err, query.ErrMissingField)
	assert.Empty(t, fake.Requests(), "nothing is sent")
}

func TestClient_TransportError(t *testing.T) {
	t.Run("closed broker", func(t *testing.T) {
		fake := testutil.NewFakeBroker(t)
		c := newTestClient(t, fake)
		fake.Close()

		_, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := testutil.NewFakeBroker(t)
		fake.Respond("", http.StatusOK, `[]`)
		c := newTestClient(t, fake)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := TopN[pageCount](ctx, c, wikipediaTopN())
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("client survives failures", func(t *testing.T) {
		fake := testutil.NewFakeBroker(t)
		c := newTestClient(t, fake)

		_, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
		require.ErrorIs(t, err, ErrServer)

		fake.Respond(query.TypeTopN, http.StatusOK, `[]`)
		rows, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestClient_RoundRobin(t *testing.T) {
	a, b := testutil.NewFakeBroker(t), testutil.NewFakeBroker(t)
	a.Respond("", http.StatusOK, `[]`)
	b.Respond("", http.StatusOK, `[]`)
	c := newTestClient(t, a, b)

	for range 4 {
		_, err := TopN[pageCount](context.Background(), c, wikipediaTopN())
		require.NoError(t, err)
	}
	assert.Len(t, a.Requests(), 2)
	assert.Len(t, b.Requests(), 2)
}

func TestClient_Logging(t *testing.T) {
	fake := testutil.NewFakeBroker(t)
	fake.Respond(query.TypeTopN, http.StatusOK, `[]`)
	logger, logs := testutil.NewLogCapture()
	c, err := New([]string{fake.Addr()}, WithLogger(logger))
	require.NoError(t, err)

	_, err = TopN[pageCount](context.Background(), c, wikipediaTopN())
	require.NoError(t, err)

	lines := logs.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="sending query"`)
	assert.Contains(t, lines[0], "broker="+fake.Addr())
	assert.Contains(t, lines[0], "query_type=topN")
	assert.Contains(t, lines[1], `msg="query complete"`)
	assert.Contains(t, lines[1], "status=200")
}

func TestClient_DoRaw(t *testing.T) {
	fake := testutil.NewFakeBroker(t)
	fake.Respond(query.TypeScan, http.StatusOK, `[{"segmentId":"s","columns":[],"events":[]}]`)
	c := newTestClient(t, fake)

	body, err := c.DoRaw(context.Background(), []byte(`{"queryType":"scan","dataSource":"t","intervals":[]}`))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"segmentId":"s"`)

	_, err = c.DoRaw(context.Background(), []byte(`{"dataSource":"t"}`))
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, broker.ErrNoBrokers)

	pool, err := broker.NewStaticPool([]string{"a:1"}, nil)
	require.NoError(t, err)
	c, err := New(nil, WithPool(pool))
	require.NoError(t, err)
	assert.Same(t, pool, c.Pool())

	c, err = New([]string{"a:1", "b:2"}, WithStrategy(broker.Constant{}))
	require.NoError(t, err)
	assert.Equal(t, "a:1", c.Pool().Broker())
	assert.Equal(t, "a:1", c.Pool().Broker())
}

func TestError_Excerpt(t *testing.T) {
	body := []byte(`{"error":"` + strings.Repeat("x", 2000) + `"}`)
	err := &Error{Kind: KindServer, Status: 500, Body: body}

	assert.Len(t, err.Body, len(body))
	assert.Less(t, len(err.Error()), 600)
	assert.True(t, strings.HasSuffix(err.Excerpt(), "..."))
	assert.Equal(t, "server", err.Kind.String())
	assert.Equal(t, "unknown", Kind(99).String())

	_, ok := (&Error{Kind: KindTransport}).ServerMessage()
	assert.False(t, ok)
}
