package query

import (
	"testing"

	"github.com/leapstack-labs/druidql/pkg/serde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wikipediaTopN() *TopN {
	return &TopN{
		DataSource:   Table("wikipedia"),
		Dimension:    DefaultDimension{Dimension: "page", OutputName: "page", OutputType: OutputString},
		Threshold:    10,
		Metric:       "count",
		Aggregations: []Aggregation{Count("count")},
		Intervals:    []string{"2016-06-27/2016-06-28"},
		Granularity:  GranularityAll,
	}
}

func TestTopN_Encode(t *testing.T) {
	data, err := serde.Marshal(wikipediaTopN())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"queryType": "topN",
		"dataSource": {"type": "table", "name": "wikipedia"},
		"dimension": {"type": "default", "dimension": "page", "outputName": "page", "outputType": "STRING"},
		"threshold": 10,
		"metric": "count",
		"aggregations": [{"type": "count", "name": "count"}],
		"intervals": ["2016-06-27/2016-06-28"],
		"granularity": "all"
	}`, string(data))
}

func TestQuery_Tags(t *testing.T) {
	queries := map[string]Request{
		TypeTopN:               wikipediaTopN(),
		TypeGroupBy:            &GroupBy{DataSource: Table("t")},
		TypeScan:               &Scan{DataSource: Table("t")},
		TypeSearch:             &Search{DataSource: Table("t"), Query: ContainsSearch{Value: "x"}},
		TypeTimeBoundary:       &TimeBoundary{DataSource: Table("t")},
		TypeSegmentMetadata:    &SegmentMetadata{DataSource: Table("t")},
		TypeTimeseries:         &Timeseries{DataSource: Table("t")},
		TypeDataSourceMetadata: &DataSourceMetadata{DataSource: Table("t")},
	}

	for want, q := range queries {
		t.Run(want, func(t *testing.T) {
			assert.Equal(t, want, q.QueryType())

			data, err := serde.Marshal(q)
			require.NoError(t, err)
			tag, err := serde.Tag(data, "queryType")
			require.NoError(t, err)
			assert.Equal(t, want, tag)
		})
	}
}

func TestQuery_RoundTrip(t *testing.T) {
	groupBy, err := NewGroupBy(Table("wikipedia")).
		Dimensions(Dim("country"), ExtractionDimension{Dimension: "page", OutputName: "len", OutputType: OutputLong, ExtractionFn: StrlenExtraction{}}).
		Aggregations(Field(LongSum, "added", "added"), Count("rows")).
		PostAggregations(ArithmeticPostAggregation{Name: "avg", Fn: "/", Fields: []PostAggregator{
			FieldAccess{Name: "added", FieldName: "added"},
			FieldAccess{Name: "rows", FieldName: "rows"},
		}}).
		Filter(Not(Selector("country", ""))).
		Having(ComparisonHaving{Type: GreaterThan, Aggregation: "rows", Value: NumberInt(100)}).
		Limit(LimitSpec{Limit: 10, Columns: []OrderByColumnSpec{{Dimension: "rows", Direction: Descending, DimensionOrder: Numeric}}}).
		Granularity(GranularityDay).
		Intervals("2016-06-27/2016-06-28").
		Subtotals("country").
		Context("timeout", 30000.0).
		Build()
	require.NoError(t, err)

	queries := []Query{
		wikipediaTopN(),
		groupBy,
		&Scan{
			DataSource:   Table("wikipedia"),
			Intervals:    []string{"2016-06-27/2016-06-28"},
			ResultFormat: ResultCompactedList,
			Filter:       InFilter{Dimension: "country", Values: []string{"nz"}},
			Columns:      []string{"__time", "page"},
			BatchSize:    20480,
			Limit:        100,
			Order:        Descending,
		},
		&Search{
			DataSource:       Table("wikipedia"),
			Granularity:      GranularityAll,
			Limit:            5,
			Intervals:        []string{"2016-06-27/2016-06-28"},
			SearchDimensions: []string{"page"},
			Query:            InsensitiveContainsSearch{Value: "foo"},
			Sort:             Strlen,
		},
		&TimeBoundary{DataSource: Table("wikipedia"), Bound: BoundMaxTime, Filter: Selector("a", "b")},
		&TimeBoundary{DataSource: Table("wikipedia")},
		&TopN{DataSource: Table("wikipedia"), Dimension: Dim("page")},
		&Scan{DataSource: Table("wikipedia")},
		&Search{DataSource: Table("wikipedia"), Query: ContainsSearch{Value: "x"}},
		&GroupBy{DataSource: Table("wikipedia"), LimitSpec: &LimitSpec{Limit: 5}},
		&SegmentMetadata{DataSource: Table("wikipedia"), ToInclude: ToIncludeList()},
		&SegmentMetadata{DataSource: Table("wikipedia"), ToInclude: ToIncludeNone},
		&Timeseries{DataSource: Table("wikipedia")},
		&SegmentMetadata{
			DataSource:    Table("wikipedia"),
			Intervals:     []string{"2016-06-27/2016-06-28"},
			ToInclude:     ToIncludeList("page", "added"),
			Merge:         true,
			AnalysisTypes: []AnalysisType{AnalysisCardinality, AnalysisMinMax},
		},
		&Timeseries{
			DataSource:       QueryDataSource{Query: wikipediaTopN()},
			Descending:       true,
			Intervals:        []string{"2016-06-27/2016-06-28"},
			Granularity:      DurationGranularity(3600000),
			Aggregations:     []Aggregation{Field(DoubleSum, "delta", "delta")},
			Limit:            3,
			Context:          Context{"useCache": false},
		},
	}

	for _, q := range queries {
		t.Run(q.QueryType(), func(t *testing.T) {
			roundTrip(t, q, DecodeQuery)
		})
	}
}

func TestGroupByBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q, err := NewGroupBy(Table("t")).Intervals("2020/2021").Build()
		require.NoError(t, err)
		assert.Equal(t, GranularityAll, q.Granularity)
		assert.Nil(t, q.Dimensions)
		assert.Nil(t, q.Context)

		data, err := serde.Marshal(q)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"queryType": "groupBy",
			"dataSource": {"type": "table", "name": "t"},
			"dimensions": [],
			"granularity": "all",
			"aggregations": [],
			"postAggregations": [],
			"intervals": ["2020/2021"]
		}`, string(data))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := NewGroupBy(nil).Intervals("2020/2021").Build()
		assert.ErrorIs(t, err, ErrMissingField)

		_, err = NewGroupBy(Table("t")).Build()
		require.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), "intervals")
	})

	t.Run("value semantics", func(t *testing.T) {
		base := NewGroupBy(Table("t")).Intervals("2020/2021").Context("a", "1")
		left := base.Dimensions(Dim("x")).Context("b", "2")
		right := base.Dimensions(Dim("y"))

		l, err := left.Build()
		require.NoError(t, err)
		r, err := right.Build()
		require.NoError(t, err)
		b, err := base.Build()
		require.NoError(t, err)

		assert.Equal(t, []Dimension{Dim("x")}, l.Dimensions)
		assert.Equal(t, []Dimension{Dim("y")}, r.Dimensions)
		assert.Empty(t, b.Dimensions)
		assert.Equal(t, Context{"a": "1", "b": "2"}, l.Context)
		assert.Equal(t, Context{"a": "1"}, r.Context)
	})
}

func TestTimeBoundary_OmitsBothBound(t *testing.T) {
	data, err := serde.Marshal(&TimeBoundary{DataSource: Table("t"), Bound: BoundMinMaxTime})
	require.NoError(t, err)
	assert.JSONEq(t, `{"queryType":"timeBoundary","dataSource":{"type":"table","name":"t"}}`, string(data))

	q, err := DecodeQuery([]byte(`{"queryType":"timeBoundary","dataSource":"t","bound":"minMaxTime"}`))
	require.NoError(t, err)
	assert.Equal(t, &TimeBoundary{DataSource: Table("t"), Bound: BoundMinMaxTime}, q)

	_, err = DecodeQuery([]byte(`{"queryType":"timeBoundary","dataSource":"t","bound":"midTime"}`))
	assert.Error(t, err)
}

func TestSegmentMetadata_Encode(t *testing.T) {
	data, err := serde.Marshal(&SegmentMetadata{DataSource: Table("t"), ToInclude: ToIncludeAll})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"queryType": "segmentMetadata",
		"dataSource": {"type": "table", "name": "t"},
		"toInclude": {"type": "all"},
		"merge": false,
		"lenientAggregatorMerge": false
	}`, string(data))

	var inc ToInclude
	require.NoError(t, serde.Unmarshal([]byte(`"none"`), &inc))
	assert.Equal(t, ToIncludeNone, inc)
}

func TestSearch_Sort(t *testing.T) {
	base := `{"queryType":"search","dataSource":"t","query":{"type":"contains","value":"x","caseSensitive":false}`
	tests := []struct {
		name string
		sort string
		want SortingOrder
	}{
		{"absent", ``, ""},
		{"bare", `,"sort":"strlen"`, Strlen},
		{"tagged", `,"sort":{"type":"alphanumeric"}`, Alphanumeric},
		{"null", `,"sort":null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := DecodeQuery([]byte(base + tt.sort + `}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.(*Search).Sort)
		})
	}

	data, err := serde.Marshal(&Search{DataSource: Table("t"), Query: RegexSearch{Pattern: "^a"}, Sort: Numeric})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sort":{"type":"numeric"}`)
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"queryType":"dataSourceMetadata","dataSource":{"type":"table","name":"t"}}`))
	require.NoError(t, err)
	assert.Equal(t, &DataSourceMetadata{DataSource: Table("t")}, req)

	_, err = DecodeQuery([]byte(`{"queryType":"dataSourceMetadata","dataSource":"t"}`))
	var unknown *UnknownTypeError
	assert.ErrorAs(t, err, &unknown)

	_, err = DecodeRequest([]byte(`{"dataSource":"t"}`))
	assert.ErrorIs(t, err, serde.ErrMissingTag)

	_, err = DecodeQuery([]byte(`{"queryType":"topN","dimension":"page"}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestQuery_EncodeMissingDataSource(t *testing.T) {
	_, err := serde.Marshal(&TopN{Dimension: Dim("x")})
	assert.Error(t, err)
}
