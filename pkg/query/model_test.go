package query

import (
	"testing"

	"github.com/leapstack-labs/druidql/pkg/serde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// roundTrip encodes v and decodes it back with dec.
func roundTrip[T any](t *testing.T, v T, dec func([]byte) (T, error)) {
	t.Helper()
	data, err := serde.Marshal(v)
	require.NoError(t, err)

	got, err := dec(data)
	require.NoError(t, err, "decode %s", data)
	assert.Equal(t, v, got, "round trip of %s", data)
}

func TestFilter_RoundTrip(t *testing.T) {
	filters := []Filter{
		Selector("country", "nz"),
		SelectorFilter{Dimension: "ts", Value: "2024", ExtractionFn: TimeFormatExtraction{Format: "yyyy", AsMillis: true}},
		ColumnComparisonFilter{Dimensions: []Dimension{Dim("a"), Dim("b")}},
		RegexFilter{Dimension: "page", Pattern: "^Main"},
		And(Selector("a", "1"), Or(Selector("b", "2"), Not(TrueFilter{}))),
		And(),
		Or(),
		ColumnComparisonFilter{},
		InFilter{Dimension: "x"},
		IntervalFilter{Dimension: "__time"},
		JavascriptFilter{Dimension: "n", Function: "function(x) { return x > 1 }"},
		SearchFilter{Dimension: "page", Query: InsensitiveContainsSearch{Value: "foo"}},
		SearchFilter{Dimension: "page", Query: FragmentSearch{Values: []string{"a", "b"}, CaseSensitive: true}},
		InFilter{Dimension: "country", Values: []string{"nz", "au"}},
		LikeFilter{Dimension: "page", Pattern: "Main%", Escape: "\\"},
		BoundFilter{Dimension: "age", Lower: "18", Upper: "65", UpperStrict: true, Ordering: Numeric},
		IntervalFilter{Dimension: "__time", Intervals: []string{"2024-01-01/2024-02-01"}, ExtractionFn: StrlenExtraction{}},
		TrueFilter{},
	}
	for _, f := range filters {
		roundTrip(t, f, DecodeFilter)
	}
}

func TestFilter_Encode(t *testing.T) {
	data, err := serde.Marshal(And(Selector("a", "1"), Not(InFilter{Dimension: "b"})))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "and",
		"fields": [
			{"type": "selector", "dimension": "a", "value": "1"},
			{"type": "not", "field": {"type": "in", "dimension": "b", "values": []}}
		]
	}`, string(data))

	data, err = serde.Marshal(BoundFilter{Dimension: "x", Lower: "1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"bound","dimension":"x","lower":"1","lowerStrict":false,"upperStrict":false,"ordering":"lexicographic"}`, string(data))
}

func TestFilter_DecodeLegacyOrdering(t *testing.T) {
	f, err := DecodeFilter([]byte(`{"type":"bound","dimension":"x","upper":"9","ordering":{"type":"numeric"}}`))
	require.NoError(t, err)
	assert.Equal(t, BoundFilter{Dimension: "x", Upper: "9", Ordering: Numeric}, f)
}

func TestFilter_DecodeErrors(t *testing.T) {
	_, err := DecodeFilter([]byte(`{"type":"not"}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = DecodeFilter([]byte(`{"type":"and","fields":[{"type":"nope"}]}`))
	var unknown *UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "filter", unknown.Family)
	assert.Contains(t, err.Error(), "fields[0]")
}

func TestDimension_RoundTrip(t *testing.T) {
	dims := []Dimension{
		Dim("page"),
		DefaultDimension{Dimension: "added", OutputName: "added", OutputType: OutputLong},
		ExtractionDimension{Dimension: "page", OutputName: "first", OutputType: OutputString, ExtractionFn: SubstringExtraction{Index: 0, Length: ptr(1)}},
		ListFilteredDimension{Delegate: Dim("tags"), Values: []string{"a"}, IsWhitelist: true},
		RegexFilteredDimension{Delegate: Dim("tags"), Pattern: "^t"},
		PrefixFilteredDimension{Delegate: Dim("tags"), Prefix: "x"},
		LookupMapDimension{
			Dimension:          "country",
			OutputName:         "name",
			RetainMissingValue: true,
			Lookup:             LookupMap{Map: map[string]string{"nz": "New Zealand"}, IsOneToOne: true},
		},
		LookupDimension{Dimension: "country", OutputName: "name", Name: "countries"},
	}
	for _, d := range dims {
		roundTrip(t, d, DecodeDimension)
	}
}

func TestDimension_LookupForms(t *testing.T) {
	data, err := serde.Marshal(LookupMapDimension{
		Dimension:  "c",
		OutputName: "n",
		Lookup:     LookupMap{Map: map[string]string{"a": "b"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "lookup",
		"dimension": "c",
		"outputName": "n",
		"retainMissingValue": false,
		"lookup": {"type": "map", "map": {"a": "b"}, "isOneToOne": false}
	}`, string(data))

	d, err := DecodeDimension([]byte(`{"type":"lookup","dimension":"c","outputName":"n","name":"countries"}`))
	require.NoError(t, err)
	assert.IsType(t, LookupDimension{}, d)
}

func TestExtractionFn_RoundTrip(t *testing.T) {
	fns := []ExtractionFn{
		RegexExtraction{Expr: "(\\w)", Index: 1, ReplaceMissingValue: true, ReplaceMissingValueWith: ptr("none")},
		PartialExtraction{Expr: "^a"},
		SubstringExtraction{Index: 2},
		StrlenExtraction{},
		TimeFormatExtraction{Format: "EEEE", TimeZone: "UTC", Locale: "en", Granularity: ptr(GranularityDay)},
		TimeExtraction{TimeFormat: "MM/dd/yyyy", ResultFormat: "yyyy-MM-dd", Joda: true},
		JavascriptExtraction{Function: "function(s) { return s }"},
		RegisteredLookupExtraction{Lookup: "countries", RetainMissingValue: true},
		LookupExtraction{Lookup: LookupMap{Map: map[string]string{"a": "b"}}, Injective: true, ReplaceMissingValueWith: "?"},
		CascadeExtraction{ExtractionFns: []ExtractionFn{UpperExtraction{}, LowerExtraction{Locale: "fr"}}},
		StringFormatExtraction{Format: "[%s]", NullHandling: EmptyString},
		BucketExtraction{Size: 5, Offset: 2},
	}
	for _, fn := range fns {
		roundTrip(t, fn, DecodeExtractionFn)
	}

	data, err := serde.Marshal(StrlenExtraction{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"strlen"}`, string(data))
}

func TestAggregation_RoundTrip(t *testing.T) {
	aggs := []Aggregation{
		Count("rows"),
		Field(LongSum, "added", "added"),
		Field(DoubleMax, "max", "delta"),
		Field(StringAny, "any", "page"),
		StringFirstLastAggregation{Type: StringLast, Name: "last", FieldName: "page", MaxStringBytes: 1024},
		JavascriptAggregation{Name: "js", FieldNames: []string{"a"}, FnAggregate: "f", FnCombine: "g", FnReset: "h"},
		ThetaSketchAggregation{Name: "users", FieldName: "user", Size: 16384},
		HLLSketchBuildAggregation{Name: "hll", FieldName: "user", LgK: 12, TgtHLLType: HLL4, Round: true},
		CardinalityAggregation{Name: "card", Fields: []string{"a", "b"}, ByRow: true},
		HyperUniqueAggregation{Name: "uniq", FieldName: "user_unique"},
		FilteredAggregation{Filter: Selector("country", "nz"), Aggregator: Count("nz_rows")},
	}
	for _, a := range aggs {
		roundTrip(t, a, DecodeAggregation)
	}
}

func TestAggregation_Encode(t *testing.T) {
	data, err := serde.Marshal([]Aggregation{Count("count"), Field(FloatFirst, "f", "x")})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"count","name":"count"},
		{"type":"floatFirst","name":"f","fieldName":"x"}
	]`, string(data))

	_, err = serde.Marshal(Field("longMedian", "m", "x"))
	assert.Error(t, err)
}

func TestPostAggregation_RoundTrip(t *testing.T) {
	posts := []PostAggregation{
		ArithmeticPostAggregation{
			Name: "avg",
			Fn:   "/",
			Fields: []PostAggregator{
				FieldAccess{Name: "sum", FieldName: "sum"},
				FinalizingFieldAccess{Name: "count", FieldName: "count"},
				Constant{Name: "k", Value: AnyFloat(2)},
				HyperUniqueCardinality{FieldName: "uniq"},
			},
			Ordering: "numericFirst",
		},
		ExtremumPostAggregation{
			Type:   DoubleGreatest,
			Name:   "top",
			Fields: []PostAggregation{JavascriptPostAggregation{Name: "j", FieldNames: []string{"a"}, Function: "f"}},
		},
		ExtremumPostAggregation{Type: LongLeast, Name: "least"},
	}
	for _, p := range posts {
		roundTrip(t, p, DecodePostAggregation)
	}

	data, err := serde.Marshal(ArithmeticPostAggregation{Name: "x", Fn: "*"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"arithmetic","name":"x","fn":"*","fields":[]}`, string(data))
}

func TestHavingSpec_RoundTrip(t *testing.T) {
	specs := []HavingSpec{
		FilterHaving{Filter: Selector("a", "b")},
		ComparisonHaving{Type: GreaterThan, Aggregation: "count", Value: NumberInt(10)},
		ComparisonHaving{Type: LessThan, Aggregation: "avg", Value: NumberFloat(0.5)},
		DimSelectorHaving{Dimension: "country", Value: AnyString("nz")},
		AndHaving{HavingSpecs: []HavingSpec{
			OrHaving{HavingSpecs: []HavingSpec{ComparisonHaving{Type: EqualTo, Aggregation: "x", Value: NumberInt(1)}}},
			NotHaving{HavingSpec: DimSelectorHaving{Dimension: "d", Value: AnyBool(true)}},
		}},
	}
	for _, h := range specs {
		roundTrip(t, h, DecodeHavingSpec)
	}

	data, err := serde.Marshal(NotHaving{HavingSpec: ComparisonHaving{Type: EqualTo, Aggregation: "n", Value: NumberFloat(3)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"not","havingSpec":{"type":"equalTo","aggregation":"n","value":3.0}}`, string(data))
}

func TestLimitSpec(t *testing.T) {
	spec := LimitSpec{
		Limit: 5,
		Columns: []OrderByColumnSpec{
			{Dimension: "count", Direction: Descending, DimensionOrder: Numeric},
		},
	}
	data, err := serde.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "default",
		"limit": 5,
		"columns": [{"dimension": "count", "direction": "descending", "dimensionOrder": "numeric"}]
	}`, string(data))

	var got LimitSpec
	require.NoError(t, serde.Unmarshal(data, &got))
	assert.Equal(t, spec, got)

	assert.Error(t, serde.Unmarshal([]byte(`{"type":"topN","limit":1}`), &got))
}
