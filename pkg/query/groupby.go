package query

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

// GroupBy aggregates rows grouped by one or more dimensions.
type GroupBy struct {
	DataSource       DataSource        `json:"dataSource"`
	Dimensions       []Dimension       `json:"dimensions"`
	LimitSpec        *LimitSpec        `json:"limitSpec,omitempty"`
	Having           HavingSpec        `json:"having,omitempty"`
	Granularity      Granularity       `json:"granularity"`
	Filter           Filter            `json:"filter,omitempty"`
	Aggregations     []Aggregation     `json:"aggregations"`
	PostAggregations []PostAggregation `json:"postAggregations"`
	Intervals        []string          `json:"intervals"`
	SubtotalsSpec    [][]string        `json:"subtotalsSpec,omitempty"`
	Context          Context           `json:"context,omitempty"`
}

// QueryType implements Request.
func (*GroupBy) QueryType() string { return TypeGroupBy }

func (*GroupBy) query() {}

// MarshalJSON implements json.Marshaler.
func (q GroupBy) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain GroupBy
	p := plain(q)
	p.Dimensions = serde.OrEmpty(p.Dimensions)
	p.Aggregations = serde.OrEmpty(p.Aggregations)
	p.PostAggregations = serde.OrEmpty(p.PostAggregations)
	p.Intervals = serde.OrEmpty(p.Intervals)
	return serde.MarshalTagged("queryType", TypeGroupBy, p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *GroupBy) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource       rawMessage   `json:"dataSource"`
		Dimensions       []rawMessage `json:"dimensions"`
		LimitSpec        *LimitSpec   `json:"limitSpec"`
		Having           rawMessage   `json:"having"`
		Granularity      Granularity  `json:"granularity"`
		Filter           rawMessage   `json:"filter"`
		Aggregations     []rawMessage `json:"aggregations"`
		PostAggregations []rawMessage `json:"postAggregations"`
		Intervals        []string     `json:"intervals"`
		SubtotalsSpec    [][]string   `json:"subtotalsSpec"`
		Context          Context      `json:"context"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	ds, err := decodeRequired(aux.DataSource, "dataSource", decodeDataSourceOrName)
	if err != nil {
		return err
	}
	dims, err := decodeDimensions(aux.Dimensions)
	if err != nil {
		return err
	}
	having, err := decodeOptional(aux.Having, DecodeHavingSpec)
	if err != nil {
		return err
	}
	filter, err := decodeOptional(aux.Filter, DecodeFilter)
	if err != nil {
		return err
	}
	aggs, err := decodeAggregations(aux.Aggregations)
	if err != nil {
		return err
	}
	posts, err := decodePostAggregations(aux.PostAggregations)
	if err != nil {
		return err
	}
	*q = GroupBy{
		DataSource:       ds,
		Dimensions:       dims,
		LimitSpec:        aux.LimitSpec,
		Having:           having,
		Granularity:      aux.Granularity,
		Filter:           filter,
		Aggregations:     aggs,
		PostAggregations: posts,
		Intervals:        aux.Intervals,
		SubtotalsSpec:    aux.SubtotalsSpec,
		Context:          aux.Context,
	}
	dropEmpty(q)
	return nil
}

// GroupByBuilder assembles a GroupBy. Setters return an updated copy and
// never share slices or maps with the receiver.
type GroupByBuilder struct {
	q GroupBy
}

// NewGroupBy starts a groupBy query over ds with granularity all and no
// dimensions, aggregations or intervals.
func NewGroupBy(ds DataSource) GroupByBuilder {
	return GroupByBuilder{q: GroupBy{DataSource: ds, Granularity: GranularityAll}}
}

// DataSource replaces the data source.
func (b GroupByBuilder) DataSource(ds DataSource) GroupByBuilder {
	b.q.DataSource = ds
	return b
}

// Dimensions appends dimensions.
func (b GroupByBuilder) Dimensions(dims ...Dimension) GroupByBuilder {
	b.q.Dimensions = append(slices.Clone(b.q.Dimensions), dims...)
	return b
}

// Limit sets the limit spec.
func (b GroupByBuilder) Limit(spec LimitSpec) GroupByBuilder {
	spec.Columns = slices.Clone(spec.Columns)
	b.q.LimitSpec = &spec
	return b
}

// Having sets the having spec.
func (b GroupByBuilder) Having(h HavingSpec) GroupByBuilder {
	b.q.Having = h
	return b
}

// Granularity sets the granularity.
func (b GroupByBuilder) Granularity(g Granularity) GroupByBuilder {
	b.q.Granularity = g
	return b
}

// Filter sets the filter.
func (b GroupByBuilder) Filter(f Filter) GroupByBuilder {
	b.q.Filter = f
	return b
}

// Aggregations appends aggregations.
func (b GroupByBuilder) Aggregations(aggs ...Aggregation) GroupByBuilder {
	b.q.Aggregations = append(slices.Clone(b.q.Aggregations), aggs...)
	return b
}

// PostAggregations appends post-aggregations.
func (b GroupByBuilder) PostAggregations(posts ...PostAggregation) GroupByBuilder {
	b.q.PostAggregations = append(slices.Clone(b.q.PostAggregations), posts...)
	return b
}

// Intervals appends ISO-8601 intervals.
func (b GroupByBuilder) Intervals(intervals ...string) GroupByBuilder {
	b.q.Intervals = append(slices.Clone(b.q.Intervals), intervals...)
	return b
}

// Subtotals appends a subtotal grouping.
func (b GroupByBuilder) Subtotals(dims ...string) GroupByBuilder {
	b.q.SubtotalsSpec = append(slices.Clone(b.q.SubtotalsSpec), slices.Clone(dims))
	return b
}

// Context sets one context entry.
func (b GroupByBuilder) Context(key string, value any) GroupByBuilder {
	ctx := maps.Clone(b.q.Context)
	if ctx == nil {
		ctx = Context{}
	}
	ctx[key] = value
	b.q.Context = ctx
	return b
}

// Build returns the query, or an error wrapping ErrMissingField when the
// data source or intervals are unset.
func (b GroupByBuilder) Build() (*GroupBy, error) {
	switch {
	case b.q.DataSource == nil:
		return nil, missing("dataSource")
	case len(b.q.Intervals) == 0:
		return nil, missing("intervals")
	}
	q := b.q
	q.Dimensions = slices.Clone(q.Dimensions)
	q.Aggregations = slices.Clone(q.Aggregations)
	q.PostAggregations = slices.Clone(q.PostAggregations)
	q.Intervals = slices.Clone(q.Intervals)
	q.SubtotalsSpec = slices.Clone(q.SubtotalsSpec)
	q.Context = maps.Clone(q.Context)
	return &q, nil
}
