package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Timeseries aggregates rows into time buckets.
type Timeseries struct {
	DataSource       DataSource        `json:"dataSource"`
	Descending       bool              `json:"descending"`
	Intervals        []string          `json:"intervals"`
	Granularity      Granularity       `json:"granularity"`
	Filter           Filter            `json:"filter,omitempty"`
	Aggregations     []Aggregation     `json:"aggregations"`
	PostAggregations []PostAggregation `json:"postAggregations"`
	Limit            int               `json:"limit,omitempty"`
	Context          Context           `json:"context,omitempty"`
}

// QueryType implements Request.
func (*Timeseries) QueryType() string { return TypeTimeseries }

func (*Timeseries) query() {}

// MarshalJSON implements json.Marshaler.
func (q Timeseries) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain Timeseries
	p := plain(q)
	p.Intervals = serde.OrEmpty(p.Intervals)
	p.Aggregations = serde.OrEmpty(p.Aggregations)
	p.PostAggregations = serde.OrEmpty(p.PostAggregations)
	return serde.MarshalTagged("queryType", TypeTimeseries, p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Timeseries) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource       rawMessage   `json:"dataSource"`
		Descending       bool         `json:"descending"`
		Intervals        []string     `json:"intervals"`
		Granularity      Granularity  `json:"granularity"`
		Filter           rawMessage   `json:"filter"`
		Aggregations     []rawMessage `json:"aggregations"`
		PostAggregations []rawMessage `json:"postAggregations"`
		Limit            int          `json:"limit"`
		Context          Context      `json:"context"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	ds, err := decodeRequired(aux.DataSource, "dataSource", decodeDataSourceOrName)
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
	*q = Timeseries{
		DataSource:       ds,
		Descending:       aux.Descending,
		Intervals:        aux.Intervals,
		Granularity:      aux.Granularity,
		Filter:           filter,
		Aggregations:     aggs,
		PostAggregations: posts,
		Limit:            aux.Limit,
		Context:          aux.Context,
	}
	dropEmpty(q)
	return nil
}
