package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// TopN returns the Threshold best values of one dimension ranked by Metric.
type TopN struct {
	DataSource       DataSource        `json:"dataSource"`
	Dimension        Dimension         `json:"dimension"`
	Threshold        int               `json:"threshold"`
	Metric           string            `json:"metric"`
	Filter           Filter            `json:"filter,omitempty"`
	Aggregations     []Aggregation     `json:"aggregations"`
	PostAggregations []PostAggregation `json:"postAggregations,omitempty"`
	Intervals        []string          `json:"intervals"`
	Granularity      Granularity       `json:"granularity"`
	Context          Context           `json:"context,omitempty"`
}

// QueryType implements Request.
func (*TopN) QueryType() string { return TypeTopN }

func (*TopN) query() {}

// MarshalJSON implements json.Marshaler.
func (q TopN) MarshalJSON() ([]byte, error) {
	switch {
	case q.DataSource == nil:
		return nil, missing("dataSource")
	case q.Dimension == nil:
		return nil, missing("dimension")
	}
	type plain TopN
	p := plain(q)
	p.Aggregations = serde.OrEmpty(p.Aggregations)
	p.Intervals = serde.OrEmpty(p.Intervals)
	return serde.MarshalTagged("queryType", TypeTopN, p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *TopN) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource       rawMessage   `json:"dataSource"`
		Dimension        rawMessage   `json:"dimension"`
		Threshold        int          `json:"threshold"`
		Metric           string       `json:"metric"`
		Filter           rawMessage   `json:"filter"`
		Aggregations     []rawMessage `json:"aggregations"`
		PostAggregations []rawMessage `json:"postAggregations"`
		Intervals        []string     `json:"intervals"`
		Granularity      Granularity  `json:"granularity"`
		Context          Context      `json:"context"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	ds, err := decodeRequired(aux.DataSource, "dataSource", decodeDataSourceOrName)
	if err != nil {
		return err
	}
	dim, err := decodeRequired(aux.Dimension, "dimension", decodeDimensionOrName)
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
	*q = TopN{
		DataSource:       ds,
		Dimension:        dim,
		Threshold:        aux.Threshold,
		Metric:           aux.Metric,
		Filter:           filter,
		Aggregations:     aggs,
		PostAggregations: posts,
		Intervals:        aux.Intervals,
		Granularity:      aux.Granularity,
		Context:          aux.Context,
	}
	dropEmpty(q)
	return nil
}
