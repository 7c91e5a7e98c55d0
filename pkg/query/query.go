package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Request is anything that can be posted to a broker's native query
// endpoint.
type Request interface {
	// QueryType returns the "queryType" discriminator.
	QueryType() string
}

// Query is a request that may also be nested in a query data source.
type Query interface {
	Request
	query()
}

// Context carries per-query engine settings such as timeout or queryId.
type Context map[string]any

// Query types.
const (
	TypeTopN               = "topN"
	TypeGroupBy            = "groupBy"
	TypeScan               = "scan"
	TypeSearch             = "search"
	TypeTimeBoundary       = "timeBoundary"
	TypeSegmentMetadata    = "segmentMetadata"
	TypeTimeseries         = "timeseries"
	TypeDataSourceMetadata = "dataSourceMetadata"
)

// DecodeQuery decodes a query by its "queryType" member.
func DecodeQuery(data []byte) (Query, error) {
	tag, err := serde.Tag(data, "queryType")
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypeTopN:
		return decodeQuery[TopN](data)
	case TypeGroupBy:
		return decodeQuery[GroupBy](data)
	case TypeScan:
		return decodeQuery[Scan](data)
	case TypeSearch:
		return decodeQuery[Search](data)
	case TypeTimeBoundary:
		return decodeQuery[TimeBoundary](data)
	case TypeSegmentMetadata:
		return decodeQuery[SegmentMetadata](data)
	case TypeTimeseries:
		return decodeQuery[Timeseries](data)
	}
	return nil, &UnknownTypeError{Family: "query", Type: tag}
}

// DecodeRequest decodes any request, including the standalone
// dataSourceMetadata request.
func DecodeRequest(data []byte) (Request, error) {
	tag, err := serde.Tag(data, "queryType")
	if err != nil {
		return nil, err
	}
	if tag == TypeDataSourceMetadata {
		q := new(DataSourceMetadata)
		if err := q.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return q, nil
	}
	return DecodeQuery(data)
}

// decodeDataSourceOrName decodes a data source, taking a bare string as a
// table name.
func decodeDataSourceOrName(data []byte) (DataSource, error) {
	var name string
	if err := serde.Unmarshal(data, &name); err == nil {
		return Table(name), nil
	}
	return DecodeDataSource(data)
}

func decodeAggregations(raws []rawMessage) ([]Aggregation, error) {
	return decodeSlice(raws, "aggregations", DecodeAggregation)
}

func decodePostAggregations(raws []rawMessage) ([]PostAggregation, error) {
	return decodeSlice(raws, "postAggregations", DecodePostAggregation)
}
