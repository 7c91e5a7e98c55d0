package response

import (
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// SegmentMetadata describes one segment, or the merged view of several when
// the query set merge.
type SegmentMetadata struct {
	ID               string                          `json:"id"`
	Intervals        []string                        `json:"intervals"`
	Columns          map[string]ColumnDefinition     `json:"columns"`
	QueryGranularity string                          `json:"queryGranularity,omitempty"`
	Rollup           *bool                           `json:"rollup,omitempty"`
	Size             *int64                          `json:"size,omitempty"`
	NumRows          *int64                          `json:"numRows,omitempty"`
	TimestampSpec    *TimestampSpec                  `json:"timestampSpec,omitempty"`
	Aggregators      map[string]AggregatorDefinition `json:"aggregators"`
}

// ColumnDefinition is the analysis of a single column.
type ColumnDefinition struct {
	Type              string         `json:"type"`
	TypeSignature     string         `json:"typeSignature,omitempty"`
	HasMultipleValues bool           `json:"hasMultipleValues"`
	HasNulls          bool           `json:"hasNulls"`
	Size              int64          `json:"size"`
	Cardinality       *float64       `json:"cardinality,omitempty"`
	MinValue          *query.JSONAny `json:"minValue,omitempty"`
	MaxValue          *query.JSONAny `json:"maxValue,omitempty"`
	ErrorMessage      *string        `json:"errorMessage,omitempty"`
}

// AggregatorDefinition is an aggregator stored in the segment.
type AggregatorDefinition struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	FieldName  string  `json:"fieldName"`
	Expression *string `json:"expression,omitempty"`
}

// TimestampSpec is the ingestion timestamp specification.
type TimestampSpec struct {
	Column       string  `json:"column"`
	Format       string  `json:"format"`
	MissingValue *string `json:"missingValue,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Null intervals, columns and
// aggregators decode as empty. The query granularity may be a bare name or a
// {"type": ...} object.
func (m *SegmentMetadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID               string                          `json:"id"`
		Intervals        []string                        `json:"intervals"`
		Columns          map[string]ColumnDefinition     `json:"columns"`
		QueryGranularity serde.RawMessage                `json:"queryGranularity"`
		Rollup           *bool                           `json:"rollup"`
		Size             *int64                          `json:"size"`
		NumRows          *int64                          `json:"numRows"`
		TimestampSpec    *TimestampSpec                  `json:"timestampSpec"`
		Aggregators      map[string]AggregatorDefinition `json:"aggregators"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	granularity, err := serde.TaggedOrUntagged(aux.QueryGranularity, "")
	if err != nil {
		return err
	}
	*m = SegmentMetadata{
		ID:               aux.ID,
		Intervals:        serde.OrEmpty(aux.Intervals),
		Columns:          serde.OrEmptyMap(aux.Columns),
		QueryGranularity: granularity,
		Rollup:           aux.Rollup,
		Size:             aux.Size,
		NumRows:          aux.NumRows,
		TimestampSpec:    aux.TimestampSpec,
		Aggregators:      serde.OrEmptyMap(aux.Aggregators),
	}
	return nil
}
