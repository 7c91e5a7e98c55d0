package query

import (
	"fmt"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

// TimeBoundary returns the earliest and/or latest timestamps of a data source.
type TimeBoundary struct {
	DataSource DataSource `json:"dataSource"`
	Bound      TimeBound  `json:"bound,omitempty"`
	Filter     Filter     `json:"filter,omitempty"`
	Context    Context    `json:"context,omitempty"`
}

// QueryType implements Request.
func (*TimeBoundary) QueryType() string { return TypeTimeBoundary }

func (*TimeBoundary) query() {}

// MarshalJSON implements json.Marshaler. The bound is omitted when both
// bounds are requested.
func (q TimeBoundary) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain TimeBoundary
	return serde.MarshalTagged("queryType", TypeTimeBoundary, plain(q))
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *TimeBoundary) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource rawMessage `json:"dataSource"`
		Bound      TimeBound  `json:"bound"`
		Filter     rawMessage `json:"filter"`
		Context    Context    `json:"context"`
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
	bound := aux.Bound
	switch bound {
	case BoundMinMaxTime, BoundMaxTime, BoundMinTime:
	case "minMaxTime":
		bound = BoundMinMaxTime
	default:
		return fmt.Errorf("unknown time bound %q", bound)
	}
	*q = TimeBoundary{DataSource: ds, Bound: bound, Filter: filter, Context: aux.Context}
	dropEmpty(q)
	return nil
}

// ToInclude selects the columns a segment metadata query analyses.
type ToInclude struct {
	Type    string
	Columns []string
}

// Column selections.
var (
	ToIncludeAll  = ToInclude{}
	ToIncludeNone = ToInclude{Type: "none"}
)

// ToIncludeList selects the named columns.
func ToIncludeList(columns ...string) ToInclude {
	return ToInclude{Type: "list", Columns: columns}
}

// MarshalJSON implements json.Marshaler. The zero value selects all columns.
func (t ToInclude) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case "", "all":
		return []byte(`{"type":"all"}`), nil
	case "none":
		return []byte(`{"type":"none"}`), nil
	case "list":
		return serde.MarshalTagged("type", "list", struct {
			Columns []string `json:"columns"`
		}{serde.OrEmpty(t.Columns)})
	}
	return nil, &UnknownTypeError{Family: "toInclude", Type: t.Type}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ToInclude) UnmarshalJSON(data []byte) error {
	typ, err := serde.TaggedOrUntagged(data, "all")
	if err != nil {
		return fmt.Errorf("toInclude: %w", err)
	}
	switch typ {
	case "all":
		*t = ToIncludeAll
	case "none":
		*t = ToIncludeNone
	case "list":
		var aux struct {
			Columns []string `json:"columns"`
		}
		if err := serde.Unmarshal(data, &aux); err != nil {
			return err
		}
		*t = ToInclude{Type: "list", Columns: aux.Columns}
		dropEmpty(t)
	default:
		return &UnknownTypeError{Family: "toInclude", Type: typ}
	}
	return nil
}

// SegmentMetadata describes the segments of a data source.
type SegmentMetadata struct {
	DataSource             DataSource     `json:"dataSource"`
	Intervals              []string       `json:"intervals,omitempty"`
	ToInclude              ToInclude      `json:"toInclude"`
	Merge                  bool           `json:"merge"`
	AnalysisTypes          []AnalysisType `json:"analysisTypes,omitempty"`
	LenientAggregatorMerge bool           `json:"lenientAggregatorMerge"`
	Context                Context        `json:"context,omitempty"`
}

// QueryType implements Request.
func (*SegmentMetadata) QueryType() string { return TypeSegmentMetadata }

func (*SegmentMetadata) query() {}

// MarshalJSON implements json.Marshaler. Analysis types are omitted when
// empty so the engine applies its defaults.
func (q SegmentMetadata) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain SegmentMetadata
	return serde.MarshalTagged("queryType", TypeSegmentMetadata, plain(q))
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *SegmentMetadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource             rawMessage     `json:"dataSource"`
		Intervals              []string       `json:"intervals"`
		ToInclude              ToInclude      `json:"toInclude"`
		Merge                  bool           `json:"merge"`
		AnalysisTypes          []AnalysisType `json:"analysisTypes"`
		LenientAggregatorMerge bool           `json:"lenientAggregatorMerge"`
		Context                Context        `json:"context"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	ds, err := decodeRequired(aux.DataSource, "dataSource", decodeDataSourceOrName)
	if err != nil {
		return err
	}
	*q = SegmentMetadata{
		DataSource:             ds,
		Intervals:              aux.Intervals,
		ToInclude:              aux.ToInclude,
		Merge:                  aux.Merge,
		AnalysisTypes:          aux.AnalysisTypes,
		LenientAggregatorMerge: aux.LenientAggregatorMerge,
		Context:                aux.Context,
	}
	dropEmpty(q)
	return nil
}

// DataSourceMetadata returns the latest ingested event time of a data
// source. It cannot be nested in a query data source.
type DataSourceMetadata struct {
	DataSource DataSource `json:"dataSource"`
	Context    Context    `json:"context,omitempty"`
}

// QueryType implements Request.
func (*DataSourceMetadata) QueryType() string { return TypeDataSourceMetadata }

// MarshalJSON implements json.Marshaler.
func (q DataSourceMetadata) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain DataSourceMetadata
	return serde.MarshalTagged("queryType", TypeDataSourceMetadata, plain(q))
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *DataSourceMetadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource rawMessage `json:"dataSource"`
		Context    Context    `json:"context"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	ds, err := decodeRequired(aux.DataSource, "dataSource", decodeDataSourceOrName)
	if err != nil {
		return err
	}
	*q = DataSourceMetadata{DataSource: ds, Context: aux.Context}
	dropEmpty(q)
	return nil
}
