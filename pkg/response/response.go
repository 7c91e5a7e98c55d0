package response

import (
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// List is one time bucket of a topN or search result.
type List[T any] struct {
	Timestamp string `json:"timestamp"`
	Result    []T    `json:"result"`
}

// UnmarshalJSON implements json.Unmarshaler. A null result decodes as empty.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	var aux struct {
		Timestamp string `json:"timestamp"`
		Result    []T    `json:"result"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Timestamp = aux.Timestamp
	l.Result = serde.OrEmpty(aux.Result)
	return nil
}

// Result is one time bucket carrying a single value, as returned by
// timeseries, timeBoundary and dataSourceMetadata.
type Result[T any] struct {
	Timestamp string `json:"timestamp"`
	Result    T      `json:"result"`
}

// GroupBy is one row of a groupBy result.
type GroupBy[T any] struct {
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp"`
	Event     T      `json:"event"`
}

// Scan is one batch of scanned rows from a single segment.
type Scan[T any] struct {
	SegmentID string   `json:"segmentId"`
	Columns   []string `json:"columns"`
	Events    []T      `json:"events"`
}

// UnmarshalJSON implements json.Unmarshaler. Null columns and events decode
// as empty.
func (s *Scan[T]) UnmarshalJSON(data []byte) error {
	var aux struct {
		SegmentID string   `json:"segmentId"`
		Columns   []string `json:"columns"`
		Events    []T      `json:"events"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Scan[T]{
		SegmentID: aux.SegmentID,
		Columns:   serde.OrEmpty(aux.Columns),
		Events:    serde.OrEmpty(aux.Events),
	}
	return nil
}

// MinMaxTime is the result of a timeBoundary query. A bound that was not
// requested is nil.
type MinMaxTime struct {
	MaxTime *string `json:"maxTime,omitempty"`
	MinTime *string `json:"minTime,omitempty"`
}

// DimValue is one match of a search query.
type DimValue struct {
	Dimension string        `json:"dimension"`
	Value     query.JSONAny `json:"value"`
	Count     int64         `json:"count"`
}

// Search is one time bucket of search matches.
type Search = List[DimValue]

// TimeBoundary is the envelope of a timeBoundary result.
type TimeBoundary = Result[MinMaxTime]
