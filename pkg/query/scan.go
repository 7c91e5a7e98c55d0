package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Scan streams raw rows.
type Scan struct {
	DataSource   DataSource   `json:"dataSource"`
	Intervals    []string     `json:"intervals"`
	ResultFormat ResultFormat `json:"resultFormat,omitempty"`
	Filter       Filter       `json:"filter,omitempty"`
	Columns      []string     `json:"columns"`
	BatchSize    int          `json:"batchSize,omitempty"`
	Limit        int          `json:"limit,omitempty"`
	Offset       int          `json:"offset,omitempty"`
	Order        Ordering     `json:"order,omitempty"`
	Context      Context      `json:"context,omitempty"`
}

// QueryType implements Request.
func (*Scan) QueryType() string { return TypeScan }

func (*Scan) query() {}

// MarshalJSON implements json.Marshaler.
func (q Scan) MarshalJSON() ([]byte, error) {
	if q.DataSource == nil {
		return nil, missing("dataSource")
	}
	type plain Scan
	p := plain(q)
	p.Intervals = serde.OrEmpty(p.Intervals)
	p.Columns = serde.OrEmpty(p.Columns)
	return serde.MarshalTagged("queryType", TypeScan, p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Scan) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource   rawMessage   `json:"dataSource"`
		Intervals    []string     `json:"intervals"`
		ResultFormat ResultFormat `json:"resultFormat"`
		Filter       rawMessage   `json:"filter"`
		Columns      []string     `json:"columns"`
		BatchSize    int          `json:"batchSize"`
		Limit        int          `json:"limit"`
		Offset       int          `json:"offset"`
		Order        Ordering     `json:"order"`
		Context      Context      `json:"context"`
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
	*q = Scan{
		DataSource:   ds,
		Intervals:    aux.Intervals,
		ResultFormat: aux.ResultFormat,
		Filter:       filter,
		Columns:      aux.Columns,
		BatchSize:    aux.BatchSize,
		Limit:        aux.Limit,
		Offset:       aux.Offset,
		Order:        aux.Order,
		Context:      aux.Context,
	}
	dropEmpty(q)
	return nil
}
