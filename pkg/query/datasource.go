package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// DataSource is where a query reads rows from.
type DataSource interface {
	dataSource()
}

// TableDataSource reads a named table.
type TableDataSource struct {
	Name string `json:"name"`
}

// LookupDataSource reads a registered lookup as a two-column table.
type LookupDataSource struct {
	Lookup string `json:"lookup"`
}

// UnionDataSource reads several tables with identical schemas.
type UnionDataSource struct {
	DataSources []string `json:"dataSources"`
}

// InlineDataSource carries its rows in the query itself.
type InlineDataSource struct {
	ColumnNames []string    `json:"columnNames"`
	Rows        [][]JSONAny `json:"rows"`
}

// QueryDataSource reads the result of a subquery.
type QueryDataSource struct {
	Query Query `json:"query"`
}

// JoinDataSource joins two data sources. The engine only accepts a lookup,
// query or inline data source on the right.
type JoinDataSource struct {
	Left        DataSource `json:"left"`
	Right       DataSource `json:"right"`
	RightPrefix string     `json:"rightPrefix"`
	Condition   string     `json:"condition"`
	JoinType    JoinType   `json:"joinType"`
}

func (TableDataSource) dataSource()  {}
func (LookupDataSource) dataSource() {}
func (UnionDataSource) dataSource()  {}
func (InlineDataSource) dataSource() {}
func (QueryDataSource) dataSource()  {}
func (JoinDataSource) dataSource()   {}

// Table returns a table data source.
func Table(name string) TableDataSource { return TableDataSource{Name: name} }

// MarshalJSON implements json.Marshaler.
func (d TableDataSource) MarshalJSON() ([]byte, error) {
	type plain TableDataSource
	return serde.MarshalTagged("type", "table", plain(d))
}

// MarshalJSON implements json.Marshaler.
func (d LookupDataSource) MarshalJSON() ([]byte, error) {
	type plain LookupDataSource
	return serde.MarshalTagged("type", "lookup", plain(d))
}

// MarshalJSON implements json.Marshaler.
func (d UnionDataSource) MarshalJSON() ([]byte, error) {
	type plain UnionDataSource
	p := plain(d)
	p.DataSources = serde.OrEmpty(p.DataSources)
	return serde.MarshalTagged("type", "union", p)
}

// MarshalJSON implements json.Marshaler.
func (d InlineDataSource) MarshalJSON() ([]byte, error) {
	type plain InlineDataSource
	p := plain(d)
	p.ColumnNames = serde.OrEmpty(p.ColumnNames)
	p.Rows = serde.OrEmpty(p.Rows)
	return serde.MarshalTagged("type", "inline", p)
}

// MarshalJSON implements json.Marshaler.
func (d QueryDataSource) MarshalJSON() ([]byte, error) {
	if d.Query == nil {
		return nil, missing("query")
	}
	type plain QueryDataSource
	return serde.MarshalTagged("type", "query", plain(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *QueryDataSource) UnmarshalJSON(data []byte) error {
	var aux struct {
		Query rawMessage `json:"query"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	q, err := decodeRequired(aux.Query, "query", DecodeQuery)
	if err != nil {
		return err
	}
	d.Query = q
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d JoinDataSource) MarshalJSON() ([]byte, error) {
	if d.Left == nil {
		return nil, missing("left")
	}
	if d.Right == nil {
		return nil, missing("right")
	}
	type plain JoinDataSource
	return serde.MarshalTagged("type", "join", plain(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *JoinDataSource) UnmarshalJSON(data []byte) error {
	var aux struct {
		Left        rawMessage `json:"left"`
		Right       rawMessage `json:"right"`
		RightPrefix string     `json:"rightPrefix"`
		Condition   string     `json:"condition"`
		JoinType    JoinType   `json:"joinType"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	left, err := decodeRequired(aux.Left, "left", DecodeDataSource)
	if err != nil {
		return err
	}
	right, err := decodeRequired(aux.Right, "right", DecodeDataSource)
	if err != nil {
		return err
	}
	*d = JoinDataSource{
		Left:        left,
		Right:       right,
		RightPrefix: aux.RightPrefix,
		Condition:   aux.Condition,
		JoinType:    aux.JoinType,
	}
	return nil
}

// DecodeDataSource decodes a data source by its "type" member.
func DecodeDataSource(data []byte) (DataSource, error) {
	tag, err := readTag(data, "data source")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "table":
		return decodeVariant[TableDataSource](data)
	case "lookup":
		return decodeVariant[LookupDataSource](data)
	case "union":
		return decodeVariant[UnionDataSource](data)
	case "inline":
		return decodeVariant[InlineDataSource](data)
	case "query":
		return decodeVariant[QueryDataSource](data)
	case "join":
		return decodeVariant[JoinDataSource](data)
	}
	return nil, &UnknownTypeError{Family: "data source", Type: tag}
}

// JoinBuilder assembles a JoinDataSource. Each setter returns an updated
// copy, so a partially configured builder can be reused.
type JoinBuilder struct {
	joinType    JoinType
	left        DataSource
	right       DataSource
	rightPrefix string
	condition   string
}

// NewJoin starts a join of the given type.
func NewJoin(joinType JoinType) JoinBuilder {
	return JoinBuilder{joinType: joinType}
}

// Left sets the left-hand data source.
func (b JoinBuilder) Left(ds DataSource) JoinBuilder {
	b.left = ds
	return b
}

// Right sets the right-hand data source and the prefix applied to its
// columns. The engine only accepts a lookup, query or inline data source.
func (b JoinBuilder) Right(ds DataSource, prefix string) JoinBuilder {
	b.right = ds
	b.rightPrefix = prefix
	return b
}

// Condition sets the join condition expression.
func (b JoinBuilder) Condition(expr string) JoinBuilder {
	b.condition = expr
	return b
}

// Build returns the join, or an error wrapping ErrMissingField when any of
// left, right, rightPrefix or condition is unset.
func (b JoinBuilder) Build() (JoinDataSource, error) {
	switch {
	case b.left == nil:
		return JoinDataSource{}, missing("left")
	case b.right == nil:
		return JoinDataSource{}, missing("right")
	case b.rightPrefix == "":
		return JoinDataSource{}, missing("rightPrefix")
	case b.condition == "":
		return JoinDataSource{}, missing("condition")
	}
	return JoinDataSource{
		Left:        b.left,
		Right:       b.right,
		RightPrefix: b.rightPrefix,
		Condition:   b.condition,
		JoinType:    b.joinType,
	}, nil
}
