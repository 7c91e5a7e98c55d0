package query

// OutputType is the type a dimension value is converted to.
type OutputType string

// Dimension output types.
const (
	OutputString OutputType = "STRING"
	OutputLong   OutputType = "LONG"
	OutputFloat  OutputType = "FLOAT"
)

// Ordering is a sort direction.
type Ordering string

// Orderings.
const (
	Ascending  Ordering = "ascending"
	Descending Ordering = "descending"
	NoOrdering Ordering = "none"
)

// SortingOrder is the comparison used for dimension values.
type SortingOrder string

// Sorting orders.
const (
	Lexicographic SortingOrder = "lexicographic"
	Alphanumeric  SortingOrder = "alphanumeric"
	Strlen        SortingOrder = "strlen"
	Numeric       SortingOrder = "numeric"
)

// JoinType is the kind of join performed by a join data source.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
)

// ResultFormat is the row layout of scan results.
type ResultFormat string

// Scan result formats.
const (
	ResultList          ResultFormat = "list"
	ResultCompactedList ResultFormat = "compactedList"
	ResultValueVector   ResultFormat = "valueVector"
)

// NullHandling controls how stringFormat extraction treats null input.
type NullHandling string

// Null handling modes.
const (
	NullString  NullHandling = "nullString"
	EmptyString NullHandling = "emptyString"
	ReturnNull  NullHandling = "returnNull"
)

// HLLType is the target HLL sketch representation.
type HLLType string

// HLL sketch types.
const (
	HLL4 HLLType = "HLL_4"
	HLL6 HLLType = "HLL_6"
	HLL8 HLLType = "HLL_8"
)

// AnalysisType selects a column analysis in a segment metadata query.
type AnalysisType string

// Segment metadata analyses.
const (
	AnalysisCardinality      AnalysisType = "cardinality"
	AnalysisMinMax           AnalysisType = "minmax"
	AnalysisSize             AnalysisType = "size"
	AnalysisInterval         AnalysisType = "interval"
	AnalysisTimestampSpec    AnalysisType = "timestampSpec"
	AnalysisQueryGranularity AnalysisType = "queryGranularity"
	AnalysisAggregators      AnalysisType = "aggregators"
	AnalysisRollup           AnalysisType = "rollup"
)

// TimeBound selects which bound a time boundary query returns. The zero
// value asks for both and is left off the wire.
type TimeBound string

// Time bounds.
const (
	BoundMinMaxTime TimeBound = ""
	BoundMaxTime    TimeBound = "maxTime"
	BoundMinTime    TimeBound = "minTime"
)
