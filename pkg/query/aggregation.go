package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Aggregation computes a metric over the rows of each result bucket.
type Aggregation interface {
	aggregation()
}

// FieldAggregationType names the aggregations that read a single numeric or
// string field without further settings.
type FieldAggregationType string

// Single-field aggregations.
const (
	LongSum     FieldAggregationType = "longSum"
	DoubleSum   FieldAggregationType = "doubleSum"
	FloatSum    FieldAggregationType = "floatSum"
	LongMax     FieldAggregationType = "longMax"
	DoubleMax   FieldAggregationType = "doubleMax"
	FloatMax    FieldAggregationType = "floatMax"
	LongMin     FieldAggregationType = "longMin"
	DoubleMin   FieldAggregationType = "doubleMin"
	FloatMin    FieldAggregationType = "floatMin"
	LongFirst   FieldAggregationType = "longFirst"
	DoubleFirst FieldAggregationType = "doubleFirst"
	FloatFirst  FieldAggregationType = "floatFirst"
	LongLast    FieldAggregationType = "longLast"
	DoubleLast  FieldAggregationType = "doubleLast"
	FloatLast   FieldAggregationType = "floatLast"
	DoubleAny   FieldAggregationType = "doubleAny"
	FloatAny    FieldAggregationType = "floatAny"
	LongAny     FieldAggregationType = "longAny"
	StringAny   FieldAggregationType = "stringAny"
)

var fieldAggregationTypes = map[string]FieldAggregationType{}

func init() {
	for _, t := range []FieldAggregationType{
		LongSum, DoubleSum, FloatSum, LongMax, DoubleMax, FloatMax,
		LongMin, DoubleMin, FloatMin, LongFirst, DoubleFirst, FloatFirst,
		LongLast, DoubleLast, FloatLast, DoubleAny, FloatAny, LongAny, StringAny,
	} {
		fieldAggregationTypes[string(t)] = t
	}
}

// CountAggregation counts rows.
type CountAggregation struct {
	Name string `json:"name"`
}

// FieldAggregation applies a single-field aggregation such as longSum.
type FieldAggregation struct {
	Type      FieldAggregationType `json:"-"`
	Name      string               `json:"name"`
	FieldName string               `json:"fieldName"`
}

// StringFirstLastType is stringFirst or stringLast.
type StringFirstLastType string

// String first/last aggregations.
const (
	StringFirst StringFirstLastType = "stringFirst"
	StringLast  StringFirstLastType = "stringLast"
)

// StringFirstLastAggregation keeps the first or last string value.
type StringFirstLastAggregation struct {
	Type           StringFirstLastType `json:"-"`
	Name           string              `json:"name"`
	FieldName      string              `json:"fieldName"`
	MaxStringBytes int                 `json:"maxStringBytes"`
}

// JavascriptAggregation aggregates with JavaScript functions.
type JavascriptAggregation struct {
	Name        string   `json:"name"`
	FieldNames  []string `json:"fieldNames"`
	FnAggregate string   `json:"fnAggregate"`
	FnCombine   string   `json:"fnCombine"`
	FnReset     string   `json:"fnReset"`
}

// ThetaSketchAggregation builds a theta sketch.
type ThetaSketchAggregation struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputThetaSketch bool   `json:"isInputThetaSketch"`
	Size               int    `json:"size"`
}

// HLLSketchBuildAggregation builds an HLL sketch.
type HLLSketchBuildAggregation struct {
	Name       string  `json:"name"`
	FieldName  string  `json:"fieldName"`
	LgK        int     `json:"lgK"`
	TgtHLLType HLLType `json:"tgtHllType"`
	Round      bool    `json:"round"`
}

// CardinalityAggregation estimates distinct values over Fields.
type CardinalityAggregation struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	ByRow  bool     `json:"byRow"`
	Round  bool     `json:"round"`
}

// HyperUniqueAggregation estimates distinct values from a hyperUnique column.
type HyperUniqueAggregation struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputHyperUnique bool   `json:"isInputHyperUnique"`
	Round              bool   `json:"round"`
}

// FilteredAggregation applies Aggregator to the rows matching Filter.
type FilteredAggregation struct {
	Filter     Filter      `json:"filter"`
	Aggregator Aggregation `json:"aggregator"`
}

func (CountAggregation) aggregation()           {}
func (FieldAggregation) aggregation()           {}
func (StringFirstLastAggregation) aggregation() {}
func (JavascriptAggregation) aggregation()      {}
func (ThetaSketchAggregation) aggregation()     {}
func (HLLSketchBuildAggregation) aggregation()  {}
func (CardinalityAggregation) aggregation()     {}
func (HyperUniqueAggregation) aggregation()     {}
func (FilteredAggregation) aggregation()        {}

// Count returns a count aggregation.
func Count(name string) CountAggregation { return CountAggregation{Name: name} }

// Field returns a single-field aggregation of the given type.
func Field(t FieldAggregationType, name, fieldName string) FieldAggregation {
	return FieldAggregation{Type: t, Name: name, FieldName: fieldName}
}

// MarshalJSON implements json.Marshaler.
func (a CountAggregation) MarshalJSON() ([]byte, error) {
	type plain CountAggregation
	return serde.MarshalTagged("type", "count", plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a FieldAggregation) MarshalJSON() ([]byte, error) {
	if _, ok := fieldAggregationTypes[string(a.Type)]; !ok {
		return nil, &UnknownTypeError{Family: "aggregation", Type: string(a.Type)}
	}
	type plain FieldAggregation
	return serde.MarshalTagged("type", string(a.Type), plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a StringFirstLastAggregation) MarshalJSON() ([]byte, error) {
	if a.Type != StringFirst && a.Type != StringLast {
		return nil, &UnknownTypeError{Family: "aggregation", Type: string(a.Type)}
	}
	type plain StringFirstLastAggregation
	return serde.MarshalTagged("type", string(a.Type), plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a JavascriptAggregation) MarshalJSON() ([]byte, error) {
	type plain JavascriptAggregation
	p := plain(a)
	p.FieldNames = serde.OrEmpty(p.FieldNames)
	return serde.MarshalTagged("type", "javascript", p)
}

// MarshalJSON implements json.Marshaler.
func (a ThetaSketchAggregation) MarshalJSON() ([]byte, error) {
	type plain ThetaSketchAggregation
	return serde.MarshalTagged("type", "thetaSketch", plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a HLLSketchBuildAggregation) MarshalJSON() ([]byte, error) {
	type plain HLLSketchBuildAggregation
	return serde.MarshalTagged("type", "HLLSketchBuild", plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a CardinalityAggregation) MarshalJSON() ([]byte, error) {
	type plain CardinalityAggregation
	p := plain(a)
	p.Fields = serde.OrEmpty(p.Fields)
	return serde.MarshalTagged("type", "cardinality", p)
}

// MarshalJSON implements json.Marshaler.
func (a HyperUniqueAggregation) MarshalJSON() ([]byte, error) {
	type plain HyperUniqueAggregation
	return serde.MarshalTagged("type", "hyperUnique", plain(a))
}

// MarshalJSON implements json.Marshaler.
func (a FilteredAggregation) MarshalJSON() ([]byte, error) {
	if a.Filter == nil {
		return nil, missing("filter")
	}
	if a.Aggregator == nil {
		return nil, missing("aggregator")
	}
	type plain FilteredAggregation
	return serde.MarshalTagged("type", "filtered", plain(a))
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *FilteredAggregation) UnmarshalJSON(data []byte) error {
	var aux struct {
		Filter     rawMessage `json:"filter"`
		Aggregator rawMessage `json:"aggregator"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	f, err := decodeRequired(aux.Filter, "filter", DecodeFilter)
	if err != nil {
		return err
	}
	agg, err := decodeRequired(aux.Aggregator, "aggregator", DecodeAggregation)
	if err != nil {
		return err
	}
	*a = FilteredAggregation{Filter: f, Aggregator: agg}
	return nil
}

// DecodeAggregation decodes an aggregation by its "type" member.
func DecodeAggregation(data []byte) (Aggregation, error) {
	tag, err := readTag(data, "aggregation")
	if err != nil {
		return nil, err
	}
	if t, ok := fieldAggregationTypes[tag]; ok {
		a, err := decodeVariant[FieldAggregation](data)
		a.Type = t
		return a, err
	}
	switch tag {
	case "count":
		return decodeVariant[CountAggregation](data)
	case string(StringFirst), string(StringLast):
		a, err := decodeVariant[StringFirstLastAggregation](data)
		a.Type = StringFirstLastType(tag)
		return a, err
	case "javascript":
		return decodeVariant[JavascriptAggregation](data)
	case "thetaSketch":
		return decodeVariant[ThetaSketchAggregation](data)
	case "HLLSketchBuild":
		return decodeVariant[HLLSketchBuildAggregation](data)
	case "cardinality":
		return decodeVariant[CardinalityAggregation](data)
	case "hyperUnique":
		return decodeVariant[HyperUniqueAggregation](data)
	case "filtered":
		return decodeVariant[FilteredAggregation](data)
	}
	return nil, &UnknownTypeError{Family: "aggregation", Type: tag}
}
