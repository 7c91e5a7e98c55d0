package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// PostAggregation derives a value from aggregated results.
type PostAggregation interface {
	postAggregation()
}

// PostAggregator is an operand of an arithmetic post-aggregation.
type PostAggregator interface {
	postAggregator()
}

// ArithmeticPostAggregation combines Fields with Fn (+, -, *, /, quotient).
type ArithmeticPostAggregation struct {
	Name     string           `json:"name"`
	Fn       string           `json:"fn"`
	Fields   []PostAggregator `json:"fields"`
	Ordering string           `json:"ordering,omitempty"`
}

// ExtremumType names the greatest/least post-aggregations.
type ExtremumType string

// Greatest/least post-aggregations.
const (
	DoubleGreatest ExtremumType = "doubleGreatest"
	LongGreatest   ExtremumType = "longGreatest"
	DoubleLeast    ExtremumType = "doubleLeast"
	LongLeast      ExtremumType = "longLeast"
)

// ExtremumPostAggregation picks the greatest or least of Fields.
type ExtremumPostAggregation struct {
	Type   ExtremumType      `json:"-"`
	Name   string            `json:"name"`
	Fields []PostAggregation `json:"fields"`
}

// JavascriptPostAggregation computes a value with a JavaScript function.
type JavascriptPostAggregation struct {
	Name       string   `json:"name"`
	FieldNames []string `json:"fieldNames"`
	Function   string   `json:"function"`
}

func (ArithmeticPostAggregation) postAggregation() {}
func (ExtremumPostAggregation) postAggregation()   {}
func (JavascriptPostAggregation) postAggregation() {}

// MarshalJSON implements json.Marshaler.
func (p ArithmeticPostAggregation) MarshalJSON() ([]byte, error) {
	type plain ArithmeticPostAggregation
	v := plain(p)
	v.Fields = serde.OrEmpty(v.Fields)
	return serde.MarshalTagged("type", "arithmetic", v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ArithmeticPostAggregation) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name     string       `json:"name"`
		Fn       string       `json:"fn"`
		Fields   []rawMessage `json:"fields"`
		Ordering string       `json:"ordering"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fields, err := decodeSlice(aux.Fields, "fields", DecodePostAggregator)
	if err != nil {
		return err
	}
	*p = ArithmeticPostAggregation{Name: aux.Name, Fn: aux.Fn, Fields: fields, Ordering: aux.Ordering}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p ExtremumPostAggregation) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case DoubleGreatest, LongGreatest, DoubleLeast, LongLeast:
	default:
		return nil, &UnknownTypeError{Family: "post-aggregation", Type: string(p.Type)}
	}
	type plain ExtremumPostAggregation
	v := plain(p)
	v.Fields = serde.OrEmpty(v.Fields)
	return serde.MarshalTagged("type", string(p.Type), v)
}

// UnmarshalJSON implements json.Unmarshaler. Type is set by the caller.
func (p *ExtremumPostAggregation) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name   string       `json:"name"`
		Fields []rawMessage `json:"fields"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fields, err := decodeSlice(aux.Fields, "fields", DecodePostAggregation)
	if err != nil {
		return err
	}
	p.Name = aux.Name
	p.Fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p JavascriptPostAggregation) MarshalJSON() ([]byte, error) {
	type plain JavascriptPostAggregation
	v := plain(p)
	v.FieldNames = serde.OrEmpty(v.FieldNames)
	return serde.MarshalTagged("type", "javascript", v)
}

// DecodePostAggregation decodes a post-aggregation by its "type" member.
func DecodePostAggregation(data []byte) (PostAggregation, error) {
	tag, err := readTag(data, "post-aggregation")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "arithmetic":
		return decodeVariant[ArithmeticPostAggregation](data)
	case string(DoubleGreatest), string(LongGreatest), string(DoubleLeast), string(LongLeast):
		p, err := decodeVariant[ExtremumPostAggregation](data)
		p.Type = ExtremumType(tag)
		return p, err
	case "javascript":
		return decodeVariant[JavascriptPostAggregation](data)
	}
	return nil, &UnknownTypeError{Family: "post-aggregation", Type: tag}
}

// FieldAccess reads an aggregated value by name.
type FieldAccess struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

// FinalizingFieldAccess reads an aggregated value after finalization.
type FinalizingFieldAccess struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

// Constant is a literal operand.
type Constant struct {
	Name  string  `json:"name"`
	Value JSONAny `json:"value"`
}

// HyperUniqueCardinality reads the estimate of a hyperUnique aggregation.
type HyperUniqueCardinality struct {
	FieldName string `json:"fieldName"`
}

func (FieldAccess) postAggregator()            {}
func (FinalizingFieldAccess) postAggregator()  {}
func (Constant) postAggregator()               {}
func (HyperUniqueCardinality) postAggregator() {}

// MarshalJSON implements json.Marshaler.
func (p FieldAccess) MarshalJSON() ([]byte, error) {
	type plain FieldAccess
	return serde.MarshalTagged("type", "fieldAccess", plain(p))
}

// MarshalJSON implements json.Marshaler.
func (p FinalizingFieldAccess) MarshalJSON() ([]byte, error) {
	type plain FinalizingFieldAccess
	return serde.MarshalTagged("type", "finalizingFieldAccess", plain(p))
}

// MarshalJSON implements json.Marshaler.
func (p Constant) MarshalJSON() ([]byte, error) {
	type plain Constant
	return serde.MarshalTagged("type", "constant", plain(p))
}

// MarshalJSON implements json.Marshaler.
func (p HyperUniqueCardinality) MarshalJSON() ([]byte, error) {
	type plain HyperUniqueCardinality
	return serde.MarshalTagged("type", "hyperUniqueCardinality", plain(p))
}

// DecodePostAggregator decodes a post-aggregator by its "type" member.
func DecodePostAggregator(data []byte) (PostAggregator, error) {
	tag, err := readTag(data, "post-aggregator")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "fieldAccess":
		return decodeVariant[FieldAccess](data)
	case "finalizingFieldAccess":
		return decodeVariant[FinalizingFieldAccess](data)
	case "constant":
		return decodeVariant[Constant](data)
	case "hyperUniqueCardinality":
		return decodeVariant[HyperUniqueCardinality](data)
	}
	return nil, &UnknownTypeError{Family: "post-aggregator", Type: tag}
}
