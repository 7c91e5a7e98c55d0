package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// HavingSpec filters grouped rows after aggregation.
type HavingSpec interface {
	havingSpec()
}

// FilterHaving applies a row filter to grouped rows.
type FilterHaving struct {
	Filter Filter `json:"filter"`
}

// ComparisonType is greaterThan, equalTo or lessThan.
type ComparisonType string

// Numeric having comparisons.
const (
	GreaterThan ComparisonType = "greaterThan"
	EqualTo     ComparisonType = "equalTo"
	LessThan    ComparisonType = "lessThan"
)

// ComparisonHaving compares an aggregated value against Value.
type ComparisonHaving struct {
	Type        ComparisonType `json:"-"`
	Aggregation string         `json:"aggregation"`
	Value       JSONNumber     `json:"value"`
}

// DimSelectorHaving keeps rows where Dimension equals Value.
type DimSelectorHaving struct {
	Dimension string  `json:"dimension"`
	Value     JSONAny `json:"value"`
}

// AndHaving keeps rows matched by every spec.
type AndHaving struct {
	HavingSpecs []HavingSpec `json:"havingSpecs"`
}

// OrHaving keeps rows matched by any spec.
type OrHaving struct {
	HavingSpecs []HavingSpec `json:"havingSpecs"`
}

// NotHaving inverts HavingSpec.
type NotHaving struct {
	HavingSpec HavingSpec `json:"havingSpec"`
}

func (FilterHaving) havingSpec()      {}
func (ComparisonHaving) havingSpec()  {}
func (DimSelectorHaving) havingSpec() {}
func (AndHaving) havingSpec()         {}
func (OrHaving) havingSpec()          {}
func (NotHaving) havingSpec()         {}

// MarshalJSON implements json.Marshaler.
func (h FilterHaving) MarshalJSON() ([]byte, error) {
	if h.Filter == nil {
		return nil, missing("filter")
	}
	type plain FilterHaving
	return serde.MarshalTagged("type", "filter", plain(h))
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *FilterHaving) UnmarshalJSON(data []byte) error {
	var aux struct {
		Filter rawMessage `json:"filter"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	f, err := decodeRequired(aux.Filter, "filter", DecodeFilter)
	if err != nil {
		return err
	}
	h.Filter = f
	return nil
}

// MarshalJSON implements json.Marshaler.
func (h ComparisonHaving) MarshalJSON() ([]byte, error) {
	switch h.Type {
	case GreaterThan, EqualTo, LessThan:
	default:
		return nil, &UnknownTypeError{Family: "having", Type: string(h.Type)}
	}
	type plain ComparisonHaving
	return serde.MarshalTagged("type", string(h.Type), plain(h))
}

// MarshalJSON implements json.Marshaler.
func (h DimSelectorHaving) MarshalJSON() ([]byte, error) {
	type plain DimSelectorHaving
	return serde.MarshalTagged("type", "dimSelector", plain(h))
}

type havingList struct {
	HavingSpecs []HavingSpec `json:"havingSpecs"`
}

// MarshalJSON implements json.Marshaler.
func (h AndHaving) MarshalJSON() ([]byte, error) {
	return serde.MarshalTagged("type", "and", havingList{serde.OrEmpty(h.HavingSpecs)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *AndHaving) UnmarshalJSON(data []byte) error {
	specs, err := decodeHavingList(data)
	h.HavingSpecs = specs
	return err
}

// MarshalJSON implements json.Marshaler.
func (h OrHaving) MarshalJSON() ([]byte, error) {
	return serde.MarshalTagged("type", "or", havingList{serde.OrEmpty(h.HavingSpecs)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *OrHaving) UnmarshalJSON(data []byte) error {
	specs, err := decodeHavingList(data)
	h.HavingSpecs = specs
	return err
}

func decodeHavingList(data []byte) ([]HavingSpec, error) {
	var aux struct {
		HavingSpecs []rawMessage `json:"havingSpecs"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	return decodeSlice(aux.HavingSpecs, "havingSpecs", DecodeHavingSpec)
}

// MarshalJSON implements json.Marshaler.
func (h NotHaving) MarshalJSON() ([]byte, error) {
	if h.HavingSpec == nil {
		return nil, missing("havingSpec")
	}
	type plain NotHaving
	return serde.MarshalTagged("type", "not", plain(h))
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *NotHaving) UnmarshalJSON(data []byte) error {
	var aux struct {
		HavingSpec rawMessage `json:"havingSpec"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	spec, err := decodeRequired(aux.HavingSpec, "havingSpec", DecodeHavingSpec)
	if err != nil {
		return err
	}
	h.HavingSpec = spec
	return nil
}

// DecodeHavingSpec decodes a having spec by its "type" member.
func DecodeHavingSpec(data []byte) (HavingSpec, error) {
	tag, err := readTag(data, "having")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "filter":
		return decodeVariant[FilterHaving](data)
	case string(GreaterThan), string(EqualTo), string(LessThan):
		h, err := decodeVariant[ComparisonHaving](data)
		h.Type = ComparisonType(tag)
		return h, err
	case "dimSelector":
		return decodeVariant[DimSelectorHaving](data)
	case "and":
		return decodeVariant[AndHaving](data)
	case "or":
		return decodeVariant[OrHaving](data)
	case "not":
		return decodeVariant[NotHaving](data)
	}
	return nil, &UnknownTypeError{Family: "having", Type: tag}
}

// LimitSpec orders and truncates groupBy results.
type LimitSpec struct {
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset,omitempty"`
	Columns []OrderByColumnSpec `json:"columns"`
}

// OrderByColumnSpec orders results by one column.
type OrderByColumnSpec struct {
	Dimension      string       `json:"dimension"`
	Direction      Ordering     `json:"direction"`
	DimensionOrder SortingOrder `json:"dimensionOrder"`
}

// MarshalJSON implements json.Marshaler.
func (l LimitSpec) MarshalJSON() ([]byte, error) {
	type plain LimitSpec
	p := plain(l)
	p.Columns = serde.OrEmpty(p.Columns)
	return serde.MarshalTagged("type", "default", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LimitSpec) UnmarshalJSON(data []byte) error {
	if tag, err := readTag(data, "limit spec"); err != nil {
		return err
	} else if tag != "default" {
		return &UnknownTypeError{Family: "limit spec", Type: tag}
	}
	type plain LimitSpec
	var p plain
	if err := serde.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = LimitSpec(p)
	dropEmpty(l)
	return nil
}
