package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Dimension selects a column to group or rank by.
type Dimension interface {
	dimension()
}

// DefaultDimension returns a column as is, optionally renamed and cast.
type DefaultDimension struct {
	Dimension  string     `json:"dimension"`
	OutputName string     `json:"outputName"`
	OutputType OutputType `json:"outputType"`
}

// ExtractionDimension transforms a column with an extraction function.
type ExtractionDimension struct {
	Dimension    string       `json:"dimension"`
	OutputName   string       `json:"outputName"`
	OutputType   OutputType   `json:"outputType"`
	ExtractionFn ExtractionFn `json:"extractionFn"`
}

// ListFilteredDimension keeps (or drops) the listed values of a
// multi-value delegate dimension.
type ListFilteredDimension struct {
	Delegate    Dimension `json:"delegate"`
	Values      []string  `json:"values"`
	IsWhitelist bool      `json:"isWhitelist"`
}

// RegexFilteredDimension keeps values of the delegate matching Pattern.
type RegexFilteredDimension struct {
	Delegate Dimension `json:"delegate"`
	Pattern  string    `json:"pattern"`
}

// PrefixFilteredDimension keeps values of the delegate starting with Prefix.
type PrefixFilteredDimension struct {
	Delegate Dimension `json:"delegate"`
	Prefix   string    `json:"prefix"`
}

// LookupMapDimension maps values through an inline lookup map.
type LookupMapDimension struct {
	Dimension               string    `json:"dimension"`
	OutputName              string    `json:"outputName"`
	ReplaceMissingValueWith string    `json:"replaceMissingValueWith,omitempty"`
	RetainMissingValue      bool      `json:"retainMissingValue"`
	Lookup                  LookupMap `json:"lookup"`
}

// LookupDimension maps values through a lookup registered under Name.
type LookupDimension struct {
	Dimension  string `json:"dimension"`
	OutputName string `json:"outputName"`
	Name       string `json:"name"`
}

func (DefaultDimension) dimension()        {}
func (ExtractionDimension) dimension()     {}
func (ListFilteredDimension) dimension()   {}
func (RegexFilteredDimension) dimension()  {}
func (PrefixFilteredDimension) dimension() {}
func (LookupMapDimension) dimension()      {}
func (LookupDimension) dimension()         {}

// Dim returns a default dimension reading column name under its own name.
func Dim(name string) DefaultDimension {
	return DefaultDimension{Dimension: name, OutputName: name, OutputType: OutputString}
}

// MarshalJSON implements json.Marshaler.
func (d DefaultDimension) MarshalJSON() ([]byte, error) {
	type plain DefaultDimension
	return serde.MarshalTagged("type", "default", plain(d))
}

// MarshalJSON implements json.Marshaler.
func (d ExtractionDimension) MarshalJSON() ([]byte, error) {
	if d.ExtractionFn == nil {
		return nil, missing("extractionFn")
	}
	type plain ExtractionDimension
	return serde.MarshalTagged("type", "extraction", plain(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ExtractionDimension) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension    string     `json:"dimension"`
		OutputName   string     `json:"outputName"`
		OutputType   OutputType `json:"outputType"`
		ExtractionFn rawMessage `json:"extractionFn"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fn, err := decodeRequired(aux.ExtractionFn, "extractionFn", DecodeExtractionFn)
	if err != nil {
		return err
	}
	*d = ExtractionDimension{
		Dimension:    aux.Dimension,
		OutputName:   aux.OutputName,
		OutputType:   aux.OutputType,
		ExtractionFn: fn,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d ListFilteredDimension) MarshalJSON() ([]byte, error) {
	if d.Delegate == nil {
		return nil, missing("delegate")
	}
	type plain ListFilteredDimension
	p := plain(d)
	p.Values = serde.OrEmpty(p.Values)
	return serde.MarshalTagged("type", "listFiltered", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ListFilteredDimension) UnmarshalJSON(data []byte) error {
	var aux struct {
		Delegate    rawMessage `json:"delegate"`
		Values      []string   `json:"values"`
		IsWhitelist bool       `json:"isWhitelist"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	delegate, err := decodeRequired(aux.Delegate, "delegate", DecodeDimension)
	if err != nil {
		return err
	}
	*d = ListFilteredDimension{Delegate: delegate, Values: aux.Values, IsWhitelist: aux.IsWhitelist}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d RegexFilteredDimension) MarshalJSON() ([]byte, error) {
	if d.Delegate == nil {
		return nil, missing("delegate")
	}
	type plain RegexFilteredDimension
	return serde.MarshalTagged("type", "regexFiltered", plain(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *RegexFilteredDimension) UnmarshalJSON(data []byte) error {
	var aux struct {
		Delegate rawMessage `json:"delegate"`
		Pattern  string     `json:"pattern"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	delegate, err := decodeRequired(aux.Delegate, "delegate", DecodeDimension)
	if err != nil {
		return err
	}
	*d = RegexFilteredDimension{Delegate: delegate, Pattern: aux.Pattern}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d PrefixFilteredDimension) MarshalJSON() ([]byte, error) {
	if d.Delegate == nil {
		return nil, missing("delegate")
	}
	type plain PrefixFilteredDimension
	return serde.MarshalTagged("type", "prefixFiltered", plain(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *PrefixFilteredDimension) UnmarshalJSON(data []byte) error {
	var aux struct {
		Delegate rawMessage `json:"delegate"`
		Prefix   string     `json:"prefix"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	delegate, err := decodeRequired(aux.Delegate, "delegate", DecodeDimension)
	if err != nil {
		return err
	}
	*d = PrefixFilteredDimension{Delegate: delegate, Prefix: aux.Prefix}
	return nil
}

// MarshalJSON implements json.Marshaler. Both lookup forms share the
// "lookup" tag; the inline map form is told apart by its lookup member.
func (d LookupMapDimension) MarshalJSON() ([]byte, error) {
	type plain LookupMapDimension
	return serde.MarshalTagged("type", "lookup", plain(d))
}

// MarshalJSON implements json.Marshaler.
func (d LookupDimension) MarshalJSON() ([]byte, error) {
	type plain LookupDimension
	return serde.MarshalTagged("type", "lookup", plain(d))
}

// DecodeDimension decodes a dimension by its "type" member.
func DecodeDimension(data []byte) (Dimension, error) {
	tag, err := readTag(data, "dimension")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "default":
		return decodeVariant[DefaultDimension](data)
	case "extraction":
		return decodeVariant[ExtractionDimension](data)
	case "listFiltered":
		return decodeVariant[ListFilteredDimension](data)
	case "regexFiltered":
		return decodeVariant[RegexFilteredDimension](data)
	case "prefixFiltered":
		return decodeVariant[PrefixFilteredDimension](data)
	case "lookup":
		var peek struct {
			Lookup rawMessage `json:"lookup"`
		}
		if err := serde.Unmarshal(data, &peek); err != nil {
			return nil, err
		}
		if !serde.IsNull(peek.Lookup) {
			return decodeVariant[LookupMapDimension](data)
		}
		return decodeVariant[LookupDimension](data)
	}
	return nil, &UnknownTypeError{Family: "dimension", Type: tag}
}

// decodeDimensions decodes a list of dimensions. Bare strings are accepted
// as shorthand for default dimensions.
func decodeDimensions(raws []rawMessage) ([]Dimension, error) {
	return decodeSlice(raws, "dimensions", decodeDimensionOrName)
}

func decodeDimensionOrName(data []byte) (Dimension, error) {
	var name string
	if err := serde.Unmarshal(data, &name); err == nil {
		return Dim(name), nil
	}
	return DecodeDimension(data)
}
