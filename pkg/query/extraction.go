package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// ExtractionFn transforms dimension values before they are grouped or
// filtered.
type ExtractionFn interface {
	extractionFn()
}

// LookupMap is an inline key to value lookup.
type LookupMap struct {
	Map        map[string]string `json:"map"`
	IsOneToOne bool              `json:"isOneToOne"`
}

// MarshalJSON implements json.Marshaler.
func (m LookupMap) MarshalJSON() ([]byte, error) {
	type plain LookupMap
	p := plain(m)
	p.Map = serde.OrEmptyMap(p.Map)
	return serde.MarshalTagged("type", "map", p)
}

// RegexExtraction returns the first matching group of Expr.
type RegexExtraction struct {
	Expr                    string  `json:"expr"`
	Index                   int     `json:"index"`
	ReplaceMissingValue     bool    `json:"replaceMissingValue"`
	ReplaceMissingValueWith *string `json:"replaceMissingValueWith,omitempty"`
}

// PartialExtraction returns values matching Expr unchanged and null otherwise.
type PartialExtraction struct {
	Expr string `json:"expr"`
}

// SubstringExtraction returns a substring starting at Index.
type SubstringExtraction struct {
	Index  int  `json:"index"`
	Length *int `json:"length,omitempty"`
}

// StrlenExtraction returns the length of the value.
type StrlenExtraction struct{}

// TimeFormatExtraction formats timestamps.
type TimeFormatExtraction struct {
	Format      string       `json:"format,omitempty"`
	TimeZone    string       `json:"timeZone,omitempty"`
	Locale      string       `json:"locale,omitempty"`
	Granularity *Granularity `json:"granularity,omitempty"`
	AsMillis    bool         `json:"asMillis"`
}

// TimeExtraction reparses string timestamps from one format to another.
type TimeExtraction struct {
	TimeFormat   string `json:"timeFormat"`
	ResultFormat string `json:"resultFormat"`
	Joda         bool   `json:"joda"`
}

// JavascriptExtraction applies a JavaScript function.
type JavascriptExtraction struct {
	Function  string `json:"function"`
	Injective bool   `json:"injective,omitempty"`
}

// RegisteredLookupExtraction maps values through a lookup registered on the
// cluster.
type RegisteredLookupExtraction struct {
	Lookup             string `json:"lookup"`
	RetainMissingValue bool   `json:"retainMissingValue"`
}

// LookupExtraction maps values through an inline lookup.
type LookupExtraction struct {
	Lookup                  LookupMap `json:"lookup"`
	RetainMissingValue      bool      `json:"retainMissingValue"`
	Injective               bool      `json:"injective"`
	ReplaceMissingValueWith string    `json:"replaceMissingValueWith,omitempty"`
}

// CascadeExtraction applies functions in order.
type CascadeExtraction struct {
	ExtractionFns []ExtractionFn `json:"extractionFns"`
}

// StringFormatExtraction formats values with a printf-style pattern.
type StringFormatExtraction struct {
	Format       string       `json:"format"`
	NullHandling NullHandling `json:"nullHandling,omitempty"`
}

// UpperExtraction upper-cases values.
type UpperExtraction struct {
	Locale string `json:"locale,omitempty"`
}

// LowerExtraction lower-cases values.
type LowerExtraction struct {
	Locale string `json:"locale,omitempty"`
}

// BucketExtraction buckets numeric values into ranges of Size.
type BucketExtraction struct {
	Size   int `json:"size"`
	Offset int `json:"offset"`
}

func (RegexExtraction) extractionFn()            {}
func (PartialExtraction) extractionFn()          {}
func (SubstringExtraction) extractionFn()        {}
func (StrlenExtraction) extractionFn()           {}
func (TimeFormatExtraction) extractionFn()       {}
func (TimeExtraction) extractionFn()             {}
func (JavascriptExtraction) extractionFn()       {}
func (RegisteredLookupExtraction) extractionFn() {}
func (LookupExtraction) extractionFn()           {}
func (CascadeExtraction) extractionFn()          {}
func (StringFormatExtraction) extractionFn()     {}
func (UpperExtraction) extractionFn()            {}
func (LowerExtraction) extractionFn()            {}
func (BucketExtraction) extractionFn()           {}

// MarshalJSON implements json.Marshaler.
func (e RegexExtraction) MarshalJSON() ([]byte, error) {
	type plain RegexExtraction
	return serde.MarshalTagged("type", "regex", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e PartialExtraction) MarshalJSON() ([]byte, error) {
	type plain PartialExtraction
	return serde.MarshalTagged("type", "partial", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e SubstringExtraction) MarshalJSON() ([]byte, error) {
	type plain SubstringExtraction
	return serde.MarshalTagged("type", "substring", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e StrlenExtraction) MarshalJSON() ([]byte, error) {
	type plain StrlenExtraction
	return serde.MarshalTagged("type", "strlen", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e TimeFormatExtraction) MarshalJSON() ([]byte, error) {
	type plain TimeFormatExtraction
	return serde.MarshalTagged("type", "timeFormat", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e TimeExtraction) MarshalJSON() ([]byte, error) {
	type plain TimeExtraction
	return serde.MarshalTagged("type", "time", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e JavascriptExtraction) MarshalJSON() ([]byte, error) {
	type plain JavascriptExtraction
	return serde.MarshalTagged("type", "javascript", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e RegisteredLookupExtraction) MarshalJSON() ([]byte, error) {
	type plain RegisteredLookupExtraction
	return serde.MarshalTagged("type", "registeredLookup", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e LookupExtraction) MarshalJSON() ([]byte, error) {
	type plain LookupExtraction
	return serde.MarshalTagged("type", "lookup", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e CascadeExtraction) MarshalJSON() ([]byte, error) {
	type plain CascadeExtraction
	p := plain(e)
	p.ExtractionFns = serde.OrEmpty(p.ExtractionFns)
	return serde.MarshalTagged("type", "cascade", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CascadeExtraction) UnmarshalJSON(data []byte) error {
	var aux struct {
		ExtractionFns []rawMessage `json:"extractionFns"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fns, err := decodeSlice(aux.ExtractionFns, "extractionFns", DecodeExtractionFn)
	if err != nil {
		return err
	}
	e.ExtractionFns = fns
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e StringFormatExtraction) MarshalJSON() ([]byte, error) {
	type plain StringFormatExtraction
	return serde.MarshalTagged("type", "stringFormat", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e UpperExtraction) MarshalJSON() ([]byte, error) {
	type plain UpperExtraction
	return serde.MarshalTagged("type", "upper", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e LowerExtraction) MarshalJSON() ([]byte, error) {
	type plain LowerExtraction
	return serde.MarshalTagged("type", "lower", plain(e))
}

// MarshalJSON implements json.Marshaler.
func (e BucketExtraction) MarshalJSON() ([]byte, error) {
	type plain BucketExtraction
	return serde.MarshalTagged("type", "bucket", plain(e))
}

// DecodeExtractionFn decodes an extraction function by its "type" member.
func DecodeExtractionFn(data []byte) (ExtractionFn, error) {
	tag, err := readTag(data, "extraction function")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "regex":
		return decodeVariant[RegexExtraction](data)
	case "partial":
		return decodeVariant[PartialExtraction](data)
	case "substring":
		return decodeVariant[SubstringExtraction](data)
	case "strlen":
		return StrlenExtraction{}, nil
	case "timeFormat":
		return decodeVariant[TimeFormatExtraction](data)
	case "time":
		return decodeVariant[TimeExtraction](data)
	case "javascript":
		return decodeVariant[JavascriptExtraction](data)
	case "registeredLookup":
		return decodeVariant[RegisteredLookupExtraction](data)
	case "lookup":
		return decodeVariant[LookupExtraction](data)
	case "cascade":
		return decodeVariant[CascadeExtraction](data)
	case "stringFormat":
		return decodeVariant[StringFormatExtraction](data)
	case "upper":
		return decodeVariant[UpperExtraction](data)
	case "lower":
		return decodeVariant[LowerExtraction](data)
	case "bucket":
		return decodeVariant[BucketExtraction](data)
	}
	return nil, &UnknownTypeError{Family: "extraction function", Type: tag}
}
