package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Filter restricts the rows a query reads.
type Filter interface {
	filter()
}

// SelectorFilter matches rows where Dimension equals Value.
type SelectorFilter struct {
	Dimension    string       `json:"dimension"`
	Value        string       `json:"value"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

// ColumnComparisonFilter matches rows where all Dimensions are equal.
type ColumnComparisonFilter struct {
	Dimensions []Dimension `json:"dimensions"`
}

// RegexFilter matches rows where Dimension matches Pattern.
type RegexFilter struct {
	Dimension string `json:"dimension"`
	Pattern   string `json:"pattern"`
}

// AndFilter matches rows matched by every field.
type AndFilter struct {
	Fields []Filter `json:"fields"`
}

// OrFilter matches rows matched by any field.
type OrFilter struct {
	Fields []Filter `json:"fields"`
}

// NotFilter inverts Field.
type NotFilter struct {
	Field Filter `json:"field"`
}

// JavascriptFilter matches rows for which Function returns true.
type JavascriptFilter struct {
	Dimension string `json:"dimension"`
	Function  string `json:"function"`
}

// SearchFilter matches rows where Dimension satisfies Query.
type SearchFilter struct {
	Dimension string          `json:"dimension"`
	Query     SearchQuerySpec `json:"query"`
}

// InFilter matches rows where Dimension is one of Values.
type InFilter struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}

// LikeFilter matches rows where Dimension matches a SQL LIKE pattern.
type LikeFilter struct {
	Dimension    string       `json:"dimension"`
	Pattern      string       `json:"pattern"`
	Escape       string       `json:"escape,omitempty"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

// BoundFilter matches rows where Dimension falls within a range.
type BoundFilter struct {
	Dimension    string       `json:"dimension"`
	Lower        string       `json:"lower,omitempty"`
	Upper        string       `json:"upper,omitempty"`
	LowerStrict  bool         `json:"lowerStrict"`
	UpperStrict  bool         `json:"upperStrict"`
	Ordering     SortingOrder `json:"ordering"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

// IntervalFilter matches rows where Dimension, read as a timestamp, falls in
// one of Intervals.
type IntervalFilter struct {
	Dimension    string       `json:"dimension"`
	Intervals    []string     `json:"intervals"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

// TrueFilter matches every row.
type TrueFilter struct{}

func (SelectorFilter) filter()         {}
func (ColumnComparisonFilter) filter() {}
func (RegexFilter) filter()            {}
func (AndFilter) filter()              {}
func (OrFilter) filter()               {}
func (NotFilter) filter()              {}
func (JavascriptFilter) filter()       {}
func (SearchFilter) filter()           {}
func (InFilter) filter()               {}
func (LikeFilter) filter()             {}
func (BoundFilter) filter()            {}
func (IntervalFilter) filter()         {}
func (TrueFilter) filter()             {}

// Selector returns a selector filter.
func Selector(dimension, value string) SelectorFilter {
	return SelectorFilter{Dimension: dimension, Value: value}
}

// And returns a conjunction of filters.
func And(fields ...Filter) AndFilter { return AndFilter{Fields: fields} }

// Or returns a disjunction of filters.
func Or(fields ...Filter) OrFilter { return OrFilter{Fields: fields} }

// Not returns the negation of f.
func Not(f Filter) NotFilter { return NotFilter{Field: f} }

// MarshalJSON implements json.Marshaler.
func (f SelectorFilter) MarshalJSON() ([]byte, error) {
	type plain SelectorFilter
	return serde.MarshalTagged("type", "selector", plain(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *SelectorFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension    string     `json:"dimension"`
		Value        string     `json:"value"`
		ExtractionFn rawMessage `json:"extractionFn"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fn, err := decodeOptional(aux.ExtractionFn, DecodeExtractionFn)
	if err != nil {
		return err
	}
	*f = SelectorFilter{Dimension: aux.Dimension, Value: aux.Value, ExtractionFn: fn}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f ColumnComparisonFilter) MarshalJSON() ([]byte, error) {
	type plain ColumnComparisonFilter
	p := plain(f)
	p.Dimensions = serde.OrEmpty(p.Dimensions)
	return serde.MarshalTagged("type", "columnComparison", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *ColumnComparisonFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimensions []rawMessage `json:"dimensions"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	dims, err := decodeDimensions(aux.Dimensions)
	if err != nil {
		return err
	}
	f.Dimensions = dims
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f RegexFilter) MarshalJSON() ([]byte, error) {
	type plain RegexFilter
	return serde.MarshalTagged("type", "regex", plain(f))
}

// MarshalJSON implements json.Marshaler.
func (f AndFilter) MarshalJSON() ([]byte, error) {
	return serde.MarshalTagged("type", "and", filterList{serde.OrEmpty(f.Fields)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *AndFilter) UnmarshalJSON(data []byte) error {
	fields, err := decodeFilterList(data)
	f.Fields = fields
	return err
}

// MarshalJSON implements json.Marshaler.
func (f OrFilter) MarshalJSON() ([]byte, error) {
	return serde.MarshalTagged("type", "or", filterList{serde.OrEmpty(f.Fields)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *OrFilter) UnmarshalJSON(data []byte) error {
	fields, err := decodeFilterList(data)
	f.Fields = fields
	return err
}

type filterList struct {
	Fields []Filter `json:"fields"`
}

func decodeFilterList(data []byte) ([]Filter, error) {
	var aux struct {
		Fields []rawMessage `json:"fields"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	return decodeSlice(aux.Fields, "fields", DecodeFilter)
}

// MarshalJSON implements json.Marshaler.
func (f NotFilter) MarshalJSON() ([]byte, error) {
	if f.Field == nil {
		return nil, missing("field")
	}
	type plain NotFilter
	return serde.MarshalTagged("type", "not", plain(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *NotFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Field rawMessage `json:"field"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	field, err := decodeRequired(aux.Field, "field", DecodeFilter)
	if err != nil {
		return err
	}
	f.Field = field
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f JavascriptFilter) MarshalJSON() ([]byte, error) {
	type plain JavascriptFilter
	return serde.MarshalTagged("type", "javascript", plain(f))
}

// MarshalJSON implements json.Marshaler.
func (f SearchFilter) MarshalJSON() ([]byte, error) {
	if f.Query == nil {
		return nil, missing("query")
	}
	type plain SearchFilter
	return serde.MarshalTagged("type", "search", plain(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *SearchFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension string     `json:"dimension"`
		Query     rawMessage `json:"query"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	spec, err := decodeRequired(aux.Query, "query", DecodeSearchQuerySpec)
	if err != nil {
		return err
	}
	*f = SearchFilter{Dimension: aux.Dimension, Query: spec}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f InFilter) MarshalJSON() ([]byte, error) {
	type plain InFilter
	p := plain(f)
	p.Values = serde.OrEmpty(p.Values)
	return serde.MarshalTagged("type", "in", p)
}

// MarshalJSON implements json.Marshaler.
func (f LikeFilter) MarshalJSON() ([]byte, error) {
	type plain LikeFilter
	return serde.MarshalTagged("type", "like", plain(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *LikeFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension    string     `json:"dimension"`
		Pattern      string     `json:"pattern"`
		Escape       string     `json:"escape"`
		ExtractionFn rawMessage `json:"extractionFn"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fn, err := decodeOptional(aux.ExtractionFn, DecodeExtractionFn)
	if err != nil {
		return err
	}
	*f = LikeFilter{Dimension: aux.Dimension, Pattern: aux.Pattern, Escape: aux.Escape, ExtractionFn: fn}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f BoundFilter) MarshalJSON() ([]byte, error) {
	type plain BoundFilter
	p := plain(f)
	if p.Ordering == "" {
		p.Ordering = Lexicographic
	}
	return serde.MarshalTagged("type", "bound", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *BoundFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension    string     `json:"dimension"`
		Lower        string     `json:"lower"`
		Upper        string     `json:"upper"`
		LowerStrict  bool       `json:"lowerStrict"`
		UpperStrict  bool       `json:"upperStrict"`
		Ordering     rawMessage `json:"ordering"`
		ExtractionFn rawMessage `json:"extractionFn"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fn, err := decodeOptional(aux.ExtractionFn, DecodeExtractionFn)
	if err != nil {
		return err
	}
	ordering, err := serde.TaggedOrUntagged(aux.Ordering, string(Lexicographic))
	if err != nil {
		return err
	}
	*f = BoundFilter{
		Dimension:    aux.Dimension,
		Lower:        aux.Lower,
		Upper:        aux.Upper,
		LowerStrict:  aux.LowerStrict,
		UpperStrict:  aux.UpperStrict,
		Ordering:     SortingOrder(ordering),
		ExtractionFn: fn,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f IntervalFilter) MarshalJSON() ([]byte, error) {
	type plain IntervalFilter
	p := plain(f)
	p.Intervals = serde.OrEmpty(p.Intervals)
	return serde.MarshalTagged("type", "interval", p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *IntervalFilter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Dimension    string     `json:"dimension"`
		Intervals    []string   `json:"intervals"`
		ExtractionFn rawMessage `json:"extractionFn"`
	}
	if err := serde.Unmarshal(data, &aux); err != nil {
		return err
	}
	fn, err := decodeOptional(aux.ExtractionFn, DecodeExtractionFn)
	if err != nil {
		return err
	}
	*f = IntervalFilter{Dimension: aux.Dimension, Intervals: aux.Intervals, ExtractionFn: fn}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (TrueFilter) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"true"}`), nil
}

// DecodeFilter decodes a filter by its "type" member.
func DecodeFilter(data []byte) (Filter, error) {
	tag, err := readTag(data, "filter")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "selector":
		return decodeVariant[SelectorFilter](data)
	case "columnComparison":
		return decodeVariant[ColumnComparisonFilter](data)
	case "regex":
		return decodeVariant[RegexFilter](data)
	case "and":
		return decodeVariant[AndFilter](data)
	case "or":
		return decodeVariant[OrFilter](data)
	case "not":
		return decodeVariant[NotFilter](data)
	case "javascript":
		return decodeVariant[JavascriptFilter](data)
	case "search":
		return decodeVariant[SearchFilter](data)
	case "in":
		return decodeVariant[InFilter](data)
	case "like":
		return decodeVariant[LikeFilter](data)
	case "bound":
		return decodeVariant[BoundFilter](data)
	case "interval":
		return decodeVariant[IntervalFilter](data)
	case "true":
		return TrueFilter{}, nil
	}
	return nil, &UnknownTypeError{Family: "filter", Type: tag}
}

// SearchQuerySpec is the match rule of search filters and search queries.
type SearchQuerySpec interface {
	searchQuerySpec()
}

// ContainsSearch matches values containing Value.
type ContainsSearch struct {
	Value         string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// InsensitiveContainsSearch matches values containing Value, ignoring case.
type InsensitiveContainsSearch struct {
	Value string `json:"value"`
}

// FragmentSearch matches values containing every one of Values.
type FragmentSearch struct {
	Values        []string `json:"values"`
	CaseSensitive bool     `json:"caseSensitive"`
}

// RegexSearch matches values matching Pattern.
type RegexSearch struct {
	Pattern string `json:"pattern"`
}

func (ContainsSearch) searchQuerySpec()            {}
func (InsensitiveContainsSearch) searchQuerySpec() {}
func (FragmentSearch) searchQuerySpec()            {}
func (RegexSearch) searchQuerySpec()               {}

// MarshalJSON implements json.Marshaler.
func (s ContainsSearch) MarshalJSON() ([]byte, error) {
	type plain ContainsSearch
	return serde.MarshalTagged("type", "contains", plain(s))
}

// MarshalJSON implements json.Marshaler.
func (s InsensitiveContainsSearch) MarshalJSON() ([]byte, error) {
	type plain InsensitiveContainsSearch
	return serde.MarshalTagged("type", "insensitive_contains", plain(s))
}

// MarshalJSON implements json.Marshaler.
func (s FragmentSearch) MarshalJSON() ([]byte, error) {
	type plain FragmentSearch
	p := plain(s)
	p.Values = serde.OrEmpty(p.Values)
	return serde.MarshalTagged("type", "fragment", p)
}

// MarshalJSON implements json.Marshaler.
func (s RegexSearch) MarshalJSON() ([]byte, error) {
	type plain RegexSearch
	return serde.MarshalTagged("type", "regex", plain(s))
}

// DecodeSearchQuerySpec decodes a search spec by its "type" member.
func DecodeSearchQuerySpec(data []byte) (SearchQuerySpec, error) {
	tag, err := readTag(data, "search spec")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "contains":
		return decodeVariant[ContainsSearch](data)
	case "insensitive_contains":
		return decodeVariant[InsensitiveContainsSearch](data)
	case "fragment":
		return decodeVariant[FragmentSearch](data)
	case "regex":
		return decodeVariant[RegexSearch](data)
	}
	return nil, &UnknownTypeError{Family: "search spec", Type: tag}
}
