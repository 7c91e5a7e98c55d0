package query

import (
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Search finds dimension values matching Query.
type Search struct {
	DataSource       DataSource
	Granularity      Granularity
	Filter           Filter
	Limit            int
	Intervals        []string
	SearchDimensions []string
	Query            SearchQuerySpec
	// Sort orders the matched values. Empty leaves the engine default.
	Sort    SortingOrder
	Context Context
}

// QueryType implements Request.
func (*Search) QueryType() string { return TypeSearch }

func (*Search) query() {}

type searchSort struct {
	Type SortingOrder `json:"type"`
}

// MarshalJSON implements json.Marshaler.
func (q Search) MarshalJSON() ([]byte, error) {
	switch {
	case q.DataSource == nil:
		return nil, missing("dataSource")
	case q.Query == nil:
		return nil, missing("query")
	}
	wire := struct {
		DataSource       DataSource      `json:"dataSource"`
		Granularity      Granularity     `json:"granularity"`
		Filter           Filter          `json:"filter,omitempty"`
		Limit            int             `json:"limit,omitempty"`
		Intervals        []string        `json:"intervals"`
		SearchDimensions []string        `json:"searchDimensions,omitempty"`
		Query            SearchQuerySpec `json:"query"`
		Sort             *searchSort     `json:"sort,omitempty"`
		Context          Context         `json:"context,omitempty"`
	}{
		DataSource:       q.DataSource,
		Granularity:      q.Granularity,
		Filter:           q.Filter,
		Limit:            q.Limit,
		Intervals:        serde.OrEmpty(q.Intervals),
		SearchDimensions: q.SearchDimensions,
		Query:            q.Query,
		Context:          q.Context,
	}
	if q.Sort != "" {
		wire.Sort = &searchSort{Type: q.Sort}
	}
	return serde.MarshalTagged("queryType", TypeSearch, wire)
}

// UnmarshalJSON implements json.Unmarshaler. The sort member may be a bare
// name or a {"type": ...} object; null or absent leaves Sort empty.
func (q *Search) UnmarshalJSON(data []byte) error {
	var aux struct {
		DataSource       rawMessage  `json:"dataSource"`
		Granularity      Granularity `json:"granularity"`
		Filter           rawMessage  `json:"filter"`
		Limit            int         `json:"limit"`
		Intervals        []string    `json:"intervals"`
		SearchDimensions []string    `json:"searchDimensions"`
		Query            rawMessage  `json:"query"`
		Sort             rawMessage  `json:"sort"`
		Context          Context     `json:"context"`
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
	spec, err := decodeRequired(aux.Query, "query", DecodeSearchQuerySpec)
	if err != nil {
		return err
	}
	var sort string
	if aux.Sort != nil {
		if sort, err = serde.TaggedOrUntagged(aux.Sort, string(Lexicographic)); err != nil {
			return err
		}
	}
	*q = Search{
		DataSource:       ds,
		Granularity:      aux.Granularity,
		Filter:           filter,
		Limit:            aux.Limit,
		Intervals:        aux.Intervals,
		SearchDimensions: aux.SearchDimensions,
		Query:            spec,
		Sort:             SortingOrder(sort),
		Context:          aux.Context,
	}
	dropEmpty(q)
	return nil
}
