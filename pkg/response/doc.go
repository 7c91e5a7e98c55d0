// Package response holds the envelopes a Druid broker returns for native
// queries.
//
// Row types are supplied by the caller through type parameters:
//
//	var rows []response.List[PageCount]
//	err := client.Do(ctx, topN, &rows)
//
// Collections the broker is known to send as null (result lists, segment
// intervals, aggregator maps) decode as empty rather than nil.
//
// The Golden Rule: pkg/response imports ONLY pkg/query, pkg/serde and stdlib.
package response
