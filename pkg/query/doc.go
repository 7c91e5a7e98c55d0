// Package query is the typed model of native Druid queries.
//
// This package contains:
//   - Query kinds (TopN, GroupBy, Scan, Search, TimeBoundary,
//     SegmentMetadata, Timeseries) and the standalone DataSourceMetadata
//   - Polymorphic building blocks (DataSource, Dimension, ExtractionFn,
//     Filter, Aggregation, PostAggregation, HavingSpec)
//   - Scalars (JSONAny, JSONNumber, Granularity) and builders
//
// Every polymorphic family is a sealed interface. Variants encode with their
// discriminator ("type", or "queryType" for queries) as the first member and
// decode through the family's Decode function.
//
// The Golden Rule: pkg/query imports ONLY pkg/serde and stdlib.
package query
