// Package labordash loads labor-market statistics (wages, employment, industry
// mix) and derives the views rendered by the dashboard:
//
//   - Multi-source loading: each dataset lists sources tried in priority order
//     until one yields a table that conforms to the dataset's schema
//   - Degraded mode: when every source fails the caller gets an empty table and
//     a flag, never an error it has to special-case
//   - Normalization: explicit schemas checked at the boundary, with derived
//     columns computed once per load
//   - Aggregation: pure, deterministic views over normalized tables
//
// Tables are memoized per Session and discarded on refresh.
package labordash
