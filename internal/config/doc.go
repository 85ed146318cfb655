// Package config provides configuration for the KavakDB index engine.
//
// # Overview
//
// The config package owns the two pieces of shared, immutable state every
// other component reads:
//
//   - The column schema: the ordered list of typed columns that make up
//     every composite key in an index file.
//   - The capacity thresholds: per node kind minimum and maximum key counts,
//     derived from the page size and the fixed key size.
//
// # Schema
//
// A schema is an ordered list of column descriptors. Each column is one of
// the closed set of types (Int32, Int64, Float32, Float64, FixedString).
// FixedString columns carry an explicit byte width; the numeric types have
// fixed widths of 4 or 8 bytes. Schemas are immutable for the lifetime of an
// index file.
//
// Schemas can be parsed from a compact text form:
//
//	schema, err := config.ParseSchema("int32, fixed(12), float64")
//
// # Capacity Thresholds
//
// New derives the per-kind capacity limits from the page size and the
// schema's key size:
//
//	cfg, err := config.New(4096, schema)
//	cfg.MaxLeafKeys     // maximum keys per leaf page
//	cfg.MinInternalKeys // merge threshold for internal pages
//
// The threshold fields are plain integers so tests and tuning can override
// them after construction; Validate reports incoherent combinations.
package config
