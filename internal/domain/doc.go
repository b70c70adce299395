// Package domain contains the core entities of the echoline streaming
// continuity engine.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (file formats, HTTP, logging) and
// contains only the data model and its invariants.
//
// # Entities
//
//   - [RawUnit]: one decoded acquisition file's worth of acoustic and
//     telemetry samples
//   - [Pile]: the growable buffer of joined continuous units awaiting a
//     processing window
//   - [CarryState]: the boundary-carry bookkeeping between processed windows
//   - [ProcessedWindow]: the output of the acoustic kernel for one pile
//   - [UnitTail]: the lightweight snapshot of the previous unit kept for
//     continuity checks, without its sample grid
//
// # Design Principles
//
// Domain entities are:
//   - Validated at construction, not at first access
//   - Free of infrastructure dependencies
//   - Owned exclusively by the stream driver; never shared across goroutines
package domain
