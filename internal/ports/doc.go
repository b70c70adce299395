// Package ports defines the interfaces that connect the stream engine to
// infrastructure adapters.
//
// Ports are the boundaries between the continuity engine and the outside
// world: they say what the engine needs without saying how it is provided.
//
// # Port Interfaces
//
//   - [Decoder]: decodes one acquisition file into a RawUnit
//   - [Kernel]: runs the acoustic processing chain over a pile
//   - [Reporter]: delivers processed windows to reporting sinks
//   - [UnitSource]: lists and watches the incoming acquisition files
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The engine (internal/stream, internal/telemetry) depends only on these
// interfaces; adapters (internal/adapters) implement them.
package ports
