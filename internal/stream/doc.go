// Package stream contains the stateful streaming continuity engine: the
// continuity classifier, the window scheduler and the driver loop that feeds
// decoded units through them.
//
// The engine decides whether each newly read unit continues the previous
// one, tracks transect identity across unit boundaries, accumulates
// continuous units into a pile until a nautical mile of distance has been
// covered, and carries un-processable boundary pings forward into the next
// window so no sample is lost or double-counted.
//
// Everything here runs on a single goroutine: Pile, CarryState and the
// driver's loop state are owned exclusively by the driver and never touched
// concurrently.
package stream
