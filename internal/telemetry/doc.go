// Package telemetry resamples irregularly-timed GPS and attitude telemetry
// onto an acquisition's own sample clock, bridging gaps between successive
// files.
//
// Position channels are smoothed with a fixed-window Savitzky-Golay filter
// before great-circle distances and speeds are derived; all channels are then
// linearly interpolated onto the ping clock, keyed on elapsed seconds since
// epoch for numerical stability. When the previous unit's telemetry tail is
// close enough in time, it seeds the interpolation across the file boundary
// so edge pings do not suffer extrapolation artifacts.
package telemetry
