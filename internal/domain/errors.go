package domain

import "errors"

// Domain errors represent error conditions in the echoline domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrChannelNotFound is returned by decoders when the configured
	// frequency channel is absent from an acquisition file.
	ErrChannelNotFound = errors.New("echoline: frequency channel not found")

	// ErrCalibration is returned when a calibration file is missing a
	// required section or cannot be parsed.
	ErrCalibration = errors.New("echoline: invalid calibration file")

	// ErrTelemetrySpeed is returned when interpolated telemetry implies a
	// platform speed above the configured ceiling. Position data producing
	// such speeds cannot be trusted and the whole unit is discarded.
	ErrTelemetrySpeed = errors.New("echoline: incoherent telemetry speed")

	// ErrProcessing is returned when the acoustic kernel fails on a window.
	ErrProcessing = errors.New("echoline: window processing failed")

	// ErrDelivery is returned by reporting sinks on delivery failure.
	// Delivery failures are logged and never stop the stream.
	ErrDelivery = errors.New("echoline: report delivery failed")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("echoline: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("echoline: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("echoline: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("echoline: invalid configuration")
)
