package echoline

import (
	"net/http"

	"github.com/seaward-labs/echoline/internal/ports"
	"github.com/seaward-labs/echoline/pkg/log"
)

// Logger is the logging interface used by the engine.
type Logger = ports.Logger

// HTTPClient is the interface used for remote report delivery.
type HTTPClient = ports.HTTPClient

// Decoder converts an acquisition unit into decoded pings.
type Decoder = ports.Decoder

// Kernel turns a distance-qualified pile into a processed window.
type Kernel = ports.Kernel

// Reporter delivers processed windows.
type Reporter = ports.Reporter

// UnitSource enumerates and watches acquisition units.
type UnitSource = ports.UnitSource

// options holds the internal configuration assembled from Options.
type options struct {
	httpClient HTTPClient
	logger     Logger
	decoder    Decoder
	kernel     Kernel
	reporter   Reporter
	source     UnitSource
}

// defaultOptions returns options with default values.
func defaultOptions(client *http.Client) *options {
	return &options{
		httpClient: client,
		logger:     log.NewNoopLogger(),
	}
}

// Option is a functional option for configuring the engine.
type Option func(*options)

// WithHTTPClient sets a custom HTTP client for remote delivery.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger implementation.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDecoder replaces the built-in unit decoder.
func WithDecoder(d Decoder) Option {
	return func(o *options) {
		o.decoder = d
	}
}

// WithKernel replaces the built-in processing kernel.
func WithKernel(k Kernel) Option {
	return func(o *options) {
		o.kernel = k
	}
}

// WithReporter replaces the built-in reporting stack.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithSource replaces the built-in directory source.
func WithSource(s UnitSource) Option {
	return func(o *options) {
		o.source = s
	}
}
