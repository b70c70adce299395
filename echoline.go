// Package echoline provides unattended acoustic processing for vessels
// underway.
//
// Example usage:
//
//	cfg := echoline.DefaultConfig()
//	cfg.ListenDir = "/data/ek60"
//	eng, err := echoline.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
package echoline

import (
	"github.com/rs/zerolog"

	"github.com/seaward-labs/echoline/internal/cliconfig"
	lib "github.com/seaward-labs/echoline/pkg/echoline"
)

// Config holds the configuration for the acquisition engine.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = lib.Config

// Echoline is the acquisition engine.
type Echoline = lib.Echoline

// Option configures the engine at construction.
type Option = lib.Option

// State is the engine lifecycle state.
type State = lib.State

// Lifecycle states.
const (
	StateStopped  = lib.StateStopped
	StateStarting = lib.StateStarting
	StateRunning  = lib.StateRunning
	StateStopping = lib.StateStopping
	StateCrashed  = lib.StateCrashed
)

// New creates an engine from the given configuration.
func New(cfg Config, opts ...Option) (*Echoline, error) {
	return lib.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set ListenDir before calling New.
func DefaultConfig() Config {
	return lib.DefaultConfig()
}

// Logger returns the package-level zerolog logger used by the CLI.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}

// DefaultServiceURL is the default endpoint for remote report delivery.
const DefaultServiceURL = cliconfig.DefaultServiceURL
