package ports

import "github.com/seaward-labs/echoline/pkg/log"

// Logger is the structured logging abstraction used throughout the engine.
// It aliases pkg/log so core packages need only import ports.
type Logger = log.Logger

// Field is a key-value pair for structured logging.
type Field = log.Field

// Field constructors, re-exported for call sites inside the engine.
var (
	String   = log.String
	Int      = log.Int
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Strings  = log.Strings
	Err      = log.Err
	Any      = log.Any
)
