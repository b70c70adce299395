package echoline

import (
	"fmt"
	"time"
)

// Config holds the configuration for the acquisition engine.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// ListenDir is the directory the echosounder writes .raw files into.
	ListenDir string

	// CalFile is an optional TOML calibration file; empty keeps the
	// instrument's embedded parameters.
	CalFile string

	// LogDir receives the CSV log and rendered echograms. Defaults to an
	// "echoline" directory under ListenDir.
	LogDir string

	// DBPath is the SQLite report store. Defaults to echoline.db in LogDir.
	DBPath string

	// ChannelKHz selects the frequency channel to process.
	ChannelKHz int

	// TransitSpeedKnots separates stationary bouts from transects.
	TransitSpeedKnots float64

	// MaxSpeedKnots is the telemetry plausibility ceiling.
	MaxSpeedKnots float64

	// MinWindowNM is the distance a pile must cover before processing.
	MinWindowNM float64

	PollInterval time.Duration
	HTTPTimeout  time.Duration

	// Remote delivery. Delivery is disabled while AuthKey is empty.
	ServiceURL string
	AuthKey    string
	Platform   string
	ReportRows int

	// SavePNG renders an echogram per processed window.
	SavePNG bool

	// Once processes the directory's current contents as a batch and exits
	// instead of listening for new files.
	Once bool
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, ListenDir must be set before calling New.
func DefaultConfig() Config {
	return Config{
		ChannelKHz:        120,
		TransitSpeedKnots: 3,
		MaxSpeedKnots:     25,
		MinWindowNM:       1,
		PollInterval:      10 * time.Second,
		HTTPTimeout:       30 * time.Second,
		Platform:          "Unknown",
		ReportRows:        60,
	}
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.ChannelKHz == 0 {
		c.ChannelKHz = def.ChannelKHz
	}
	if c.TransitSpeedKnots == 0 {
		c.TransitSpeedKnots = def.TransitSpeedKnots
	}
	if c.MaxSpeedKnots == 0 {
		c.MaxSpeedKnots = def.MaxSpeedKnots
	}
	if c.MinWindowNM == 0 {
		c.MinWindowNM = def.MinWindowNM
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = def.HTTPTimeout
	}
	if c.Platform == "" {
		c.Platform = def.Platform
	}
	if c.ReportRows == 0 {
		c.ReportRows = def.ReportRows
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ListenDir == "" {
		return fmt.Errorf("echoline: ListenDir is required")
	}
	if c.ChannelKHz <= 0 {
		return fmt.Errorf("echoline: ChannelKHz must be positive")
	}
	if c.TransitSpeedKnots <= 0 || c.MaxSpeedKnots <= c.TransitSpeedKnots {
		return fmt.Errorf("echoline: speed thresholds out of order")
	}
	if c.MinWindowNM <= 0 {
		return fmt.Errorf("echoline: MinWindowNM must be positive")
	}
	return nil
}
