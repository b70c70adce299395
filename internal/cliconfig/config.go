package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultServiceURL is the default endpoint for remote report delivery.
const DefaultServiceURL = "https://api.seaward-labs.io"

// Config holds CLI configuration for echoline.
type Config struct {
	ListenDir string
	CalFile   string
	LogDir    string

	ChannelKHz        int
	TransitSpeedKnots float64
	MaxSpeedKnots     float64
	MinWindowNM       float64

	PollInterval time.Duration
	HTTPTimeout  time.Duration

	ServiceURL string
	AuthKey    string
	Platform   string
	ReportRows int

	SavePNG bool
	Once    bool

	// DBPath is derived from LogDir during Validate when unset.
	DBPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ChannelKHz:        120,
		TransitSpeedKnots: 3,
		MaxSpeedKnots:     25,
		MinWindowNM:       1,
		PollInterval:      10 * time.Second,
		HTTPTimeout:       30 * time.Second,
		ServiceURL:        DefaultServiceURL,
		Platform:          "Unknown",
		ReportRows:        60,
		AuthKey:           os.Getenv("ECHOLINE_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// It covers the fatal pre-loop conditions: a loop over a directory that does
// not exist, or a channel that could never be decoded, must abort before
// starting rather than fail on every unit.
func (c *Config) Validate() error {
	if c.ListenDir == "" {
		return fmt.Errorf("listen-dir is required")
	}
	info, err := os.Stat(c.ListenDir)
	if err != nil {
		return fmt.Errorf("listen-dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("listen-dir: %s is not a directory", c.ListenDir)
	}

	if c.CalFile != "" {
		if _, err := os.Stat(c.CalFile); err != nil {
			return fmt.Errorf("cal-file: %w", err)
		}
	}

	if c.ChannelKHz <= 0 || c.ChannelKHz > 1000 {
		return fmt.Errorf("channel must be a plausible frequency in kHz, got %d", c.ChannelKHz)
	}
	if c.TransitSpeedKnots <= 0 {
		return fmt.Errorf("transit speed must be positive")
	}
	if c.MaxSpeedKnots <= c.TransitSpeedKnots {
		return fmt.Errorf("max speed must be above transit speed")
	}
	if c.MinWindowNM <= 0 {
		return fmt.Errorf("window distance must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.ListenDir, "echoline")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.LogDir, "echoline.db")
	}

	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	// Ensure no trailing slash
	if len(c.ServiceURL) > 0 && c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
