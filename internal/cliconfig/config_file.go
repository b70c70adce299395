package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenDir         string  `toml:"listen_dir"`
	CalFile           string  `toml:"cal_file"`
	LogDir            string  `toml:"log_dir"`
	ChannelKHz        int     `toml:"channel_khz"`
	TransitSpeedKnots float64 `toml:"transit_speed_knots"`
	MaxSpeedKnots     float64 `toml:"max_speed_knots"`
	MinWindowNM       float64 `toml:"min_window_nm"`
	PollInterval      string  `toml:"poll_interval"`
	HTTPTimeout       string  `toml:"http_timeout"`
	ServiceURL        string  `toml:"service_url"`
	AuthKey           string  `toml:"auth_key"`
	Platform          string  `toml:"platform"`
	ReportRows        int     `toml:"report_rows"`
	DBPath            string  `toml:"db_path"`
	SavePNG           *bool   `toml:"save_png"`
	Once              *bool   `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.echoline/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".echoline", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-dir", fc.ListenDir, &cfg.ListenDir)
	s.setString("cal-file", fc.CalFile, &cfg.CalFile)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("platform", fc.Platform, &cfg.Platform)
	s.setString("db-path", fc.DBPath, &cfg.DBPath)

	s.setInt("channel", fc.ChannelKHz, &cfg.ChannelKHz)
	s.setInt("report-rows", fc.ReportRows, &cfg.ReportRows)

	s.setFloat("transit-speed", fc.TransitSpeedKnots, &cfg.TransitSpeedKnots)
	s.setFloat("max-speed", fc.MaxSpeedKnots, &cfg.MaxSpeedKnots)
	s.setFloat("window-nm", fc.MinWindowNM, &cfg.MinWindowNM)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("save-png", fc.SavePNG, &cfg.SavePNG)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
