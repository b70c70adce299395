package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ECHOLINE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen-dir", os.Getenv("ECHOLINE_LISTEN_DIR"), &cfg.ListenDir)
	s.setString("cal-file", os.Getenv("ECHOLINE_CAL_FILE"), &cfg.CalFile)
	s.setString("log-dir", os.Getenv("ECHOLINE_LOG_DIR"), &cfg.LogDir)
	s.setString("service-url", os.Getenv("ECHOLINE_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("ECHOLINE_AUTH_KEY"), &cfg.AuthKey)
	s.setString("platform", os.Getenv("ECHOLINE_PLATFORM"), &cfg.Platform)
	s.setString("db-path", os.Getenv("ECHOLINE_DB_PATH"), &cfg.DBPath)

	if err := s.setIntFromString("channel", os.Getenv("ECHOLINE_CHANNEL_KHZ"), &cfg.ChannelKHz); err != nil {
		return err
	}
	if err := s.setIntFromString("report-rows", os.Getenv("ECHOLINE_REPORT_ROWS"), &cfg.ReportRows); err != nil {
		return err
	}

	if err := s.setFloatFromString("transit-speed", os.Getenv("ECHOLINE_TRANSIT_SPEED_KNOTS"), &cfg.TransitSpeedKnots); err != nil {
		return err
	}
	if err := s.setFloatFromString("max-speed", os.Getenv("ECHOLINE_MAX_SPEED_KNOTS"), &cfg.MaxSpeedKnots); err != nil {
		return err
	}
	if err := s.setFloatFromString("window-nm", os.Getenv("ECHOLINE_MIN_WINDOW_NM"), &cfg.MinWindowNM); err != nil {
		return err
	}

	if err := s.setDuration("poll", os.Getenv("ECHOLINE_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("ECHOLINE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("save-png", os.Getenv("ECHOLINE_SAVE_PNG"), &cfg.SavePNG)
	s.setBoolFromString("once", os.Getenv("ECHOLINE_ONCE"), &cfg.Once)

	return nil
}
