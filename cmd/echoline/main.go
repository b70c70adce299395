package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/seaward-labs/echoline/internal/cliconfig"
	"github.com/seaward-labs/echoline/pkg/echoline"
	logadapter "github.com/seaward-labs/echoline/pkg/log"
)

const helpDescription = `
Unattended acoustic processing for vessels underway.

echoline watches an echosounder's recording directory, decodes each finished
acquisition file, stitches continuous recordings into transects, and reports
swarm backscatter per nautical mile as the vessel steams. Results go to the
console, a CSV log and a local database, and optionally to a remote service.

Highlights:
  - Distance-based reporting that survives file boundaries and pauses.
  - Stationary periods are detected and excluded from transects.
  - A single bad file never stops the stream.
  - Configure via file, environment, or flags.
`

var exampleUsage = strings.TrimSpace(`
  echoline --listen-dir /data/ek60 --channel 120
  echoline --config $HOME/.echoline/config.toml --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "echoline",
		Short:   "Report acoustic backscatter per nautical mile while the vessel is underway",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config file first (default $HOME/.echoline/config.toml), then
			// environment, with explicit flags winning over both.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking the auth key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			libCfg := echoline.Config{
				ListenDir:         cfg.ListenDir,
				CalFile:           cfg.CalFile,
				LogDir:            cfg.LogDir,
				DBPath:            cfg.DBPath,
				ChannelKHz:        cfg.ChannelKHz,
				TransitSpeedKnots: cfg.TransitSpeedKnots,
				MaxSpeedKnots:     cfg.MaxSpeedKnots,
				MinWindowNM:       cfg.MinWindowNM,
				PollInterval:      cfg.PollInterval,
				HTTPTimeout:       cfg.HTTPTimeout,
				ServiceURL:        cfg.ServiceURL,
				AuthKey:           cfg.AuthKey,
				Platform:          cfg.Platform,
				ReportRows:        cfg.ReportRows,
				SavePNG:           cfg.SavePNG,
				Once:              cfg.Once,
			}

			eng, err := echoline.New(libCfg,
				echoline.WithLogger(logadapter.NewZerologAdapterWithLogger(log)),
			)
			if err != nil {
				return fmt.Errorf("create echoline: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := eng.Start(ctx); err != nil {
				return fmt.Errorf("start echoline: %w", err)
			}

			// Poll for completion (for once mode and crashes)
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := eng.Status()
						if status == echoline.StateStopped || status == echoline.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if eng.Status() == echoline.StateCrashed {
					log.Error().Msg("echoline crashed")
				}
			}

			if err := eng.Stop(); err != nil && err != echoline.ErrNotRunning {
				return fmt.Errorf("stop echoline: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.echoline/config.toml)")
	root.Flags().StringVar(&cfg.ListenDir, "listen-dir", "", "directory the echosounder records into")
	root.Flags().StringVar(&cfg.CalFile, "cal-file", cfg.CalFile, "TOML calibration file (optional)")
	root.Flags().StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for CSV logs and echograms (defaults to listen-dir/echoline)")
	root.Flags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "report database path (defaults to log-dir/echoline.db)")
	if err := root.Flags().MarkHidden("db-path"); err != nil {
		log.Info().Err(err).Msg("failed to hide db-path flag")
	}

	root.Flags().IntVar(&cfg.ChannelKHz, "channel", cfg.ChannelKHz, "frequency channel to process, in kHz")
	root.Flags().Float64Var(&cfg.TransitSpeedKnots, "transit-speed", cfg.TransitSpeedKnots, "speed below which the vessel counts as stationary, in knots")
	root.Flags().Float64Var(&cfg.MaxSpeedKnots, "max-speed", cfg.MaxSpeedKnots, "plausibility ceiling for interpolated speed, in knots")
	root.Flags().Float64Var(&cfg.MinWindowNM, "window-nm", cfg.MinWindowNM, "distance a recording must cover before it is processed, in nautical miles")

	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "directory poll interval when idle")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for remote delivery")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, fmt.Sprintf("base service URL (defaults to %s; override only for internal testing)", cliconfig.DefaultServiceURL))
	if err := root.Flags().MarkHidden("service-url"); err != nil {
		log.Info().Err(err).Msg("failed to hide service-url flag")
	}
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for remote delivery (empty disables it)")
	root.Flags().StringVar(&cfg.Platform, "platform", cfg.Platform, "platform name reported with deliveries")
	root.Flags().IntVar(&cfg.ReportRows, "report-rows", cfg.ReportRows, "minimum stored rows before a remote delivery is attempted")

	root.Flags().BoolVar(&cfg.SavePNG, "save-png", cfg.SavePNG, "render an echogram per processed window")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "process the directory's current files and exit")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("echoline")
		os.Exit(1)
	}
}
