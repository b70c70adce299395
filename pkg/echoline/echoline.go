// Package echoline assembles the acquisition engine: a directory source
// feeding decoded echosounder units through telemetry interpolation,
// continuity classification and distance-windowed processing, with the
// resulting rows fanned out to console, CSV, SQLite and optional remote
// delivery.
package echoline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/seaward-labs/echoline/internal/adapters/ek60"
	"github.com/seaward-labs/echoline/internal/adapters/fs"
	"github.com/seaward-labs/echoline/internal/adapters/kernel"
	"github.com/seaward-labs/echoline/internal/adapters/report"
	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
	"github.com/seaward-labs/echoline/internal/stream"
	"github.com/seaward-labs/echoline/internal/telemetry"
)

// State is the engine lifecycle state.
type State = stream.State

// Lifecycle states.
const (
	StateStopped  = stream.StateStopped
	StateStarting = stream.StateStarting
	StateRunning  = stream.StateRunning
	StateStopping = stream.StateStopping
	StateCrashed  = stream.StateCrashed
)

// Lifecycle errors.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// Echoline is the acquisition engine. Create one with New, drive it with
// Start and Stop. It is safe for concurrent use.
type Echoline struct {
	config    Config
	logger    Logger
	lifecycle *stream.Lifecycle
	driver    *stream.Driver

	// Owned adapters that need closing on Stop; nil when the corresponding
	// Option replaced them.
	source ports.UnitSource
	store  *report.Store

	mu     sync.Mutex
	runCtx context.Context
}

// New creates an engine from the given configuration. Missing fields are
// filled with defaults; the configuration is validated before any adapter
// is built.
func New(cfg Config, opts ...Option) (*Echoline, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(o)
	}

	e := &Echoline{
		config:    cfg,
		logger:    o.logger,
		lifecycle: stream.NewLifecycle(o.logger),
	}

	source := o.source
	if source == nil {
		var err error
		source, err = fs.NewDirSource(cfg.ListenDir, cfg.PollInterval, o.logger)
		if err != nil {
			return nil, fmt.Errorf("echoline: source: %w", err)
		}
		e.source = source
	}

	decoder := o.decoder
	if decoder == nil {
		var cal *ek60.Calibration
		if cfg.CalFile != "" {
			var err error
			cal, err = ek60.LoadCalibration(cfg.CalFile)
			if err != nil {
				return nil, fmt.Errorf("echoline: calibration: %w", err)
			}
		}
		decoder = ek60.NewDecoder(cfg.ChannelKHz, cal, o.logger)
	}
	// When the decoder knows its channel set up front, a channel it can never
	// produce means the loop could never make progress: fail here, not per
	// unit inside it.
	if chans := decoder.Channels(); len(chans) > 0 && !containsChannel(chans, cfg.ChannelKHz) {
		return nil, fmt.Errorf("echoline: %w: %d kHz not among decoder channels %v",
			domain.ErrChannelNotFound, cfg.ChannelKHz, chans)
	}

	kern := o.kernel
	if kern == nil {
		var err error
		kern, err = kernel.New(kernel.DefaultConfig(), o.logger)
		if err != nil {
			return nil, fmt.Errorf("echoline: kernel: %w", err)
		}
	}

	reporter := o.reporter
	if reporter == nil {
		var err error
		reporter, err = e.buildReporting(o)
		if err != nil {
			return nil, err
		}
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.MaxSpeedKnots = cfg.MaxSpeedKnots
	interp, err := telemetry.New(tcfg, o.logger)
	if err != nil {
		return nil, fmt.Errorf("echoline: telemetry: %w", err)
	}

	e.driver = stream.NewDriver(stream.DriverDeps{
		Source:     source,
		Decoder:    decoder,
		Interp:     interp,
		Classifier: stream.NewClassifier(cfg.TransitSpeedKnots, o.logger),
		Scheduler:  stream.NewScheduler(cfg.MinWindowNM, kern, o.logger),
		Reporter:   reporter,
		Logger:     o.logger,
	}, cfg.Once)

	return e, nil
}

func containsChannel(chans []int, khz int) bool {
	for _, c := range chans {
		if c == khz {
			return true
		}
	}
	return false
}

// buildReporting assembles the default reporting fan-out. Durable sinks come
// before the uplink so the store is current when the uplink drains it.
func (e *Echoline) buildReporting(o *options) (ports.Reporter, error) {
	sinks := []ports.Reporter{report.NewConsole(os.Stdout)}

	csvLog, err := report.NewCSVLog(e.config.LogDir, time.Now())
	if err != nil {
		return nil, fmt.Errorf("echoline: csv log: %w", err)
	}
	sinks = append(sinks, csvLog)
	e.logger.Info("logging reports", ports.String("path", csvLog.Path()))

	store, err := report.NewStore(e.config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("echoline: report store: %w", err)
	}
	e.store = store
	sinks = append(sinks, store)

	if e.config.SavePNG {
		ech, err := report.NewEchogram(e.config.LogDir)
		if err != nil {
			return nil, fmt.Errorf("echoline: echogram: %w", err)
		}
		sinks = append(sinks, ech)
	}

	if e.config.AuthKey != "" {
		sinks = append(sinks, report.NewUplink(report.UplinkConfig{
			ServiceURL: e.config.ServiceURL,
			AuthKey:    e.config.AuthKey,
			Platform:   e.config.Platform,
			MinRows:    e.config.ReportRows,
		}, store, o.httpClient, e.logger))
	} else {
		e.logger.Info("no auth key configured, remote delivery disabled")
	}

	return report.NewMulti(sinks...), nil
}

// Start begins processing. It returns once the engine is running; the
// driver loop runs on its own goroutine until Stop is called, the context
// is cancelled, or a batch run completes.
func (e *Echoline) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := e.lifecycle.TransitionTo(StateStarting, "start requested"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.runCtx = runCtx
	e.lifecycle.SetCancel(cancel)

	e.lifecycle.AddWorker()
	go func() {
		defer e.lifecycle.WorkerDone()

		_ = e.lifecycle.TransitionTo(StateRunning, "driver started")
		err := e.driver.Run(runCtx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			e.logger.Error("driver stopped", ports.Err(err))
			_ = e.lifecycle.TransitionTo(StateCrashed, err.Error())
		case e.config.Once:
			_ = e.lifecycle.TransitionTo(StateStopping, "batch complete")
			_ = e.lifecycle.TransitionTo(StateStopped, "batch complete")
		}
	}()

	return nil
}

// Stop shuts the engine down gracefully, waiting up to the shutdown timeout
// for the driver to return before closing the owned adapters.
func (e *Echoline) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lifecycle.CanStop() {
		return ErrNotRunning
	}
	if err := e.lifecycle.TransitionTo(StateStopping, "stop requested"); err != nil {
		return err
	}

	e.lifecycle.Cancel()
	waitErr := e.lifecycle.WaitWithTimeout(stream.ShutdownTimeout)

	if c, ok := e.source.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			e.logger.Warn("closing source", ports.Err(err))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("closing report store", ports.Err(err))
		}
	}

	if waitErr != nil {
		_ = e.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return waitErr
	}
	_ = e.lifecycle.TransitionTo(StateStopped, "stopped")
	return nil
}

// Status returns the current lifecycle state.
func (e *Echoline) Status() State {
	return e.lifecycle.State()
}
