package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/zone-intrusion/internal/api/grpc/monitor"
	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/display"
	"github.com/oshokin/zone-intrusion/internal/domain/alarm"
	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/logger"
	"github.com/oshokin/zone-intrusion/internal/notify/telegram"
	zonerepo "github.com/oshokin/zone-intrusion/internal/repository/zone"
	"github.com/oshokin/zone-intrusion/internal/source"
)

// Options controls the intrusion-monitor process. Empty or zero fields keep the configured value.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ZonesFile overrides the zones file location.
	ZonesFile string
	// Zone restricts monitoring to one zone by name.
	Zone string
	// Source is a replay file, a video file or a camera index.
	Source string
	// Model overrides the detector model path.
	Model string
	// ConfidenceThreshold overrides the detector threshold when positive.
	ConfidenceThreshold float64
	// NoTracking runs in untracked mode.
	NoTracking bool
	// Cooldown overrides the alarm cooldown when positive.
	Cooldown time.Duration
	// ListenAddress enables the gRPC verdict service.
	ListenAddress string
	// Display opens the annotated video window.
	Display bool
	// LogLevel overrides the configured log level.
	LogLevel string
	// FrameInterval paces the loop to at most one frame per interval, for replays.
	FrameInterval time.Duration
	// Clock replaces the system clock.
	Clock alarm.Clock
	// Sinks receive verdicts in addition to the configured ones. Run closes them on exit.
	Sinks []verdict.Sink
}

// Run monitors the configured source until it is exhausted, the context is canceled
// or a sink requests a stop.
//
//nolint:cyclop,funlen // Startup is a linear sequence of wiring steps.
func Run(ctx context.Context, opts *Options) error {
	// Caller sinks are closed on every return, including failed startups.
	sinks := append([]verdict.Sink{LogSink{}}, opts.Sinks...)

	defer func() {
		closeSinks(ctx, sinks)
	}()

	// Load settings, falling back to defaults when no file exists.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(cfg, opts)

	if err = config.Validate(cfg); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	if cfg.LogLevel != "" || cfg.LogFormat != "" {
		logger.Setup(cfg.LogLevel, cfg.LogFormat)
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "intrusion-monitor")

	// Load zones and keep the requested one.
	repo := zonerepo.NewFileRepository(cfg.ZonesFile)

	zones, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	zones = selectZones(zones, cfg.Zone)
	if len(zones) == 0 {
		if cfg.Zone != "" {
			return fmt.Errorf("%w: zone %q not found in %s", ErrNoZones, cfg.Zone, repo.Path())
		}

		return fmt.Errorf("%w: %s has no zones, add one with zone-editor add", ErrNoZones, repo.Path())
	}

	pipeline, err := NewPipeline(ctx, zones, WithCooldown(cfg.Cooldown), WithClock(opts.Clock))
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "session_id", pipeline.SessionID())

	// Open the frame source and its detector.
	src, det, err := source.Open(ctx, &source.Options{
		Path:                cfg.Source,
		Model:               cfg.Model,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NoTracking:          cfg.NoTracking,
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = det.Close()
		_ = src.Close()
	}()

	// Start the verdict service when a listen address is configured.
	if cfg.ListenAddress != "" {
		hub := api.NewHub(pipeline.SessionID())
		sinks = append(sinks, hub)

		stop, serveErr := serve(ctx, cfg.ListenAddress, hub)
		if serveErr != nil {
			return serveErr
		}

		defer stop()
	}

	if cfg.Telegram.Enabled() {
		notifier, notifyErr := telegram.New(ctx, cfg.Telegram.Token, cfg.Telegram.ChatID)
		if notifyErr != nil {
			return fmt.Errorf("start telegram notifier: %w", notifyErr)
		}

		sinks = append(sinks, notifier)
	}

	if cfg.Display {
		window, displayErr := display.Open(ctx, display.DefaultTitle)
		if displayErr != nil {
			return fmt.Errorf("open display: %w", displayErr)
		}

		sinks = append(sinks, window)
	}

	logger.InfoKV(ctx, "Monitoring started",
		"source", cfg.Source,
		"zones", len(zones),
		"cooldown", cfg.Cooldown.String(),
		"tracking", !cfg.NoTracking)

	frames, err := loop(ctx, src, det, pipeline, sinks, opts.FrameInterval)

	logger.InfoKV(ctx, "Monitoring stopped", "frames", frames)

	return err
}

// applyOverrides copies the non-empty options over the loaded settings.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.ZonesFile != "" {
		cfg.ZonesFile = opts.ZonesFile
	}

	if opts.Zone != "" {
		cfg.Zone = opts.Zone
	}

	if opts.Source != "" {
		cfg.Source = opts.Source
	}

	if opts.Model != "" {
		cfg.Model = opts.Model
	}

	if opts.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = opts.ConfidenceThreshold
	}

	if opts.NoTracking {
		cfg.NoTracking = true
	}

	if opts.Cooldown > 0 {
		cfg.Cooldown = opts.Cooldown
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.Display {
		cfg.Display = true
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
}

// loop processes frames until the source ends, the context is canceled or a sink asks to stop.
// It returns the number of processed frames.
func loop(
	ctx context.Context,
	src source.FrameSource,
	det source.Detector,
	pipeline *Pipeline,
	sinks []verdict.Sink,
	interval time.Duration,
) (int, error) {
	var (
		processed int
		pace      <-chan time.Time
	)

	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		pace = ticker.C
	}

	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				logger.Info(ctx, "Context canceled, exiting")

				return processed, nil
			case <-pace:
			}
		}

		frame, err := src.Next(ctx)

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			logger.Info(ctx, "Frame source exhausted")

			return processed, nil
		case ctx.Err() != nil:
			logger.Info(ctx, "Context canceled, exiting")

			return processed, nil
		default:
			return processed, fmt.Errorf("read frame: %w", err)
		}

		detections, err := det.Detect(ctx, frame)
		if err != nil {
			logger.WarnKV(ctx, "Detection failed, frame skipped", "frame", frame.Index, "error", err)

			continue
		}

		report := pipeline.Process(ctx, frame.Index, detections)
		report.Image = frame.Payload
		processed++

		stop := false

		for _, sink := range sinks {
			if err = sink.Publish(ctx, report); err == nil {
				continue
			}

			if errors.Is(err, verdict.ErrStopRequested) {
				stop = true

				continue
			}

			logger.ErrorKV(ctx, "Sink failed", "frame", frame.Index, "error", err)
		}

		if stop {
			logger.Info(ctx, "Stop requested")

			return processed, nil
		}
	}
}

// serve starts the gRPC verdict service in the background.
// The returned function ends open streams and stops the server.
func serve(ctx context.Context, address string, hub *api.Hub) (func(), error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterMonitorServiceServer(grpcServer, api.NewServer(hub))

	logger.InfoKV(ctx, "Verdict service listening", "listen_address", lis.Addr().String())

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.ErrorKV(ctx, "Verdict service failed", "error", err)
		}
	}()

	return func() {
		// Streams end once the hub is closed, which lets GracefulStop return.
		_ = hub.Close()

		grpcServer.GracefulStop()
		<-done

		logger.Info(ctx, "Verdict service stopped")
	}, nil
}

// closeSinks closes every sink, logging failures.
func closeSinks(ctx context.Context, sinks []verdict.Sink) {
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			logger.ErrorKV(ctx, "Failed to close sink", "error", err)
		}
	}
}
