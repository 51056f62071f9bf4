package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/service/monitor"
	"github.com/oshokin/zone-intrusion/internal/version"
)

var (
	// options collects flag values for the monitor.
	options = new(monitor.Options)

	// rootCmd represents the base command for running the monitor.
	rootCmd = &cobra.Command{
		Use:   "intrusion-monitor [video-or-replay-path]",
		Short: "Watch restricted zones and raise alarms on intrusions.",
		Long: `Reads frames from a video file, a camera or a recorded detections file (.jsonl),
finds people in each frame and raises a per-zone alarm when the center of a person's
box enters a restricted zone. An alarm stays raised until no one has been inside
the zone for the cooldown period.

Zones are read from the zones file; create them with zone-editor.
Video sources require a build with -tags gocv and an ONNX detector model.
Set --listen to stream verdicts over gRPC to intrusion-watch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use the source argument if provided, otherwise rely on config.
			if len(args) > 0 {
				options.Source = args[0]
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the intrusion-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ZonesFile, "zones", "z", "", "path to the zones file (default from config)")
	flags.StringVar(&options.Zone, "zone", "", "monitor only the zone with this name")
	flags.StringVar(&options.Model, "model", "", "path to the ONNX person detector model")
	flags.Float64Var(&options.ConfidenceThreshold, "conf", 0, "minimum detection confidence (default from config)")
	flags.BoolVar(&options.NoTracking, "no-tracking", false, "ignore tracker identities")
	flags.DurationVar(&options.Cooldown, "cooldown", 0, "time an alarm stays raised after the last intrusion")
	flags.StringVar(&options.ListenAddress, "listen", "", "serve verdicts over gRPC on this address (e.g. :50061)")
	flags.BoolVar(&options.Display, "display", false, "show annotated frames in a window (gocv builds)")
	flags.StringVar(&options.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.DurationVar(&options.FrameInterval, "frame-interval", 0, "process at most one frame per interval")
}
