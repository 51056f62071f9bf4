package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/service/watcher"
	"github.com/oshokin/zone-intrusion/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// once prints the current state and exits.
	once bool

	// rootCmd represents the base command for watching a monitor.
	rootCmd = &cobra.Command{
		Use:   "intrusion-watch [server-address]",
		Short: "Follow a running intrusion-monitor and log alarm transitions.",
		Long: `Connects to the gRPC verdict service of intrusion-monitor and logs every zone
alarm that is raised or cleared. The stream is re-established when the monitor
restarts. With --once the current alarm state is printed and the command exits.

Server address can be provided as argument to override config (e.g., 127.0.0.1:50061).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &watcher.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Once:          once,
			}

			return watcher.Run(ctx, options)
		},
	}
)

// Execute runs the intrusion-watch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&once, "once", false, "print the current alarm state and exit")
}
