package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	"github.com/oshokin/zone-intrusion/internal/service/zones"
	"github.com/oshokin/zone-intrusion/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// zonesFile overrides the zones file from config.
	zonesFile string
	// points holds the --point values of add.
	points []string

	// rootCmd represents the base command for editing zones.
	rootCmd = &cobra.Command{
		Use:   "zone-editor",
		Short: "Create, list, remove and test restricted zones.",
		Long: `Edits the zones file read by intrusion-monitor.

A zone is a named polygon in frame pixel coordinates with at least three points.
Points on a zone's edge count as inside. Restart a running monitor after editing.`,
	}

	addCmd = &cobra.Command{
		Use:     "add NAME --point x,y --point x,y --point x,y",
		Short:   "Add a zone or replace the zone with the same name.",
		Example: "  zone-editor add gate --point 10,20 --point 200,20 --point 200,300",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]zone.Point, 0, len(points))

			for _, raw := range points {
				p, err := zones.ParsePoint(raw)
				if err != nil {
					return err
				}

				parsed = append(parsed, p)
			}

			return zones.Add(cmd.Context(), options(cmd), args[0], parsed)
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Print every zone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return zones.List(cmd.Context(), options(cmd))
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a zone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return zones.Remove(cmd.Context(), options(cmd), args[0])
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check X Y",
		Short: "Print which zones contain the point.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // X and Y.
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[0], err)
			}

			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[1], err)
			}

			return zones.Check(cmd.Context(), options(cmd), x, y)
		},
	}
)

// options builds service options from the persistent flags.
func options(cmd *cobra.Command) *zones.Options {
	return &zones.Options{
		ConfigPath: configPath,
		ZonesFile:  zonesFile,
		Out:        cmd.OutOrStdout(),
	}
}

// Execute runs the zone-editor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&zonesFile, "zones", "z", "", "path to the zones file (default from config)")

	addCmd.Flags().StringArrayVarP(&points, "point", "p", nil, "zone vertex as x,y (repeat at least 3 times)")
	_ = addCmd.MarkFlagRequired("point")

	rootCmd.AddCommand(addCmd, listCmd, removeCmd, checkCmd)
}
