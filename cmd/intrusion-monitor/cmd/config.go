package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/zone-intrusion/internal/config"
)

// errConfigExists is returned when config init would overwrite a file.
var errConfigExists = errors.New("configuration file already exists")

var (
	// force allows config init to overwrite an existing file.
	force bool

	// configCmd groups configuration helpers.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
	}

	// configInitCmd writes a settings file with defaults.
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with default values.",
		Long: `Writes the settings file given by --config with every default filled in.
Secrets such as the Telegram token are better kept in INTRUSION_TELEGRAM_TOKEN
or a .env file next to the binary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(options.ConfigPath); err == nil && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", errConfigExists, options.ConfigPath)
			}

			if err := config.Save(options.ConfigPath, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", options.ConfigPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
