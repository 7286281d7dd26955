// Package cli provides the command-line interface for deskprefs.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ukui/deskprefs/internal/config"
	"github.com/ukui/deskprefs/internal/logging"
	"github.com/ukui/deskprefs/internal/version"
)

var (
	// Global config flag
	configPath string

	// Loaded by the root command before any subcommand runs.
	appConfig *config.Config
	logger    hclog.Logger = hclog.NewNullLogger()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "deskprefs",
		Short: "Wallpaper catalog and screensaver settings for the UKUI desktop",
		Long: `deskprefs manages the UKUI wallpaper catalog and the screensaver settings
page from the command line.

The wallpaper commands merge the per-user, system and legacy wallpaper
lists into one catalog and save it back. The screensaver commands drive
the settings page the same way the control center does, so every change
is written to the settings store exactly as a click would write it.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/deskprefs/config.toml)")

	// Set version template
	rootCmd.SetVersionTemplate(version.String() + "\n")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(wallpaperCmd)
	rootCmd.AddCommand(screensaverCmd)
}

// setup loads the configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd == versionCmd {
		return nil
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger = logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		Quiet:   quiet,
		Output:  cmd.ErrOrStderr(),
	})
	logger.Debug("configuration loaded", "path", path)

	appConfig = cfg
	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
