package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/logging"
	"github.com/clipvault/clipvault/internal/settings"
)

// bindViper wires a command's flags into a viper instance with the
// standard config file search order and CLIPVAULT_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipvault")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipvault/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipvault", home))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPVAULT")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// setDefaults registers the recognized capture settings. *viper.Viper
// satisfies the settings.Settings interface directly, so the bound
// instance is what the monitor and controller read.
func setDefaults(v *viper.Viper) {
	v.SetDefault(settings.KeyHistorySize, 100)
	v.SetDefault(settings.KeyUsePrimary, false)
	v.SetDefault(settings.KeySyncSelections, false)
	v.SetDefault(settings.KeySaveImages, true)
	v.SetDefault(settings.KeySaveFiles, true)
	v.SetDefault(settings.KeyKeepContent, false)
	v.SetDefault(settings.KeyShowPreview, true)
	v.SetDefault(settings.KeyConfirmClear, true)
	v.SetDefault(settings.KeyPasteOnSelect, false)
	v.SetDefault(settings.KeyExcludePattern, "")
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addDBFlag adds the --db flag to a command.
func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "path to history database (default: <user-data-dir>/clipvault/history.db)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	logging.Resolve(interactive, v.GetString("log-format"), v.GetString("log-level"))
}
