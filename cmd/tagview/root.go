package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/logging"
	"github.com/rentscan/tagview/pkg/version"
)

var (
	flagConfig    string
	flagAPIURL    string
	flagStore     string
	flagType      string
	flagDebug     bool
	flagTab       string
	flagNoRestore bool
	flagReadonly  bool
)

// cfg is resolved once in PersistentPreRunE and shared by every command.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tagview",
	Short: "Terminal browser for the RFID rental inventory",
	Long: `tagview browses the rental inventory as a lazy tree: categories down to
individual tagged items, fetched level by level from the inventory API.
Item fields (bin location, status, quality, notes) are editable in place
unless --readonly is set. Expansion state persists per tab, store, and
inventory type, and is restored on the next start.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if err := logging.Init(cfg.Logging.ResolvedFile(), cfg.Logging.Level); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		logging.Get().Info("command started",
			zap.String("command", cmd.Name()),
			zap.String("version", version.Version))
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return runTUI()
	},
}

// loadConfig merges the config file with the flag overrides. Environment
// overrides are applied inside LoadFrom.
func loadConfig() (config.Config, error) {
	var (
		c   config.Config
		err error
	)
	if flagConfig != "" {
		c, err = config.LoadFrom(flagConfig)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	if flagAPIURL != "" {
		c.Server.BaseURL = flagAPIURL
	}
	if flagStore != "" {
		c.Store = flagStore
	}
	if flagType != "" {
		c.Type = flagType
	}
	if flagDebug {
		c.Logging.Level = "debug"
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// configPath returns the path the config watcher should follow.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func init() {
	pf := rootCmd.PersistentFlags()
	// Accept underscore spellings (--no_restore) for flag names.
	pf.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	pf.StringVar(&flagConfig, "config", "", "path to config.yaml (default: XDG config dir)")
	pf.StringVar(&flagAPIURL, "api-url", "", "inventory API base URL (overrides config)")
	pf.StringVar(&flagStore, "store", "", "store context sent with every request")
	pf.StringVar(&flagType, "type", "", "inventory type context sent with every request")
	pf.BoolVar(&flagDebug, "debug", false, "log at debug level")

	rootCmd.Flags().StringVar(&flagTab, "tab", "", "tab to open first (name or path)")
	rootCmd.Flags().BoolVar(&flagNoRestore, "no-restore", false, "skip restoring the previous expansion state")
	rootCmd.Flags().BoolVar(&flagReadonly, "readonly", false, "disable item editing")

	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(exportCmd, sessionCmd, versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
