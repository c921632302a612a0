package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/mde/pkg/mde/config"
	"github.com/jamesainslie/mde/pkg/mde/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mde",
		Short: "Find and remove duplicate media files",
		Long: `mde finds exact and visually similar duplicate media files and
removes the redundant copies safely.

A scan detects duplicates and records them in a duplicates.json manifest
without touching any file. A separate erase pass consumes the manifest and
deletes the listed duplicates atomically: every file is staged before any
is removed, and a failure at any point restores the originals.

Examples:
  mde scan ~/Pictures             # Detect duplicates, write the manifest
  mde scan -m images --json .     # Images only, JSON output
  mde erase ~/Pictures            # Delete the duplicates from the last scan
  mde clean ~/Pictures            # Discard the manifest without deleting`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/mde/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress all output except errors")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "mde"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "mde"))
		}
	}

	viper.SetEnvPrefix("MDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("threshold", config.DefaultThreshold)
	viper.SetDefault("media", config.DefaultMedia)
	viper.SetDefault("recursive", config.DefaultRecursive)
	viper.SetDefault("workers", config.DefaultWorkers)
	viper.SetDefault("cache.enabled", config.DefaultCacheEnabled)
	viper.SetDefault("cache.path", config.DefaultCachePath())
	viper.SetDefault("logging.level", config.DefaultLogLevel)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// setupLogging configures the log level from flags and config.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := viper.GetString("logging.level")
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return logging.Init(logging.Config{
		Level: level,
		Quiet: viper.GetBool("quiet"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// resolveDir expands and validates a directory argument, defaulting to
// the current directory.
func resolveDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absDir)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absDir)
	}

	return absDir, nil
}
