package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tonelock"
)

var (
	configFile string
	presetName string
	logLevelFl string

	appCfg   *tonelock.Config
	logLevel slog.LevelVar
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))
)

var rootCmd = &cobra.Command{
	Use:   "tonelock",
	Short: "Acoustic key detector",
	Long: `tonelock listens to an audio stream (sound card, serial ADC or WAV file),
reduces each frame to a coarse spectrum and unlocks when the strongest
peaks land on the configured key frequencies.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("TONELOCK_CONFIG"),
		"YAML config file (default $TONELOCK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "",
		"analysis preset ("+strings.Join(tonelock.PresetNames(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFl, "log-level", "",
		"log level (debug, info, warn, error), overrides the config file")
}

// initializeConfig 默认值 <- 配置文件 <- 预设 <- 命令行
func initializeConfig() error {
	cfg := tonelock.DefaultConfig()
	if configFile != "" {
		loaded, err := tonelock.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if presetName != "" {
		if err := cfg.ApplyPreset(presetName); err != nil {
			return err
		}
	}
	if logLevelFl != "" {
		cfg.Output.LogLevel = logLevelFl
	}
	if err := logLevel.UnmarshalText([]byte(cfg.Output.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appCfg = cfg
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "file", configFile, "preset", presetName)
	return nil
}
