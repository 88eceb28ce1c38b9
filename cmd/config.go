package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonelock"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := appCfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the analysis presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range tonelock.PresetNames() {
			fmt.Println(name)
		}
	},
}

func init() {
	configCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(configCmd)
}
