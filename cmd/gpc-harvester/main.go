// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gpc-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the gpc-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "gpc-harvester",
	Short: "Download IMSS clinical practice guideline PDFs",
	Long: `gpc-harvester crawls the public IMSS clinical practice guideline listing,
collects the comprehensive (GER) guideline PDFs, and downloads them to a
local directory. Quick-reference (GRR) documents are skipped, as are files
already present on disk. A catalog of downloaded guidelines is kept in
SQLite next to the PDFs.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gpc-harvester.yaml or ~/.config/gpc-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gpc-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gpc-harvester"))
		}
	}

	viper.SetEnvPrefix("GPC_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
