package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "logify",
	Short: "logify - HTTP service scaffold with request logging",
	Long: `logify runs a small HTTP service whose requests are logged by a
configurable middleware to the console and an append-only log file.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")
	rootCmd.AddCommand(serveCmd, checkCmd)
}
