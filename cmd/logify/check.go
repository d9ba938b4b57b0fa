package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zxyao/logify/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and log format",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Logger.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config ok: format %q\n", cfg.Logger.Format)
		return nil
	},
}
