package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check configuration and scoring constants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateAll(cfg); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Configuration OK.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateConfigCmd)
}
