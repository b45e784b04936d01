package main

import (
	"github.com/aretw0/timbre/internal/cli"
	"github.com/spf13/cobra"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Print a generated experiment spec",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		format, _ := cmd.Flags().GetString("output")
		source := cli.NewSpecSource(cfg, cli.NewLogger(cfg, debug))
		return cli.PrintSpec(cmd.Context(), cmd.OutOrStdout(), source, format)
	},
}

func init() {
	rootCmd.AddCommand(specCmd)
	specCmd.Flags().String("endpoint", "", "Fetch from a study server instead of generating")
	specCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
