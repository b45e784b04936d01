package main

import (
	"github.com/aretw0/timbre/internal/cli"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored submissions",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored submissions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, release, err := cli.NewResultStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()
		return cli.ListResults(cmd.Context(), cmd.OutOrStdout(), store)
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show [spec-id]",
	Short: "Print one stored submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, release, err := cli.NewResultStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()
		format, _ := cmd.Flags().GetString("output")
		return cli.ShowResult(cmd.Context(), cmd.OutOrStdout(), store, args[0], format)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd)
	resultsShowCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
