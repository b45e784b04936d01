package main

import (
	"github.com/aretw0/timbre/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a participant session in the terminal",
	Long: `Fetches a spec (from --endpoint, or generated from the local audio
directory), runs the study and submits the responses. Ctrl+C stops the
session: nothing is submitted and the stop screen is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.RunSession(cmd.Context(), cfg, cli.RunOptions{
			Debug: debug,
			JSON:  jsonMode,
			In:    cmd.InOrStdin(),
			Out:   cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Speak JSON-Lines on stdin/stdout")
	runCmd.Flags().String("endpoint", "", "Base URL of a study server")
	runCmd.Flags().String("export", "", "Directory for the fallback export")
	runCmd.Flags().String("contact", "", "Address shown when responses had to be exported")
	runCmd.Flags().Int("chunk-size", 0, "Dissimilarity trials between breaks")
	runCmd.Flags().Bool("welcome", true, "Show the welcome and consent section")
	runCmd.Flags().Bool("headphone-check", true, "Run the headphone check")
}
