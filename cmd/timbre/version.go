package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/timbre"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of timbre",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timbre version %s\n", strings.TrimSpace(timbre.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
