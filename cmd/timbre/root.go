package main

import (
	"fmt"
	"os"

	"github.com/aretw0/timbre/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timbre",
	Short: "Timbre runs randomized perceptual-rating studies",
	Long: `Timbre generates randomized pairwise dissimilarity and semantic rating
sessions over a set of audio stimuli, runs them for a participant and stores
the collected responses.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every block transition to stderr")
	rootCmd.PersistentFlags().String("audio", "", "Directory holding the stimulus files")
	rootCmd.PersistentFlags().String("redis", "", "Redis URL for stored results")
	rootCmd.PersistentFlags().String("results", "", "Directory for stored results")
}

// loadConfig reads the config and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(path, envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"audio":    &cfg.Audio.Dir,
		"redis":    &cfg.Redis.URL,
		"results":  &cfg.Results.Dir,
		"endpoint": &cfg.Server.Endpoint,
		"addr":     &cfg.Server.Addr,
		"export":   &cfg.Export.Dir,
		"contact":  &cfg.Contact.Email,
	}
	for name, dst := range stringFlags {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if flags.Changed("chunk-size") {
		cfg.Dissimilarity.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("welcome") {
		cfg.Sections.Welcome, _ = flags.GetBool("welcome")
	}
	if flags.Changed("headphone-check") {
		cfg.Sections.HeadphoneCheck, _ = flags.GetBool("headphone-check")
	}
	return cfg, cfg.Validate()
}
