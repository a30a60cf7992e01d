// Package main provides the kutup CLI entry point.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/uygaratabay1015-boop/kutupp/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:   "kutup",
		Short: "Estimate latitude from a photograph of Polaris",
		Long: `Kutup finds the stars in a night-sky photograph taken facing north, picks
the one most likely to be Polaris and converts its height in the frame into
the observer's latitude with an error margin.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
			if !debug && os.Getenv("KUTUP_LOG_LEVEL") != "debug" {
				log.SetOutput(io.Discard)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (default: $KUTUP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	load := func() (*config.Config, error) {
		path := config.Resolve(configPath)
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if path != "" {
			log.Printf("loaded configuration from %s", path)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(load),
		newGenSkyCmd(),
		newHistoryCmd(load),
		newVersionCmd(),
	)
	return rootCmd
}

// configLoader resolves and loads the configuration selected by the
// persistent --config flag.
type configLoader func() (*config.Config, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kutup %s\n", version)
		},
	}
}
