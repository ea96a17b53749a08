// Command weatherd polls a weather provider on a fixed interval and publishes
// a normalized forecast document for local consumers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "weatherd",
	Short:         "Weather snapshot daemon",
	Long:          "weatherd fetches current conditions and forecasts for one location, normalizes them and atomically publishes a JSON document.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to an env file (default .env when present)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
