package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Schema-driven serialization engine with a generic dispatch API",
	Long: `Prism serves runtime-configurable projections of your records.

Schemas are configuration, not code: declare which fields of an entity
type are exposed, how each one serializes, validates and renders, and
the generic /super-api endpoints do the rest. Editing a schema takes
effect on the next request.

Quick start:
  prism serve       # Start the dispatch server
  prism schemas     # Inspect loaded schemas

Management:
  prism hash-token  # Hash an admin token for the config file
  prism validate    # Validate configuration and schema files`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "prism.yaml", "config file path")
}
