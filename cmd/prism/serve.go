package main

import (
	"fmt"
	"os"

	"github.com/artpar/prism/bootstrap"
	"github.com/artpar/prism/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatch server",
	Long: `Start the Prism dispatch server.

The server will:
  - Load configuration from prism.yaml (or --config)
  - Or load configuration from PRISM_* environment variables
  - Open the database and run migrations
  - Load YAML schema definitions from the schemas directory
  - Serve the generic dispatch API under /super-api

Environment variables (for Docker deployments):
  PRISM_DATABASE_DSN     - Database path (default: prism.db)
  PRISM_SERVER_PORT      - Server port (default: 8080)
  PRISM_SCHEMAS_DIR      - Directory of YAML schema definitions
  PRISM_ENGINE_MAX_DEPTH - Nested recursion limit (default: 10)
  PRISM_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  prism serve
  prism serve --config /etc/prism/config.yaml
  prism serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
