package main

import (
	"fmt"

	"github.com/artpar/prism/config"
	"github.com/artpar/prism/core/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and schema files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		fmt.Printf("config %s: ok\n", cfgFile)

		if cfg.Schemas.Dir == "" {
			fmt.Println("no schemas directory configured")
			return nil
		}
		parsed, err := schema.ParseDir(cfg.Schemas.Dir)
		if err != nil {
			return fmt.Errorf("schemas: %w", err)
		}
		fmt.Printf("schemas %s: %d definitions ok\n", cfg.Schemas.Dir, len(parsed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
