package main

import (
	"fmt"

	"github.com/artpar/prism/core/schema"
	"github.com/spf13/cobra"
)

var schemasDir string

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect schema definition files",
	Long: `Parse and list the YAML schema definitions in a directory,
reporting binding errors (duplicate active fields, unknown formats)
without starting the server.`,
	RunE: runSchemas,
}

func init() {
	rootCmd.AddCommand(schemasCmd)

	schemasCmd.Flags().StringVarP(&schemasDir, "dir", "d", "schemas", "schema definitions directory")
}

func runSchemas(cmd *cobra.Command, args []string) error {
	parsed, err := schema.ParseDir(schemasDir)
	if err != nil {
		return err
	}

	if len(parsed) == 0 {
		fmt.Printf("no schema definitions in %s\n", schemasDir)
		return nil
	}

	for _, s := range parsed {
		active := 0
		for _, f := range s.Fields {
			if f.Active {
				active++
			}
		}
		fmt.Printf("%-30s type=%-25s format=%-9s fields=%d active=%d\n",
			s.Name, s.EntityType, s.Format, len(s.Fields), active)
	}
	return nil
}
