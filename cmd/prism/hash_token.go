package main

import (
	"fmt"

	"github.com/artpar/prism/adapters/hasher"
	"github.com/spf13/cobra"
)

var hashCost int

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Hash an admin token for auth.admin_token_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h := hasher.NewBcrypt(hashCost)
		hash, err := h.Hash(args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(hash))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashTokenCmd)

	hashTokenCmd.Flags().IntVar(&hashCost, "cost", 10, "bcrypt cost")
}
