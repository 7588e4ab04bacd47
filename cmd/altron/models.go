package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models served by the inference backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient(cfg)
		if err != nil {
			return err
		}

		ids, err := client.Models(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No models available.")
			return nil
		}

		for _, id := range ids {
			marker := " "
			if id == cfg.Models.Default {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
