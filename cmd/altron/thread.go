package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Manage conversation threads",
	Long:  `List, inspect, rename, and delete threads in the local store.`,
}

var threadLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		threads, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list threads: %w", err)
		}
		if len(threads) == 0 {
			fmt.Println("No threads found.")
			fmt.Println("\nRun 'altron chat' to start your first conversation.")
			return nil
		}

		for _, th := range threads {
			fmt.Printf("%s  %-30s  %d message(s)  %s\n",
				th.ID, th.Title, len(th.Messages), th.UpdatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\nTotal: %d thread(s)\n", len(threads))
		return nil
	},
}

var threadShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a thread transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		th, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}

		fmt.Printf("%s (%s)\n%s\n\n", th.Title, th.ID, strings.Repeat("-", 40))
		for _, msg := range th.Messages {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
			if msg.Reasoning != "" {
				fmt.Printf("  (reasoning: %s)\n", msg.Reasoning)
			}
			for _, call := range msg.ToolCalls {
				fmt.Printf("  -> %s(%s)\n", call.Name, call.Arguments)
			}
		}
		return nil
	},
}

var threadRenameCmd = &cobra.Command{
	Use:   "rename [id] [title]",
	Short: "Rename a thread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		unlock := store.Guard(args[0])
		defer unlock()

		th, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}
		th.Title = args[1]
		if err := store.Save(th); err != nil {
			return fmt.Errorf("failed to save thread: %w", err)
		}

		fmt.Printf("✓ Thread '%s' renamed to %q.\n", th.ID, th.Title)
		return nil
	},
}

var threadRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := buildStore(cfg)
		if err != nil {
			return err
		}

		if err := store.Remove(args[0]); err != nil {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
		fmt.Printf("✓ Thread '%s' deleted.\n", args[0])
		return nil
	},
}

func init() {
	threadCmd.AddCommand(threadLsCmd)
	threadCmd.AddCommand(threadShowCmd)
	threadCmd.AddCommand(threadRenameCmd)
	threadCmd.AddCommand(threadRmCmd)
	rootCmd.AddCommand(threadCmd)
}
