package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TheAdaptoid/Altron-Core/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent server",
	Long:  `Starts the HTTP server exposing thread management and the websocket conversation endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		ag, err := buildAgent(cfg)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg.Server, ag)
		if err != nil {
			return fmt.Errorf("failed to configure server: %w", err)
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()

		slog.Info("Altron starting up...", "port", cfg.Server.Port, "model", ag.Model())
		if err := srv.Start(sig.Context()); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		<-sig.Context().Done()
		if err := srv.Stop(context.Background()); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}

		slog.Info("Altron stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
