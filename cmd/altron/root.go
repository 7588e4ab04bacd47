package main

import (
	"fmt"
	"os"

	"github.com/TheAdaptoid/Altron-Core/internal/config"
	"github.com/TheAdaptoid/Altron-Core/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "altron",
	Short: "Altron conversational agent",
	Long:  `Altron is a local-first conversational agent with streaming reasoning, tool use, and durable threads.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.altron/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "server port")
	rootCmd.PersistentFlags().String("models.default", config.DefaultModel, "model id for conversational turns")
	rootCmd.PersistentFlags().String("inference.base_url", config.DefaultInferenceBaseURL, "OpenAI-compatible backend base URL")
}
