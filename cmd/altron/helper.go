package main

import (
	"fmt"

	"github.com/TheAdaptoid/Altron-Core/internal/agent"
	"github.com/TheAdaptoid/Altron-Core/internal/config"
	"github.com/TheAdaptoid/Altron-Core/internal/inference"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"
	"github.com/TheAdaptoid/Altron-Core/internal/tool"
	"github.com/TheAdaptoid/Altron-Core/internal/tool/builtin"
)

func buildStore(cfg *config.Config) (*thread.Store, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse store lock timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, fmt.Errorf("parse store lock retry: %w", err)
	}

	return thread.NewStore(cfg.Store.Path, thread.LockConfig{
		Timeout:  lockTimeout,
		Retry:    lockRetry,
		MaxRetry: cfg.Store.LockMaxRetry,
	})
}

func buildClient(cfg *config.Config) (*inference.Client, error) {
	requestTimeout, err := config.DurationOrDefault(cfg.Inference.RequestTimeout, config.DefaultInferenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse inference request timeout: %w", err)
	}
	return inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.APIKey, requestTimeout), nil
}

func buildRegistry() *tool.Registry {
	registry := tool.NewRegistry()
	registry.Register(&builtin.CalculatorTool{})
	registry.Register(&builtin.ClockTool{})
	return registry
}

func buildAgent(cfg *config.Config) (*agent.Agent, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open thread store: %w", err)
	}
	client, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	return agent.New(cfg.Agent, cfg.Models, client, buildRegistry(), store), nil
}
