package cmd

import (
	"fmt"
	"io"

	"github.com/gmunumel/market-mind/internal/api"
	"github.com/gmunumel/market-mind/internal/config"
	"github.com/gmunumel/market-mind/internal/log"
	"github.com/gmunumel/market-mind/internal/session"
)

// buildClient constructs the backend client from configuration and the
// persisted caller identifier.
func buildClient(cfg *config.Config, logger log.Logger) (*api.Client, error) {
	userID, err := session.LoadUserID()
	if err != nil {
		return nil, fmt.Errorf("loading user id: %w", err)
	}
	return api.New(cfg.APIBaseURL, userID, cfg.RequestTimeout(), logger.With("component", "api"))
}

// newClient wires configuration, a logger writing to w and the backend
// client. Used by the plain (non-TUI) subcommands; the chat command does
// its own wiring because its logs go to a file.
func newClient(w io.Writer) (*api.Client, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithWriter(w, log.Config{Level: level, JSON: cfg.LogJSON})

	client, err := buildClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}
