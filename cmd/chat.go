package cmd

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/gmunumel/market-mind/internal/config"
	"github.com/gmunumel/market-mind/internal/log"
	"github.com/gmunumel/market-mind/internal/session"
	"github.com/gmunumel/market-mind/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := log.NewWithWriter(logFile, log.Config{Level: level, JSON: cfg.LogJSON})

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}

	store, err := session.New(client, session.LoadTheme(), session.SaveTheme,
		logger.With("component", "store"))
	if err != nil {
		return err
	}

	model, err := tui.New(ctx, store, logger.With("component", "tui"))
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
