package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shedmail/internal/bot"
	"shedmail/internal/config"
	"shedmail/internal/store"
	"shedmail/internal/ticket"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "shedmail",
	Short:        "Modmail and moderation bot for a single community server",
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shedmail %s (%s)\n", bot.Version, bot.VersionDate)
	},
}

func main() {
	_ = godotenv.Load()
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ticketStore, err := store.NewTicketStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("ticket store init failed", zap.Error(err))
	}
	warningStore, err := store.NewWarningStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("warning store init failed", zap.Error(err))
	}
	banStore, err := store.NewBanStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("ban store init failed", zap.Error(err))
	}

	manager := ticket.NewManager(ticketStore, logger)

	botSvc, err := bot.New(cfg, logger, manager, warningStore, banStore)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("version", bot.Version))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown requested")
	case <-botSvc.RestartRequests():
		logger.Info("restart requested, shutting down for supervisor")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	botSvc.Close(ctx)
	return nil
}
