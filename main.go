package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/internal/server"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/merchant"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "pakettikauppa",
	Short:        "Pakettikauppa shipping API client and HTTP bridge",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP bridge",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, "stdout")
	if err != nil {
		return err
	}
	defer a.close(ctx)

	dispatcher, err := a.merchantDispatcher()
	if err != nil {
		return err
	}

	a.logger.Info("Starting Pakettikauppa bridge",
		zap.Int("port", a.cfg.Port),
		zap.String("version", a.cfg.Version),
		zap.Bool("test_mode", a.cfg.TestMode),
		zap.Bool("use_mock", a.cfg.UseMock),
	)

	srv := server.New(server.Config{Port: a.cfg.Port, Gatherer: a.registry}, merchant.New(dispatcher), a.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
