package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/lexana/internal/analyzer/server"
	"github.com/spf13/cobra"
)

var (
	serveHTTPPort int
	serveGRPCPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC server",
	Long: `Starts the analyzer server.

Endpoints:
  HTTP  POST /api/v1/analyze, /api/v1/batch, GET /api/v1/history, /health, /ws
  gRPC  lexana.v1.Analyzer/Analyze, lexana.v1.Analyzer/Batch, grpc.health.v1

History older than history.retention is pruned on start.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP port (default from config)")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHTTPPort != 0 {
		cfg.Server.HTTPPort = serveHTTPPort
	}
	if serveGRPCPort != 0 {
		cfg.Server.GRPCPort = serveGRPCPort
	}

	svc, history, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if history != nil {
		defer history.Close()
		if n, err := svc.PruneHistory(context.Background(), cfg.History.Retention.Duration); err != nil {
			printError("history prune failed", err)
		} else if n > 0 && verbose {
			fmt.Printf("Pruned %d history records\n", n)
		}
	}

	srv, err := server.New(server.Config{
		Host:             cfg.Server.Host,
		GRPCPort:         cfg.Server.GRPCPort,
		HTTPPort:         cfg.Server.HTTPPort,
		ReadTimeout:      cfg.Server.ReadTimeout.Duration,
		WriteTimeout:     cfg.Server.WriteTimeout.Duration,
		EnableReflection: cfg.Server.EnableReflection,
		History:          history,
	}, svc)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("lexana listening on http://%s and grpc://%s\n", cfg.HTTPAddress(), cfg.GRPCAddress())

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nStopping server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(ctx)
	return <-errCh
}
