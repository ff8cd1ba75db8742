package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"secrules/internal/logging"
	"secrules/internal/mcp"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveDemoTools      bool
	serveInsecureErrors bool
	serveHTTPAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish the rule corpus over MCP",
	Long: `Start the MCP server. By default it speaks the stdio transport, which
is what editor and agent integrations expect; --http switches to the
streamable HTTP transport on the given address.

The demo toolset and the insecure error mode exist so the writeups can
be shown against a live, intentionally vulnerable server. Both are off
unless enabled here or in the configuration file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDemoTools, "with-demo-tools", false, "register the intentionally vulnerable demo tools")
	serveCmd.Flags().BoolVar(&serveInsecureErrors, "insecure-errors", false, "forward raw handler errors to clients (demonstrates SEC-009)")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.NewServerLogger()

	cfg := loadConfigOrDefault()
	if serveDemoTools {
		cfg.DemoTools = true
	}
	if serveInsecureErrors {
		cfg.InsecureErrors = true
	}

	srv, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	if serveHTTPAddr == "" {
		return srv.Start()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.StartHTTP(serveHTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
