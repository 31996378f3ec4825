package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelog/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the journal, calculator and statistics over HTTP.

Every /api/accounts route needs an X-User-ID header holding the caller's UUID.

Example:
  tradelog serve --config tradelog.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	timeout, err := a.cfg.Server.Timeout()
	if err != nil {
		return fmt.Errorf("server.request_timeout: %w", err)
	}
	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	var shotsDir string
	if a.cfg.Screenshots.Type == "dir" {
		shotsDir = a.cfg.Screenshots.Dir
	}

	srv := server.New(server.Config{
		Log:            a.log,
		Service:        a.svc,
		Addr:           addr,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		RequestTimeout: timeout,
		ScreenshotDir:  shotsDir,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	a.log.Info().Msg("Server stopped")
	return nil
}
