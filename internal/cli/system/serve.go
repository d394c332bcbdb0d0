package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/server"
)

type ServeCmd struct {
	Addr    string `help:"Address to listen on." default:"${default_addr}"`
	Origins string `help:"Comma-separated list of allowed CORS origins (default: any)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	srv := server.New(ctx.Tracker, server.Config{AllowOrigins: c.Origins})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(c.Addr)
	}()
	fmt.Printf("Serving habit API on %s (Ctrl+C to stop)\n", c.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down HTTP API")
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}
