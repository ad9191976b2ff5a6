package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clerkconnect/browser"
	"clerkconnect/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches and records over HTTP",
		Long: `Start an HTTP server exposing /search/{query}, /record/{fileNumber},
/crawl/{query} and /health. Every request runs in its own browser tab.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	rt, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	pool := browser.NewPool(rt.browser, cfg.Browser.PoolSize)
	svc := server.NewBrowserService(pool, rt.client, rt.cache, cfg.Cache.TTL.Std(), cfg.Server.RequestTimeout.Std())
	srv := server.New(cfg.Server.Addr, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server is running", "addr", cfg.Server.Addr, "tabs", pool.Size())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
