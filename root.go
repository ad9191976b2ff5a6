package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"clerkconnect/browser"
	"clerkconnect/cache"
	"clerkconnect/clerk"
	"clerkconnect/config"
)

// NewRootCmd creates the clerkconnect command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clerkconnect",
		Short: "Scrape council file records from City Clerk Connect",
		Long: `clerkconnect drives a Chrome browser through the City Clerk Connect search,
follows every result to its detail page and extracts fields, online documents,
votes and file activities with their attachments as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Config file (.yaml, .yml, .json or .json5)")
	cmd.PersistentFlags().Bool("headful", false, "Show the browser window")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRecordCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// loadConfig reads --config and applies the flags shared by every command
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if headful, _ := cmd.Flags().GetBool("headful"); headful {
		cfg.Browser.Headless = false
	}
	return cfg, nil
}

// app is everything a command needs to talk to the site
type app struct {
	browser *browser.Browser
	cache   *cache.Cache
	client  *clerk.Client
}

func start(ctx context.Context, cfg config.Config) (*app, error) {
	c, err := cache.New(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	if err != nil {
		return nil, err
	}

	b, err := browser.New(ctx, browser.Options{
		Headless:  cfg.Browser.Headless,
		ExecPath:  cfg.Browser.ExecPath,
		UserAgent: cfg.Browser.UserAgent,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return &app{
		browser: b,
		cache:   c,
		client:  clerk.NewClient(cfg, c),
	}, nil
}

func (r *app) Close() {
	r.browser.Close()
	if err := r.cache.Close(); err != nil {
		slog.Warn("failed to close cache", "err", err)
	}
}
