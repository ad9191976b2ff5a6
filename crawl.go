package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"clerkconnect/clerk"
	"clerkconnect/config"
	"clerkconnect/fetch"
	"clerkconnect/output"
	"clerkconnect/record"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [word]",
		Short: "Search a word and extract every result",
		Long: `Search City Clerk Connect for word (or crawl.query from the config), walk the
result listing pages and write one JSON file per council file, plus records.json
and manifest.json, to the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawl,
	}

	cmd.Flags().Int("max-results", 0, "Stop after this many results (0 for all)")
	cmd.Flags().Int("max-pages", 0, "Stop after this many listing pages (0 for all)")
	cmd.Flags().StringP("out", "o", "", "Output directory")
	cmd.Flags().Bool("overwrite", false, "Replace the output directory instead of creating a timestamped run directory")
	cmd.Flags().Bool("download", false, "Download online documents and attachments next to the records")
	cmd.Flags().Bool("no-attachments", false, "Skip the attachment popups of file activities")
	cmd.Flags().Bool("no-summary", false, "Do not print the summary table")

	return cmd
}

// crawlOverrides turns the crawl flags into a config overlay
func crawlOverrides(cmd *cobra.Command) config.Config {
	var o config.Config
	o.Crawl.MaxResults, _ = cmd.Flags().GetInt("max-results")
	o.Crawl.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	o.Crawl.Download, _ = cmd.Flags().GetBool("download")
	o.Output.Dir, _ = cmd.Flags().GetString("out")
	o.Output.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	return o
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Apply(crawlOverrides(cmd)); err != nil {
		return err
	}
	if skip, _ := cmd.Flags().GetBool("no-attachments"); skip {
		cfg.Crawl.Attachments = false
	}
	if skip, _ := cmd.Flags().GetBool("no-summary"); skip {
		cfg.Output.Summary = false
	}

	word := cfg.Crawl.Query
	if len(args) > 0 {
		word = args[0]
	}
	if word == "" {
		return errors.New("nothing to search, pass a word or set crawl.query")
	}

	w, err := output.NewWriter(cfg.Output.Dir, cfg.Output.Overwrite)
	if err != nil {
		return err
	}
	manifest := output.NewManifest(word)

	rt, err := start(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	var dl *fetch.Client
	if cfg.Crawl.Download {
		dl = fetch.New(cfg.Browser.UserAgent, cfg.Browser.PageTimeout.Std())
	}

	opts := clerk.CrawlOptions{MaxPages: cfg.Crawl.MaxPages, MaxResults: cfg.Crawl.MaxResults}
	stats, crawlErr := rt.client.Crawl(rt.browser.Context(), word, opts, func(rec *record.Record) error {
		path, err := w.Write(rec)
		if err != nil {
			return err
		}
		slog.Info("record written", "path", path)
		if dl != nil {
			downloadDocuments(ctx, dl, filepath.Join(w.Dir(), "documents", output.FileName(rec)), rec)
		}
		return nil
	})

	manifest.Results = stats.Results
	manifest.Failed = stats.Failed
	if err := w.Finish(manifest); err != nil {
		return err
	}
	slog.Info("crawl finished", "dir", w.Dir(), "results", stats.Results, "records", stats.Records, "failed", stats.Failed)

	if cfg.Output.Summary {
		output.Summary(cmd.OutOrStdout(), w.Records())
	}
	if crawlErr != nil {
		return fmt.Errorf("crawl stopped: %w", crawlErr)
	}
	return nil
}

// downloadDocuments stores the documents of rec in dir, a failed download is only logged
func downloadDocuments(ctx context.Context, dl *fetch.Client, dir string, rec *record.Record) {
	for _, doc := range rec.Documents() {
		path, err := dl.Download(ctx, doc.Href, dir)
		if err != nil {
			slog.Warn("failed to download document", "file", rec.FileNumber, "href", doc.Href, "err", err)
			continue
		}
		slog.Debug("document downloaded", "path", path)
	}
}
