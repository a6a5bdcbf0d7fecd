// feed-check fetches the upstream report list once and prints the reports a
// category would show, newest first, one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-disaster-feed/internal/config"
	"github.com/mr1hm/go-disaster-feed/internal/feed"
	"github.com/mr1hm/go-disaster-feed/internal/logging"
	"github.com/mr1hm/go-disaster-feed/internal/reports"
)

func main() {
	category := flag.String("category", "All", "disaster type to show, or All")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	// stdout carries the report lines
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.Logging.Level),
	})))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout)
	defer cancel()

	raw, err := reports.NewClient(cfg.Upstream.ReportsURL, cfg.Upstream.Timeout).List(ctx)
	if err != nil {
		logging.Fatalf("Failed to fetch reports: %v", err)
	}

	visible := feed.Visible(raw, feed.ParseCategory(*category))
	slog.Info("reports fetched", "category", *category, "total", len(raw), "visible", len(visible))

	enc := json.NewEncoder(os.Stdout)
	for _, r := range visible {
		if err := enc.Encode(r); err != nil {
			logging.Fatalf("Failed to write report: %v", err)
		}
	}
}
