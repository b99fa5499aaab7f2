package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/config"
	"github.com/LJTian/DevPulse/internal/ranking"
	"github.com/LJTian/DevPulse/internal/storage"
	"github.com/jessevdk/go-flags"
	"golang.org/x/time/rate"
)

type options struct {
	Name      string `long:"name" description:"source display name, used for adapter selection"`
	URL       string `long:"url" description:"source url"`
	Type      string `long:"type" description:"declared feed type: rss, json, api, graphql, scraping"`
	Subreddit string `long:"subreddit" description:"subreddit override for reddit sources"`
	Sort      string `long:"sort" default:"hot" description:"ordering: hot or new"`

	All      bool   `long:"all" description:"fetch every source in the registry"`
	Category string `long:"category" description:"with --all, only sources in this category"`
}

// 一个仅执行一次抓取的命令行入口：抓取单个源或整个注册表，结果以 JSON 输出
func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if !opts.All && opts.Name == "" && opts.URL == "" {
		log.Fatalf("either --all or --name/--url is required")
	}

	cfg := config.Load()
	agg := aggregator.New(newDispatcher(cfg), ranking.New())
	agg.Workers = cfg.FetchWorkers
	agg.SourceTimeout = cfg.SourceTimeout
	mode := ranking.ParseMode(opts.Sort)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.SourceTimeout)
	defer cancel()

	var items []collector.Item
	if opts.All {
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.RedisURL)
		if err != nil {
			log.Fatalf("init store failed: %v", err)
		}
		sources, err := store.ListSources(ctx, opts.Category)
		if err != nil {
			log.Fatalf("list sources failed: %v", err)
		}
		res := agg.FetchAll(ctx, sources, mode)
		for _, sk := range res.Skipped {
			log.Printf("skipped %s: %s", sk.SourceName, sk.Reason)
		}
		items = res.Items
	} else {
		d := collector.Descriptor{Name: opts.Name, URL: opts.URL, FeedType: opts.Type}
		if d.Name == "" {
			d.Name = d.URL
		}
		var err error
		items, err = agg.FetchOne(ctx, d, mode, opts.Subreddit)
		if err != nil {
			log.Fatalf("fetch %s failed (status %d): %v", d.Name, collector.StatusCode(err), err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if items == nil {
		items = []collector.Item{}
	}
	if err := enc.Encode(items); err != nil {
		log.Fatalf("encode output failed: %v", err)
	}
}

func newDispatcher(cfg *config.Config) *collector.Dispatcher {
	return collector.NewDispatcher(collector.Options{
		Client:             &http.Client{Timeout: cfg.SourceTimeout},
		UserAgent:          cfg.UserAgent,
		DevToAPIKey:        cfg.DevToAPIKey,
		GitHubToken:        cfg.GitHubToken,
		RedditClientID:     cfg.RedditClientID,
		RedditClientSecret: cfg.RedditClientSecret,
		ProductHuntID:      cfg.ProductHuntAPIKey,
		ProductHuntSecret:  cfg.ProductHuntAPISecret,
		RedditLimiter:      rate.NewLimiter(rate.Every(2*time.Second), 1),
	})
}
