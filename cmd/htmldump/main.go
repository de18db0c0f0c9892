package main

import (
	"context"
	"flag"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"stockquote/internal/config"
	"stockquote/internal/fetch"
	"stockquote/internal/httpx"
	"stockquote/internal/logger"
	"stockquote/internal/quote"
)

// htmldump runs the fetcher only and dumps the raw page HTML for one symbol.
// Useful for recalibrating the extraction patterns when the upstream markup
// changes.
func main() {
	var symbol string
	var outPath string
	var configPath string
	var direct bool
	var timeout int

	flag.StringVar(&symbol, "symbol", "AAPL:NASDAQ", "SYMBOL:EXCHANGE pair to fetch")
	flag.StringVar(&outPath, "out", "", "output file path (default stdout)")
	flag.StringVar(&configPath, "config", "", "path to config.json (optional)")
	flag.BoolVar(&direct, "direct", false, "skip proxies and fetch directly")
	flag.IntVar(&timeout, "timeout", 45, "total timeout seconds")
	flag.Parse()

	if err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()
	log := logger.Log

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if direct {
		cfg.Proxy.Enabled = false
	}

	canonical, err := quote.Normalize(symbol)
	if err != nil {
		log.Fatal("symbol", zap.Error(err))
	}

	httpClient := httpx.New(time.Duration(timeout) * time.Second)
	httpClient.UserAgent = cfg.Google.UserAgent

	fetcher := fetch.New(fetch.Config{
		ProxyEnabled:    cfg.Proxy.Enabled,
		PrimaryProxy:    cfg.Proxy.Primary,
		FallbackProxies: cfg.Proxy.Fallbacks,
		AttemptTimeout:  time.Duration(cfg.Proxy.TimeoutMS) * time.Millisecond,
		UserAgent:       cfg.Google.UserAgent,
	}, fetch.WithHTTPClient(httpClient.HTTP), fetch.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	html, err := fetcher.Fetch(ctx, cfg.Google.BaseURL+url.PathEscape(canonical))
	if err != nil {
		log.Fatal("fetch", zap.String("symbol", canonical), zap.Error(err))
	}
	log.Info("fetched", zap.String("symbol", canonical), zap.Int("bytes", len(html)))

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatal("create out", zap.Error(err))
		}
		defer f.Close()
		out = f
	}
	if _, err := out.WriteString(html); err != nil {
		log.Fatal("write", zap.Error(err))
	}
}
