package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockquote/internal/config"
	"stockquote/internal/fetch"
	"stockquote/internal/httpx"
	"stockquote/internal/logger"
	"stockquote/internal/provider"
	cachepkg "stockquote/internal/provider/cache"
	"stockquote/internal/provider/googlefinance"
	"stockquote/internal/quote"
)

func main() {
	var symbolsCSV string
	var direct bool
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL:NASDAQ"), "comma-separated SYMBOL:EXCHANGE pairs")
	flag.BoolVar(&direct, "direct", getenvBool("DIRECT", false), "skip proxies and fetch directly")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 45), "total request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
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

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal("no symbols provided")
	}
	for _, s := range symbols {
		if !quote.ValidSymbol(s) {
			log.Fatal("malformed symbol, want SYMBOL:EXCHANGE", zap.String("symbol", s))
		}
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

	var p provider.Provider = googlefinance.New(googlefinance.Config{
		BaseURL: cfg.Google.BaseURL,
	}, fetcher)
	if cfg.Cache.TTLSeconds > 0 {
		p = &cachepkg.Provider{P: p, TTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second, MaxItems: cfg.Cache.MaxItems}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	// Requests are independent: no shared state, so plain fan-out per symbol.
	type result struct {
		symbol string
		q      quote.Quote
		err    error
	}
	ch := make(chan result, len(symbols))
	for _, s := range symbols {
		s := s
		go func() {
			q, err := p.Quote(ctx, s)
			ch <- result{symbol: s, q: q, err: err}
		}()
	}

	var quotes []quote.Quote
	for i := 0; i < len(symbols); i++ {
		r := <-ch
		if r.err != nil {
			log.Warn("quote failed", zap.String("symbol", r.symbol), zap.Error(r.err))
			continue
		}
		quotes = append(quotes, r.q)
	}

	if len(quotes) == 0 {
		log.Fatal("no quotes received")
	}

	out := struct {
		Quotes []quote.Quote `json:"quotes"`
	}{Quotes: quotes}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" { out = append(out, p) }
	}
	return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 { return x }
	}
	return def
}
func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1","true","yes","y": return true
		case "0","false","no","n": return false
		}
	}
	return def
}
