package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stockquote/internal/config"
	"stockquote/internal/fetch"
	"stockquote/internal/httpx"
	"stockquote/internal/logger"
	"stockquote/internal/metrics"
	"stockquote/internal/provider"
	cachepkg "stockquote/internal/provider/cache"
	"stockquote/internal/provider/googlefinance"
	"stockquote/internal/quote"
)

type quoteResponse struct {
	Quote quote.Quote `json:"quote"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()
	log := logger.Log

	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if cfg.Proxy.Enabled && cfg.Proxy.Primary == "" && len(cfg.Proxy.Fallbacks) == 0 {
		log.Warn("proxy.enabled=true but no proxy URLs configured; requests go direct")
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := httpx.New(requestTimeout)
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

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/quote", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handleGetQuote(w, r, p, requestTimeout)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func handleGetQuote(w http.ResponseWriter, r *http.Request, p provider.Provider, timeout time.Duration) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol query param")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	writeQuote(w, ctx, p, symbol)
}

func writeQuote(w http.ResponseWriter, ctx context.Context, p provider.Provider, symbol string) {
	q, err := p.Quote(ctx, symbol)
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}
	metrics.QuotesServed.Inc()
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(quoteResponse{Quote: q})
}

// statusForErr maps the failure taxonomy onto HTTP statuses: caller mistakes
// are 4xx, upstream trouble is 502/504.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, quote.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, quote.ErrAllProxiesExhausted),
		errors.Is(err, quote.ErrBlocked),
		errors.Is(err, quote.ErrIncompleteBody):
		return http.StatusBadGateway
	}
	var se *quote.StatusError
	var ee *quote.ExtractionError
	var ve *quote.ValidationError
	if errors.As(err, &se) || errors.As(err, &ee) || errors.As(err, &ve) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
