package googlefinance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"stockquote/internal/fetch"
	"stockquote/internal/provider/googlefinance"
	"stockquote/internal/quote"
)

// quotePage is padded past the fetcher's minimum body length.
var quotePage = `<!DOCTYPE html><html><head>
<title>Apple Inc Stock Price &amp; News - Google Finance</title>
</head><body>
<main data-last-price="227.52" data-currency-code="USD" data-market-status="OPEN">
<div class="YMlKec fxKbKc">$227.52</div>
</main>` + strings.Repeat("<!-- filler -->", 40) + `</body></html>`

func TestQuote(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		_, _ = w.Write([]byte(quotePage))
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{ProxyEnabled: false}, fetch.WithHTTPClient(srv.Client()))
	p := googlefinance.New(googlefinance.Config{BaseURL: srv.URL + "/finance/quote/"}, f)

	q, err := p.Quote(context.Background(), "aapl:nasdaq")
	require.NoError(t, err)

	require.Equal(t, "/finance/quote/AAPL:NASDAQ", gotPath.Load())
	require.Equal(t, "AAPL:NASDAQ", q.Symbol)
	require.Equal(t, "Apple Inc", q.Name)
	require.InDelta(t, 227.52, q.Price, 1e-9)
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, quote.MarketOpen, q.MarketStatus)
}

func TestQuote_InvalidSymbolSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{ProxyEnabled: false}, fetch.WithHTTPClient(srv.Client()))
	p := googlefinance.New(googlefinance.Config{BaseURL: srv.URL + "/finance/quote/"}, f)

	_, err := p.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, quote.ErrInvalidSymbol)
	require.Zero(t, hits.Load())
}

func TestQuote_UpstreamErrorPropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{ProxyEnabled: false}, fetch.WithHTTPClient(srv.Client()))
	p := googlefinance.New(googlefinance.Config{BaseURL: srv.URL + "/finance/quote/"}, f)

	_, err := p.Quote(context.Background(), "AAPL:NASDAQ")
	require.Error(t, err)

	var se *quote.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p := googlefinance.New(googlefinance.Config{}, nil)
	require.Equal(t, "GoogleFinance", p.Name())
}
