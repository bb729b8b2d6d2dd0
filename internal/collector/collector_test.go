package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketSnapshot/internal/fundamentals"
	"MarketSnapshot/internal/model"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1704153600,1704240000,1704326400],
"indicators":{"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],"low":[9.5,10.5,null],
"close":[10.2,11.2,null],"volume":[1000,1100,null]}],
"adjclose":[{"adjclose":[10.1,11.1,null]}]}}],"error":null}}`

func newTestFetcher(hosts ...string) *YahooFetcher {
	f := NewYahooFetcher("", 1000, 5*time.Second)
	f.Hosts = hosts
	return f
}

func TestYahooFetcher_FetchHistoryFallsBackToSecondHost(t *testing.T) {
	var downHits int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downHits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeAdjustedClose"))
		assert.Equal(t, "120d", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON)
	}))
	defer up.Close()

	f := newTestFetcher(down.URL, up.URL)
	tbl, err := f.FetchHistory(context.Background(), "AAPL", "1d", "120d")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&downHits))
	assert.Equal(t, 3, tbl.Len())

	c, ok := tbl.Column("Close")
	require.True(t, ok)
	assert.Equal(t, 10.1, c.Cells[0], "adjusted close replaces close")
	assert.Nil(t, c.Cells[2])
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), tbl.Index[0])
}

func TestYahooFetcher_DottedSymbolFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/BRK.B") {
			fmt.Fprint(w, chartJSON)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tbl, err := newTestFetcher(srv.URL).FetchHistory(context.Background(), "BRK-B", "1d", "1y")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	_, err = newTestFetcher(srv.URL).FetchHistory(context.Background(), "MSFT", "1d", "1y")
	assert.Error(t, err)
}

func TestYahooFetcher_Options(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/options/AAPL", r.URL.Path)
		if r.URL.Query().Get("date") == "" {
			fmt.Fprint(w, `{"optionChain":{"result":[{"expirationDates":[1711584000,1712275200],"options":[]}]}}`)
			return
		}
		assert.Equal(t, "1711584000", r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"optionChain":{"result":[{"expirationDates":[],"options":[{
			"calls":[{"strike":100,"bid":1.5,"ask":1.7,"lastPrice":1.6,"impliedVolatility":0.25}],
			"puts":[{"strike":100,"bid":1.4,"ask":1.6,"lastPrice":1.5}]}]}]}}`)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	exps, err := f.Expirations(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-28", "2024-04-05"}, exps)

	chain, err := f.OptionChain(context.Background(), "AAPL", "2024-03-28")
	require.NoError(t, err)
	require.Len(t, chain.Calls, 1)
	assert.Equal(t, 0.25, *chain.Calls[0].ImpliedVolatility)
	assert.Nil(t, chain.Puts[0].ImpliedVolatility)
	assert.Equal(t, 1.4, chain.Puts[0].Bid)

	_, err = f.OptionChain(context.Background(), "AAPL", "soon")
	assert.Error(t, err)
}

func TestYahooFetcher_Fundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"MSFT","longName":"Microsoft Corporation",
			"marketCap":3.1e12,"trailingPE":35.2,"priceToBook":11.9,"regularMarketPrice":420.5}]}}`)
	}))
	defer srv.Close()

	p, err := newTestFetcher(srv.URL).Fundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corporation", p.Name)

	f := fundamentals.Resolve(p.Sources)
	assert.Equal(t, 3.1e12, *f.MarketCap)
	assert.Equal(t, 35.2, *f.PETTM)
	assert.Nil(t, f.Beta)
}

func TestYahooFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher(srv.URL).FetchHistory(ctx, "AAPL", "1d", "1y")
	assert.Error(t, err)
}

func TestCollector_Collect(t *testing.T) {
	m := &MockFetcher{
		Price:  100,
		Errors: map[string]error{"BAD": errors.New("boom")},
		Bars:   map[string][]model.OHLCV{"EMPTY": nil},
	}
	c := NewCollector(m, "1d", "120d")

	s, err := c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 120, s.Len())

	_, err = c.Collect(context.Background(), "BAD")
	assert.ErrorContains(t, err, "boom")

	_, err = c.Collect(context.Background(), "EMPTY")
	assert.ErrorContains(t, err, "no usable rows")
}

func TestMockFetcher_Chains(t *testing.T) {
	m := &MockFetcher{Chains: map[string]*model.OptionChain{"AAPL": {Calls: []model.OptionQuote{{Strike: 100}}}}}
	c, err := m.OptionChain(context.Background(), "AAPL", "2024-03-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-28", c.Expiration)

	_, err = m.OptionChain(context.Background(), "MSFT", "2024-03-28")
	assert.Error(t, err)
}
