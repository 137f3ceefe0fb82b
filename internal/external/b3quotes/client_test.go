package b3quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbr/indexa/pkg/httputil"
	"github.com/quantbr/indexa/pkg/logger"
)

func httputilClient(t *testing.T) *httputil.Client {
	t.Helper()
	return httputil.New(logger.NewNop(), 5*time.Second).DisableRetry()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputilClient(t)
	return NewClient(httpClient, server.URL, logger.NewNop())
}

func TestClient_FetchQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote/PETR4", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price": 38.42, "asOf": "2026-08-27T17:00:00Z"}`))
	})

	quote, err := client.FetchQuote(context.Background(), "PETR4")
	require.NoError(t, err)
	assert.Equal(t, "PETR4", quote.Ticker)
	assert.InDelta(t, 38.42, quote.Price, 1e-9)
}

func TestClient_FetchQuote_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchQuote(context.Background(), "XXXX9")
	assert.ErrorContains(t, err, "not found")
}

func TestClient_FetchDailyCloses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chart/VALE3", r.URL.Path)
		assert.Equal(t, "2026-08-20", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[["2026-08-20", 60.10], ["2026-08-21", 61.05], ["bogus"], ["2026-08-24", 59.80]]`))
	})

	closes, err := client.FetchDailyCloses(context.Background(), "VALE3",
		time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, closes, 3)
	assert.Equal(t, time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), closes[1].Date)
	assert.InDelta(t, 61.05, closes[1].Close, 1e-9)
}

func TestClient_FetchDividends(t *testing.T) {
	html := `
	<html><body>
	<table id="resultado">
	<thead><tr><th>Data</th><th>Tipo</th><th>Valor</th></tr></thead>
	<tbody>
	<tr><td>15/05/2026</td><td>DIVIDENDO</td><td>1,2345</td></tr>
	<tr><td>12/02/2026</td><td>JRS CAP PROPRIO</td><td>0,8000</td></tr>
	<tr><td>invalid</td><td>DIVIDENDO</td><td>0,1000</td></tr>
	</tbody>
	</table>
	</body></html>`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PETR4", r.URL.Query().Get("papel"))
		w.Write([]byte(html))
	})

	dividends, err := client.FetchDividends(context.Background(), "PETR4")
	require.NoError(t, err)
	require.Len(t, dividends, 2)
	assert.Equal(t, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), dividends[0].ExDate)
	assert.InDelta(t, 1.2345, dividends[0].Amount, 1e-9)
	assert.InDelta(t, 0.8, dividends[1].Amount, 1e-9)
}

func TestParseBRLNumber(t *testing.T) {
	assert.InDelta(t, 1234.5678, parseBRLNumber("1.234,5678"), 1e-9)
	assert.InDelta(t, 0.8, parseBRLNumber(" 0,8000 "), 1e-9)
	assert.Equal(t, 0.0, parseBRLNumber("n/a"))
}
