package marketdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price": 165.5, "high": 168.0, "low": 163.2, "open": 164.0, "prev_close": 163.9}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	quote, err := client.GetQuote("AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 165.5, quote.Price)
	require.NotNil(t, quote.High)
	assert.Equal(t, 168.0, *quote.High)
	require.NotNil(t, quote.PrevClose)
	assert.Equal(t, 163.9, *quote.PrevClose)
}

func TestGetQuote_PartialFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 42.0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	quote, err := client.GetQuote("xyz")
	require.NoError(t, err)

	assert.Equal(t, "XYZ", quote.Symbol)
	assert.Nil(t, quote.High)
	assert.Nil(t, quote.Low)
	assert.Nil(t, quote.Open)
	assert.Nil(t, quote.PrevClose)
}

func TestGetQuote_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	assert.Error(t, err)
}

func TestGetQuote_NoUsablePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	_, err := client.GetQuote("AAPL")
	assert.Error(t, err)
}
