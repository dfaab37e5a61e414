package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Quote is one price observation for a symbol. Optional fields are nil
// when the upstream feed does not supply them.
type Quote struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Open      *float64 `json:"open,omitempty"`
	PrevClose *float64 `json:"prev_close,omitempty"`
}

// PriceFeed retrieves quotes. A failed lookup means "no update for that
// symbol"; callers must never treat it as fatal to a batch.
type PriceFeed interface {
	GetQuote(symbol string) (*Quote, error)
}

// Client is an HTTP price feed client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new price feed client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "marketdata").Logger(),
	}
}

// GetQuote fetches the latest quote for a symbol
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	if quote.Price <= 0 {
		return nil, fmt.Errorf("quote for %s has no usable price", symbol)
	}

	quote.Symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return &quote, nil
}
