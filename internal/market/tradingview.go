// Package market fetches the current candle of an instrument from the
// TradingView scanner API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"pricewatch-telegram-bot/internal/alert"
)

const defaultBaseURL = "https://scanner.tradingview.com"

// Client queries the scanner's per-screener scan endpoint. One instance is
// safe for concurrent use; it holds no per-call state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	interval   string
}

// NewClient builds a scanner client for a fixed candle interval ("1", "5",
// "15", "30", "60", "240" or "1D"). An optional base URL overrides the real
// endpoint, which tests use.
func NewClient(interval string, baseOptional ...string) *Client {
	base := defaultBaseURL
	if len(baseOptional) > 0 && baseOptional[0] != "" {
		base = baseOptional[0]
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    base,
		interval:   interval,
	}
}

type scanRequest struct {
	Symbols struct {
		Tickers []string `json:"tickers"`
		Query   struct {
			Types []string `json:"types"`
		} `json:"query"`
	} `json:"symbols"`
	Columns []string `json:"columns"`
}

type scanResponse struct {
	Data []struct {
		Symbol string    `json:"s"`
		Values []float64 `json:"d"`
	} `json:"data"`
}

// Candle returns the high/low of the current candle for the given
// instrument, or an error the caller treats as transient.
func (c *Client) Candle(ctx context.Context, key alert.InstrumentKey) (alert.Candle, error) {
	var req scanRequest
	req.Symbols.Tickers = []string{key.Exchange + ":" + key.Symbol}
	req.Symbols.Query.Types = []string{}
	req.Columns = []string{c.column("high"), c.column("low")}

	body, err := json.Marshal(req)
	if err != nil {
		return alert.Candle{}, errors.Wrap(err, "could not encode scan request")
	}

	url := fmt.Sprintf("%s/%s/scan", c.baseURL, key.Screener)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return alert.Candle{}, errors.Wrap(err, "could not build scan request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return alert.Candle{}, errors.Wrapf(err, "scan request for %s failed", key.Symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return alert.Candle{}, errors.Errorf("scan request for %s returned status %d", key.Symbol, resp.StatusCode)
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return alert.Candle{}, errors.Wrapf(err, "could not parse scan response for %s", key.Symbol)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Values) < 2 {
		return alert.Candle{}, errors.Errorf("no candle data for %s:%s on screener %s", key.Exchange, key.Symbol, key.Screener)
	}

	high, low := parsed.Data[0].Values[0], parsed.Data[0].Values[1]
	if !finite(high) || !finite(low) {
		return alert.Candle{}, errors.Errorf("non-finite candle for %s", key.Symbol)
	}

	return alert.Candle{High: high, Low: low}, nil
}

// column appends the interval suffix TradingView uses for intraday fields;
// daily columns carry none.
func (c *Client) column(name string) string {
	if c.interval == "" || c.interval == "1D" {
		return name
	}
	return name + "|" + c.interval
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
