// Package alpaca implements the market-data and order-gateway interfaces
// against the Alpaca crypto REST API.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/market"
	"github.com/rustyeddy/momentum/pkg/id"
)

const (
	// PaperTradingURL is Alpaca's paper trading environment.
	PaperTradingURL = "https://paper-api.alpaca.markets"
	// LiveTradingURL is Alpaca's live trading environment.
	LiveTradingURL = "https://api.alpaca.markets"
	// DataURL serves crypto quotes and bars for both environments.
	DataURL = "https://data.alpaca.markets"

	cryptoFeed = "/v1beta3/crypto/us"
)

// Client is an Alpaca API client covering crypto quotes, bars, market
// orders, and positions.
type Client struct {
	tradingURL string
	dataURL    string
	key        string
	secret     string
	httpClient *http.Client
}

// NewClient creates an Alpaca client. With paper true, orders go to the
// paper trading environment; market data uses the same keys either way.
func NewClient(key, secret string, paper bool) *Client {
	tradingURL := LiveTradingURL
	if paper {
		tradingURL = PaperTradingURL
	}

	return &Client{
		tradingURL: tradingURL,
		dataURL:    DataURL,
		key:        key,
		secret:     secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type latestQuote struct {
	AskPrice float64 `json:"ap"`
	BidPrice float64 `json:"bp"`
	Time     string  `json:"t"`
}

type latestQuotesResponse struct {
	Quotes map[string]latestQuote `json:"quotes"`
}

// GetLatestQuotes fetches the latest quote for every symbol in one call.
// Symbols the feed has no quote for are absent from the result.
func (c *Client) GetLatestQuotes(ctx context.Context, symbols []string) (map[string]market.Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp latestQuotesResponse
	if err := c.get(ctx, c.dataURL+cryptoFeed+"/latest/quotes?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	quotes := make(map[string]market.Quote, len(resp.Quotes))
	for sym, q := range resp.Quotes {
		t, err := time.Parse(time.RFC3339, q.Time)
		if err != nil {
			return nil, fmt.Errorf("parse quote time %s: %w", q.Time, err)
		}
		quotes[sym] = market.Quote{Bid: q.BidPrice, Ask: q.AskPrice, Time: t}
	}
	return quotes, nil
}

type apiBar struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	Time   string  `json:"t"`
}

type barsResponse struct {
	Bars map[string][]apiBar `json:"bars"`
}

// GetBars fetches up to limit bars for one symbol starting at start,
// oldest first.
func (c *Client) GetBars(ctx context.Context, symbol string, tf broker.Timeframe, start time.Time, limit int) ([]market.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("timeframe", string(tf))
	params.Set("start", start.UTC().Format(time.RFC3339))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp barsResponse
	if err := c.get(ctx, c.dataURL+cryptoFeed+"/bars?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	bars := make([]market.Bar, 0, len(resp.Bars[symbol]))
	for _, b := range resp.Bars[symbol] {
		t, err := time.Parse(time.RFC3339, b.Time)
		if err != nil {
			return nil, fmt.Errorf("parse bar time %s: %w", b.Time, err)
		}
		bars = append(bars, market.Bar{
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Time:   t,
		})
	}
	return bars, nil
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
	Side   string `json:"side"`
	Status string `json:"status"`
}

// SubmitMarketOrder submits a good-till-cancelled market order. A fresh
// client order ID makes accidental resubmission detectable broker-side.
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side broker.Side) (broker.Order, error) {
	body, err := json.Marshal(orderRequest{
		Symbol:        symbol,
		Qty:           strconv.FormatFloat(qty, 'f', -1, 64),
		Side:          string(side),
		Type:          "market",
		TimeInForce:   "gtc",
		ClientOrderID: id.New(),
	})
	if err != nil {
		return broker.Order{}, fmt.Errorf("marshal order: %w", err)
	}

	var resp orderResponse
	if err := c.post(ctx, c.tradingURL+"/v2/orders", body, &resp); err != nil {
		return broker.Order{}, err
	}

	filledQty, err := strconv.ParseFloat(resp.Qty, 64)
	if err != nil {
		return broker.Order{}, fmt.Errorf("parse order qty %q: %w", resp.Qty, err)
	}

	return broker.Order{
		ID:     resp.ID,
		Symbol: resp.Symbol,
		Qty:    filledQty,
		Side:   broker.Side(resp.Side),
	}, nil
}

type apiPosition struct {
	Symbol    string `json:"symbol"`
	Qty       string `json:"qty"`
	CostBasis string `json:"cost_basis"`
}

// GetAllPositions returns every open position. Position symbols are in
// Alpaca's compact form ("BTCUSD").
func (c *Client) GetAllPositions(ctx context.Context) ([]broker.Position, error) {
	var resp []apiPosition
	if err := c.get(ctx, c.tradingURL+"/v2/positions", &resp); err != nil {
		return nil, err
	}

	positions := make([]broker.Position, 0, len(resp))
	for _, p := range resp {
		qty, err := strconv.ParseFloat(p.Qty, 64)
		if err != nil {
			return nil, fmt.Errorf("parse position qty %q: %w", p.Qty, err)
		}
		basis, err := strconv.ParseFloat(p.CostBasis, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cost basis %q: %w", p.CostBasis, err)
		}
		positions = append(positions, broker.Position{
			Symbol:    p.Symbol,
			Qty:       qty,
			CostBasis: basis,
		})
	}
	return positions, nil
}

func (c *Client) get(ctx context.Context, apiURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, apiURL string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
