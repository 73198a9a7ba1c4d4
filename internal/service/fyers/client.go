package fyers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	xhttp "NewsScreener/pkg/http"
	applogger "NewsScreener/pkg/logger"
)

// Client implements MarketDataProvider against the Fyers v3 REST data API.
// One Snapshot call issues two requests: the live quote and the daily history
// used for the lookback average volume.
type Client struct {
	http        *xhttp.Client
	baseURL     string
	clientID    string
	accessToken string
	now         func() time.Time
	l           *applogger.Logger
}

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

// New creates a Fyers market data client.
func New(baseURL, clientID, accessToken string, timeout time.Duration, opts ...Option) drepo.MarketDataProvider {
	c := &Client{
		http:        xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:     baseURL,
		clientID:    clientID,
		accessToken: accessToken,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quoteResponse struct {
	S string `json:"s"`
	D []struct {
		N string `json:"n"`
		S string `json:"s"`
		V struct {
			LP        float64 `json:"lp"`
			PrevClose float64 `json:"prev_close_price"`
			Chp       float64 `json:"chp"`
			Volume    float64 `json:"volume"`
		} `json:"v"`
	} `json:"d"`
}

type historyResponse struct {
	S       string      `json:"s"`
	Candles [][]float64 `json:"candles"` // [ts, o, h, l, c, v]
}

// Snapshot fetches the live quote plus lookbackDays of daily candles and
// folds them into one MarketSnapshot. The average volume excludes the most
// recent candle so an in-progress session cannot dilute its own surge.
func (c *Client) Snapshot(ctx context.Context, symbol string, lookbackDays int) (*models.MarketSnapshot, error) {
	quote, err := c.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	avgVolume, err := c.fetchAverageVolume(ctx, symbol, lookbackDays)
	if err != nil {
		return nil, err
	}

	snap := &models.MarketSnapshot{
		Symbol:           symbol,
		LastPrice:        quote.lastPrice,
		PrevClose:        quote.prevClose,
		DayChangePercent: quote.changePercent,
		CurrentVolume:    quote.volume,
		AverageVolume:    avgVolume,
		Timestamp:        c.now().UTC(),
	}
	if snap.LastPrice <= 0 {
		return nil, models.NewProviderError(models.ErrKindInvalidSnapshot, "fyers.quote", models.ErrInvalidSnapshot)
	}
	return snap, nil
}

type quote struct {
	lastPrice     float64
	prevClose     float64
	changePercent float64
	volume        float64
}

func (c *Client) fetchQuote(ctx context.Context, symbol string) (*quote, error) {
	var qr quoteResponse
	if err := c.get(ctx, "/data/quotes", map[string][]string{"symbols": {symbol}}, "fyers.quote", &qr); err != nil {
		return nil, err
	}
	if qr.S != "ok" || len(qr.D) == 0 {
		return nil, models.NewProviderError(models.ErrKindNotFound, "fyers.quote",
			fmt.Errorf("no quote data for %s", symbol))
	}
	d := qr.D[0]
	if d.S != "ok" {
		return nil, models.NewProviderError(models.ErrKindNotFound, "fyers.quote",
			fmt.Errorf("quote status %q for %s", d.S, symbol))
	}
	return &quote{
		lastPrice:     d.V.LP,
		prevClose:     d.V.PrevClose,
		changePercent: d.V.Chp,
		volume:        d.V.Volume,
	}, nil
}

func (c *Client) fetchAverageVolume(ctx context.Context, symbol string, lookbackDays int) (float64, error) {
	to := c.now()
	// Fetch a little extra so weekends and holidays still leave lookbackDays
	// of trading sessions.
	from := to.AddDate(0, 0, -(lookbackDays*2 + 3))

	var hr historyResponse
	params := map[string][]string{
		"symbol":      {symbol},
		"resolution":  {"D"},
		"date_format": {"1"},
		"range_from":  {from.Format("2006-01-02")},
		"range_to":    {to.Format("2006-01-02")},
		"cont_flag":   {"1"},
	}
	if err := c.get(ctx, "/data/history", params, "fyers.history", &hr); err != nil {
		return 0, err
	}
	if hr.S == "no_data" {
		return 0, nil
	}
	if hr.S != "ok" {
		return 0, models.NewProviderError(models.ErrKindNotFound, "fyers.history",
			fmt.Errorf("history status %q for %s", hr.S, symbol))
	}

	candles := hr.Candles
	if len(candles) == 0 {
		return 0, nil
	}
	// Drop the latest candle: it is today's running session.
	candles = candles[:len(candles)-1]
	if len(candles) > lookbackDays {
		candles = candles[len(candles)-lookbackDays:]
	}
	if len(candles) == 0 {
		return 0, nil
	}

	var sum float64
	for _, candle := range candles {
		if len(candle) >= 6 {
			sum += candle[5]
		}
	}
	return sum / float64(len(candles)), nil
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, op string, dest interface{}) error {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: params,
		Headers: map[string]string{
			"Authorization": c.clientID + ":" + c.accessToken,
		},
	})
	if err != nil {
		return models.NewProviderError(models.ErrKindNetwork, op, err)
	}
	defer resp.Body.Close()

	if kind, ok := classifyStatus(resp.StatusCode); ok {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := models.NewProviderError(kind, op, fmt.Errorf("status %d: %s", resp.StatusCode, body))
		if c.l != nil {
			c.l.Warn("fyers request failed",
				applogger.String("op", op),
				applogger.Int("status", resp.StatusCode),
			)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return models.NewProviderError(models.ErrKindNetwork, op, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// classifyStatus maps non-2xx responses to scan error kinds.
func classifyStatus(code int) (models.ErrorKind, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", false
	case code == http.StatusTooManyRequests:
		return models.ErrKindRateLimited, true
	case code == http.StatusNotFound:
		return models.ErrKindNotFound, true
	default:
		return models.ErrKindNetwork, true
	}
}
