package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	"NewsScreener/pkg/cache"
	xhttp "NewsScreener/pkg/http"
	applogger "NewsScreener/pkg/logger"
)

// QuotaGuard gates outbound news requests against the daily budget.
// Allow consumes one unit and reports whether it was available.
type QuotaGuard interface {
	Allow(ctx context.Context) (bool, error)
}

// Client implements NewsProvider against the NewsAPI /v2/everything endpoint.
// Responses are cached per symbol so repeated scans inside the cache TTL do
// not spend quota.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	cache    cache.Service
	cacheTTL time.Duration
	quota    QuotaGuard
	now      func() time.Time
	l        *applogger.Logger
}

type Option func(*Client)

func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

func WithQuota(g QuotaGuard) Option {
	return func(cl *Client) { cl.quota = g }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(cl *Client) { cl.l = l }
}

// New creates a NewsAPI client.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) drepo.NewsProvider {
	c := &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns recent articles for the symbol, newest first, deduplicated
// by normalized title and URL. A cache hit never consumes quota; a forced
// lookup (q.BypassQuota) skips the quota guard but still reads the cache.
func (c *Client) Search(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, error) {
	key := cache.GenerateKeyWithParams("news", q.Symbol, q.LookbackDays)

	if c.cache != nil {
		var raw string
		if err := c.cache.Get(ctx, key, &raw); err == nil {
			var cached []models.NewsItem
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	if c.quota != nil && !q.BypassQuota {
		ok, err := c.quota.Allow(ctx)
		if err != nil {
			return nil, models.NewProviderError(models.ErrKindNetwork, "newsapi.quota", err)
		}
		if !ok {
			return nil, models.NewProviderError(models.ErrKindQuotaExhausted, "newsapi.search", models.ErrQuotaExhausted)
		}
	}

	items, err := c.fetch(ctx, q.Symbol, q.LookbackDays, q.MaxItems)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := c.cache.Set(ctx, key, string(raw), c.cacheTTL); err != nil && c.l != nil {
				c.l.Warn("news cache set failed", applogger.String("symbol", q.Symbol), applogger.Error(err))
			}
		}
	}
	return items, nil
}

func (c *Client) fetch(ctx context.Context, symbol string, lookbackDays, maxItems int) ([]models.NewsItem, error) {
	name := CompanyName(symbol)
	from := c.now().AddDate(0, 0, -lookbackDays).Format("2006-01-02")

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v2/everything",
		QueryParams: map[string][]string{
			"q":        {fmt.Sprintf("%s stock OR %s shares", name, name)},
			"from":     {from},
			"sortBy":   {"publishedAt"},
			"language": {"en"},
			"pageSize": {fmt.Sprintf("%d", maxItems)},
		},
		Headers: map[string]string{"X-Api-Key": c.apiKey},
	})
	if err != nil {
		return nil, models.NewProviderError(models.ErrKindNetwork, "newsapi.search", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, models.NewProviderError(models.ErrKindRateLimited, "newsapi.search",
			fmt.Errorf("status 429: %s", body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, models.NewProviderError(models.ErrKindNetwork, "newsapi.search",
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, models.NewProviderError(models.ErrKindNetwork, "newsapi.search", fmt.Errorf("decode: %w", err))
	}
	if ar.Status != "ok" {
		return nil, models.NewProviderError(models.ErrKindNetwork, "newsapi.search",
			fmt.Errorf("api status %q", ar.Status))
	}

	items := make([]models.NewsItem, 0, len(ar.Articles))
	seen := make(map[string]bool)
	for _, a := range ar.Articles {
		fp := fingerprint(a.Title, a.URL)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		items = append(items, models.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// CompanyName derives the query term from an exchange symbol:
// "NSE:RELIANCE-EQ" becomes "RELIANCE".
func CompanyName(symbol string) string {
	name := symbol
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-EQ")
	return name
}

// fingerprint normalizes title and URL for deduplication across outlets that
// syndicate the same headline.
func fingerprint(title, url string) string {
	t := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	return t + "|" + strings.TrimRight(strings.ToLower(url), "/")
}
