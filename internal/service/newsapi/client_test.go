package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"NewsScreener/internal/domain/models"
	"NewsScreener/pkg/cache"
)

const articlesBody = `{"status":"ok","totalResults":3,"articles":[
	{"source":{"name":"Wire A"},"title":"TestCo wins contract","description":"big order","url":"https://a.example/1","publishedAt":"2026-08-28T09:00:00Z"},
	{"source":{"name":"Wire B"},"title":"TestCo Wins Contract","description":"syndicated copy","url":"https://a.example/1/","publishedAt":"2026-08-28T09:05:00Z"},
	{"source":{"name":"Wire C"},"title":"TestCo expands plant","description":"capacity up","url":"https://c.example/2","publishedAt":"2026-08-29T10:00:00Z"}]}`

type countingGuard struct {
	calls   int32
	allowed bool
}

func (g *countingGuard) Allow(context.Context) (bool, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.allowed, nil
}

func testQuery(bypass bool) models.NewsQuery {
	return models.NewsQuery{Symbol: "NSE:TESTCO-EQ", LookbackDays: 5, MaxItems: 5, BypassQuota: bypass}
}

func TestSearchDeduplicatesAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/everything" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "KEY" {
			t.Error("missing api key header")
		}
		q := r.URL.Query().Get("q")
		if q != "TESTCO stock OR TESTCO shares" {
			t.Errorf("query = %q", q)
		}
		w.Write([]byte(articlesBody))
	}))
	defer srv.Close()

	c := New(srv.URL, "KEY", 2*time.Second)
	items, err := c.Search(context.Background(), testQuery(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The syndicated duplicate collapses; newest article first.
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 after dedup", len(items))
	}
	if items[0].Title != "TestCo expands plant" {
		t.Fatalf("not ordered newest first: %q", items[0].Title)
	}
}

func TestSearchCacheHitSkipsQuotaAndNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(articlesBody))
	}))
	defer srv.Close()

	guard := &countingGuard{allowed: true}
	c := New(srv.URL, "KEY", 2*time.Second,
		WithCache(cache.NewMemoryCache(), time.Minute),
		WithQuota(guard),
	)

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), testQuery(false)); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("network hits = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&guard.calls); got != 1 {
		t.Fatalf("quota consumed %d times, want 1", got)
	}
}

func TestSearchQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the API when quota is spent")
	}))
	defer srv.Close()

	c := New(srv.URL, "KEY", 2*time.Second, WithQuota(&countingGuard{allowed: false}))
	_, err := c.Search(context.Background(), testQuery(false))
	if !errors.Is(err, models.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if models.KindOf(err) != models.ErrKindQuotaExhausted {
		t.Fatalf("kind = %s, want QUOTA_EXHAUSTED", models.KindOf(err))
	}
}

func TestSearchBypassQuota(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(articlesBody))
	}))
	defer srv.Close()

	guard := &countingGuard{allowed: false}
	c := New(srv.URL, "KEY", 2*time.Second, WithQuota(guard))

	// A forced lookup skips the guard entirely and still reaches the API.
	items, err := c.Search(context.Background(), testQuery(true))
	if err != nil {
		t.Fatalf("forced search: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("forced search returned no items")
	}
	if got := atomic.LoadInt32(&guard.calls); got != 0 {
		t.Fatalf("guard consulted %d times on a forced search", got)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("network hits = %d, want 1", got)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "KEY", 2*time.Second)
	_, err := c.Search(context.Background(), testQuery(false))
	if models.KindOf(err) != models.ErrKindRateLimited {
		t.Fatalf("kind = %v, want RATE_LIMITED", err)
	}
}

func TestCompanyName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"NSE:RELIANCE-EQ", "RELIANCE"},
		{"NSE:TATAMOTORS-EQ", "TATAMOTORS"},
		{"INFY", "INFY"},
	}
	for _, tt := range tests {
		if got := CompanyName(tt.in); got != tt.want {
			t.Fatalf("CompanyName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
