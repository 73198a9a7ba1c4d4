package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"NewsScreener/internal/domain/models"
	"NewsScreener/internal/services/screener"
	"NewsScreener/internal/usecase"
	applogger "NewsScreener/pkg/logger"
)

type stubMarket struct {
	snaps map[string]*models.MarketSnapshot
	gate  chan struct{}
}

func (m *stubMarket) Snapshot(ctx context.Context, symbol string, lookbackDays int) (*models.MarketSnapshot, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if snap, ok := m.snaps[symbol]; ok {
		return snap, nil
	}
	return nil, models.NewProviderError(models.ErrKindNotFound, "stub.market", models.ErrUnknownSymbol)
}

type stubNews struct{}

func (stubNews) Search(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, error) {
	return []models.NewsItem{{Title: q.Symbol + " wins major contract", PublishedAt: time.Now()}}, nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestHandler(t *testing.T, market *stubMarket) (*echo.Echo, *ScreenerHandler, *usecase.ScanOrchestrator) {
	t.Helper()
	orch := usecase.NewScanOrchestrator(
		usecase.Config{
			Universe:       []string{"NSE:AAA-EQ"},
			LookbackDays:   5,
			MaxNewsItems:   5,
			Concurrency:    2,
			RequestTimeout: time.Second,
			Thresholds: models.Thresholds{
				VolumeSurgeThreshold: 2.0,
				PriceChangeMin:       3.0,
				PriceChangeMax:       15.0,
				MinPrice:             20,
				MaxPrice:             5000,
				MinHoldDays:          5,
				MaxHoldDays:          30,
			},
		},
		market, stubNews{},
		screener.NewAnomalyDetector(),
		screener.NewSentimentClassifier(),
		screener.NewSignalResolver(),
		screener.NewStrategySelector(),
	)
	h := NewScreenerHandler(testLogger(t), orch)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h, orch
}

func doRequest(e *echo.Echo, method, target, body string) (int, map[string]interface{}) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec.Code, envelope
}

func envelopeStatus(env map[string]interface{}) int {
	if s, ok := env["status"].(float64); ok {
		return int(s)
	}
	return 0
}

func defaultMarket() *stubMarket {
	return &stubMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:AAA-EQ": {
			Symbol:           "NSE:AAA-EQ",
			LastPrice:        100,
			DayChangePercent: 5,
			CurrentVolume:    600000,
			AverageVolume:    200000,
			Timestamp:        time.Now(),
		},
	}}
}

func TestScanEndpointAcceptsAndConflicts(t *testing.T) {
	gate := make(chan struct{})
	market := defaultMarket()
	market.gate = gate
	e, _, orch := newTestHandler(t, market)

	_, env := doRequest(e, http.MethodPost, "/api/screener/scan", "")
	if envelopeStatus(env) != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", envelopeStatus(env))
	}
	data := env["data"].(map[string]interface{})
	if data["scan_id"] == "" {
		t.Fatal("missing scan_id")
	}

	_, env = doRequest(e, http.MethodPost, "/api/screener/scan", "")
	if envelopeStatus(env) != http.StatusConflict {
		t.Fatalf("second scan status = %d, want 409", envelopeStatus(env))
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := orch.Shutdown(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestResultsBeforeFirstScan(t *testing.T) {
	e, _, _ := newTestHandler(t, defaultMarket())

	_, env := doRequest(e, http.MethodGet, "/api/screener/results", "")
	if envelopeStatus(env) != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before first scan", envelopeStatus(env))
	}
}

func TestStatusEndpoint(t *testing.T) {
	e, _, _ := newTestHandler(t, defaultMarket())

	_, env := doRequest(e, http.MethodGet, "/api/screener/status", "")
	if envelopeStatus(env) != http.StatusOK {
		t.Fatalf("status = %d, want 200", envelopeStatus(env))
	}
	data := env["data"].(map[string]interface{})
	if data["status"] != string(models.ScanIdle) {
		t.Fatalf("scan status = %v, want IDLE", data["status"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	e, _, _ := newTestHandler(t, defaultMarket())

	_, env := doRequest(e, http.MethodGet, "/api/screener/analyze/NSE:AAA-EQ", "")
	if envelopeStatus(env) != http.StatusOK {
		t.Fatalf("status = %d, want 200", envelopeStatus(env))
	}
	data := env["data"].(map[string]interface{})
	if data["action"] != string(models.ActionBuyDelivery) {
		t.Fatalf("action = %v, want BUY_DELIVERY", data["action"])
	}

	_, env = doRequest(e, http.MethodGet, "/api/screener/analyze/NSE:NOPE-EQ", "")
	if envelopeStatus(env) != http.StatusNotFound {
		t.Fatalf("unknown symbol status = %d, want 404", envelopeStatus(env))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	e, _, orch := newTestHandler(t, defaultMarket())

	_, env := doRequest(e, http.MethodGet, "/api/screener/settings", "")
	if envelopeStatus(env) != http.StatusOK {
		t.Fatalf("get settings status = %d", envelopeStatus(env))
	}

	body := `{"volume_surge_threshold":1.5,"price_change_min":2,"price_change_max":10,"min_price":50,"max_price":4000,"min_hold_days":3,"max_hold_days":20}`
	_, env = doRequest(e, http.MethodPost, "/api/screener/settings", body)
	if envelopeStatus(env) != http.StatusOK {
		t.Fatalf("post settings status = %d: %v", envelopeStatus(env), env)
	}
	th := orch.Thresholds()
	if th.VolumeSurgeThreshold != 1.5 || th.MaxHoldDays != 20 {
		t.Fatalf("thresholds not applied: %+v", th)
	}
}

func TestSettingsValidation(t *testing.T) {
	e, _, orch := newTestHandler(t, defaultMarket())
	before := orch.Thresholds()

	// max price below min price must be rejected.
	body := `{"volume_surge_threshold":1.5,"price_change_min":2,"price_change_max":10,"min_price":500,"max_price":100,"min_hold_days":3,"max_hold_days":20}`
	_, env := doRequest(e, http.MethodPost, "/api/screener/settings", body)
	if envelopeStatus(env) != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", envelopeStatus(env))
	}
	if orch.Thresholds() != before {
		t.Fatal("invalid settings must not be applied")
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	e, _, _ := newTestHandler(t, defaultMarket())

	_, env := doRequest(e, http.MethodGet, "/api/screener/history?symbol=NSE:AAA-EQ", "")
	if envelopeStatus(env) != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 without a store", envelopeStatus(env))
	}
}
