package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	"NewsScreener/internal/services/screener"
)

type fakeMarket struct {
	snaps map[string]*models.MarketSnapshot
	errs  map[string]error
	gate  chan struct{} // when set, Snapshot blocks until closed
	calls int32
}

func (f *fakeMarket) Snapshot(ctx context.Context, symbol string, lookbackDays int) (*models.MarketSnapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	snap, ok := f.snaps[symbol]
	if !ok {
		return nil, models.NewProviderError(models.ErrKindNotFound, "fake.market", errors.New("no snapshot"))
	}
	return snap, nil
}

type fakeNews struct {
	items    map[string][]models.NewsItem
	errs     map[string]error
	calls    int32
	bypassed int32
}

func (f *fakeNews) Search(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, error) {
	atomic.AddInt32(&f.calls, 1)
	if q.BypassQuota {
		atomic.AddInt32(&f.bypassed, 1)
	}
	if err, ok := f.errs[q.Symbol]; ok {
		return nil, err
	}
	return f.items[q.Symbol], nil
}

type capturingPublisher struct {
	batch []*models.Recommendation
}

func (p *capturingPublisher) Publish(ctx context.Context, rec *models.Recommendation) error {
	p.batch = append(p.batch, rec)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, recs []*models.Recommendation) error {
	p.batch = append(p.batch, recs...)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type capturingStore struct {
	stored []*models.ScanResult
}

func (s *capturingStore) Init(ctx context.Context) error                        { return nil }
func (s *capturingStore) StoreScan(ctx context.Context, r *models.ScanResult) error {
	s.stored = append(s.stored, r)
	return nil
}
func (s *capturingStore) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*drepo.StoredSignal, error) {
	return nil, nil
}
func (s *capturingStore) Health(ctx context.Context) error { return nil }
func (s *capturingStore) Close() error                     { return nil }

func snap(symbol string, price, pct, curVol, avgVol float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:           symbol,
		LastPrice:        price,
		DayChangePercent: pct,
		CurrentVolume:    curVol,
		AverageVolume:    avgVol,
		Timestamp:        time.Now(),
	}
}

func bullishNews() []models.NewsItem {
	return []models.NewsItem{
		{Title: "Company wins major defence contract", PublishedAt: time.Now()},
		{Title: "Record profit and strong revenue growth", PublishedAt: time.Now()},
	}
}

func bearishNews() []models.NewsItem {
	return []models.NewsItem{
		{Title: "Company issues loss warning amid fraud investigation", PublishedAt: time.Now()},
	}
}

func newOrchestrator(cfg Config, market drepo.MarketDataProvider, news drepo.NewsProvider, opts ...Option) *ScanOrchestrator {
	return NewScanOrchestrator(cfg, market, news,
		screener.NewAnomalyDetector(),
		screener.NewSentimentClassifier(),
		screener.NewSignalResolver(),
		screener.NewStrategySelector(),
		opts...,
	)
}

func baseConfig(universe ...string) Config {
	return Config{
		Universe:           universe,
		LookbackDays:       5,
		MaxNewsItems:       5,
		Concurrency:        2,
		RequestTimeout:     time.Second,
		MaxFailureFraction: 0.5,
		Thresholds: models.Thresholds{
			VolumeSurgeThreshold: 2.0,
			PriceChangeMin:       3.0,
			PriceChangeMax:       15.0,
			MinPrice:             20,
			MaxPrice:             5000,
			MinHoldDays:          5,
			MaxHoldDays:          30,
		},
	}
}

func TestScanPartitionsUniverse(t *testing.T) {
	market := &fakeMarket{
		snaps: map[string]*models.MarketSnapshot{
			"NSE:AAA-EQ": snap("NSE:AAA-EQ", 100, 5, 600000, 200000),
			"NSE:BBB-EQ": snap("NSE:BBB-EQ", 200, 0.5, 100000, 100000),
			"NSE:DDD-EQ": snap("NSE:DDD-EQ", 50, -4, 300000, 100000),
		},
		errs: map[string]error{
			"NSE:CCC-EQ": models.NewProviderError(models.ErrKindNetwork, "fake.market", errors.New("boom")),
		},
	}
	news := &fakeNews{items: map[string][]models.NewsItem{
		"NSE:AAA-EQ": bullishNews(),
		"NSE:DDD-EQ": bearishNews(),
	}}

	o := newOrchestrator(baseConfig("NSE:AAA-EQ", "NSE:BBB-EQ", "NSE:CCC-EQ", "NSE:DDD-EQ"), market, news)
	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	// Every universe symbol appears in exactly one of PerSymbol or Errors.
	for _, sym := range res.Universe {
		_, screened := res.PerSymbol[sym]
		_, failed := res.Errors[sym]
		if screened == failed {
			t.Fatalf("symbol %s: screened=%v failed=%v", sym, screened, failed)
		}
	}
	if len(res.PerSymbol)+len(res.Errors) != len(res.Universe) {
		t.Fatalf("partition sizes %d+%d != %d", len(res.PerSymbol), len(res.Errors), len(res.Universe))
	}
	if res.Errors["NSE:CCC-EQ"] != models.ErrKindNetwork {
		t.Fatalf("error kind = %s, want NETWORK", res.Errors["NSE:CCC-EQ"])
	}
}

func TestScanScenarios(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		// Bullish: 3x volume, +5% move, positive news.
		"NSE:BULL-EQ": snap("NSE:BULL-EQ", 100, 5, 600000, 200000),
		// Bearish: surge, -4.5% move, negative news.
		"NSE:BEAR-EQ": snap("NSE:BEAR-EQ", 80, -4.5, 500000, 200000),
		// Quiet: nothing anomalous.
		"NSE:FLAT-EQ": snap("NSE:FLAT-EQ", 150, 0.3, 110000, 100000),
	}}
	news := &fakeNews{items: map[string][]models.NewsItem{
		"NSE:BULL-EQ": bullishNews(),
		"NSE:BEAR-EQ": bearishNews(),
	}}

	o := newOrchestrator(baseConfig("NSE:BULL-EQ", "NSE:BEAR-EQ", "NSE:FLAT-EQ"), market, news)
	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	bull := res.PerSymbol["NSE:BULL-EQ"]
	if bull.Action != models.ActionBuyDelivery {
		t.Fatalf("bull action = %s, want BUY_DELIVERY", bull.Action)
	}
	if bull.Signal.Direction != models.DirectionBullish {
		t.Fatalf("bull direction = %s", bull.Signal.Direction)
	}
	if bull.HoldWindowDays < 5 || bull.HoldWindowDays > 30 {
		t.Fatalf("bull hold window %d out of bounds", bull.HoldWindowDays)
	}
	if bull.LastPrice != 100 {
		t.Fatalf("bull last price %v not carried", bull.LastPrice)
	}

	bear := res.PerSymbol["NSE:BEAR-EQ"]
	if bear.Action != models.ActionSellIntraday {
		t.Fatalf("bear action = %s, want SELL_INTRADAY", bear.Action)
	}
	if bear.HoldWindowDays != 0 {
		t.Fatalf("bear hold window = %d, want 0", bear.HoldWindowDays)
	}

	flat := res.PerSymbol["NSE:FLAT-EQ"]
	if flat.Action != models.ActionNone {
		t.Fatalf("flat action = %s, want NO_ACTION", flat.Action)
	}
	if flat.Signal.StrengthScore >= 40 {
		t.Fatalf("flat score = %v, want < 40", flat.Signal.StrengthScore)
	}
}

func TestScanSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	market := &fakeMarket{
		snaps: map[string]*models.MarketSnapshot{"NSE:AAA-EQ": snap("NSE:AAA-EQ", 100, 1, 100000, 100000)},
		gate:  gate,
	}
	o := newOrchestrator(baseConfig("NSE:AAA-EQ"), market, &fakeNews{})

	id, err := o.TriggerScan(context.Background())
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if id == "" {
		t.Fatal("expected scan id")
	}
	if st := o.Status(); st.Status != models.ScanRunning {
		t.Fatalf("status = %s, want RUNNING", st.Status)
	}

	if _, err := o.TriggerScan(context.Background()); !errors.Is(err, models.ErrScanAlreadyRunning) {
		t.Fatalf("second trigger = %v, want ErrScanAlreadyRunning", err)
	}
	if _, err := o.RunScan(context.Background()); !errors.Is(err, models.ErrScanAlreadyRunning) {
		t.Fatalf("sync run while busy = %v, want ErrScanAlreadyRunning", err)
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if st := o.Status(); st.Status != models.ScanIdle {
		t.Fatalf("status after drain = %s, want IDLE", st.Status)
	}
	if o.Results() == nil || o.Results().ScanID != id {
		t.Fatal("last result not recorded")
	}
}

func TestScanQuotaExhaustionDegrades(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:AAA-EQ": snap("NSE:AAA-EQ", 100, 5, 600000, 200000),
	}}
	news := &fakeNews{errs: map[string]error{
		"NSE:AAA-EQ": models.NewProviderError(models.ErrKindQuotaExhausted, "fake.news", models.ErrQuotaExhausted),
	}}

	o := newOrchestrator(baseConfig("NSE:AAA-EQ"), market, news)
	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	rec, ok := res.PerSymbol["NSE:AAA-EQ"]
	if !ok {
		t.Fatal("degraded symbol must stay in PerSymbol")
	}
	if len(res.Errors) != 0 {
		t.Fatalf("degraded symbol must not appear in Errors: %v", res.Errors)
	}
	if len(res.Degraded) != 1 || res.Degraded[0] != "NSE:AAA-EQ" {
		t.Fatalf("degraded list = %v", res.Degraded)
	}
	// Anomaly-only: +5% significant move still yields a bullish call.
	if rec.Signal.Direction != models.DirectionBullish {
		t.Fatalf("anomaly-only direction = %s, want BULLISH", rec.Signal.Direction)
	}
	found := false
	for _, line := range rec.Rationale {
		if line == "degraded: news lookup skipped, daily quota exhausted" {
			found = true
		}
	}
	if !found {
		t.Fatalf("degradation note missing from rationale: %v", rec.Rationale)
	}
}

func TestScanPriceBandShortCircuitSkipsNews(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:PENNY-EQ": snap("NSE:PENNY-EQ", 10, 8, 900000, 100000),
	}}
	news := &fakeNews{}

	o := newOrchestrator(baseConfig("NSE:PENNY-EQ"), market, news)
	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	rec := res.PerSymbol["NSE:PENNY-EQ"]
	if rec.Action != models.ActionNone {
		t.Fatalf("action = %s, want NO_ACTION outside price band", rec.Action)
	}
	if got := atomic.LoadInt32(&news.calls); got != 0 {
		t.Fatalf("news provider called %d times for out-of-band symbol", got)
	}
}

func TestScanErrorStatusOnMassFailure(t *testing.T) {
	market := &fakeMarket{errs: map[string]error{
		"NSE:AAA-EQ": errors.New("down"),
		"NSE:BBB-EQ": errors.New("down"),
	}}

	o := newOrchestrator(baseConfig("NSE:AAA-EQ", "NSE:BBB-EQ"), market, &fakeNews{})
	if _, err := o.RunScan(context.Background()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if st := o.Status(); st.Status != models.ScanError {
		t.Fatalf("status = %s, want ERROR when every symbol fails", st.Status)
	}
}

func TestScanPublishesActionableAndStores(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:BULL-EQ": snap("NSE:BULL-EQ", 100, 5, 600000, 200000),
		"NSE:FLAT-EQ": snap("NSE:FLAT-EQ", 150, 0.3, 110000, 100000),
	}}
	news := &fakeNews{items: map[string][]models.NewsItem{"NSE:BULL-EQ": bullishNews()}}

	pub := &capturingPublisher{}
	store := &capturingStore{}
	o := newOrchestrator(baseConfig("NSE:BULL-EQ", "NSE:FLAT-EQ"), market, news,
		WithPublisher(pub), WithStore(store))

	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(pub.batch) != 1 || pub.batch[0].Signal.Symbol != "NSE:BULL-EQ" {
		t.Fatalf("published batch = %+v, want only the actionable signal", pub.batch)
	}
	if len(store.stored) != 1 || store.stored[0].ScanID != res.ScanID {
		t.Fatal("scan result not stored")
	}
}

func TestAnalyzeUnknownSymbol(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:OTHER-EQ": snap("NSE:OTHER-EQ", 100, 5, 600000, 200000),
	}}
	o := newOrchestrator(baseConfig("NSE:AAA-EQ"), market, &fakeNews{})

	// Unknown symbols are rejected regardless of force.
	if _, err := o.Analyze(context.Background(), "NSE:OTHER-EQ", false); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("err = %v, want ErrUnknownSymbol", err)
	}
	if _, err := o.Analyze(context.Background(), "NSE:OTHER-EQ", true); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("forced err = %v, want ErrUnknownSymbol", err)
	}
}

func TestAnalyzeForceBypassesQuota(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		"NSE:AAA-EQ": snap("NSE:AAA-EQ", 100, 5, 600000, 200000),
	}}
	news := &fakeNews{items: map[string][]models.NewsItem{"NSE:AAA-EQ": bullishNews()}}
	o := newOrchestrator(baseConfig("NSE:AAA-EQ"), market, news)

	if _, err := o.Analyze(context.Background(), "NSE:AAA-EQ", false); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := atomic.LoadInt32(&news.bypassed); got != 0 {
		t.Fatalf("unforced analyze bypassed quota %d times", got)
	}

	rec, err := o.Analyze(context.Background(), "NSE:AAA-EQ", true)
	if err != nil {
		t.Fatalf("forced analyze: %v", err)
	}
	if rec.Signal.Symbol != "NSE:AAA-EQ" {
		t.Fatalf("symbol = %s", rec.Signal.Symbol)
	}
	if got := atomic.LoadInt32(&news.bypassed); got != 1 {
		t.Fatalf("forced analyze bypass count = %d, want 1", got)
	}
}

func TestUpdateThresholdsAppliesToNextScan(t *testing.T) {
	market := &fakeMarket{snaps: map[string]*models.MarketSnapshot{
		// 1.5x volume: below the default 2.0 threshold, above a lowered 1.2.
		"NSE:AAA-EQ": snap("NSE:AAA-EQ", 100, 5, 150000, 100000),
	}}
	news := &fakeNews{items: map[string][]models.NewsItem{"NSE:AAA-EQ": bullishNews()}}
	o := newOrchestrator(baseConfig("NSE:AAA-EQ"), market, news)

	res, err := o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	first := res.PerSymbol["NSE:AAA-EQ"].Signal.StrengthScore

	th := o.Thresholds()
	th.VolumeSurgeThreshold = 1.2
	o.UpdateThresholds(th)

	res, err = o.RunScan(context.Background())
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	second := res.PerSymbol["NSE:AAA-EQ"].Signal.StrengthScore
	if second <= first {
		t.Fatalf("lowered surge threshold should raise the score: %v -> %v", first, second)
	}
}
