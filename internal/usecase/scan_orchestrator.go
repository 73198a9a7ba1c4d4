package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	domsvc "NewsScreener/internal/domain/service"
	applogger "NewsScreener/pkg/logger"
)

// QuotaReporter exposes the remaining daily news budget for metrics.
type QuotaReporter interface {
	Remaining(ctx context.Context) (int, error)
}

// Config carries the scan-time settings of the orchestrator.
type Config struct {
	Universe           []string
	LookbackDays       int
	MaxNewsItems       int
	Concurrency        int
	RequestTimeout     time.Duration
	MaxFailureFraction float64
	Thresholds         models.Thresholds
}

// ScanOrchestrator runs the screening pipeline over the configured universe.
// At most one scan runs at a time; triggering while one is in flight returns
// ErrScanAlreadyRunning.
type ScanOrchestrator struct {
	cfg Config

	market    drepo.MarketDataProvider
	news      drepo.NewsProvider
	detector  domsvc.AnomalyDetector
	sentiment domsvc.SentimentClassifier
	resolver  domsvc.SignalResolver
	strategy  domsvc.StrategySelector

	publisher drepo.SignalPublisher
	store     drepo.ScanStore
	metrics   drepo.Metrics
	quota     QuotaReporter
	l         *applogger.Logger
	now       func() time.Time

	mu           sync.Mutex
	status       models.ScanStatus
	runningSince time.Time
	lastResult   *models.ScanResult
	thresholds   models.Thresholds
	wg           sync.WaitGroup
}

type Option func(*ScanOrchestrator)

func WithPublisher(p drepo.SignalPublisher) Option {
	return func(o *ScanOrchestrator) { o.publisher = p }
}

func WithStore(s drepo.ScanStore) Option {
	return func(o *ScanOrchestrator) { o.store = s }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(o *ScanOrchestrator) { o.metrics = m }
}

func WithQuotaReporter(q QuotaReporter) Option {
	return func(o *ScanOrchestrator) { o.quota = q }
}

func WithLogger(l *applogger.Logger) Option {
	return func(o *ScanOrchestrator) { o.l = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *ScanOrchestrator) { o.now = now }
}

// NewScanOrchestrator wires the screening pipeline.
func NewScanOrchestrator(
	cfg Config,
	market drepo.MarketDataProvider,
	news drepo.NewsProvider,
	detector domsvc.AnomalyDetector,
	sentiment domsvc.SentimentClassifier,
	resolver domsvc.SignalResolver,
	strategy domsvc.StrategySelector,
	opts ...Option,
) *ScanOrchestrator {
	o := &ScanOrchestrator{
		cfg:        cfg,
		market:     market,
		news:       news,
		detector:   detector,
		sentiment:  sentiment,
		resolver:   resolver,
		strategy:   strategy,
		status:     models.ScanIdle,
		thresholds: cfg.Thresholds,
		now:        time.Now,
	}
	if o.cfg.Concurrency <= 0 {
		o.cfg.Concurrency = 4
	}
	if o.cfg.RequestTimeout <= 0 {
		o.cfg.RequestTimeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TriggerScan starts an asynchronous scan and returns its ID immediately.
func (o *ScanOrchestrator) TriggerScan(ctx context.Context) (string, error) {
	id, started, err := o.begin()
	if err != nil {
		return "", err
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// The scan outlives the triggering request on purpose.
		o.run(context.Background(), id, started)
	}()
	return id, nil
}

// RunScan executes a scan synchronously. Used by the scheduler.
func (o *ScanOrchestrator) RunScan(ctx context.Context) (*models.ScanResult, error) {
	id, started, err := o.begin()
	if err != nil {
		return nil, err
	}
	o.wg.Add(1)
	defer o.wg.Done()
	return o.run(ctx, id, started), nil
}

// begin transitions IDLE/ERROR -> RUNNING, enforcing single-flight scans.
func (o *ScanOrchestrator) begin() (string, time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == models.ScanRunning {
		return "", time.Time{}, models.ErrScanAlreadyRunning
	}
	started := o.now().UTC()
	o.status = models.ScanRunning
	o.runningSince = started
	return uuid.NewString(), started, nil
}

func (o *ScanOrchestrator) run(ctx context.Context, id string, started time.Time) *models.ScanResult {
	th := o.Thresholds()
	universe := append([]string(nil), o.cfg.Universe...)

	res := &models.ScanResult{
		ScanID:    id,
		StartedAt: started,
		Universe:  universe,
		PerSymbol: make(map[string]*models.Recommendation, len(universe)),
		Errors:    make(map[string]models.ErrorKind),
	}

	type outcome struct {
		rec      *models.Recommendation
		degraded bool
		err      error
	}
	outcomes := make([]outcome, len(universe))

	sem := make(chan struct{}, o.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, sym := range universe {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			rec, degraded, err := o.screenSymbol(ctx, sym, th, false)
			outcomes[i] = outcome{rec: rec, degraded: degraded, err: err}
		}(i, sym)
	}
	wg.Wait()

	for i, sym := range universe {
		oc := outcomes[i]
		switch {
		case oc.err != nil:
			kind := models.KindOf(oc.err)
			res.Errors[sym] = kind
			o.recordSymbol("error")
			o.recordError(string(kind))
			if o.l != nil {
				o.l.Warn("symbol scan failed",
					applogger.String("symbol", sym),
					applogger.String("kind", string(kind)),
					applogger.Error(oc.err),
				)
			}
		default:
			res.PerSymbol[sym] = oc.rec
			if oc.degraded {
				res.Degraded = append(res.Degraded, sym)
				o.recordSymbol("degraded")
			} else {
				o.recordSymbol("ok")
			}
			o.recordSignal(string(oc.rec.Signal.Direction))
		}
	}
	res.FinishedAt = o.now().UTC()

	status := models.ScanIdle
	if len(universe) > 0 && float64(len(res.Errors)) > o.cfg.MaxFailureFraction*float64(len(universe)) {
		status = models.ScanError
	}

	o.finish(ctx, res, status)
	return res
}

func (o *ScanOrchestrator) finish(ctx context.Context, res *models.ScanResult, status models.ScanStatus) {
	if o.publisher != nil {
		if actionable := res.Opportunities(); len(actionable) > 0 {
			if err := o.publisher.PublishBatch(ctx, actionable); err != nil && o.l != nil {
				o.l.Error("signal publish failed", applogger.Error(err))
			}
		}
	}
	if o.store != nil {
		if err := o.store.StoreScan(ctx, res); err != nil && o.l != nil {
			o.l.Error("scan store failed", applogger.String("scan_id", res.ScanID), applogger.Error(err))
		}
	}
	if o.metrics != nil {
		o.metrics.RecordLatency("scan", res.FinishedAt.Sub(res.StartedAt).Seconds())
		if o.quota != nil {
			if left, err := o.quota.Remaining(ctx); err == nil {
				o.metrics.SetQuotaRemaining(float64(left))
			}
		}
	}

	o.mu.Lock()
	o.status = status
	o.runningSince = time.Time{}
	o.lastResult = res
	o.mu.Unlock()

	if o.l != nil {
		o.l.Info("scan finished",
			applogger.String("scan_id", res.ScanID),
			applogger.Int("screened", len(res.PerSymbol)),
			applogger.Int("errors", len(res.Errors)),
			applogger.Int("degraded", len(res.Degraded)),
			applogger.String("status", string(status)),
		)
	}
}

// screenSymbol runs the full pipeline for one symbol. Symbols priced outside
// the screening band short-circuit to NO_ACTION without spending news quota;
// quota exhaustion degrades to an anomaly-only assessment.
func (o *ScanOrchestrator) screenSymbol(ctx context.Context, symbol string, th models.Thresholds, bypassQuota bool) (*models.Recommendation, bool, error) {
	mctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	snap, err := o.market.Snapshot(mctx, symbol, o.cfg.LookbackDays)
	cancel()
	if err != nil {
		return nil, false, err
	}

	anom, err := o.detector.Classify(snap, th)
	if err != nil {
		return nil, false, err
	}

	if snap.LastPrice < th.MinPrice || snap.LastPrice > th.MaxPrice {
		return o.outOfBand(symbol, snap, anom, th), false, nil
	}

	degraded := false
	var sent models.SentimentResult
	nctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	items, nerr := o.news.Search(nctx, models.NewsQuery{
		Symbol:       symbol,
		LookbackDays: o.cfg.LookbackDays,
		MaxItems:     o.cfg.MaxNewsItems,
		BypassQuota:  bypassQuota,
	})
	cancel()
	switch {
	case nerr == nil:
		sent = o.sentiment.Classify(items, symbol)
	case errors.Is(nerr, models.ErrQuotaExhausted):
		degraded = true
		sent = models.SentimentResult{Label: models.DirectionNeutral}
	default:
		return nil, false, nerr
	}

	sig := o.resolver.Resolve(anom, sent, th)
	sig.Symbol = symbol
	rec := o.strategy.Select(sig, anom, sent, th)
	rec.LastPrice = snap.LastPrice
	if degraded {
		rec.Rationale = append(rec.Rationale, "degraded: news lookup skipped, daily quota exhausted")
	}
	return rec, degraded, nil
}

// outOfBand builds the neutral recommendation for symbols priced outside
// [MinPrice, MaxPrice].
func (o *ScanOrchestrator) outOfBand(symbol string, snap *models.MarketSnapshot, anom models.AnomalyClassification, th models.Thresholds) *models.Recommendation {
	return &models.Recommendation{
		Signal: models.Signal{
			Symbol:       symbol,
			Direction:    models.DirectionNeutral,
			StrengthTier: models.TierWeak,
			GeneratedAt:  o.now().UTC(),
		},
		Action: models.ActionNone,
		Rationale: []string{
			fmt.Sprintf("price %.2f outside screening band %.0f-%.0f", snap.LastPrice, th.MinPrice, th.MaxPrice),
		},
		LastPrice:          snap.LastPrice,
		PriceChangePercent: anom.PriceChangePercent,
		VolumeSurgeRatio:   anom.VolumeSurgeRatio,
	}
}

// Analyze screens a single symbol on demand without touching scan state.
// Symbols outside the configured universe are rejected; force lets the news
// lookup spend outside the daily quota.
func (o *ScanOrchestrator) Analyze(ctx context.Context, symbol string, force bool) (*models.Recommendation, error) {
	if !o.inUniverse(symbol) {
		return nil, models.ErrUnknownSymbol
	}
	rec, _, err := o.screenSymbol(ctx, symbol, o.Thresholds(), force)
	return rec, err
}

func (o *ScanOrchestrator) inUniverse(symbol string) bool {
	for _, s := range o.cfg.Universe {
		if s == symbol {
			return true
		}
	}
	return false
}

// Status returns a point-in-time snapshot of the orchestrator state.
func (o *ScanOrchestrator) Status() models.ScanState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return models.ScanState{
		Status:       o.status,
		RunningSince: o.runningSince,
		LastResult:   o.lastResult,
	}
}

// Results returns the last completed scan, or nil before the first one.
func (o *ScanOrchestrator) Results() *models.ScanResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastResult
}

// Thresholds returns the currently active screening thresholds.
func (o *ScanOrchestrator) Thresholds() models.Thresholds {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.thresholds
}

// UpdateThresholds swaps the screening thresholds. Running scans keep the
// snapshot they started with; the next scan picks up the new values.
func (o *ScanOrchestrator) UpdateThresholds(th models.Thresholds) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.thresholds = th
}

// Shutdown waits for an in-flight scan to drain, bounded by ctx.
func (o *ScanOrchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *ScanOrchestrator) recordSymbol(result string) {
	if o.metrics != nil {
		o.metrics.RecordSymbolScanned(result)
	}
}

func (o *ScanOrchestrator) recordSignal(direction string) {
	if o.metrics != nil {
		o.metrics.RecordSignal(direction)
	}
}

func (o *ScanOrchestrator) recordError(kind string) {
	if o.metrics != nil {
		o.metrics.RecordError(kind)
	}
}
