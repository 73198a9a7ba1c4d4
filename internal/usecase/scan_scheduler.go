package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"NewsScreener/internal/domain/models"
	applogger "NewsScreener/pkg/logger"
)

// MarketHours is the trading window predicate. Pure and clock-free so the
// schedule decision is testable in isolation.
type MarketHours struct {
	openMinute  int // minutes since midnight, inclusive
	closeMinute int // minutes since midnight, inclusive
	loc         *time.Location
}

// NewMarketHours parses "HH:MM" bounds in the given location.
func NewMarketHours(open, close string, loc *time.Location) (MarketHours, error) {
	o, err := parseClock(open)
	if err != nil {
		return MarketHours{}, fmt.Errorf("market open: %w", err)
	}
	c, err := parseClock(close)
	if err != nil {
		return MarketHours{}, fmt.Errorf("market close: %w", err)
	}
	if o >= c {
		return MarketHours{}, fmt.Errorf("market open %s not before close %s", open, close)
	}
	return MarketHours{openMinute: o, closeMinute: c, loc: loc}, nil
}

// Contains reports whether t falls inside the trading window: a weekday
// between open and close, both inclusive, in the exchange timezone.
func (h MarketHours) Contains(t time.Time) bool {
	local := t.In(h.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= h.openMinute && minute <= h.closeMinute
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed hour %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute %q", s)
	}
	return h*60 + m, nil
}

// ScanRunner is the scheduler's view of the orchestrator.
type ScanRunner interface {
	RunScan(ctx context.Context) (*models.ScanResult, error)
}

// ScanScheduler periodically runs scans while the market is open.
type ScanScheduler struct {
	runner   ScanRunner
	hours    MarketHours
	interval time.Duration
	now      func() time.Time
	l        *applogger.Logger
}

type SchedulerOption func(*ScanScheduler)

func SchedulerWithClock(now func() time.Time) SchedulerOption {
	return func(s *ScanScheduler) { s.now = now }
}

func SchedulerWithLogger(l *applogger.Logger) SchedulerOption {
	return func(s *ScanScheduler) { s.l = l }
}

// NewScanScheduler builds the interval scheduler.
func NewScanScheduler(runner ScanRunner, hours MarketHours, interval time.Duration, opts ...SchedulerOption) *ScanScheduler {
	s := &ScanScheduler{
		runner:   runner,
		hours:    hours,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled, firing a scan every interval while the
// market is open. A scan already in flight is skipped, not queued.
func (s *ScanScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ScanScheduler) tick(ctx context.Context) {
	if !s.hours.Contains(s.now()) {
		if s.l != nil {
			s.l.Debug("scheduler tick outside market hours")
		}
		return
	}
	// A scan runs to completion once started; cancelling the scheduler only
	// stops future ticks. The drain happens in the orchestrator's Shutdown.
	res, err := s.runner.RunScan(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, models.ErrScanAlreadyRunning):
		if s.l != nil {
			s.l.Debug("scheduled scan skipped, previous still running")
		}
	case err != nil:
		if s.l != nil {
			s.l.Error("scheduled scan failed", applogger.Error(err))
		}
	default:
		if s.l != nil {
			s.l.Info("scheduled scan complete",
				applogger.String("scan_id", res.ScanID),
				applogger.Int("screened", len(res.PerSymbol)),
			)
		}
	}
}
