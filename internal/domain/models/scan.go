package models

import (
	"sort"
	"time"
)

// ScanStatus is the lifecycle state of the orchestrator.
type ScanStatus string

const (
	ScanIdle    ScanStatus = "IDLE"
	ScanRunning ScanStatus = "RUNNING"
	ScanError   ScanStatus = "ERROR"
)

// ErrorKind classifies a per-symbol failure inside a scan.
type ErrorKind string

const (
	ErrKindNetwork         ErrorKind = "NETWORK"
	ErrKindRateLimited     ErrorKind = "RATE_LIMITED"
	ErrKindNotFound        ErrorKind = "NOT_FOUND"
	ErrKindInvalidSnapshot ErrorKind = "INVALID_SNAPSHOT"
	ErrKindQuotaExhausted  ErrorKind = "QUOTA_EXHAUSTED"
)

// ScanResult is the aggregate outcome of one scan pass over the universe.
// Invariant: every universe symbol appears in exactly one of PerSymbol or
// Errors. Symbols screened without news after quota exhaustion keep their
// anomaly-only recommendation in PerSymbol and are listed in Degraded.
type ScanResult struct {
	ScanID     string                     `json:"scan_id"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	Universe   []string                   `json:"universe"`
	PerSymbol  map[string]*Recommendation `json:"per_symbol"`
	Errors     map[string]ErrorKind       `json:"errors"`
	Degraded   []string                   `json:"degraded,omitempty"`
}

// Ranked returns recommendations ordered by strength score descending,
// ties broken by universe order for determinism.
func (r *ScanResult) Ranked() []*Recommendation {
	out := make([]*Recommendation, 0, len(r.PerSymbol))
	for _, sym := range r.Universe {
		if rec, ok := r.PerSymbol[sym]; ok {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Signal.StrengthScore > out[j].Signal.StrengthScore
	})
	return out
}

// Opportunities returns the ranked recommendations with an actionable signal.
func (r *ScanResult) Opportunities() []*Recommendation {
	ranked := r.Ranked()
	out := ranked[:0:0]
	for _, rec := range ranked {
		if rec.Action != ActionNone {
			out = append(out, rec)
		}
	}
	return out
}

// ScanState is a point-in-time snapshot of the orchestrator state, safe to
// hand out to HTTP consumers.
type ScanState struct {
	Status       ScanStatus  `json:"status"`
	RunningSince time.Time   `json:"running_since,omitempty"`
	LastResult   *ScanResult `json:"last_result,omitempty"`
}
