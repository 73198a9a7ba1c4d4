package models

import (
	"errors"
	"fmt"
)

var (
	// ErrScanAlreadyRunning is returned when a scan trigger races a running scan.
	ErrScanAlreadyRunning = errors.New("scan already in progress")

	// ErrUnknownSymbol is returned for on-demand analysis of a symbol outside
	// the configured universe.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidSnapshot marks a snapshot missing required price fields.
	ErrInvalidSnapshot = errors.New("invalid market snapshot")

	// ErrQuotaExhausted marks the daily news request budget as spent.
	ErrQuotaExhausted = errors.New("news quota exhausted")
)

// ProviderError wraps a failure from an external data provider with its kind.
type ProviderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a classified provider error.
func NewProviderError(kind ErrorKind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

// KindOf maps an error to the ErrorKind recorded in ScanResult.Errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidSnapshot):
		return ErrKindInvalidSnapshot
	case errors.Is(err, ErrQuotaExhausted):
		return ErrKindQuotaExhausted
	default:
		return ErrKindNetwork
	}
}
