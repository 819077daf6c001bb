package model

import "errors"

var (
	// ErrSourceUnavailable marks a data source (adapter RPC, price feed)
	// that could not be reached. Callers recover by skipping the source
	// and flagging incompleteness.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidStrategyConfig rejects strategy input before any
	// contract-call encoding is attempted.
	ErrInvalidStrategyConfig = errors.New("invalid strategy config")

	// ErrMissingReferenceData marks a position whose pool or token is
	// absent from the merged maps; the position is excluded from
	// valuation, not treated as zero-valued.
	ErrMissingReferenceData = errors.New("missing reference data")
)
