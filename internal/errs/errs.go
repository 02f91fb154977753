// Package errs defines the error taxonomy shared across the engine:
// typed errors for each failure kind, and the FailedRow record a
// row-level failure is turned into before being handed to a
// failed-row sink.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the error taxonomy's fixed set of categories.
type Kind string

const (
	KindConfigError Kind = "ConfigError"
	KindConnectionLost Kind = "ConnectionLost"
	KindPermanentWriteError Kind = "PermanentWriteError"
	KindTransientTransformError Kind = "TransientTransformError"
	KindPermanentTransformError Kind = "PermanentTransformError"
	KindValidationFinding Kind = "ValidationFinding"
	KindCircuitOpen Kind = "CircuitOpen"
	KindInternalError Kind = "InternalError"
)

// EngineError wraps an underlying cause with the Kind that determines
// how the actor runtime and retry policy treat it.
type EngineError struct {
	Kind Kind
	Cause error
}

func (e *EngineError) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *EngineError) Unwrap() error { return e.Cause }

func New(kind Kind, msg string) *EngineError {
	return &EngineError{Kind: kind, Cause: errors.New(msg)}
}

func Wrap(kind Kind, cause error, msg string) *EngineError {
	return &EngineError{Kind: kind, Cause: errors.Wrap(cause, msg)}
}

// KindOf extracts the Kind carried by err, if any EngineError is in
// its chain.
func KindOf(err error) (Kind, bool) {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// FailedRow is the durable record produced when a row cannot be
// transformed or written; it is handed to the configured failed-row
// sink (table or JSON Lines file) rather than aborting the run.
type FailedRow struct {
	RunID string
	ItemID string
	BatchID string
	RowIndex int
	Stage string // "transform" | "write" | "validate"
	Kind Kind
	Message string
	IsRetryable bool
	Attempt int
	RawRow map[string]any
}

// NewFailedRow builds a FailedRow from err, inferring IsRetryable from
// err's Kind when it is an EngineError (transient kinds are retryable,
// everything else is not).
func NewFailedRow(runID, itemID, batchID string, rowIndex int, stage string, err error, raw map[string]any) FailedRow {
	kind, _ := KindOf(err)
	return FailedRow{
		RunID: runID,
		ItemID: itemID,
		BatchID: batchID,
		RowIndex: rowIndex,
		Stage: stage,
		Kind: kind,
		Message: err.Error(),
		IsRetryable: kind == KindTransientTransformError || kind == KindConnectionLost,
		RawRow: raw,
	}
}
