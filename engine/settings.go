// Package engine collects the plain-struct configuration surface the
// rest of the modules are built against: batch sizing, concurrency,
// schema and validation policy, and the failed-rows sink target. It
// does no env-parsing or flag-binding of its own; a caller's CLI or
// config loader is expected to populate a Settings value and call
// WithDefaults/Validate before handing it to a producer/consumer pair.
package engine

import (
	"time"

	"github.com/pkg/errors"

	"github.com/dataflux/dataflux/internal/retry"
	"github.com/dataflux/dataflux/schema"
	"github.com/dataflux/dataflux/validate"
)

// FailedRowsFormat names the on-disk encoding for a file-backed
// failed-rows sink.
type FailedRowsFormat string

const (
	FormatJSON    FailedRowsFormat = "Json"
	FormatCSV     FailedRowsFormat = "Csv"
	FormatParquet FailedRowsFormat = "Parquet"
)

// FailedRowsSink is the configured destination for rows that failed
// transform or write: either a table or a file. Exactly one of Table
// or File should be set; File.Format other than Json is accepted by
// Validate but a concrete writer may still report "unsupported".
type FailedRowsSink struct {
	Table *FailedRowsTable
	File  *FailedRowsFile
}

type FailedRowsTable struct {
	Connection string
	Table      string
	Schema     string
}

type FailedRowsFile struct {
	Path   string
	Format FailedRowsFormat
}

// Settings is the full configuration surface for one migration run.
// Zero-valued fields are filled in by WithDefaults; Validate then
// checks the result is internally consistent before a run starts.
type Settings struct {
	BatchSize            int
	TransformConcurrency int
	HeartbeatInterval    time.Duration
	ProducerIdleDelay    time.Duration
	ConsumerIdleDelay    time.Duration

	CreateMissingTables  bool
	CreateMissingColumns bool
	IgnoreConstraints    bool
	CopyColumns          schema.CopyColumns
	InferSchema          bool
	CascadeSchema        bool

	TablePolicy  validate.TablePolicy
	ColumnPolicy validate.ColumnPolicy

	RetryPolicy retry.Policy

	// PaginationTimezone is the IANA zone name applied to a timestamp
	// pagination strategy's cursor comparisons when a pipeline doesn't
	// declare its own. Validate rejects an empty value only when
	// PaginationStrategy is "timestamp".
	PaginationStrategy string
	PaginationTimezone string

	FailedRows FailedRowsSink

	// EnvLookup resolves env(name[, default]) references at plan
	// compile time; a missing required var is a compile error, not a
	// Settings validation error, so it is consulted by the compiler,
	// not by Validate.
	EnvLookup func(name string) (string, bool)
}

// WithDefaults returns a copy of s with every unset field filled in:
// transform concurrency 8, heartbeat interval 30s, producer idle
// delay ~500ms, consumer idle delay ~100ms.
func (s Settings) WithDefaults() Settings {
	if s.TransformConcurrency <= 0 {
		s.TransformConcurrency = 8
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = 30 * time.Second
	}
	if s.ProducerIdleDelay <= 0 {
		s.ProducerIdleDelay = 500 * time.Millisecond
	}
	if s.ConsumerIdleDelay <= 0 {
		s.ConsumerIdleDelay = 100 * time.Millisecond
	}
	if s.PaginationStrategy == "" {
		s.PaginationStrategy = "default"
	}
	if s.PaginationStrategy == "timestamp" && s.PaginationTimezone == "" {
		s.PaginationTimezone = "UTC"
	}
	return s
}

// Validate reports the first inconsistency found in s. Callers should
// apply WithDefaults first; Validate does not fill in defaults itself
// so that a caller who skips WithDefaults gets a clear error instead
// of a silently-zero batch size.
func (s Settings) Validate() error {
	if s.BatchSize <= 0 {
		return errors.New("batch_size must be > 0")
	}
	if s.TransformConcurrency <= 0 {
		return errors.New("transform_concurrency must be > 0")
	}
	if s.PaginationStrategy == "timestamp" && s.PaginationTimezone == "" {
		return errors.New("timestamp pagination strategy requires a timezone default")
	}
	if s.PaginationTimezone != "" {
		if _, err := time.LoadLocation(s.PaginationTimezone); err != nil {
			return errors.Wrapf(err, "invalid pagination timezone %q", s.PaginationTimezone)
		}
	}
	if f := s.FailedRows.File; f != nil {
		switch f.Format {
		case FormatJSON, FormatCSV, FormatParquet:
		default:
			return errors.Errorf("unrecognized failed-rows file format %q", f.Format)
		}
	}
	if s.FailedRows.Table == nil && s.FailedRows.File == nil {
		return errors.New("failed-rows sink requires either a table or a file target")
	}
	return nil
}
