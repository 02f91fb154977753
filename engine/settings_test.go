package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	s := Settings{BatchSize: 500}.WithDefaults()
	require.Equal(t, 8, s.TransformConcurrency)
	require.Equal(t, "default", s.PaginationStrategy)
}

func TestWithDefaultsLeavesExplicitValuesAlone(t *testing.T) {
	s := Settings{BatchSize: 500, TransformConcurrency: 4}.WithDefaults()
	require.Equal(t, 4, s.TransformConcurrency)
}

func TestValidateRejectsZeroBatchSize(t *testing.T) {
	s := Settings{FailedRows: FailedRowsSink{Table: &FailedRowsTable{Table: "failed"}}}.WithDefaults()
	require.Error(t, s.Validate())
}

func TestValidateRejectsTimestampPaginationWithoutTimezone(t *testing.T) {
	s := Settings{
		BatchSize:            100,
		TransformConcurrency: 4,
		PaginationStrategy:   "timestamp",
		PaginationTimezone:   "",
		FailedRows:           FailedRowsSink{Table: &FailedRowsTable{Table: "failed"}},
	}
	require.Error(t, s.Validate())
}

func TestValidateAcceptsTimestampPaginationAfterDefaults(t *testing.T) {
	s := Settings{
		BatchSize:          100,
		PaginationStrategy: "timestamp",
		FailedRows:         FailedRowsSink{Table: &FailedRowsTable{Table: "failed"}},
	}.WithDefaults()
	require.NoError(t, s.Validate())
	require.Equal(t, "UTC", s.PaginationTimezone)
}

func TestValidateRequiresFailedRowsSink(t *testing.T) {
	s := Settings{BatchSize: 100}.WithDefaults()
	require.Error(t, s.Validate())
}

func TestValidateRejectsUnknownFileFormat(t *testing.T) {
	s := Settings{
		BatchSize:  100,
		FailedRows: FailedRowsSink{File: &FailedRowsFile{Path: "/tmp/failed.ndjson", Format: "Avro"}},
	}.WithDefaults()
	require.Error(t, s.Validate())
}
