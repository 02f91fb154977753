package dryrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/mapping"
	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/sink"
	"github.com/dataflux/dataflux/source"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/validate"
	"github.com/dataflux/dataflux/value"
)

type fakeSource struct{ rows []value.RowData }

func (s fakeSource) FetchData(ctx context.Context, batchSize int, cursor offset.Cursor) (source.FetchResult, error) {
	return source.FetchResult{Rows: s.rows, ReachedEnd: true}, nil
}
func (s fakeSource) BuildFetchRowsRequests(batchSize int, cursor offset.Cursor) ([]sqlgen.FetchRowsRequest, error) {
	return []sqlgen.FetchRowsRequest{{Table: "orders", Columns: []string{"id"}}}, nil
}
func (s fakeSource) FetchMeta(ctx context.Context, entity string) (source.EntityMetadata, error) {
	return source.EntityMetadata{}, nil
}
func (s fakeSource) Dialect() string { return "test" }

type fakeGenerator struct{}

func (fakeGenerator) Select(req sqlgen.FetchRowsRequest) (sqlgen.Statement, error) {
	return sqlgen.Statement{SQL: "SELECT id FROM orders"}, nil
}
func (fakeGenerator) InsertBatch(table sqlgen.TableMeta, rows []value.RowData) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) CopyFromStdin(table string, columns []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) MergeFromStaging(target sqlgen.TableMeta, staging string, columns []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) UpsertFromStaging(target sqlgen.TableMeta, staging string, columns []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) CreateTable(table sqlgen.TableMeta) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) DropTable(table string) (sqlgen.Statement, error) { return sqlgen.Statement{}, nil }
func (fakeGenerator) AddColumn(table string, column sqlgen.ColumnMeta) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) AddForeignKey(table, column, refTable, refColumn string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) CreateEnum(name string, values []string) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) ToggleTriggers(table string, enabled bool) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}
func (fakeGenerator) KeyExistence(table sqlgen.TableMeta, keyValues []value.Value) (sqlgen.Statement, error) {
	return sqlgen.Statement{}, nil
}

var _ sqlgen.Generator = fakeGenerator{}

type fakeAdapter struct{ caps sink.Capabilities }

func (a fakeAdapter) ColumnDBType(ctx context.Context, table, column string) (string, error) {
	return "", nil
}
func (a fakeAdapter) TableExists(ctx context.Context, table string) (bool, error) { return true, nil }
func (a fakeAdapter) Capabilities(ctx context.Context, table string) (sink.Capabilities, error) {
	return a.caps, nil
}
func (a fakeAdapter) FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error) {
	return sqlgen.TableMeta{Name: table}, nil
}

type fakeSink struct{ support bool; reason string }

func (s fakeSink) SupportFastPath(ctx context.Context, table sqlgen.TableMeta) (bool, string) {
	return s.support, s.reason
}
func (s fakeSink) WriteFastPath(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (sink.WriteResult, error) {
	return sink.WriteResult{}, nil
}

type fakeDestination struct {
	adapter fakeAdapter
	sink    *fakeSink
}

func (d fakeDestination) Name() string          { return "fake" }
func (d fakeDestination) Adapter() sink.Adapter { return d.adapter }
func (d fakeDestination) FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error) {
	return sqlgen.TableMeta{Name: table}, nil
}
func (d fakeDestination) WriteBatch(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (sink.WriteResult, error) {
	return sink.WriteResult{}, nil
}
func (d fakeDestination) Sink() sink.Sink {
	if d.sink == nil {
		return nil
	}
	return d.sink
}

func ordersMeta(table string) (validate.TableMetadata, bool) {
	if table != "orders" {
		return validate.TableMetadata{}, false
	}
	return validate.TableMetadata{Name: "orders", Columns: []validate.ColumnMetadata{
		{Name: "id", Type: value.Int, Nullable: false},
	}}, true
}

func TestRunReportsSuccessWithNoFindings(t *testing.T) {
	row := func() value.RowData {
		var r value.RowData
		r.Set("id", value.Int64(1), value.Int)
		return r
	}()

	cfg := Config{
		Entity: "orders", DestTable: "orders", BatchSize: 10,
		Table:     sqlgen.TableMeta{Name: "orders", PrimaryKeys: []string{"id"}},
		Strategy:  offset.PkOffset{Pk: sqlgen.QualCol{Table: "orders", Column: "id"}},
		Src:       fakeSource{rows: []value.RowData{row}},
		Dest:      fakeDestination{sink: &fakeSink{support: true}},
		Gen:       fakeGenerator{},
		Validator: validate.NewValidator(ordersMeta, mapping.NewFieldTransformations(), validate.Policy{}),
	}

	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, Success, report.Status)
	require.True(t, report.FastPathSummary.Supported)
	require.Len(t, report.GeneratedSQL, 1)
}

func TestRunFlagsNoPrimaryKeyAsFastPathUnsupported(t *testing.T) {
	cfg := Config{
		Entity: "orders", DestTable: "orders", BatchSize: 10,
		Table:     sqlgen.TableMeta{Name: "orders"},
		Src:       fakeSource{},
		Dest:      fakeDestination{sink: &fakeSink{support: true}},
		Gen:       fakeGenerator{},
		Validator: validate.NewValidator(ordersMeta, mapping.NewFieldTransformations(), validate.Policy{}),
	}

	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.False(t, report.FastPathSummary.Supported)
	require.Contains(t, report.FastPathSummary.Reason, "no primary key")
}
