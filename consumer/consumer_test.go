package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/actor"
	"github.com/dataflux/dataflux/producer"
	"github.com/dataflux/dataflux/sink"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
	"github.com/dataflux/dataflux/wal"
)

type fakeAdapter struct{}

func (fakeAdapter) ColumnDBType(ctx context.Context, table, column string) (string, error) {
	return "", nil
}
func (fakeAdapter) TableExists(ctx context.Context, table string) (bool, error) { return true, nil }
func (fakeAdapter) Capabilities(ctx context.Context, table string) (sink.Capabilities, error) {
	return sink.Capabilities{}, nil
}
func (fakeAdapter) FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error) {
	return sqlgen.TableMeta{Name: table}, nil
}

type fakeSink struct {
	support bool
	reason  string
	calls   int
}

func (s *fakeSink) SupportFastPath(ctx context.Context, table sqlgen.TableMeta) (bool, string) {
	return s.support, s.reason
}

func (s *fakeSink) WriteFastPath(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (sink.WriteResult, error) {
	s.calls++
	return sink.WriteResult{RowsWritten: len(rows)}, nil
}

type fakeDestination struct {
	adapter    fakeAdapter
	sink       *fakeSink
	batchCalls int
}

func (d *fakeDestination) Name() string          { return "fake" }
func (d *fakeDestination) Adapter() sink.Adapter { return d.adapter }
func (d *fakeDestination) FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error) {
	return sqlgen.TableMeta{Name: table}, nil
}
func (d *fakeDestination) WriteBatch(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (sink.WriteResult, error) {
	d.batchCalls++
	return sink.WriteResult{RowsWritten: len(rows)}, nil
}
func (d *fakeDestination) Sink() sink.Sink { return d.sink }

var _ sink.Destination = (*fakeDestination)(nil)

func TestConsumerWritesBatchViaFastPathAndCommits(t *testing.T) {
	store := wal.NewMemStore()
	in := make(chan producer.Batch, 1)
	fsink := &fakeSink{support: true}
	dest := &fakeDestination{sink: fsink}
	metrics := NewMetrics()

	c := New(Config{RunID: "r1", ItemID: "orders", Table: sqlgen.TableMeta{Name: "orders"}}, in, dest, store, metrics, nil)

	var row value.RowData
	row.Set("id", value.Int64(1), value.Int)
	in <- producer.Batch{ID: "b1", RunID: "r1", ItemID: "orders", Rows: []value.RowData{row}}

	status, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, actor.Working, status)
	require.Equal(t, 1, fsink.calls)
	require.Equal(t, 0, dest.batchCalls)

	entries, err := store.IterWAL("r1")
	require.NoError(t, err)
	var kinds []wal.EntryKind
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	require.Contains(t, kinds, wal.BatchBeginWrite)
	require.Contains(t, kinds, wal.BatchCommit)
}

func TestConsumerFallsBackWhenFastPathUnsupported(t *testing.T) {
	store := wal.NewMemStore()
	in := make(chan producer.Batch, 1)
	dest := &fakeDestination{sink: &fakeSink{support: false, reason: "no primary key"}}

	c := New(Config{RunID: "r1", ItemID: "orders", Table: sqlgen.TableMeta{Name: "orders"}}, in, dest, store, nil, nil)
	in <- producer.Batch{ID: "b1", RunID: "r1", ItemID: "orders", Rows: []value.RowData{{}}}

	_, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dest.batchCalls)
}

func TestConsumerDrainsAndFinishesOnClosedChannel(t *testing.T) {
	store := wal.NewMemStore()
	in := make(chan producer.Batch)
	close(in)
	dest := &fakeDestination{sink: &fakeSink{}}

	c := New(Config{RunID: "r1", ItemID: "orders"}, in, dest, store, nil, nil)
	status, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, actor.Finished, status)
}

func TestConsumerIdlesWhenChannelEmptyAndNotDraining(t *testing.T) {
	store := wal.NewMemStore()
	in := make(chan producer.Batch)
	dest := &fakeDestination{sink: &fakeSink{}}

	c := New(Config{RunID: "r1", ItemID: "orders"}, in, dest, store, nil, nil)
	status, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, actor.Idle, status)
}
