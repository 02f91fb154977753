package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataflux/dataflux/actor"
	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/source"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
	"github.com/dataflux/dataflux/wal"
)

// pagedSource hands out pre-baked FetchResult pages in order, keyed by
// call count, simulating a two-page snapshot read.
type pagedSource struct {
	pages []sourceFetchResult
	calls int
}

type sourceFetchResult struct {
	rows       []value.RowData
	next       offset.Cursor
	hasNext    bool
	reachedEnd bool
}

func (p *pagedSource) FetchData(ctx context.Context, batchSize int, cursor offset.Cursor) (source.FetchResult, error) {
	page := p.pages[p.calls]
	p.calls++
	return source.FetchResult{Rows: page.rows, NextCursor: page.next, HasNext: page.hasNext, ReachedEnd: page.reachedEnd}, nil
}

func (p *pagedSource) BuildFetchRowsRequests(batchSize int, cursor offset.Cursor) ([]sqlgen.FetchRowsRequest, error) {
	return nil, nil
}

func (p *pagedSource) FetchMeta(ctx context.Context, entity string) (source.EntityMetadata, error) {
	return source.EntityMetadata{}, nil
}

var _ source.Source = (*pagedSource)(nil)

func (p *pagedSource) Dialect() string { return "test" }

func identity(row value.RowData) (value.RowData, error) { return row, nil }

func rowWithID(id int64) value.RowData {
	var r value.RowData
	r.Set("id", value.Int64(id), value.Int)
	return r
}

func TestProducerTickEmitsBatchAndAdvancesCursor(t *testing.T) {
	pkCol := sqlgen.QualCol{Table: "orders", Column: "id"}
	src := &pagedSource{pages: []sourceFetchResult{
		{rows: []value.RowData{rowWithID(1), rowWithID(2)}, next: offset.PkCursor(pkCol, 2), hasNext: true},
		{rows: nil, next: offset.NoneCursor(), reachedEnd: true},
	}}
	store := wal.NewMemStore()
	out := make(chan Batch, 8)

	p := New(Config{RunID: "r1", ItemID: "orders", BatchSize: 2}, ModeSnapshot, src, offset.PkOffset{Pk: pkCol}, identity, store, out, nil)
	require.NoError(t, p.StartSnapshot(context.Background()))

	status, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, actor.Working, status)

	select {
	case b := <-out:
		require.Len(t, b.Rows, 2)
		require.False(t, b.Final)
	default:
		t.Fatal("expected a batch on the output channel")
	}

	status, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, actor.Finished, status)

	entries, err := store.IterWAL("r1")
	require.NoError(t, err)
	var kinds []wal.EntryKind
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	require.Contains(t, kinds, wal.RunStart)
	require.Contains(t, kinds, wal.BatchBegin)

	p.Stop(context.Background())
}

func TestProducerResumeRestoresCursorFromCheckpoint(t *testing.T) {
	pkCol := sqlgen.QualCol{Table: "orders", Column: "id"}
	store := wal.NewMemStore()
	require.NoError(t, store.SaveCheckpoint(wal.Checkpoint{
		RunID: "r1", ItemID: "orders", PartID: "part-0",
		Stage: wal.StageCommitted, SrcOffset: encodeCursor(offset.PkCursor(pkCol, 5)),
	}))

	src := &pagedSource{pages: []sourceFetchResult{{rows: nil, reachedEnd: true}}}
	out := make(chan Batch, 1)
	p := New(Config{RunID: "r1", ItemID: "orders", BatchSize: 2}, ModeSnapshot, src, offset.PkOffset{Pk: pkCol}, identity, store, out, nil)

	require.NoError(t, p.Resume(context.Background()))
	pk, id, ok := p.cursor.Pk()
	require.True(t, ok)
	require.Equal(t, pkCol, pk)
	require.Equal(t, uint64(5), id)

	p.Stop(context.Background())
}
