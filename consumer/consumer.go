// Package consumer implements the write side of a migration item: it
// receives Batches from a Producer over a bounded channel, chooses
// between the destination's COPY/MERGE fast path and a row-at-a-time
// fallback, checkpoints before and after the write, and drains the
// channel on shutdown before marking the item done.
package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dataflux/dataflux/actor"
	"github.com/dataflux/dataflux/internal/errs"
	"github.com/dataflux/dataflux/producer"
	"github.com/dataflux/dataflux/sink"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/wal"
)

// Config tunes one Consumer instance.
type Config struct {
	RunID, ItemID, PartID string
	Table                 sqlgen.TableMeta
}

// Consumer implements actor.Engine, draining one item's batch channel
// into its destination.
type Consumer struct {
	cfg     Config
	in      <-chan producer.Batch
	dest    sink.Destination
	store   wal.StateStore
	metrics *Metrics
	log     *zap.Logger

	draining bool
}

// New builds a Consumer reading batches from in and writing them to
// dest. metrics may be nil, in which case writes are unobserved.
func New(cfg Config, in <-chan producer.Batch, dest sink.Destination, store wal.StateStore, metrics *Metrics, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{cfg: cfg, in: in, dest: dest, store: store, metrics: metrics, log: log.With(zap.String("run_id", cfg.RunID), zap.String("item_id", cfg.ItemID))}
}

// Drain tells the Consumer to stop waiting for new batches once the
// channel empties, rather than blocking indefinitely — used during a
// graceful shutdown once the Producer has signalled no more batches
// are coming.
func (c *Consumer) Drain() { c.draining = true }

// Tick implements actor.Engine: receive one batch (non-blocking once
// draining), write it, checkpoint, and commit.
func (c *Consumer) Tick(ctx context.Context) (actor.TickStatus, error) {
	if ctx.Err() != nil {
		return actor.Finished, nil
	}

	select {
	case batch, ok := <-c.in:
		if !ok {
			return c.finish(ctx)
		}
		return c.writeBatch(ctx, batch)
	default:
	}

	if c.draining {
		return c.finish(ctx)
	}
	return actor.Idle, nil
}

func (c *Consumer) finish(ctx context.Context) (actor.TickStatus, error) {
	if err := c.appendEntry(wal.ItemDone, ""); err != nil {
		return actor.Working, err
	}
	return actor.Finished, nil
}

func (c *Consumer) writeBatch(ctx context.Context, batch producer.Batch) (actor.TickStatus, error) {
	if err := c.appendEntry(wal.BatchBeginWrite, batch.ID); err != nil {
		return actor.Working, err
	}
	if err := c.store.SaveCheckpoint(wal.Checkpoint{
		RunID: c.cfg.RunID, ItemID: c.cfg.ItemID, PartID: c.cfg.PartID,
		Stage: wal.StageWrite, BatchID: batch.ID, RowsDone: len(batch.Rows), UpdatedAt: time.Now(),
	}); err != nil {
		return actor.Working, err
	}

	start := time.Now()
	result, err := c.write(ctx, batch)
	elapsed := time.Since(start)

	if err != nil {
		c.observeFailure()
		c.log.Warn("batch write failed", zap.String("batch_id", batch.ID), zap.Error(err))
		return actor.Working, errs.Wrap(errs.KindPermanentWriteError, err, "write batch")
	}

	c.observeSuccess(result, elapsed)

	if err := c.appendEntry(wal.BatchCommit, batch.ID); err != nil {
		return actor.Working, err
	}
	if err := c.store.SaveCheckpoint(wal.Checkpoint{
		RunID: c.cfg.RunID, ItemID: c.cfg.ItemID, PartID: c.cfg.PartID,
		Stage: wal.StageCommitted, SrcOffset: "", BatchID: batch.ID, RowsDone: len(batch.Rows), UpdatedAt: time.Now(),
	}); err != nil {
		return actor.Working, err
	}

	if batch.Final {
		return c.finish(ctx)
	}
	return actor.Working, nil
}

// write chooses the fast path when the destination supports it for
// this table, falling back to the row-at-a-time WriteBatch otherwise.
func (c *Consumer) write(ctx context.Context, batch producer.Batch) (sink.WriteResult, error) {
	if s := c.dest.Sink(); s != nil {
		if ok, reason := s.SupportFastPath(ctx, c.cfg.Table); ok {
			return s.WriteFastPath(ctx, c.cfg.Table, batch.Rows)
		} else if reason != "" {
			c.log.Debug("fast path unavailable, falling back", zap.String("reason", reason))
		}
	}
	return c.dest.WriteBatch(ctx, c.cfg.Table, batch.Rows)
}

func (c *Consumer) observeSuccess(result sink.WriteResult, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	table := c.cfg.Table.Name
	c.metrics.RowsWritten.WithLabelValues(table).Add(float64(result.RowsWritten))
	c.metrics.BytesMoved.WithLabelValues(table).Add(float64(result.BytesMoved))
	c.metrics.WriteLatency.WithLabelValues(table).Observe(elapsed.Seconds())
}

func (c *Consumer) observeFailure() {
	if c.metrics == nil {
		return
	}
	c.metrics.BatchesFailed.WithLabelValues(c.cfg.Table.Name).Inc()
}

func (c *Consumer) appendEntry(kind wal.EntryKind, detail string) error {
	return c.store.AppendWAL(wal.Entry{
		RunID: c.cfg.RunID, ItemID: c.cfg.ItemID, PartID: c.cfg.PartID,
		Kind: kind, Detail: detail, Timestamp: time.Now(),
	})
}

// Stop implements actor.Engine. It appends no WAL entry; the recovery
// scan marks an item Failed only from a CircuitBreakerOpen entry with
// no later BatchCommit.
func (c *Consumer) Stop(ctx context.Context) {}
