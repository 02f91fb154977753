package producer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dataflux/dataflux/internal/errs"
	"github.com/dataflux/dataflux/value"
)

// RowTransformer maps one source row into its destination shape,
// evaluating computed fields and applying renames. A row that cannot
// be transformed (missing field, type mismatch) returns an error
// classified as errs.KindPermanentTransformError or
// errs.KindTransientTransformError.
type RowTransformer func(row value.RowData) (value.RowData, error)

// TransformRows applies transform to every row in rows concurrently,
// bounded by concurrency, while preserving each row's position in the
// output slice — the channel enforces ordering at the batch level, so
// within-batch order only needs to match input order, not evaluation
// completion order.
func TransformRows(ctx context.Context, rows []value.RowData, transform RowTransformer, concurrency int, onFailedRow func(index int, row value.RowData, err error)) ([]value.RowData, error) {
	if concurrency <= 0 {
		concurrency = 8
	}
	out := make([]value.RowData, len(rows))
	ok := make([]bool, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			transformed, err := transform(row)
			if err != nil {
				if kind, isEngine := errs.KindOf(err); isEngine && kind == errs.KindPermanentTransformError {
					if onFailedRow != nil {
						onFailedRow(i, row, err)
					}
					return nil
				}
				return err
			}
			out[i] = transformed
			ok[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]value.RowData, 0, len(out))
	for i, row := range out {
		if ok[i] {
			result = append(result, row)
		}
	}
	return result, nil
}
