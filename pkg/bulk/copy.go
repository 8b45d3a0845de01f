package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// copyRows передает строки src в таблицу t пакетами по opts.BatchSize
// Каждый пакет - отдельная операция массовой вставки адаптера
func copyRows(ctx context.Context, s *Session, t adapters.TableRef, columns []schema.FieldDef, src adapters.RowSource, opts CopyOptions) (int64, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger := s.db.logger.With().Str("table", t.String()).Logger()
	adapter := s.adapter()
	copyOpts := opts.adapterOptions()
	start := time.Now()

	peek := &peekSource{src: src}
	var total int64
	batchNo := 0

	for peek.More() {
		batchNo++
		var batch adapters.RowSource = &batchSource{src: peek, limit: opts.BatchSize}
		if !opts.EnableStreaming {
			buffered, err := bufferRows(batch)
			if err != nil {
				return total, fmt.Errorf("failed to buffer batch %d: %w", batchNo, err)
			}
			batch = buffered
		}

		n, err := adapter.BulkCopy(ctx, s, t, columns, batch, copyOpts)
		total += n
		if err != nil {
			return total, fmt.Errorf("batch %d: %w", batchNo, err)
		}

		logger.Debug().
			Int("batch", batchNo).
			Int64("rows", n).
			Msg("bulk copy batch done")
	}
	if err := peek.Err(); err != nil {
		return total, fmt.Errorf("row source failed: %w", err)
	}

	logger.Debug().
		Int64("rows", total).
		Int("batches", batchNo).
		Dur("elapsed", time.Since(start)).
		Msg("bulk copy finished")

	return total, nil
}
