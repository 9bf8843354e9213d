package clickhouse

import (
	"context"
	"errors"
	"sync"
	"time"

	"ammindexer/internal/config"
	"ammindexer/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"gitlab.com/nevasik7/alerting/logger"
)

var ErrWriterClosed = errors.New("clickhouse writer closed")

// Inserter sends one table's batch.
type Inserter interface {
	Insert(ctx context.Context, table string, rows []Row) error
}

// SinkObserver counts rows per table by result: ok, failed, dropped.
type SinkObserver interface {
	SinkRows(table, result string, n int)
}

type noopObserver struct{}

func (noopObserver) SinkRows(string, string, int) {}

// Writer batches history rows per table and flushes on size or interval.
// Record never blocks the caller: rows are dropped when the buffer is full.
type Writer struct {
	log      logger.Logger
	inserter Inserter
	observer SinkObserver
	cfg      config.ClickHouseWriterConfig

	inCh      chan Row
	closedCh  chan struct{}
	flushCtx  context.Context
	abort     context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWriter(log logger.Logger, inserter Inserter, cfg config.ClickHouseWriterConfig, obs SinkObserver) *Writer {
	if cfg.BatchMaxRows <= 0 {
		cfg.BatchMaxRows = 1000
	}
	if cfg.BatchMaxInterval <= 0 {
		cfg.BatchMaxInterval = 200 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if obs == nil {
		obs = noopObserver{}
	}

	flushCtx, abort := context.WithCancel(context.Background())

	w := &Writer{
		flushCtx: flushCtx,
		abort:    abort,
		log:      log,
		inserter: inserter,
		observer: obs,
		cfg:      cfg,
		inCh:     make(chan Row, 8192),
		closedCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

// Record implements mapping.Recorder.
func (w *Writer) Record(_ context.Context, e domain.Entity) {
	row, ok, err := RowFor(e)
	if err != nil {
		w.log.Warnf("Skip history row for %s %s: %v", e.Kind(), e.Key(), err)
		return
	}
	if !ok {
		return
	}

	if err = w.Enqueue(row); err != nil {
		w.observer.SinkRows(row.Table, "dropped", 1)
		w.log.Warnf("Dropped history row %s %s: %v", row.Table, e.Key(), err)
	}
}

func (w *Writer) Enqueue(row Row) error {
	select {
	case <-w.closedCh:
		return ErrWriterClosed
	default:
	}

	select {
	case w.inCh <- row:
		return nil
	case <-w.closedCh:
		return ErrWriterClosed
	default:
		return errors.New("clickhouse writer buffer full")
	}
}

// Close stops intake and waits for the final flush. When ctx expires first,
// pending retries are abandoned.
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.closedCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.abort()
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()
	defer w.abort()

	batches := make(map[string][]Row, len(tables))
	ticker := time.NewTicker(w.cfg.BatchMaxInterval)
	defer ticker.Stop()

	flush := func(table string) {
		rows := batches[table]
		if len(rows) == 0 {
			return
		}

		if err := w.insertBatch(w.flushCtx, table, rows); err != nil {
			w.observer.SinkRows(table, "failed", len(rows))
			w.log.Errorf("Failed insert [%d] rows by batch to clickhouse table=%s, error=%v", len(rows), table, err)
		} else {
			w.observer.SinkRows(table, "ok", len(rows))
		}
		batches[table] = rows[:0]
	}
	flushAll := func() {
		for table := range batches {
			flush(table)
		}
	}

	for {
		select {
		case row := <-w.inCh:
			batches[row.Table] = append(batches[row.Table], row)
			if len(batches[row.Table]) >= w.cfg.BatchMaxRows {
				flush(row.Table)
			}
		case <-ticker.C:
			flushAll()
		case <-w.closedCh:
			// rows enqueued before close are still buffered
			for {
				select {
				case row := <-w.inCh:
					batches[row.Table] = append(batches[row.Table], row)
				default:
					flushAll()
					return
				}
			}
		}
	}
}

// insertBatch retries MaxRetries times with a doubling delay.
func (w *Writer) insertBatch(ctx context.Context, table string, rows []Row) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.cfg.RetryBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(w.cfg.MaxRetries)), ctx)

	return backoff.Retry(func() error {
		return w.inserter.Insert(ctx, table, rows)
	}, policy)
}
