package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/run/model"
)

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

type dbTxExecutorOptions struct {
	flushSize int
	flushTime time.Duration
	deps      pullDependencies
}

// dbTxExecutor accumulates run writes and inserts them in bulk into
// persistent storage.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts dbTxExecutorOptions
	// Buffer that accumulates runs for writing
	buf        []model.Run
	shutdownCh chan<- error
}

// Urgently inserts all data from the buffer into persistent storage or returns an error
func (tx *dbTxExecutor) shutdown() error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := tx.opts.deps.appendRuns(context.Background(), tx.buf); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// write adds a run to the buffer. A full buffer is flushed off the calling
// goroutine.
func (tx *dbTxExecutor) write(ctx context.Context, run model.Run) {
	tx.mtx.Lock()
	tx.buf = append(tx.buf, run)
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.flushSize {
		go tx.bulkAppend(ctx)
	}
}

// Bulk adds runs to persistent storage and clears the buffer
func (tx *dbTxExecutor) bulkAppend(ctx context.Context) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]model.Run, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if err := tx.opts.deps.appendRuns(context.Background(), tmpBuf); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

// Every n seconds data from the buffer is inserted into the database
func (tx *dbTxExecutor) flusher(ctx context.Context) {
	defer func() {
		tx.shutdownCh <- tx.shutdown()
	}()
	ticker := time.NewTicker(tx.opts.flushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx)
		case <-ctx.Done():
			return
		}
	}
}
