// Package historian drains the audit queue into the audit_log table in batches.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

// Queue yields audit records; a nil record means the wait timed out.
type Queue interface {
	PopAudit(ctx context.Context, timeout time.Duration) (*models.AuditRecord, error)
}

// Writer persists a batch of audit records.
type Writer interface {
	InsertAuditRecords(ctx context.Context, records []models.AuditRecord) error
}

// Service encapsulates the queue consumer and the batch flushing.
type Service struct {
	queue  Queue
	writer Writer
	log    *logrus.Logger

	batchSize  int
	maxPending int
	flushDelay time.Duration
	popTimeout time.Duration

	// retryBase doubles after every failed flush up to retryMax.
	retryBase       time.Duration
	retryMax        time.Duration
	shutdownTimeout time.Duration

	batchMu  sync.Mutex
	batch    []models.AuditRecord
	failures int
	retryAt  time.Time
}

// NewService builds a historian that flushes every batchSize records or every
// flushDelay, whichever comes first.
func NewService(queue Queue, writer Writer, log *logrus.Logger, batchSize int, flushDelay time.Duration) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	popTimeout := 3 * time.Second
	if flushDelay > 0 && flushDelay < popTimeout {
		popTimeout = flushDelay
	}
	return &Service{
		queue:      queue,
		writer:     writer,
		log:        log,
		batchSize:       batchSize,
		maxPending:      4 * batchSize,
		flushDelay:      flushDelay,
		popTimeout:      popTimeout,
		retryBase:       time.Second,
		retryMax:        time.Minute,
		shutdownTimeout: 10 * time.Second,
		batch:           make([]models.AuditRecord, 0, batchSize),
	}
}

// Run pops records until ctx is cancelled, then flushes what is left.
func (hs *Service) Run(ctx context.Context) {
	hs.log.Info("historian service started")
	defer hs.log.Info("historian shutting down")

	lastFlush := time.Now()
	for {
		if ctx.Err() != nil {
			flushCtx, cancel := context.WithTimeout(context.Background(), hs.shutdownTimeout)
			hs.Flush(flushCtx)
			cancel()
			return
		}

		// While the writer is failing and the batch is full, records stay in
		// the queue instead of piling up in memory.
		if wait := hs.backlogWait(); wait > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		if hs.Pending() >= hs.maxPending {
			hs.Flush(ctx)
			lastFlush = time.Now()
			continue
		}

		// BLPop with a bounded timeout so cancellation and the flush interval are honoured.
		rec, err := hs.queue.PopAudit(ctx, hs.popTimeout)
		if err != nil {
			if ctx.Err() == nil {
				hs.log.WithError(err).Error("failed to pop audit record")
				time.Sleep(hs.popTimeout)
			}
			continue
		}
		if rec != nil {
			hs.appendToBatch(ctx, *rec)
		}

		if hs.flushDelay > 0 && time.Since(lastFlush) >= hs.flushDelay && hs.retryDue() {
			hs.Flush(ctx)
			lastFlush = time.Now()
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the threshold is reached.
func (hs *Service) appendToBatch(ctx context.Context, rec models.AuditRecord) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, rec)
	full := len(hs.batch) >= hs.batchSize && !time.Now().Before(hs.retryAt)
	hs.batchMu.Unlock()

	if full {
		hs.Flush(ctx)
	}
}

// Flush writes the pending batch in one transaction. A failed batch is kept
// and automatic retries back off exponentially.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]models.AuditRecord, len(hs.batch))
	copy(batchCopy, hs.batch)

	if err := hs.writer.InsertAuditRecords(ctx, batchCopy); err != nil {
		hs.failures++
		backoff := hs.retryMax
		if hs.failures <= 16 {
			backoff = min(hs.retryBase<<(hs.failures-1), hs.retryMax)
		}
		hs.retryAt = time.Now().Add(backoff)
		hs.log.WithError(err).WithFields(logrus.Fields{
			"records": len(batchCopy),
			"retry":   backoff,
		}).Error("failed to flush audit batch")
		return
	}
	hs.failures = 0
	hs.retryAt = time.Time{}
	hs.batch = hs.batch[:0]
	hs.log.WithField("records", len(batchCopy)).Debug("flushed audit records")
}

// Pending is the number of records waiting for the next flush.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}

func (hs *Service) retryDue() bool {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return !time.Now().Before(hs.retryAt)
}

// backlogWait is how long Run should stop popping: non-zero only when the
// batch is at maxPending and the next retry is still ahead.
func (hs *Service) backlogWait() time.Duration {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	if len(hs.batch) < hs.maxPending {
		return 0
	}
	return time.Until(hs.retryAt)
}
