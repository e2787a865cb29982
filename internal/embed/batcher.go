package embed

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultIdleFlush is the batcher's default idle-flush window: a batch
// that hasn't filled up within this long after its first member arrives
// is flushed anyway, so a lone caller never waits indefinitely.
const DefaultIdleFlush = 50 * time.Millisecond

type batchRequest struct {
	text   string
	result chan batchResult
}

type batchResult struct {
	vector []float32
	err    error
}

// Batcher aggregates Embed calls from multiple callers into batches that
// are submitted to the wrapped embedder's EmbedBatch, amortizing
// per-request overhead (HTTP round trips, model warm-up) across the
// indexer's in-flight file tasks. A batch flushes when it reaches
// batchSize, when idleWindow elapses since its oldest member arrived, or
// when Flush is called explicitly. An embedder error fails every request
// in the batch that was in flight when the error occurred — there is no
// partial success within a batch.
type Batcher struct {
	embedder   Embedder
	batchSize  int
	idleWindow time.Duration

	mu      sync.Mutex
	pending []*batchRequest
	timer   *time.Timer
	closed  bool
}

// NewBatcher creates a batcher wrapping embedder. A batchSize below
// MinBatchSize is replaced by DefaultBatchSize; idleWindow defaults to
// DefaultIdleFlush when non-positive.
func NewBatcher(embedder Embedder, batchSize int, idleWindow time.Duration) *Batcher {
	if batchSize < MinBatchSize {
		batchSize = DefaultBatchSize
	}
	if idleWindow <= 0 {
		idleWindow = DefaultIdleFlush
	}
	return &Batcher{
		embedder:   embedder,
		batchSize:  batchSize,
		idleWindow: idleWindow,
	}
}

// Submit enqueues text for embedding and blocks until its batch has been
// flushed, returning its vector or the batch's shared error.
func (b *Batcher) Submit(ctx context.Context, text string) ([]float32, error) {
	req := &batchRequest{text: text, result: make(chan batchResult, 1)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("embedding batcher is closed")
	}

	b.pending = append(b.pending, req)
	full := len(b.pending) >= b.batchSize
	if full {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
	} else if b.timer == nil {
		b.timer = time.AfterFunc(b.idleWindow, b.Flush)
	}
	b.mu.Unlock()

	if full {
		b.Flush()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-req.result:
		return res.vector, res.err
	}
}

// Flush embeds and dispatches every request currently pending, regardless
// of batch size. Called automatically on batch-full and idle timeout, and
// should also be called explicitly at the end of an indexing pass so the
// last partial batch doesn't wait out the idle window.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	texts := make([]string, len(batch))
	for i, req := range batch {
		texts[i] = req.text
	}

	vectors, err := b.embedder.EmbedBatch(context.Background(), texts)
	if err != nil {
		for _, req := range batch {
			req.result <- batchResult{err: fmt.Errorf("batch embed failed: %w", err)}
		}
		return
	}
	if len(vectors) != len(batch) {
		err := fmt.Errorf("embedder returned %d vectors for a batch of %d", len(vectors), len(batch))
		for _, req := range batch {
			req.result <- batchResult{err: err}
		}
		return
	}

	for i, req := range batch {
		req.result <- batchResult{vector: vectors[i]}
	}
}

// Close flushes any pending batch and marks the batcher closed; further
// Submit calls fail immediately.
func (b *Batcher) Close() error {
	b.Flush()
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
