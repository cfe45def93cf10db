package vectorindex

import (
	"context"

	"github.com/poiesic/hnstream/core"
)

// DefaultBatchSize is the number of upstream items buffered before a write.
const DefaultBatchSize = 50

// Batcher buffers records for one worker and writes them through a Sink.
// A Batcher is not safe for concurrent use; each worker owns its own.
type Batcher struct {
	sink    *Sink
	size    int
	pending [][]core.IndexRecord
}

// NewBatcher creates a batcher that flushes every size upstream items.
func NewBatcher(sink *Sink, size int) *Batcher {
	if size < 1 {
		size = DefaultBatchSize
	}
	return &Batcher{
		sink:    sink,
		size:    size,
		pending: make([][]core.IndexRecord, 0, size),
	}
}

// Add buffers the records produced for one upstream item and flushes when
// the buffer is full. Empty record sets are ignored.
func (b *Batcher) Add(ctx context.Context, records []core.IndexRecord) {
	if len(records) == 0 {
		return
	}
	b.pending = append(b.pending, records)
	if len(b.pending) >= b.size {
		b.Flush(ctx)
	}
}

// Flush writes any buffered records.
func (b *Batcher) Flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	b.pending = make([][]core.IndexRecord, 0, b.size)
	b.sink.WriteBatch(ctx, batch)
}

// Pending returns the number of buffered upstream items.
func (b *Batcher) Pending() int {
	return len(b.pending)
}
