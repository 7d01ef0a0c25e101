package ingest

import (
	"context"
	"log"
	"time"

	"example.com/timeclock/internal/domain"
	spg "example.com/timeclock/internal/storage/postgres"
)

// Ingestor buffers accepted punches and flushes them to postgres in batches,
// so a kiosk burst (a queue of people badging out) never blocks the request
// path on the database.
type Ingestor struct {
	queue        chan domain.Punch
	writer       *spg.Writer
	batchMaxSize int
	batchMaxWait time.Duration
}

func NewIngestor(writer *spg.Writer, queueMaxSize, batchMaxSize int, batchMaxWait time.Duration) *Ingestor {
	return &Ingestor{
		queue:        make(chan domain.Punch, queueMaxSize),
		writer:       writer,
		batchMaxSize: batchMaxSize,
		batchMaxWait: batchMaxWait,
	}
}

func (ig *Ingestor) Start(ctx context.Context) {
	go func() {
		batch := make([]domain.Punch, 0, ig.batchMaxSize)
		t := time.NewTimer(ig.batchMaxWait)
		defer t.Stop()

		resetTimer := func() {
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(ig.batchMaxWait)
		}

		flush := func() {
			if len(batch) == 0 {
				resetTimer()
				return
			}
			affected, err := ig.writer.InsertBatch(ctx, batch)
			if err != nil {
				log.Printf("[ingest] batch insert FAILED: err=%v dropped=%d", err, len(batch))
			} else {
				log.Printf("[ingest] batch insert OK: inserted=%d size=%d", affected, len(batch))
			}
			batch = batch[:0]
			resetTimer()
		}

		for {
			select {
			case <-ctx.Done():
				flush()
				return
			case p := <-ig.queue:
				batch = append(batch, p)
				if len(batch) >= ig.batchMaxSize {
					flush()
				}
			case <-t.C:
				flush()
			}
		}
	}()
}

// Enqueue hands a punch to the batcher; false means the queue is full and
// the caller should tell the client to retry.
func (ig *Ingestor) Enqueue(p domain.Punch) bool {
	select {
	case ig.queue <- p:
		return true
	default:
		return false
	}
}
