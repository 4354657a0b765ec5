package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

// Options tunes the commit path.
type Options struct {
	BatchSize     int           // flush when this many readings are queued (default 100)
	FlushInterval time.Duration // flush at least this often (default 2s)
	QueueSize     int           // bounded queue capacity (default 1024)
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.BatchSize <= 0 {
		out.BatchSize = 100
	}
	if out.FlushInterval <= 0 {
		out.FlushInterval = 2 * time.Second
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 1024
	}
	return out
}

// Pipeline validates, normalizes, and commits readings. Exactly one writer
// goroutine drains the queue; producers block only when the queue is full
// (explicit backpressure).
type Pipeline struct {
	registry *ontology.Registry
	db       *sql.DB
	opts     Options

	queue    chan models.Reading
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	fatal   error
	started bool
}

// NewPipeline builds the pipeline. Start must be called before Ingest.
func NewPipeline(registry *ontology.Registry, db *sql.DB, opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{
		registry: registry,
		db:       db,
		opts:     opts,
		queue:    make(chan models.Reading, opts.QueueSize),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the single writer goroutine.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)
	slog.Info("Ingestion pipeline started",
		"batch_size", p.opts.BatchSize,
		"flush_interval", p.opts.FlushInterval,
		"queue_size", p.opts.QueueSize)
}

// Stop closes intake and waits for the writer to drain and commit the
// remaining queued readings.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("Ingestion pipeline stopped")
}

// Err returns the fatal commit error, if a batch was lost after all retries.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatal
}

// Ingest validates and normalizes one record and enqueues it for commit.
// Returns the normalized reading on acceptance; a *RejectionError on
// validation failure. Blocks when the queue is full until space frees up or
// the context ends.
func (p *Pipeline) Ingest(ctx context.Context, record RawRecord) (models.Reading, error) {
	reading, err := normalizeAndValidate(p.registry, record, time.Now())
	if err != nil {
		reason := ReasonOf(err)
		rejectedTotal.WithLabelValues(string(reason)).Inc()
		slog.Warn("Reading rejected", "reason", reason, "sensor", record.Sensor, "error", err)
		return models.Reading{}, err
	}

	select {
	case p.queue <- reading:
		acceptedTotal.Inc()
		return reading, nil
	case <-p.stopCh:
		return models.Reading{}, fmt.Errorf("ingest: pipeline is shutting down")
	case <-ctx.Done():
		return models.Reading{}, ctx.Err()
	}
}

// run is the single-writer loop: flush on batch size or interval, whichever
// comes first. On shutdown the remaining queue is drained and committed.
func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]models.Reading, 0, p.opts.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.commitWithRetry(batch); err != nil {
			p.mu.Lock()
			p.fatal = err
			p.mu.Unlock()
			slog.Error("Batch lost after retries", "size", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case r := <-p.queue:
			batch = append(batch, r)
			if len(batch) >= p.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			p.drain(&batch)
			flush()
			return
		case <-p.stopCh:
			p.drain(&batch)
			flush()
			return
		}
	}
}

// drain moves everything left in the queue into the batch, flushing full
// batches along the way.
func (p *Pipeline) drain(batch *[]models.Reading) {
	for {
		select {
		case r := <-p.queue:
			*batch = append(*batch, r)
			if len(*batch) >= p.opts.BatchSize {
				if err := p.commitWithRetry(*batch); err != nil {
					p.mu.Lock()
					p.fatal = err
					p.mu.Unlock()
					slog.Error("Batch lost after retries during drain", "size", len(*batch), "error", err)
				}
				*batch = (*batch)[:0]
			}
		default:
			return
		}
	}
}

// commitWithRetry commits the batch in one transaction, retrying with
// exponential backoff (base 100ms, 3 attempts). Partial commits cannot
// happen: the transaction is rolled back on any insert failure.
func (p *Pipeline) commitWithRetry(batch []models.Reading) error {
	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := p.commit(batch); err != nil {
			lastErr = err
			batchRetries.Inc()
			slog.Warn("Batch commit failed", "attempt", attempt, "size", len(batch), "error", err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		batchesCommitted.Inc()
		return nil
	}
	return fmt.Errorf("ingest: batch commit failed after retries: %w", lastErr)
}

func (p *Pipeline) commit(batch []models.Reading) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO sensor_data (ts, sensor_type, value, unit, source, raw) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.Exec(
			database.FormatTime(r.Timestamp), r.SensorType, r.Value, r.Unit, r.Source, r.Raw,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
