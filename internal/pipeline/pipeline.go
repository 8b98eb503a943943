package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize project snapshots from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a project snapshot into a serialized report context.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes report contexts to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline runs the extract, build, load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	batchSize   int

	ready     atomic.Bool
	delivered atomic.Int64
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		batchSize:   batchSize,
	}
}

// WithClock replaces the clock used for backoff and batch timing.
func (p *Pipeline) WithClock(c clockwork.Clock) *Pipeline {
	p.clock = c
	return p
}

// Ready reports whether at least one report has been delivered.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Delivered returns the number of reports written to the sink.
func (p *Pipeline) Delivered() int64 { return p.delivered.Load() }

// CheckReadiness returns nil once a report has been delivered.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not delivered any reports yet")
	}
	return nil
}

// Run loops until ctx is cancelled. Extract and load failures back off
// exponentially; a snapshot that cannot be built is skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for ctx.Err() == nil {
		ok, failed := p.runBatch(ctx)
		if !ok {
			break
		}
		if !failed {
			backoff = initialBackoff
			continue
		}
		if !p.sleep(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}

	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx), "delivered", p.delivered.Load())
	return nil
}

// runBatch processes one batch. ok is false when the context ended mid-batch;
// failed is true when the batch should be retried after a backoff.
func (p *Pipeline) runBatch(ctx context.Context) (ok, failed bool) {
	start := p.clock.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false, false
		}
		p.logger.Error("extract batch failed", "error", err)
		return true, true
	}
	if len(batch) == 0 {
		return ctx.Err() == nil, false
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	reports, built := p.buildReports(ctx, batch)
	if len(reports) == 0 {
		return true, false
	}

	if err := p.loader.LoadBatch(ctx, reports); err != nil {
		if ctx.Err() != nil {
			return false, false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(reports))
		return true, true
	}

	p.metrics.MessagesProduced.Add(float64(len(reports)))
	p.delivered.Add(int64(len(reports)))
	for _, raw := range built {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	return true, false
}

// buildReports transforms each snapshot. Failed snapshots are committed
// immediately; the returned raws are the ones to commit after a successful load.
func (p *Pipeline) buildReports(ctx context.Context, batch []domain.RawEvent) ([]domain.OutputEvent, []domain.RawEvent) {
	reports := make([]domain.OutputEvent, 0, len(batch))
	built := make([]domain.RawEvent, 0, len(batch))

	for _, raw := range batch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("report build failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		reports = append(reports, out)
		built = append(built, raw)
	}
	return reports, built
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
