package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/outbox"
	"github.com/sanrakshak/herbtrace/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Archiver stores the final provenance document of a batch.
type Archiver interface {
	Archive(ctx context.Context, batchID string, document []byte) error
}

// OutboxMetrics counts delivery outcomes per item kind.
type OutboxMetrics interface {
	ObserveOutbox(kind, result string)
}

// Delivery outcomes reported to OutboxMetrics.
const (
	ResultDelivered = "delivered"
	ResultQueued    = "queued"
	ResultRetried   = "retried"
	ResultDropped   = "dropped"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention prunes items older than this; zero keeps them forever.
	Retention time.Duration
}

// OutboxProcessor delivers ledger events to the audit trail and the archive,
// parking them in the outbox while storage is unreachable.
type OutboxProcessor struct {
	store    *outbox.Store
	monitor  ConnectionHealth
	events   repository.EventRepository
	archiver Archiver
	metrics  OutboxMetrics
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	events repository.EventRepository,
	archiver Archiver,
	metrics OutboxMetrics,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:    store,
		monitor:  monitor,
		events:   events,
		archiver: archiver,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	if cfg.Retention > 0 {
		_, _ = p.cron.AddFunc("@every 1h", p.prune)
	}

	return p
}

// Start launches the cron scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started", zap.Duration("interval", p.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Drain delivers queued items synchronously. Failed items go to the back of
// the queue until MaxRetries is reached, then they are dropped.
func (p *OutboxProcessor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := p.store.Peek(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := p.deliver(ctx, item); err != nil {
			p.logger.Error("failed to deliver outbox item",
				zap.String("item_id", item.ID),
				zap.String("batch_id", item.BatchID),
				zap.String("kind", item.Kind),
				zap.Error(err))

			if item.Retries+1 >= p.cfg.MaxRetries {
				p.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				p.observe(item.Kind, ResultDropped)
				if err := p.store.Ack(item); err != nil {
					p.logger.Warn("failed to remove outbox item", zap.Error(err))
				}
				continue
			}
			if _, err := p.store.Retry(item); err != nil {
				p.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			p.observe(item.Kind, ResultRetried)
			continue
		}

		p.observe(item.Kind, ResultDelivered)
		if err := p.store.Ack(item); err != nil {
			p.logger.Warn("failed to purge delivered outbox item", zap.Error(err))
		}
	}
	return nil
}

// Submit delivers item right away when storage is online and falls back to
// persisting it.
func (p *OutboxProcessor) Submit(ctx context.Context, item outbox.Item) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}

	if p.monitor == nil || p.monitor.IsOnline() {
		err := p.deliver(ctx, item)
		if err == nil {
			p.observe(item.Kind, ResultDelivered)
			return nil
		}
		p.logger.Warn("immediate delivery failed, queueing",
			zap.String("batch_id", item.BatchID),
			zap.String("kind", item.Kind),
			zap.Error(err))
	}
	if err := p.store.Enqueue(item); err != nil {
		return err
	}
	p.observe(item.Kind, ResultQueued)
	return nil
}

// Size returns the number of queued items.
func (p *OutboxProcessor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Len()
	if err != nil {
		return 0
	}
	return size
}

func (p *OutboxProcessor) deliver(ctx context.Context, item outbox.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Kind {
	case outbox.KindLedgerEvent:
		var event domain.LedgerEvent
		if err := json.Unmarshal(item.Data, &event); err != nil {
			return err
		}
		return p.events.Append(ctx, event)

	case outbox.KindArchive:
		if p.archiver == nil {
			p.logger.Debug("archive disabled, discarding item", zap.String("batch_id", item.BatchID))
			return nil
		}
		return p.archiver.Archive(ctx, item.BatchID, item.Data)

	default:
		return fmt.Errorf("unsupported outbox item kind %q", item.Kind)
	}
}

func (p *OutboxProcessor) prune() {
	removed, err := p.store.Prune(time.Now().Add(-p.cfg.Retention))
	if err != nil {
		p.logger.Error("outbox prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		p.logger.Warn("pruned stale outbox items", zap.Int("count", removed))
	}
}

func (p *OutboxProcessor) observe(kind, result string) {
	if p.metrics != nil {
		p.metrics.ObserveOutbox(kind, result)
	}
}
