// Package ledger owns batch records and drives the batch lifecycle: intake,
// quality tests, processing steps, finalization and rejection.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/pkg/logger"
	"github.com/sanrakshak/herbtrace/repository"
	"github.com/sanrakshak/herbtrace/usecase"
)

// Validator gates collection events before they are stored.
type Validator interface {
	Validate(species string, coords domain.Coordinates) error
}

// IDGenerator produces child record ids (collection events, tests, steps,
// ledger events) with a one-letter type prefix.
type IDGenerator interface {
	NewID(prefix string) string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID(prefix string) string {
	return prefix + uuid.NewString()
}

type CollectionInput struct {
	FarmerID        string
	Species         string
	WeightKg        float64
	PhotoCID        string
	Location        domain.Location
	CollectionDate  time.Time
	FarmerSignature string
}

type QualityTestInput struct {
	BatchID           string
	SampleID          string
	MoisturePct       float64
	PesticideDetected bool
	ReportCID         string
	TestDate          time.Time
	LabSignature      string
}

type ProcessingStepInput struct {
	BatchID               string
	StepName              string
	Details               string
	Timestamp             time.Time
	ManufacturerSignature string
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(l *Ledger) {
		if ids != nil {
			l.ids = ids
		}
	}
}

func WithPublisher(publisher usecase.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = publisher }
}

func WithMetrics(metrics usecase.Metrics) Option {
	return func(l *Ledger) {
		if metrics != nil {
			l.metrics = metrics
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.logger = log
		}
	}
}

func WithTransitionMode(mode domain.TransitionMode) Option {
	return func(l *Ledger) { l.mode = mode }
}

// WithVerifyPath sets the page finalized batches link to. The batch id is
// appended as the batchId query parameter.
func WithVerifyPath(path string) Option {
	return func(l *Ledger) {
		if path != "" {
			l.verifyPath = path
		}
	}
}

type Ledger struct {
	batches    repository.BatchRepository
	store      repository.BatchRepository
	validator  Validator
	ids        IDGenerator
	now        func() time.Time
	publisher  usecase.EventPublisher
	metrics    usecase.Metrics
	logger     *zap.Logger
	mode       domain.TransitionMode
	verifyPath string

	createMu sync.Mutex
	locks    *keyedMutex
}

func New(batches repository.BatchRepository, validator Validator, opts ...Option) *Ledger {
	l := &Ledger{
		batches:    batches,
		validator:  validator,
		ids:        uuidGenerator{},
		now:        func() time.Time { return time.Now().UTC() },
		metrics:    usecase.NopMetrics{},
		logger:     zap.NewNop(),
		mode:       domain.TransitionLegacy,
		verifyPath: "/verify",
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.store = repository.Authoritative(batches)
	return l
}

// ValidateCollection runs the intake rules without storing anything.
func (l *Ledger) ValidateCollection(species string, coords domain.Coordinates) error {
	err := l.validator.Validate(species, coords)
	if reason, ok := domain.RejectionReasonOf(err); ok {
		l.metrics.ObserveRejection(reason)
	}
	return err
}

// CreateBatch validates in and stores it as the sole collection event of a
// new PENDING_TESTING batch.
func (l *Ledger) CreateBatch(ctx context.Context, in CollectionInput) (*domain.Batch, error) {
	if err := l.ValidateCollection(in.Species, in.Location.Coordinates); err != nil {
		return nil, err
	}
	if math.IsNaN(in.WeightKg) || in.WeightKg <= 0 {
		return nil, domain.Invalid("weightKg must be positive")
	}

	l.createMu.Lock()
	defer l.createMu.Unlock()

	batchID, err := l.nextBatchID(ctx, in.Species)
	if err != nil {
		return nil, err
	}

	collected := in.CollectionDate
	if collected.IsZero() {
		collected = l.now()
	}

	batch := &domain.Batch{
		ID:     batchID,
		Status: domain.StatusPendingTesting,
		CollectionEvents: []domain.CollectionEvent{{
			ID:              l.ids.NewID("C"),
			BatchID:         batchID,
			FarmerID:        in.FarmerID,
			Species:         in.Species,
			WeightKg:        in.WeightKg,
			PhotoCID:        in.PhotoCID,
			Location:        in.Location,
			CollectionDate:  collected,
			FarmerSignature: in.FarmerSignature,
		}},
	}
	batch.Normalize()

	if err := l.batches.Upsert(ctx, batch); err != nil {
		return nil, fmt.Errorf("store batch %s: %w", batchID, err)
	}

	l.metrics.ObserveTransition(domain.OpCreate, batch.Status)
	l.publish(ctx, domain.EventBatchCreated, batch)
	return batch, nil
}

func (l *Ledger) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return l.batches.Get(ctx, id)
}

// ListBatches returns every batch, newest collection first.
func (l *Ledger) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	return l.batches.List(ctx)
}

func (l *Ledger) ListBatchesByFarmer(ctx context.Context, farmerID string) ([]domain.Batch, error) {
	return l.batches.ListByFarmer(ctx, farmerID)
}

func (l *Ledger) RecordQualityTest(ctx context.Context, in QualityTestInput) (*domain.Batch, error) {
	if math.IsNaN(in.MoisturePct) || in.MoisturePct < 0 || in.MoisturePct > 100 {
		return nil, domain.Invalid("moisturePct must be between 0 and 100")
	}

	return l.mutate(ctx, in.BatchID, domain.OpRecordTest, domain.EventTestRecorded, func(b *domain.Batch) (bool, error) {
		testDate := in.TestDate
		if testDate.IsZero() {
			testDate = l.now()
		}
		test := domain.QualityTest{
			ID:                l.ids.NewID("Q"),
			SampleID:          in.SampleID,
			BatchID:           b.ID,
			MoisturePct:       in.MoisturePct,
			PesticideDetected: in.PesticideDetected,
			ReportCID:         in.ReportCID,
			TestDate:          testDate,
			LabSignature:      in.LabSignature,
		}
		return true, b.AddQualityTest(test, l.mode)
	})
}

func (l *Ledger) RecordProcessingStep(ctx context.Context, in ProcessingStepInput) (*domain.Batch, error) {
	if strings.TrimSpace(in.StepName) == "" {
		return nil, domain.Invalid("stepName is required")
	}

	return l.mutate(ctx, in.BatchID, domain.OpRecordStep, domain.EventStepRecorded, func(b *domain.Batch) (bool, error) {
		ts := in.Timestamp
		if ts.IsZero() {
			ts = l.now()
		}
		step := domain.ProcessingStep{
			ID:                    l.ids.NewID("P"),
			BatchID:               b.ID,
			StepName:              in.StepName,
			Details:               in.Details,
			Timestamp:             ts,
			ManufacturerSignature: in.ManufacturerSignature,
		}
		return true, b.AddProcessingStep(step, l.mode)
	})
}

// FinalizeBatch marks the batch FINALIZED and assigns its verification URL.
// It fails with ErrPrerequisiteNotMet, leaving the batch untouched, when no
// quality test has been recorded.
func (l *Ledger) FinalizeBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	return l.mutate(ctx, batchID, domain.OpFinalize, domain.EventBatchFinalized, func(b *domain.Batch) (bool, error) {
		return b.Finalize(l.now(), l.verifyURL(b.ID), l.mode)
	})
}

// RejectBatch moves a batch that is not yet FINALIZED or REJECTED to REJECTED.
func (l *Ledger) RejectBatch(ctx context.Context, batchID, reason string) (*domain.Batch, error) {
	return l.mutate(ctx, batchID, domain.OpReject, domain.EventBatchRejected, func(b *domain.Batch) (bool, error) {
		return true, b.Reject(reason, l.mode)
	})
}

// mutate serializes changes per batch id. The current state is read from the
// backing store, never a cache. fn works on a copy; nothing is written unless
// fn succeeds and reports a change.
func (l *Ledger) mutate(ctx context.Context, batchID string, op domain.Operation, eventName string, fn func(*domain.Batch) (bool, error)) (*domain.Batch, error) {
	unlock := l.locks.Lock(batchID)
	defer unlock()

	current, err := l.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	working := current.Clone()
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	if err := l.batches.Upsert(ctx, working); err != nil {
		return nil, fmt.Errorf("store batch %s: %w", batchID, err)
	}

	l.metrics.ObserveTransition(op, working.Status)
	l.publish(ctx, eventName, working)
	return working, nil
}

// nextBatchID derives B<seq>-<SPC> from the stored batch count, skipping
// sequence numbers already taken by imported records.
func (l *Ledger) nextBatchID(ctx context.Context, species string) (string, error) {
	count, err := l.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count batches: %w", err)
	}
	for seq := count + 1; ; seq++ {
		id := BatchID(seq, species)
		_, err := l.store.Get(ctx, id)
		if errors.Is(err, domain.ErrBatchNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// BatchID formats a batch id from a sequence number and the species name.
func BatchID(seq int, species string) string {
	prefix := []rune(species)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("B%03d-%s", seq, strings.ToUpper(string(prefix)))
}

func (l *Ledger) verifyURL(batchID string) string {
	return l.verifyPath + "?batchId=" + url.QueryEscape(batchID)
}

func (l *Ledger) publish(ctx context.Context, name string, batch *domain.Batch) {
	if l.publisher == nil {
		return
	}
	log := logger.WithRequestID(ctx, l.logger)

	event, err := domain.NewLedgerEvent(name, batch, usecase.ActorFromContext(ctx), l.now())
	if err != nil {
		log.Error("failed to encode ledger event", zap.String("batch_id", batch.ID), zap.Error(err))
		return
	}
	event.ID = l.ids.NewID("E")

	if err := l.publisher.Publish(ctx, event); err != nil {
		log.Error("failed to publish ledger event",
			zap.String("batch_id", batch.ID),
			zap.String("event", name),
			zap.Error(err))
	}
}
