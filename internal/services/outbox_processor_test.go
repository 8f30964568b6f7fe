package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/outbox"
	"github.com/sanrakshak/herbtrace/repository/memory"
)

type switchableHealth struct {
	mu     sync.Mutex
	online bool
}

func (h *switchableHealth) IsOnline() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online
}

func (h *switchableHealth) set(online bool) {
	h.mu.Lock()
	h.online = online
	h.mu.Unlock()
}

type recordingArchiver struct {
	mu   sync.Mutex
	docs map[string][]byte
	err  error
}

func (a *recordingArchiver) Archive(_ context.Context, batchID string, document []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.docs == nil {
		a.docs = map[string][]byte{}
	}
	a.docs[batchID] = append([]byte(nil), document...)
	return nil
}

// flakyEvents fails Append until failures is exhausted.
type flakyEvents struct {
	*memory.EventStore
	failures int
}

func (f *flakyEvents) Append(ctx context.Context, event domain.LedgerEvent) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("audit store unavailable")
	}
	return f.EventStore.Append(ctx, event)
}

type outboxCounts map[string]int

func (c outboxCounts) ObserveOutbox(kind, result string) { c[kind+"/"+result]++ }

type processorFixture struct {
	processor *OutboxProcessor
	store     *outbox.Store
	health    *switchableHealth
	events    *flakyEvents
	archiver  *recordingArchiver
	counts    outboxCounts
}

func newProcessorFixture(t *testing.T, maxRetries int) *processorFixture {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &processorFixture{
		store:    store,
		health:   &switchableHealth{online: true},
		events:   &flakyEvents{EventStore: memory.NewEventStore()},
		archiver: &recordingArchiver{},
		counts:   outboxCounts{},
	}
	f.processor = NewOutboxProcessor(store, f.health, f.events, f.archiver, f.counts, zaptest.NewLogger(t), ProcessorConfig{MaxRetries: maxRetries})
	return f
}

func ledgerEvent(t *testing.T, id, name string, status domain.BatchStatus) domain.LedgerEvent {
	t.Helper()
	batch := &domain.Batch{ID: "B001-TUL", Status: status}
	batch.Normalize()
	event, err := domain.NewLedgerEvent(name, batch, "F001", batch.CollectedAt())
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	event.ID = id
	return event
}

func (f *processorFixture) stored(t *testing.T) []domain.LedgerEvent {
	t.Helper()
	events, err := f.events.ListByBatch(context.Background(), "B001-TUL")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return events
}

func TestBridgeDeliversImmediatelyWhenOnline(t *testing.T) {
	f := newProcessorFixture(t, 3)
	bridge := NewOutboxBridge(f.processor, false)

	if err := bridge.Publish(context.Background(), ledgerEvent(t, "E1", domain.EventBatchCreated, domain.StatusPendingTesting)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := f.stored(t); len(got) != 1 || got[0].ID != "E1" {
		t.Fatalf("expected delivered event, got %+v", got)
	}
	if f.processor.Size() != 0 {
		t.Fatalf("nothing should be queued, size %d", f.processor.Size())
	}
	if f.counts["ledger_event/delivered"] != 1 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestBridgeQueuesWhileOfflineAndDrainsLater(t *testing.T) {
	f := newProcessorFixture(t, 3)
	bridge := NewOutboxBridge(f.processor, false)
	ctx := context.Background()

	f.health.set(false)
	for i, name := range []string{domain.EventBatchCreated, domain.EventTestRecorded} {
		event := ledgerEvent(t, "E"+string(rune('1'+i)), name, domain.StatusPendingTesting)
		if err := bridge.Publish(ctx, event); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if f.processor.Size() != 2 || len(f.stored(t)) != 0 {
		t.Fatalf("expected two queued items, size %d", f.processor.Size())
	}

	if err := f.processor.Drain(ctx); err != nil {
		t.Fatalf("drain while offline: %v", err)
	}
	if f.processor.Size() != 2 {
		t.Fatal("drain must wait for connectivity")
	}

	f.health.set(true)
	if err := f.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	got := f.stored(t)
	if len(got) != 2 || got[0].ID != "E1" || got[1].ID != "E2" {
		t.Fatalf("expected events in publish order, got %+v", got)
	}
	if f.processor.Size() != 0 {
		t.Fatalf("outbox should be empty, size %d", f.processor.Size())
	}
	if f.counts["ledger_event/queued"] != 2 || f.counts["ledger_event/delivered"] != 2 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestFailedDeliveryIsQueuedThenRetried(t *testing.T) {
	f := newProcessorFixture(t, 3)
	ctx := context.Background()
	f.events.failures = 2

	if err := NewOutboxBridge(f.processor, false).Publish(ctx, ledgerEvent(t, "E1", domain.EventBatchCreated, domain.StatusPendingTesting)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if f.processor.Size() != 1 {
		t.Fatal("failed immediate delivery must fall back to the outbox")
	}

	_ = f.processor.Drain(ctx)
	items, _ := f.store.Peek(10)
	if len(items) != 1 || items[0].Retries != 1 {
		t.Fatalf("expected one retried item, got %+v", items)
	}

	_ = f.processor.Drain(ctx)
	if len(f.stored(t)) != 1 || f.processor.Size() != 0 {
		t.Fatalf("expected delivery on second drain, size %d", f.processor.Size())
	}
	if f.counts["ledger_event/retried"] != 1 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	f := newProcessorFixture(t, 2)
	ctx := context.Background()
	f.events.failures = 100

	payload, _ := json.Marshal(ledgerEvent(t, "E1", domain.EventBatchCreated, domain.StatusPendingTesting))
	if err := f.store.Enqueue(outbox.Item{ID: "E1", BatchID: "B001-TUL", Kind: outbox.KindLedgerEvent, Data: payload}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	_ = f.processor.Drain(ctx)
	if f.processor.Size() != 1 {
		t.Fatal("first failure should requeue")
	}
	_ = f.processor.Drain(ctx)
	if f.processor.Size() != 0 {
		t.Fatal("item should be dropped once retries are exhausted")
	}
	if f.counts["ledger_event/dropped"] != 1 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestBridgeArchivesFinalizedBatches(t *testing.T) {
	f := newProcessorFixture(t, 3)
	bridge := NewOutboxBridge(f.processor, true)
	ctx := context.Background()

	if err := bridge.Publish(ctx, ledgerEvent(t, "E1", domain.EventTestRecorded, domain.StatusTestingComplete)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(f.archiver.docs) != 0 {
		t.Fatal("only finalized batches are archived")
	}

	finalized := ledgerEvent(t, "E2", domain.EventBatchFinalized, domain.StatusFinalized)
	if err := bridge.Publish(ctx, finalized); err != nil {
		t.Fatalf("publish: %v", err)
	}
	doc, ok := f.archiver.docs["B001-TUL"]
	if !ok {
		t.Fatal("finalized batch was not archived")
	}
	var batch domain.Batch
	if err := json.Unmarshal(doc, &batch); err != nil || batch.Status != domain.StatusFinalized {
		t.Fatalf("archived document should be the batch snapshot, got %s (%v)", doc, err)
	}
	if f.counts["archive/delivered"] != 1 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestArchiveFailureIsQueued(t *testing.T) {
	f := newProcessorFixture(t, 3)
	f.archiver.err = errors.New("bucket unreachable")

	if err := NewOutboxBridge(f.processor, true).Publish(context.Background(), ledgerEvent(t, "E1", domain.EventBatchFinalized, domain.StatusFinalized)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	items, _ := f.store.Peek(10)
	if len(items) != 1 || items[0].Kind != outbox.KindArchive {
		t.Fatalf("expected queued archive item, got %+v", items)
	}

	f.archiver.err = nil
	_ = f.processor.Drain(context.Background())
	if _, ok := f.archiver.docs["B001-TUL"]; !ok || f.processor.Size() != 0 {
		t.Fatal("archive item should be delivered on drain")
	}
}

func TestArchiveWithoutArchiverIsDiscarded(t *testing.T) {
	f := newProcessorFixture(t, 3)
	processor := NewOutboxProcessor(f.store, f.health, f.events, nil, nil, zaptest.NewLogger(t), ProcessorConfig{})

	if err := processor.Submit(context.Background(), outbox.Item{BatchID: "B001-TUL", Kind: outbox.KindArchive, Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if processor.Size() != 0 {
		t.Fatal("archive items without an archiver should not be queued")
	}
}

func TestBridgeRejectsEventsWithoutBatch(t *testing.T) {
	f := newProcessorFixture(t, 3)
	err := NewOutboxBridge(f.processor, false).Publish(context.Background(), domain.LedgerEvent{ID: "E1"})
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	f := newProcessorFixture(t, 3)
	f.processor.Start()
	f.processor.Stop(context.Background())
}
