// Package repotest holds behaviour checks every repository driver must pass.
package repotest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

var base = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

// NewBatch builds a batch collected by farmerID, offset minutes after a fixed
// base time.
func NewBatch(id, farmerID string, offset int) *domain.Batch {
	b := &domain.Batch{
		ID:     id,
		Status: domain.StatusPendingTesting,
		CollectionEvents: []domain.CollectionEvent{{
			ID:             "C-" + id,
			BatchID:        id,
			FarmerID:       farmerID,
			Species:        "Tulsi",
			WeightKg:       4.2,
			Location:       domain.Location{Name: "Malihabad", Coordinates: domain.Coordinates{Lat: 26.85, Lon: 80.95}},
			CollectionDate: base.Add(time.Duration(offset) * time.Minute),
		}},
	}
	b.Normalize()
	return b
}

func BatchRepository(t *testing.T, repo repository.BatchRepository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "B404-XXX"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}

	first := NewBatch("B001-TUL", "F001", 0)
	second := NewBatch("B002-TUL", "F002", 10)
	third := NewBatch("B003-TUL", "F001", 10)
	for _, b := range []*domain.Batch{first, second, third} {
		if err := repo.Upsert(ctx, b); err != nil {
			t.Fatalf("upsert %s: %v", b.ID, err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d (%v)", count, err)
	}

	finalized := first.Clone()
	finalized.QualityTests = append(finalized.QualityTests, domain.QualityTest{ID: "Q1", BatchID: first.ID, MoisturePct: 7.5, TestDate: base})
	ts := base.Add(time.Hour)
	finalized.Status = domain.StatusFinalized
	finalized.FinalizedTimestamp = &ts
	finalized.QRCodeURL = "/verify?batchId=B001-TUL"
	if err := repo.Upsert(ctx, finalized); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusFinalized || len(got.QualityTests) != 1 || got.QRCodeURL != finalized.QRCodeURL {
		t.Fatalf("update not persisted: %+v", got)
	}
	if got.FinalizedTimestamp == nil || !got.FinalizedTimestamp.Equal(ts) {
		t.Fatalf("unexpected finalized timestamp %v", got.FinalizedTimestamp)
	}
	if got.ProcessingSteps == nil {
		t.Fatal("lists must never decode as nil")
	}
	if count, _ := repo.Count(ctx); count != 3 {
		t.Fatalf("upsert of existing id changed count to %d", count)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertOrder(t, all, "B003-TUL", "B002-TUL", "B001-TUL")

	mine, err := repo.ListByFarmer(ctx, "F001")
	if err != nil {
		t.Fatalf("list by farmer: %v", err)
	}
	assertOrder(t, mine, "B003-TUL", "B001-TUL")

	none, err := repo.ListByFarmer(ctx, "F404")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no batches, got %d (%v)", len(none), err)
	}
}

func FarmerRepository(t *testing.T, repo repository.FarmerRepository) {
	t.Helper()
	ctx := context.Background()

	older := &domain.Farmer{ID: "F001", Name: "Ramesh", Village: "Malihabad", Contact: "98", GeoFence: "North", RegisteredDate: base}
	newer := &domain.Farmer{ID: "F002", Name: "Sita", Village: "Kakori", Contact: "97", GeoFence: "South", RegisteredDate: base.Add(time.Hour)}
	for _, f := range []*domain.Farmer{older, newer} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("create %s: %v", f.ID, err)
		}
	}
	if err := repo.Create(ctx, older); !errors.Is(err, domain.ErrDuplicateFarmerID) {
		t.Fatalf("expected ErrDuplicateFarmerID, got %v", err)
	}

	updated := *older
	updated.Village = "Bakshi Ka Talab"
	if err := repo.Update(ctx, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, "F001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Village != "Bakshi Ka Talab" || !got.RegisteredDate.Equal(base) {
		t.Fatalf("unexpected farmer %+v", got)
	}

	missing := domain.Farmer{ID: "F404", Name: "x"}
	if err := repo.Update(ctx, &missing); !errors.Is(err, domain.ErrFarmerNotFound) {
		t.Fatalf("expected ErrFarmerNotFound on update, got %v", err)
	}
	if _, err := repo.Get(ctx, "F404"); !errors.Is(err, domain.ErrFarmerNotFound) {
		t.Fatalf("expected ErrFarmerNotFound, got %v", err)
	}

	farmers, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(farmers) != 2 || farmers[0].ID != "F002" || farmers[1].ID != "F001" {
		t.Fatalf("expected newest registration first, got %+v", farmers)
	}
}

func EventRepository(t *testing.T, repo repository.EventRepository) {
	t.Helper()
	ctx := context.Background()

	names := []string{domain.EventBatchCreated, domain.EventTestRecorded, domain.EventBatchFinalized}
	for i, name := range names {
		event := domain.LedgerEvent{
			ID:        "E" + name,
			BatchID:   "B001-TUL",
			Name:      name,
			Status:    domain.StatusPendingTesting,
			Actor:     "F001",
			Payload:   json.RawMessage(`{"id":"B001-TUL"}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
		// Redelivery from the outbox must not duplicate the entry.
		if err := repo.Append(ctx, event); err != nil {
			t.Fatalf("re-append %s: %v", name, err)
		}
	}
	other := domain.LedgerEvent{ID: "E-other", BatchID: "B002-NEE", Name: domain.EventBatchCreated, Payload: json.RawMessage(`{}`), CreatedAt: base}
	if err := repo.Append(ctx, other); err != nil {
		t.Fatalf("append other: %v", err)
	}

	events, err := repo.ListByBatch(ctx, "B001-TUL")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != len(names) {
		t.Fatalf("expected %d events, got %d", len(names), len(events))
	}
	for i, name := range names {
		if events[i].Name != name {
			t.Fatalf("event %d: expected %s, got %s", i, name, events[i].Name)
		}
	}
	if events[0].Actor != "F001" || !events[0].CreatedAt.Equal(base) {
		t.Fatalf("event fields not preserved: %+v", events[0])
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil || payload.ID != "B001-TUL" {
		t.Fatalf("payload not preserved: %s (%v)", events[0].Payload, err)
	}

	empty, err := repo.ListByBatch(ctx, "B404-XXX")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no events, got %d (%v)", len(empty), err)
	}
}

func assertOrder(t *testing.T, batches []domain.Batch, want ...string) {
	t.Helper()
	if len(batches) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(batches))
	}
	for i, id := range want {
		if batches[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, batches[i].ID)
		}
	}
}
