package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository/memory"
)

func TestTrail(t *testing.T) {
	ctx := context.Background()
	batches := memory.NewBatchStore()
	events := memory.NewEventStore()
	uc := New(batches, events)

	batch := &domain.Batch{ID: "B001-ASH", Status: domain.StatusTestingComplete}
	batch.Normalize()
	if err := batches.Upsert(ctx, batch); err != nil {
		t.Fatalf("seed batch: %v", err)
	}

	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{domain.EventBatchCreated, domain.EventTestRecorded} {
		event, err := domain.NewLedgerEvent(name, batch, "lab-1", at.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("new event: %v", err)
		}
		event.ID = name
		if err := events.Append(ctx, event); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	trail, err := uc.Trail(ctx, "B001-ASH")
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 2 || trail[0].Name != domain.EventBatchCreated || trail[1].Name != domain.EventTestRecorded {
		t.Fatalf("unexpected trail %+v", trail)
	}

	if _, err := uc.Trail(ctx, "B404-XXX"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
