package memory

import (
	"context"
	"testing"

	"github.com/sanrakshak/herbtrace/repository/repotest"
)

func TestBatchStore(t *testing.T) {
	repotest.BatchRepository(t, NewBatchStore())
}

func TestFarmerStore(t *testing.T) {
	repotest.FarmerRepository(t, NewFarmerStore())
}

func TestEventStore(t *testing.T) {
	repotest.EventRepository(t, NewEventStore())
}

func TestBatchStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewBatchStore()
	batch := repotest.NewBatch("B001-TUL", "F001", 0)
	if err := store.Upsert(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	batch.CollectionEvents[0].FarmerID = "mutated"
	got, _ := store.Get(ctx, "B001-TUL")
	if got.CollectionEvents[0].FarmerID != "F001" {
		t.Fatal("store shares state with the caller's batch")
	}

	got.CollectionEvents[0].FarmerID = "mutated"
	again, _ := store.Get(ctx, "B001-TUL")
	if again.CollectionEvents[0].FarmerID != "F001" {
		t.Fatal("store shares state with returned batches")
	}
}
