package repository

import (
	"sort"

	"github.com/sanrakshak/herbtrace/domain"
)

// SortBatches orders batches by the date of their first collection event,
// newest first. Ties fall back to id, descending.
func SortBatches(batches []domain.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		ai, aj := batches[i].CollectedAt(), batches[j].CollectedAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return batches[i].ID > batches[j].ID
	})
}

// SortFarmers orders farmers by registration date, newest first.
func SortFarmers(farmers []domain.Farmer) {
	sort.SliceStable(farmers, func(i, j int) bool {
		if !farmers[i].RegisteredDate.Equal(farmers[j].RegisteredDate) {
			return farmers[i].RegisteredDate.After(farmers[j].RegisteredDate)
		}
		return farmers[i].ID < farmers[j].ID
	})
}
