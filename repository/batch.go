package repository

import (
	"context"

	"github.com/sanrakshak/herbtrace/domain"
)

// BatchRepository stores batch aggregates. Implementations return
// domain.ErrBatchNotFound for unknown ids and never hand out shared state.
type BatchRepository interface {
	Get(ctx context.Context, id string) (*domain.Batch, error)
	Upsert(ctx context.Context, batch *domain.Batch) error
	List(ctx context.Context) ([]domain.Batch, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]domain.Batch, error)
	Count(ctx context.Context) (int, error)
}

// BatchSource is implemented by decorators that front another
// BatchRepository, such as a read cache.
type BatchSource interface {
	Source() BatchRepository
}

// Authoritative unwraps decorators down to the repository that owns the
// committed state. Read-modify-write paths read through it.
func Authoritative(repo BatchRepository) BatchRepository {
	for {
		src, ok := repo.(BatchSource)
		if !ok {
			return repo
		}
		next := src.Source()
		if next == nil {
			return repo
		}
		repo = next
	}
}
