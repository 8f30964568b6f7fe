package repository

import (
	"context"

	"github.com/sanrakshak/herbtrace/domain"
)

type FarmerRepository interface {
	Get(ctx context.Context, id string) (*domain.Farmer, error)
	// Create fails with domain.ErrDuplicateFarmerID when the id is taken.
	Create(ctx context.Context, farmer *domain.Farmer) error
	Update(ctx context.Context, farmer *domain.Farmer) error
	List(ctx context.Context) ([]domain.Farmer, error)
}
