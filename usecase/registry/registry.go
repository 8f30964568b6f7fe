package registry

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/pkg/logger"
	"github.com/sanrakshak/herbtrace/repository"
)

// UseCase manages farmer identity records.
type UseCase struct {
	farmers repository.FarmerRepository
	now     func() time.Time
	logger  *zap.Logger
}

func New(farmers repository.FarmerRepository, now func() time.Time, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &UseCase{
		farmers: farmers,
		now:     now,
		logger:  logger,
	}
}

func (uc *UseCase) Register(ctx context.Context, farmer domain.Farmer) (*domain.Farmer, error) {
	farmer.ID = strings.TrimSpace(farmer.ID)
	if !farmer.IsComplete() {
		return nil, domain.Invalid("Missing required fields")
	}
	farmer.RegisteredDate = uc.now()

	if err := uc.farmers.Create(ctx, &farmer); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			return nil, domain.WrapError(domain.ErrCodeConflict, "Farmer with ID "+farmer.ID+" already exists", err)
		}
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("farmer registered", zap.String("farmer_id", farmer.ID))
	return &farmer, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Farmer, error) {
	return uc.farmers.Get(ctx, id)
}

func (uc *UseCase) List(ctx context.Context) ([]domain.Farmer, error) {
	return uc.farmers.List(ctx)
}

// Update applies patch to every field except the id and registration date.
func (uc *UseCase) Update(ctx context.Context, id string, patch domain.FarmerPatch) (*domain.Farmer, error) {
	farmer, err := uc.farmers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(farmer)
	if err := uc.farmers.Update(ctx, farmer); err != nil {
		return nil, err
	}
	return farmer, nil
}

// Exists reports whether id is registered. Lookup errors count as absent.
func (uc *UseCase) Exists(ctx context.Context, id string) bool {
	_, err := uc.farmers.Get(ctx, id)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		logger.WithRequestID(ctx, uc.logger).Warn("farmer lookup failed", zap.String("farmer_id", id), zap.Error(err))
	}
	return err == nil
}
