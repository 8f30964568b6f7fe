package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type cachedBatchRepository struct {
	next   repository.BatchRepository
	client redislib.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBatchRepository wraps next with a Redis read-through cache for
// single-batch lookups (the public verification path). Writes go to next
// first and then overwrite the cached copy; lists always hit next.
//
// Read fills only populate an absent key (SET NX), so a fill that read an
// older version before a write landed never replaces the newer entry.
func NewCachedBatchRepository(next repository.BatchRepository, client redislib.Cmdable, ttl time.Duration, logger *zap.Logger) repository.BatchRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedBatchRepository{
		next:   next,
		client: client,
		prefix: "batch:",
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cachedBatchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	switch {
	case err == nil:
		var batch domain.Batch
		if err := json.Unmarshal([]byte(result), &batch); err == nil {
			batch.Normalize()
			return &batch, nil
		}
		r.logger.Warn("discarding undecodable cached batch", zap.String("batch_id", id))
		if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
			r.logger.Warn("batch cache invalidation failed", zap.String("batch_id", id), zap.Error(err))
		}
	case !errors.Is(err, redislib.Nil):
		r.logger.Warn("batch cache read failed", zap.String("batch_id", id), zap.Error(err))
	}

	batch, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, batch)
	return batch, nil
}

// Source returns the backing repository.
func (r *cachedBatchRepository) Source() repository.BatchRepository {
	return r.next
}

func (r *cachedBatchRepository) Upsert(ctx context.Context, batch *domain.Batch) error {
	if err := r.next.Upsert(ctx, batch); err != nil {
		return err
	}
	r.refresh(ctx, batch)
	return nil
}

func (r *cachedBatchRepository) List(ctx context.Context) ([]domain.Batch, error) {
	return r.next.List(ctx)
}

func (r *cachedBatchRepository) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Batch, error) {
	return r.next.ListByFarmer(ctx, farmerID)
}

func (r *cachedBatchRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

func (r *cachedBatchRepository) fill(ctx context.Context, batch *domain.Batch) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return
	}
	if err := r.client.SetNX(ctx, r.key(batch.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("batch cache write failed", zap.String("batch_id", batch.ID), zap.Error(err))
	}
}

// refresh replaces the cached copy with the committed batch. When that
// fails the key is dropped instead; if both fail readers may see the old
// copy until the TTL runs out, while writers keep reading the store.
func (r *cachedBatchRepository) refresh(ctx context.Context, batch *domain.Batch) {
	payload, err := json.Marshal(batch)
	if err == nil {
		err = r.client.Set(ctx, r.key(batch.ID), payload, r.ttl).Err()
	}
	if err == nil {
		return
	}
	r.logger.Warn("batch cache refresh failed", zap.String("batch_id", batch.ID), zap.Error(err))
	if err := r.client.Del(ctx, r.key(batch.ID)).Err(); err != nil {
		r.logger.Warn("batch cache invalidation failed", zap.String("batch_id", batch.ID), zap.Error(err))
	}
}

var _ repository.BatchSource = (*cachedBatchRepository)(nil)

func (r *cachedBatchRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
