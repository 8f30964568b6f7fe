package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type batchRepository struct {
	pool *pgxpool.Pool
}

// NewBatchRepository returns a Postgres-backed BatchRepository. Batches are
// stored as JSONB documents alongside a few indexed columns.
func NewBatchRepository(pool *pgxpool.Pool) repository.BatchRepository {
	return &batchRepository{pool: pool}
}

func (r *batchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	const query = `SELECT document FROM batches WHERE id = $1`

	var document []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&document); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	return decodeBatch(document)
}

func (r *batchRepository) Upsert(ctx context.Context, batch *domain.Batch) error {
	if batch == nil || batch.ID == "" {
		return domain.ErrInvalidPayload
	}

	document, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO batches (id, farmer_id, status, collected_at, document, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE
	SET farmer_id = EXCLUDED.farmer_id,
		status = EXCLUDED.status,
		collected_at = EXCLUDED.collected_at,
		document = EXCLUDED.document,
		updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		batch.ID,
		batch.FarmerID(),
		string(batch.Status),
		nullTime(batch.CollectedAt()),
		document,
	)
	return err
}

func (r *batchRepository) List(ctx context.Context) ([]domain.Batch, error) {
	const query = `
	SELECT document
	FROM batches
	ORDER BY collected_at DESC NULLS LAST, id DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanBatches(rows)
}

func (r *batchRepository) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Batch, error) {
	const query = `
	SELECT document
	FROM batches
	WHERE document->'collectionEvents' @> $1::jsonb
	ORDER BY collected_at DESC NULLS LAST, id DESC
	`
	filter, err := json.Marshal([]map[string]string{{"farmerId": farmerID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, string(filter))
	if err != nil {
		return nil, err
	}
	return scanBatches(rows)
}

func (r *batchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM batches`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanBatches(rows pgx.Rows) ([]domain.Batch, error) {
	defer rows.Close()

	batches := make([]domain.Batch, 0)
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		batch, err := decodeBatch(document)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *batch)
	}
	return batches, rows.Err()
}
