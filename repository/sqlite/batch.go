package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type BatchRepository struct {
	db *sql.DB
}

var _ repository.BatchRepository = (*BatchRepository)(nil)

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	var document []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM batches WHERE id = ?`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select batch: %w", err)
	}
	return decodeBatch(document)
}

func (r *BatchRepository) Upsert(ctx context.Context, batch *domain.Batch) error {
	if batch == nil || batch.ID == "" {
		return domain.ErrInvalidPayload
	}
	document, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO batches(id, status, collected_at, document) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, collected_at=excluded.collected_at, document=excluded.document`,
		batch.ID, string(batch.Status), unixNano(batch.CollectedAt()), string(document))
	if err != nil {
		return fmt.Errorf("upsert batch %s: %w", batch.ID, err)
	}
	return nil
}

func (r *BatchRepository) List(ctx context.Context) ([]domain.Batch, error) {
	return r.query(ctx, `SELECT document FROM batches ORDER BY collected_at DESC, id DESC`)
}

func (r *BatchRepository) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Batch, error) {
	return r.query(ctx, `SELECT document FROM batches
		WHERE EXISTS (
			SELECT 1 FROM json_each(batches.document, '$.collectionEvents')
			WHERE json_extract(json_each.value, '$.farmerId') = ?
		)
		ORDER BY collected_at DESC, id DESC`, farmerID)
}

func (r *BatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}

func (r *BatchRepository) query(ctx context.Context, query string, args ...any) ([]domain.Batch, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	batches := make([]domain.Batch, 0)
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		batch, err := decodeBatch(document)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *batch)
	}
	return batches, rows.Err()
}

func decodeBatch(document []byte) (*domain.Batch, error) {
	var batch domain.Batch
	if err := json.Unmarshal(document, &batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	batch.Normalize()
	return &batch, nil
}
