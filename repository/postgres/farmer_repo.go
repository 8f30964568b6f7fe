package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type farmerRepository struct {
	pool *pgxpool.Pool
}

// NewFarmerRepository instantiates a Postgres-backed farmer repository.
func NewFarmerRepository(pool *pgxpool.Pool) repository.FarmerRepository {
	return &farmerRepository{pool: pool}
}

const farmerColumns = `id, name, village, contact, geo_fence, registered_at`

func (r *farmerRepository) Get(ctx context.Context, id string) (*domain.Farmer, error) {
	query := `SELECT ` + farmerColumns + ` FROM farmers WHERE id = $1`
	return scanFarmer(r.pool.QueryRow(ctx, query, id))
}

func (r *farmerRepository) Create(ctx context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO farmers (id, name, village, contact, geo_fence, registered_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), NOW())
	RETURNING registered_at
	`

	if err := r.pool.QueryRow(ctx, query,
		farmer.ID,
		farmer.Name,
		farmer.Village,
		farmer.Contact,
		farmer.GeoFence,
		nullTime(farmer.RegisteredDate),
	).Scan(&farmer.RegisteredDate); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateFarmerID
		}
		return err
	}
	return nil
}

func (r *farmerRepository) Update(ctx context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE farmers
	SET name = $2,
		village = $3,
		contact = $4,
		geo_fence = $5,
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, farmer.ID, farmer.Name, farmer.Village, farmer.Contact, farmer.GeoFence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFarmerNotFound
	}
	return nil
}

func (r *farmerRepository) List(ctx context.Context) ([]domain.Farmer, error) {
	query := `SELECT ` + farmerColumns + ` FROM farmers ORDER BY registered_at DESC, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	farmers := make([]domain.Farmer, 0)
	for rows.Next() {
		farmer, err := scanFarmer(rows)
		if err != nil {
			return nil, err
		}
		farmers = append(farmers, *farmer)
	}
	return farmers, rows.Err()
}

func scanFarmer(row rowScanner) (*domain.Farmer, error) {
	var farmer domain.Farmer
	if err := row.Scan(
		&farmer.ID,
		&farmer.Name,
		&farmer.Village,
		&farmer.Contact,
		&farmer.GeoFence,
		&farmer.RegisteredDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFarmerNotFound
		}
		return nil, err
	}
	return &farmer, nil
}
