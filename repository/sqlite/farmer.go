package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type FarmerRepository struct {
	db *sql.DB
}

var _ repository.FarmerRepository = (*FarmerRepository)(nil)

func NewFarmerRepository(db *sql.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

const farmerColumns = `id, name, village, contact, geo_fence, registered_at`

func (r *FarmerRepository) Get(ctx context.Context, id string) (*domain.Farmer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+farmerColumns+` FROM farmers WHERE id = ?`, id)
	farmer, err := scanFarmer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFarmerNotFound
	}
	return farmer, err
}

func (r *FarmerRepository) Create(ctx context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO farmers(`+farmerColumns+`) VALUES(?,?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
		farmer.ID, farmer.Name, farmer.Village, farmer.Contact, farmer.GeoFence, unixNano(farmer.RegisteredDate))
	if err != nil {
		return fmt.Errorf("insert farmer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDuplicateFarmerID
	}
	return nil
}

func (r *FarmerRepository) Update(ctx context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}
	res, err := r.db.ExecContext(ctx, `UPDATE farmers SET name = ?, village = ?, contact = ?, geo_fence = ? WHERE id = ?`,
		farmer.Name, farmer.Village, farmer.Contact, farmer.GeoFence, farmer.ID)
	if err != nil {
		return fmt.Errorf("update farmer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrFarmerNotFound
	}
	return nil
}

func (r *FarmerRepository) List(ctx context.Context) ([]domain.Farmer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+farmerColumns+` FROM farmers ORDER BY registered_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select farmers: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

type scanner interface {
	Scan(dest ...any) error
}

func scanFarmer(row scanner) (*domain.Farmer, error) {
	var (
		farmer     domain.Farmer
		registered int64
	)
	if err := row.Scan(&farmer.ID, &farmer.Name, &farmer.Village, &farmer.Contact, &farmer.GeoFence, &registered); err != nil {
		return nil, err
	}
	farmer.RegisteredDate = fromUnixNano(registered)
	return &farmer, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
