package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sanrakshak/herbtrace/domain"
)

const pgErrUniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func decodeBatch(document []byte) (*domain.Batch, error) {
	var batch domain.Batch
	if err := json.Unmarshal(document, &batch); err != nil {
		return nil, err
	}
	batch.Normalize()
	return &batch, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
