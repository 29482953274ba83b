package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateOrderNumber  = errors.New("duplicate order number")
	uniqueViolation          = pq.ErrorCode("23505")
	orderNumberConstraintKey = "orders_order_number_key"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isDuplicateOrderNumber(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == orderNumberConstraintKey
}
