package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number"}

	assert.True(t, IsUniqueViolation(pgxErr, ""))
	assert.True(t, IsUniqueViolation(pgxErr, "idx_orders_order_number"))
	assert.False(t, IsUniqueViolation(pgxErr, "idx_users_email"))

	wrapped := fmt.Errorf("create order: %w", pgxErr)
	assert.True(t, IsUniqueViolation(wrapped, "idx_orders_order_number"))

	notNull := &pgconn.PgError{Code: "23502"}
	assert.False(t, IsUniqueViolation(notNull, ""))

	sqliteErr := errors.New("UNIQUE constraint failed: orders.order_number")
	assert.True(t, IsUniqueViolation(sqliteErr, "order_number"))

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
}
