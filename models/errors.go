package models

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartEmpty is returned when checking out a cart without lines.
	ErrCartEmpty = errors.New("cart is empty")
)

// ValidationError is a rejected value attributed to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IntegrityError reports a write that would break a reference between rows.
type IntegrityError struct {
	Entity  string
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// InvalidStatusTransition is returned when an order cannot move from its
// current status to the requested one.
type InvalidStatusTransition struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidStatusTransition) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
