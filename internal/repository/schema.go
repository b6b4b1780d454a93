package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables and indexes the postgres repositories rely on.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const (
	uniqueViolation = "23505"

	seatDateConstraint = "bookings_seat_date_active_uniq"
	userDateConstraint = "bookings_user_date_active_uniq"
)

// translateConflict maps unique violations of the booking indexes onto domain errors.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case seatDateConstraint:
		return fmt.Errorf("%w: %s", domain.ErrSeatAlreadyBooked, pgErr.Detail)
	case userDateConstraint:
		return fmt.Errorf("%w: %s", domain.ErrUserAlreadyBooked, pgErr.Detail)
	}
	return err
}
