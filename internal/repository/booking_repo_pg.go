package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, user_id, booking_date, seat_id, duration_type, duration, lunch_option,
	recurring, overrides, status, canceled_at, canceled_by, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) FindAllBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE booking_date=$1 AND status=$2 ORDER BY created_at`, date, domain.BookingStatusActive)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) HasUserBookingOnDate(ctx context.Context, userID, date string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id=$1 AND booking_date=$2 AND status=$3)`,
		userID, date, domain.BookingStatusActive).Scan(&exists)
	return exists, err
}

func (r *PGBookingRepository) CountBookingsByDate(ctx context.Context, date string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE booking_date=$1 AND status=$2`,
		date, domain.BookingStatusActive).Scan(&n)
	return n, err
}

func (r *PGBookingRepository) FindUserUpcomingBookings(ctx context.Context, userID, fromDate string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id=$1 AND status=$2 AND (
			booking_date >= $3
			OR (recurring IS NOT NULL AND (coalesce(recurring->>'end_date', '') = '' OR recurring->>'end_date' >= $3))
		)
		ORDER BY booking_date`, userID, domain.BookingStatusActive, fromDate)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) FindRecurringActive(ctx context.Context, fromDate string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND recurring IS NOT NULL
			AND (coalesce(recurring->>'end_date', '') = '' OR recurring->>'end_date' >= $2)
		ORDER BY booking_date`, domain.BookingStatusActive, fromDate)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	recurring, overrides, err := encodeSeries(booking.Recurring, booking.Overrides)
	if err != nil {
		return nil, err
	}
	if booking.Status == "" {
		booking.Status = domain.BookingStatusActive
	}

	row := r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, booking_date, seat_id, duration_type, duration,
			lunch_option, recurring, overrides, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+bookingColumns,
		booking.ID, booking.UserID, booking.BookingDate, booking.SeatID, booking.DurationType, booking.Duration,
		booking.LunchOption, recurring, overrides, booking.Status)
	created, err := scanBooking(row)
	if err != nil {
		return nil, translateConflict(err)
	}
	return created, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	sets := []string{"updated_at=now()"}
	args := []any{id}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.LunchOption != nil {
		add("lunch_option", *patch.LunchOption)
	}
	if patch.Duration != nil {
		add("duration", *patch.Duration)
	}
	if patch.DurationType != nil {
		add("duration_type", *patch.DurationType)
	}
	if patch.Overrides != nil {
		data, err := json.Marshal(patch.Overrides)
		if err != nil {
			return nil, err
		}
		add("overrides", data)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.CanceledAt != nil {
		add("canceled_at", *patch.CanceledAt)
	}
	if patch.CanceledBy != nil {
		add("canceled_by", *patch.CanceledBy)
	}

	row := r.db.QueryRow(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id=$1 RETURNING `+bookingColumns, args...)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateConflict(err)
	}
	return b, nil
}

func encodeSeries(recurring *domain.Recurring, overrides []domain.Override) ([]byte, []byte, error) {
	var rec []byte
	if recurring != nil {
		data, err := json.Marshal(recurring)
		if err != nil {
			return nil, nil, err
		}
		rec = data
	}
	if overrides == nil {
		overrides = []domain.Override{}
	}
	ovr, err := json.Marshal(overrides)
	if err != nil {
		return nil, nil, err
	}
	return rec, ovr, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		recurring  []byte
		overrides  []byte
		canceledAt *time.Time
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.BookingDate, &b.SeatID, &b.DurationType, &b.Duration, &b.LunchOption,
		&recurring, &overrides, &b.Status, &canceledAt, &b.CanceledBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if len(recurring) > 0 {
		var rec domain.Recurring
		if err := json.Unmarshal(recurring, &rec); err != nil {
			return nil, fmt.Errorf("decode recurring of booking %s: %w", b.ID, err)
		}
		b.Recurring = &rec
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &b.Overrides); err != nil {
			return nil, fmt.Errorf("decode overrides of booking %s: %w", b.ID, err)
		}
		if len(b.Overrides) == 0 {
			b.Overrides = nil
		}
	}
	b.CanceledAt = canceledAt
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
