package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSeatConfigurationRepository struct {
	db *pgxpool.Pool
}

func NewSeatConfigurationRepository(db *pgxpool.Pool) SeatConfigurationRepository {
	return &PGSeatConfigurationRepository{db: db}
}

func (r *PGSeatConfigurationRepository) GetDefaultConfig(ctx context.Context) (*domain.SeatConfiguration, error) {
	var (
		cfg    domain.SeatConfiguration
		tables []byte
	)
	err := r.db.QueryRow(ctx, `SELECT id, default_seat_count, tables, modified_by, last_modified
		FROM seat_configurations WHERE singleton`).
		Scan(&cfg.ID, &cfg.DefaultSeatCount, &tables, &cfg.ModifiedBy, &cfg.LastModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tables, &cfg.Tables); err != nil {
		return nil, fmt.Errorf("decode seat tables: %w", err)
	}
	return &cfg, nil
}

func (r *PGSeatConfigurationRepository) Create(ctx context.Context, cfg *domain.SeatConfiguration) (*domain.SeatConfiguration, error) {
	tables, err := json.Marshal(cfg.Tables)
	if err != nil {
		return nil, err
	}

	created := *cfg
	err = r.db.QueryRow(ctx, `INSERT INTO seat_configurations (id, default_seat_count, tables, modified_by)
		VALUES ($1, $2, $3, $4)
		RETURNING last_modified`, cfg.ID, cfg.DefaultSeatCount, tables, cfg.ModifiedBy).Scan(&created.LastModified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConfigurationExists
		}
		return nil, err
	}
	return &created, nil
}

type PGDaySeatOverrideRepository struct {
	db *pgxpool.Pool
}

func NewDaySeatOverrideRepository(db *pgxpool.Pool) DaySeatOverrideRepository {
	return &PGDaySeatOverrideRepository{db: db}
}

func (r *PGDaySeatOverrideRepository) GetByDate(ctx context.Context, date string) (*domain.DaySeatOverride, error) {
	var o domain.DaySeatOverride
	err := r.db.QueryRow(ctx, `SELECT date, seat_count, created_by, created_at FROM day_seat_overrides WHERE date=$1`, date).
		Scan(&o.Date, &o.SeatCount, &o.CreatedBy, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGDaySeatOverrideRepository) Upsert(ctx context.Context, override *domain.DaySeatOverride) (*domain.DaySeatOverride, error) {
	var o domain.DaySeatOverride
	err := r.db.QueryRow(ctx, `INSERT INTO day_seat_overrides (date, seat_count, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET seat_count=EXCLUDED.seat_count, created_by=EXCLUDED.created_by, created_at=now()
		RETURNING date, seat_count, created_by, created_at`, override.Date, override.SeatCount, override.CreatedBy).
		Scan(&o.Date, &o.SeatCount, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

var (
	_ SeatConfigurationRepository = (*PGSeatConfigurationRepository)(nil)
	_ DaySeatOverrideRepository   = (*PGDaySeatOverrideRepository)(nil)
)
