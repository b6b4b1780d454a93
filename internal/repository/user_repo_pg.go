package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGUserRepository reads the user directory mirror. Rows are written by the
// directory sync, not by this service.
type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) GetByAzureAdID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT azure_ad_id, email, name, is_admin, team_id FROM users WHERE azure_ad_id=$1`, id)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT azure_ad_id, email, name, is_admin, team_id FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *PGUserRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.AzureAdID, &u.Email, &u.Name, &u.IsAdmin, &u.TeamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
