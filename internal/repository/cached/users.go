package cached

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"github.com/patrickmn/go-cache"
)

// UserRepository caches directory lookups in memory. Misses are not cached
// so a freshly synced user is visible on the next request.
type UserRepository struct {
	next  repository.UserRepository
	store *cache.Cache
}

func NewUserRepository(next repository.UserRepository, ttl time.Duration) *UserRepository {
	return &UserRepository{next: next, store: cache.New(ttl, 2*ttl)}
}

func (r *UserRepository) GetByAzureAdID(ctx context.Context, id string) (*domain.User, error) {
	return r.lookup(ctx, "id:"+id, func() (*domain.User, error) {
		return r.next.GetByAzureAdID(ctx, id)
	})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.lookup(ctx, "email:"+strings.ToLower(email), func() (*domain.User, error) {
		return r.next.GetByEmail(ctx, email)
	})
}

func (r *UserRepository) lookup(_ context.Context, key string, load func() (*domain.User, error)) (*domain.User, error) {
	if v, ok := r.store.Get(key); ok {
		u := v.(domain.User)
		return &u, nil
	}
	u, err := load()
	if err != nil || u == nil {
		return u, err
	}
	r.store.SetDefault("id:"+u.AzureAdID, *u)
	r.store.SetDefault("email:"+strings.ToLower(u.Email), *u)
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
