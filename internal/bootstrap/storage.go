package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/seatbooking/api"
	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"github.com/Domenick1991/seatbooking/internal/repository/cached"
	"github.com/Domenick1991/seatbooking/internal/repository/memory"
	"github.com/Domenick1991/seatbooking/internal/repository/mongostore"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenStore connects the driver named in cfg, prepares its schema and wraps
// user lookups in a short lived cache. The returned ping checks the backend.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*repository.Store, api.PingFunc, error) {
	var (
		store *repository.Store
		ping  api.PingFunc
	)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		store = &repository.Store{
			Bookings:  repository.NewBookingRepository(pool),
			SeatsConf: repository.NewSeatConfigurationRepository(pool),
			Overrides: repository.NewDaySeatOverrideRepository(pool),
			Users:     repository.NewUserRepository(pool),
			Close:     pool.Close,
		}
		ping = pool.Ping

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		store = mongostore.NewStore(client, db)
		ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	case config.DriverMemory:
		store = memory.NewStore()
		ping = func(context.Context) error { return nil }

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	store.Users = cached.NewUserRepository(store.Users, cfg.Booking.UserCacheTTL())
	log.Info("storage ready", slog.String("driver", cfg.Storage.Driver))
	return store, ping, nil
}
