package bootstrap

import (
	"log/slog"

	"github.com/Domenick1991/seatbooking/api"
	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Bookings *api.BookingHandler
	Seats    *api.SeatHandler
	Health   *api.HealthHandler
}

// NewRouter mounts the API under /api behind auth and rate limiting.
// /healthz stays public.
func NewRouter(cfg *config.Config, log *slog.Logger, validator *middleware.JWTValidator, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)

	if h.Health != nil {
		h.Health.Register(router)
	}

	apiGroup := router.Group("/api",
		middleware.RateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
		middleware.Auth(validator),
	)
	h.Bookings.Register(apiGroup.Group("/bookings"))
	h.Seats.Register(apiGroup.Group("/seats"))

	return router
}
