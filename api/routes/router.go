package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streampoints/raffle-backend/api/controllers"
	"github.com/streampoints/raffle-backend/api/middleware"
	"github.com/streampoints/raffle-backend/internal/draw"
	"github.com/streampoints/raffle-backend/internal/grants"
	"github.com/streampoints/raffle-backend/internal/purchase"
	"github.com/streampoints/raffle-backend/internal/raffles"
	"github.com/streampoints/raffle-backend/pkg/config"
	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/logger"
	"github.com/streampoints/raffle-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	raffleService raffles.Service,
	purchaseService purchase.Service,
	drawService draw.Service,
	grantService grants.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/raffles", func(r chi.Router) {
		r.Get("/", controllers.RaffleList(raffleService, logg))
		r.Route("/{raffleID}", func(r chi.Router) {
			r.Get("/", controllers.RaffleDetail(raffleService, logg))
			r.Post("/purchase", controllers.RafflePurchase(purchaseService, logg))
			r.Post("/draw", controllers.RaffleDraw(drawService, logg))
			r.Post("/grants", controllers.RaffleGrant(grantService, logg))
		})
	})

	return r
}
