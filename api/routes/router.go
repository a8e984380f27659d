package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusmerch/campusmerch-backend/api/controllers"
	"github.com/campusmerch/campusmerch-backend/api/middleware"
	"github.com/campusmerch/campusmerch-backend/internal/cart"
	checkoutsvc "github.com/campusmerch/campusmerch-backend/internal/checkout"
	"github.com/campusmerch/campusmerch-backend/internal/orders"
	"github.com/campusmerch/campusmerch-backend/internal/products"
	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/db"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
	"github.com/campusmerch/campusmerch-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	m *metrics.Metrics,
	dbP db.Pinger,
	redisP redis.Pinger,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Instrument(m),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog reads are public; a bearer token, when present, resolves
		// buyer-specific pricing instead of the anonymous defaults.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthOptional(cfg.JWT, logg))
			r.Get("/products", controllers.ListProducts(productService, logg))
			r.Get("/products/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(logg))
				r.Post("/products", controllers.CreateProduct(productService, logg))
				r.Patch("/products/{productId}", controllers.UpdateProduct(productService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(cartService, logg))
				r.Put("/", controllers.UpsertCart(cartService, logg))
				r.Delete("/", controllers.ClearCart(cartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(ordersService, logg))
				r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff(logg))
					r.Post("/{orderId}/transition", controllers.TransitionOrder(ordersService, logg))
					r.Post("/{orderId}/fulfillment", controllers.TransitionFulfillment(ordersService, logg))
					r.Post("/{orderId}/payments", controllers.RecordPayment(ordersService, logg))
					r.Post("/{orderId}/refund", controllers.RefundPayments(ordersService, logg))
				})
			})
		})
	})

	return r
}
