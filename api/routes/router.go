package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/madinabek/flowershop-backend/api/controllers"
	"github.com/madinabek/flowershop-backend/api/middleware"
	cartsvc "github.com/madinabek/flowershop-backend/internal/cart"
	inventorysvc "github.com/madinabek/flowershop-backend/internal/inventory"
	ordersvc "github.com/madinabek/flowershop-backend/internal/orders"
	"github.com/madinabek/flowershop-backend/internal/slots"
	"github.com/madinabek/flowershop-backend/internal/tracking"
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db"
	"github.com/madinabek/flowershop-backend/pkg/logger"
	pkgredis "github.com/madinabek/flowershop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	inventoryService inventorysvc.Service,
	cartService cartsvc.Service,
	ordersService ordersvc.Service,
	slotPlanner *slots.Planner,
	trackingPresenter *tracking.Presenter,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// The tracking page is the only surface customers hit directly; the token
	// in the path is its sole credential.
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/tracking/{token}", controllers.TrackOrder(trackingPresenter, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ShopContext(logg))
		r.Use(middleware.RateLimit(redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/slots", controllers.ListSlots(slotPlanner, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{stockItemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{stockItemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(inventoryService, logg))
			r.Post("/receive", controllers.InventoryReceive(inventoryService, logg))
			r.Get("/{stockItemId}", controllers.InventoryDetail(inventoryService, logg))
			r.Post("/{stockItemId}/adjust", controllers.InventoryAdjust(inventoryService, logg))
			r.Get("/{stockItemId}/movements", controllers.InventoryMovements(inventoryService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/transition", controllers.OrderTransition(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
			r.Post("/{orderId}/rollback", controllers.OrderRollback(ordersService, logg))
			r.Post("/{orderId}/issue", controllers.OrderMarkIssue(ordersService, logg))
			r.Post("/{orderId}/issue/resolve", controllers.OrderResolveIssue(ordersService, logg))
		})
	})

	return r
}
