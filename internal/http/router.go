package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSOrigins    []string
	Tokens         TokenParser
	// HealthChecks are pinged by GET /health, keyed by dependency name.
	HealthChecks map[string]func(context.Context) error
}

type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Cart     *CartHandler
	Orders   *OrdersHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader, IdempotencyKeyHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(MaxBodyMiddleware(cfg.MaxBodyBytes))

	r.Get("/health", healthHandler(cfg.HealthChecks))

	auth := AuthMiddleware(cfg.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(auth).Get("/me", h.Auth.Me)
			r.With(auth).Put("/profile", h.Auth.UpdateProfile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.Search)
			r.Get("/{id}", h.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", h.Products.Create)
				r.Get("/user/my-products", h.Products.MyProducts)
				r.Put("/{id}", h.Products.Update)
				r.Patch("/{id}/availability", h.Products.SetAvailability)
				r.Delete("/{id}", h.Products.Delete)
				r.Post("/{id}/like", h.Products.ToggleLike)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.Orders.Checkout)
			r.Get("/my-orders", h.Orders.MyOrders)
			r.Get("/my-sales", h.Orders.MySales)
			r.Get("/{id}", h.Orders.GetOrder)
			r.Put("/{id}/status", h.Orders.UpdateStatus)
		})
	})

	return otelhttp.NewHandler(r, "marketplace")
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "health check failed", "dependency", name, "error", err)
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		respondJSON(w, status, map[string]any{"status": overall, "dependencies": deps})
	}
}
