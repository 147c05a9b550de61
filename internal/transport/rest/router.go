package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/solatech/solar-commerce/internal/analytics"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/cart"
	"github.com/solatech/solar-commerce/internal/catalog"
	"github.com/solatech/solar-commerce/internal/order"
	"github.com/solatech/solar-commerce/internal/payment"
	"github.com/solatech/solar-commerce/internal/ticket"
	"github.com/solatech/solar-commerce/internal/transport/middleware"
	"github.com/solatech/solar-commerce/internal/transport/swagger"
	"github.com/solatech/solar-commerce/internal/user"
)

// Handlers bundles every feature handler the router mounts.
type Handlers struct {
	Auth      *auth.Handler
	Roles     *auth.RoleAuthorization
	User      *user.Handler
	Catalog   *catalog.Handler
	Cart      *cart.Handler
	Order     *order.Handler
	Payment   *payment.Handler
	Webhook   *payment.WebhookHandler
	Ticket    *ticket.Handler
	Analytics *analytics.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Provider callbacks arrive unauthenticated; the handler acks every
		// delivery with 200.
		if h.Webhook != nil {
			r.Post("/payments/callback", h.Webhook.HandleStkCallback)
		}

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.User != nil {
			r.Post("/users/register", h.User.Register)
		}

		// Public catalog browsing
		if h.Catalog != nil {
			r.Get("/products", h.Catalog.ListProducts)
			r.Get("/products/{id}", h.Catalog.GetProduct)
		}

		if h.Auth != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
				}

				if h.Cart != nil {
					pr.Route("/cart", func(cr chi.Router) {
						cr.Get("/", h.Cart.GetCart)
						cr.Delete("/", h.Cart.ClearCart)
						cr.Post("/items", h.Cart.AddItem)
						cr.Patch("/items/{productID}", h.Cart.UpdateItem)
						cr.Delete("/items/{productID}", h.Cart.RemoveItem)
					})
				}

				if h.Order != nil {
					pr.Route("/orders", func(or chi.Router) {
						or.Post("/checkout", h.Order.Checkout)
						or.Get("/", h.Order.ListOrders)
						or.Get("/{id}", h.Order.GetOrder)
					})
				}

				if h.Payment != nil {
					pr.Route("/payments", func(pmr chi.Router) {
						pmr.Post("/stkpush", h.Payment.InitiatePayment)
						pmr.Get("/", h.Payment.ListTransactions)
						pmr.Get("/{id}", h.Payment.GetTransaction)
					})
				}

				if h.Ticket != nil {
					pr.Route("/tickets", func(tr chi.Router) {
						tr.Post("/", h.Ticket.CreateTicket)
						tr.Get("/", h.Ticket.ListTickets)
						tr.Get("/{id}", h.Ticket.GetTicket)
					})
				}

				// Provider product management
				if h.Catalog != nil && h.Roles != nil {
					pr.Group(func(pvr chi.Router) {
						pvr.Use(h.Roles.RequireProvider())
						pvr.Post("/products", h.Catalog.CreateProduct)
						pvr.Patch("/products/{id}", h.Catalog.UpdateProduct)
						pvr.Delete("/products/{id}", h.Catalog.DeleteProduct)
					})
				}

				// Admin surface
				if h.Roles != nil {
					pr.Route("/admin", func(ar chi.Router) {
						ar.Use(h.Roles.RequireAdmin())

						if h.User != nil {
							ar.Post("/providers/{id}/approve", h.User.ApproveProvider)
							ar.Get("/users", h.User.ListUsers)
							ar.Get("/users/{id}", h.User.GetUser)
							ar.Patch("/users/{id}", h.User.UpdateUser)
							ar.Delete("/users/{id}", h.User.DeleteUser)
						}
						if h.Order != nil {
							ar.Patch("/orders/{id}/status", h.Order.UpdateStatus)
						}
						if h.Ticket != nil {
							ar.Get("/tickets", h.Ticket.ListAllTickets)
							ar.Patch("/tickets/{id}", h.Ticket.RespondTicket)
						}
						if h.Analytics != nil {
							ar.Get("/analytics/dashboard", h.Analytics.Dashboard)
						}
					})
				}
			})
		}
	})
}
