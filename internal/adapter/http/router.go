package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/adapter/http/handler"
	"github.com/finovo/bankcore/internal/adapter/http/middleware"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
	"github.com/finovo/bankcore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// TokenVerifier authenticates bearer tokens. When nil the API trusts
	// the X-User-ID and X-User-Role headers.
	TokenVerifier    middleware.TokenVerifier
	RateLimiter      *middleware.RateLimiter
	CORSOrigins      []string
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	AuthHandler        *handler.AuthHandler
	AccountHandler     *handler.AccountHandler
	TransferHandler    *handler.TransferHandler
	EntryHandler       *handler.EntryHandler
	PaymentHandler     *handler.PaymentHandler
	BeneficiaryHandler *handler.BeneficiaryHandler
	InvestmentHandler  *handler.InvestmentHandler
	CheckoutHandler    *handler.CheckoutHandler
	AssistantHandler   *handler.AssistantHandler
	AdminHandler       *handler.AdminHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(corsOptions(cfg.CORSOrigins)))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.DevIdentity
	if cfg.TokenVerifier != nil {
		authenticate = middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Signed by the gateway, not by a user token.
		r.Post("/webhooks/razorpay", cfg.CheckoutHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.UserContext)
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
			}

			r.Get("/auth/me", cfg.AuthHandler.Me)
			r.Get("/dashboard", cfg.AccountHandler.Dashboard)

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.List)
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Get("/{id}/transactions", cfg.AccountHandler.Transactions)
				r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			})

			// Transfers
			r.Post("/transfers", cfg.TransferHandler.Create)
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/{id}", cfg.TransferHandler.Get)
				r.Get("/{id}/entries", cfg.EntryHandler.ListByTransaction)
				r.Post("/{id}/cancel", cfg.TransferHandler.Cancel)
			})

			// Bill payments
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", cfg.PaymentHandler.List)
				r.Post("/", cfg.PaymentHandler.Create)
				r.Get("/{id}", cfg.PaymentHandler.Get)
				r.Post("/{id}/cancel", cfg.PaymentHandler.Cancel)
			})

			r.Route("/beneficiaries", func(r chi.Router) {
				r.Get("/", cfg.BeneficiaryHandler.List)
				r.Post("/", cfg.BeneficiaryHandler.Create)
				r.Patch("/{id}/favorite", cfg.BeneficiaryHandler.SetFavorite)
				r.Delete("/{id}", cfg.BeneficiaryHandler.Delete)
			})

			r.Route("/investments", func(r chi.Router) {
				r.Get("/portfolios", cfg.InvestmentHandler.ListPortfolios)
				r.Post("/portfolios", cfg.InvestmentHandler.CreatePortfolio)
				r.Post("/portfolios/{id}/investments", cfg.InvestmentHandler.AddInvestment)
				r.Get("/quotes", cfg.InvestmentHandler.Quotes)
			})

			r.Post("/checkout/orders", cfg.CheckoutHandler.CreateOrder)
			r.Post("/checkout/verify", cfg.CheckoutHandler.Verify)

			r.Route("/assistant", func(r chi.Router) {
				r.Post("/chat", cfg.AssistantHandler.Chat)
				r.Get("/sessions", cfg.AssistantHandler.ListSessions)
				r.Get("/sessions/{id}", cfg.AssistantHandler.GetSession)
				r.Get("/search", cfg.AssistantHandler.Search)
			})

			// Staff console
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleManager))

				r.Get("/stats", cfg.AdminHandler.Stats)
				r.Get("/users", cfg.AdminHandler.ListUsers)
				r.Patch("/users/{id}", cfg.AdminHandler.UpdateUser)
				r.Get("/activity", cfg.AdminHandler.Activity)
				r.Post("/transactions/{id}/settle", cfg.LedgerHandler.Settle)
				r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
			})
		})
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			middleware.IdempotencyKeyHeader,
			middleware.DevUserHeader,
			middleware.DevRoleHeader,
		},
		ExposedHeaders:   []string{middleware.IdempotencyReplayHeader, handler.ChatSessionTrailer, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
