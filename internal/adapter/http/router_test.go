package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/adapter/http/handler"
	apimiddleware "github.com/finovo/bankcore/internal/adapter/http/middleware"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/auth"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
	"github.com/finovo/bankcore/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.New(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in exposition, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"from_account_id":"acc-1","to_account_id":"acc-2","amount":"10.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	req.Header.Set(apimiddleware.DevUserHeader, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !strings.HasPrefix(store.lastKey, "user-1:POST:/api/v1/transfers:") {
		t.Fatalf("expected key scoped to the caller, got %q", store.lastKey)
	}
	if !store.updateCalled {
		t.Fatalf("expected successful response to be recorded")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/login",
		"POST /api/v1/webhooks/razorpay",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"POST /api/v1/transfers",
		"POST /api/v1/transactions/{id}/cancel",
		"POST /api/v1/payments/",
		"POST /api/v1/payments/{id}/cancel",
		"POST /api/v1/assistant/chat",
		"GET /api/v1/assistant/search",
		"POST /api/v1/admin/transactions/{id}/settle",
		"GET /api/v1/admin/ledger/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_AdminRequiresStaffRole(t *testing.T) {
	router := NewRouter(newRouterConfig())

	tests := []struct {
		name     string
		user     string
		role     domain.Role
		expected int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"customer", "user-1", domain.RoleCustomer, http.StatusForbidden},
		{"manager", "staff-1", domain.RoleManager, http.StatusOK},
		{"admin", "staff-2", domain.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tt.user != "" {
				req.Header.Set(apimiddleware.DevUserHeader, tt.user)
				req.Header.Set(apimiddleware.DevRoleHeader, string(tt.role))
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestNewRouter_TokenVerifierReplacesDevHeaders(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = auth.NewJWTManager("router-test-secret", time.Hour)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set(apimiddleware.DevUserHeader, "staff-1")
	req.Header.Set(apimiddleware.DevRoleHeader, string(domain.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected dev headers to be ignored, got %d", rec.Code)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSOrigins = []string{"https://app.finovo.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transfers", nil)
	req.Header.Set("Origin", "https://app.finovo.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.finovo.example" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	up := handler.PingFunc(func(context.Context) error { return nil })

	cfg := RouterConfig{
		Logger:             zerolog.Nop(),
		HealthHandler:      handler.NewHealthHandler(up, up),
		AuthHandler:        handler.NewAuthHandler(nil, nil),
		AccountHandler:     handler.NewAccountHandler(nil, nil),
		TransferHandler:    handler.NewTransferHandler(stubTransferService{}),
		EntryHandler:       handler.NewEntryHandler(nil),
		PaymentHandler:     handler.NewPaymentHandler(nil),
		BeneficiaryHandler: handler.NewBeneficiaryHandler(nil),
		InvestmentHandler:  handler.NewInvestmentHandler(nil),
		CheckoutHandler:    handler.NewCheckoutHandler(nil, ""),
		AssistantHandler:   handler.NewAssistantHandler(nil),
		AdminHandler:       handler.NewAdminHandler(stubAdminService{}),
		LedgerHandler:      handler.NewLedgerHandler(nil, nil),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubTransferService struct{}

func (stubTransferService) SubmitTransfer(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "txn-1", UserID: input.UserID, Amount: input.Amount, Status: domain.StatusPending}, nil
}

func (stubTransferService) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return &domain.Transaction{ID: id, UserID: userID}, nil
}

func (stubTransferService) CancelTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return &domain.Transaction{ID: id, UserID: userID, Status: domain.StatusCancelled}, nil
}

type stubAdminService struct{}

func (stubAdminService) Stats(ctx context.Context) (*usecase.Stats, error) {
	return &usecase.Stats{PendingVolume: decimal.Zero}, nil
}

func (stubAdminService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return nil, nil
}

func (stubAdminService) UpdateUser(ctx context.Context, actor *domain.User, input usecase.AdminUpdateUserInput) (*domain.User, error) {
	return &domain.User{ID: input.UserID}, nil
}

func (stubAdminService) RecentActivity(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	return nil, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
	lastKey      string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	s.lastKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	return nil
}
