package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// AdminService defines the behavior needed by AdminHandler.
type AdminService interface {
	Stats(ctx context.Context) (*usecase.Stats, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateUser(ctx context.Context, actor *domain.User, input usecase.AdminUpdateUserInput) (*domain.User, error)
	RecentActivity(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AdminHandler serves the staff console.
type AdminHandler struct {
	adminUC AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminUC AdminService) *AdminHandler {
	return &AdminHandler{adminUC: adminUC}
}

// Stats returns the system overview.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminUC.Stats(r.Context())
	if err != nil {
		respondError(w, r, "failed to load stats", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatsFromUseCase(stats))
}

// ListUsers lists users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminUC.ListUsers(r.Context(), parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		respondError(w, r, "failed to list users", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UsersFromDomain(users))
}

// UpdateUser changes a user's role or active flag.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.adminUC.UpdateUser(r.Context(), actor, req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, "failed to update user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// Activity lists audit log entries. Filters: user_id, action,
// resource_type, resource_id, since (RFC3339), until (RFC3339).
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	for key, dst := range map[string]**time.Time{"since": &filter.StartDate, "until": &filter.EndDate} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid '"+key+"' format (use RFC3339)", err.Error())
			return
		}
		*dst = &t
	}

	logs, err := h.adminUC.RecentActivity(r.Context(), filter)
	if err != nil {
		respondError(w, r, "failed to load activity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}
