package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// UserService defines the behavior needed by AuthHandler.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
	TokenDuration() time.Duration
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users  UserService
	tokens TokenIssuer
	now    func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a customer and signs them in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to register", err)
		return
	}

	h.issue(w, r, http.StatusCreated, user)
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, "login failed", err)
		return
	}

	h.issue(w, r, http.StatusOK, user)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := h.tokens.Generate(user)
	if err != nil {
		respondError(w, r, "failed to generate token", err)
		return
	}

	writeJSON(w, status, dto.TokenResponse{
		Token:     token,
		ExpiresAt: h.now().Add(h.tokens.TokenDuration()).UTC(),
		User:      dto.UserFromDomain(user),
	})
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), current.ID)
	if err != nil {
		respondError(w, r, "failed to load user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
