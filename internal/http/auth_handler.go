package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, upd service.ProfileUpdate) (*domain.User, error)
}

type AuthHandler struct {
	auth    AuthService
	timeout time.Duration
}

func NewAuthHandler(auth AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		timeout: timeout,
	}
}

type RegisterRequestDTO struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Role     string `json:"role" validate:"omitempty,oneof=buyer seller both"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequestDTO struct {
	Username     *string         `json:"username" validate:"omitempty,min=3,max=30"`
	Phone        *string         `json:"phone" validate:"omitempty,max=20"`
	Address      *domain.Address `json:"address"`
	ProfileImage *string         `json:"profile_image"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	user, err := h.auth.Me(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondUnauthorized(w)
		return
	}

	var req UpdateProfileRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(ctx, userID, service.ProfileUpdate{
		Username:     req.Username,
		Phone:        req.Phone,
		Address:      req.Address,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
