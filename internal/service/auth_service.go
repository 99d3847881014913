package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/marketplace/internal/auth"
	"github.com/fjod/go_cart/marketplace/internal/domain"
	"github.com/fjod/go_cart/marketplace/internal/repository"
)

const minPasswordLen = 6

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrValidation)

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
	Role     domain.Role
}

type ProfileUpdate struct {
	Username     *string
	Phone        *string
	Address      *domain.Address
	ProfileImage *string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}

	u := &domain.User{
		Username: in.Username,
		Email:    in.Email,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     in.Role,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Phone != nil {
		u.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}
