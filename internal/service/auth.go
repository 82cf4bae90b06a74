package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

var errBadCredentials = domain.ErrUnauthorized.WithMessage("no active account found with the given credentials")

type Auth struct {
	users  repository.UserRepository
	tokens *auth.Issuer
}

func NewAuth(users repository.UserRepository, tokens *auth.Issuer) *Auth {
	return &Auth{users: users, tokens: tokens}
}

// Login exchanges credentials for an access/refresh token pair.
func (s *Auth) Login(ctx context.Context, req domain.TokenRequest) (domain.TokenPair, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return domain.TokenPair{}, domain.ErrBadRequest.WithMessage("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TokenPair{}, errBadCredentials
		}
		return domain.TokenPair{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		slog.Warn("failed login attempt", "username", req.Username)
		return domain.TokenPair{}, errBadCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return pair, nil
}

func (s *Auth) Refresh(_ context.Context, req domain.RefreshRequest) (domain.AccessToken, error) {
	if req.Refresh == "" {
		return domain.AccessToken{}, domain.ErrBadRequest.WithMessage("refresh: this field is required")
	}
	access, err := s.tokens.Refresh(req.Refresh)
	if err != nil {
		return domain.AccessToken{}, domain.ErrUnauthorized.WithMessage("token is invalid or expired")
	}
	return access, nil
}

func (s *Auth) Verify(_ context.Context, req domain.VerifyRequest) error {
	if req.Token == "" {
		return domain.ErrBadRequest.WithMessage("token: this field is required")
	}
	if _, err := s.tokens.Verify(req.Token, ""); err != nil {
		return domain.ErrUnauthorized.WithMessage("token is invalid or expired")
	}
	return nil
}

func (s *Auth) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.User{}, domain.ErrBadRequest.WithMessage("username: this field may not be blank")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return domain.User{}, domain.ErrBadRequest.WithMessage("password: ensure this field has at least 8 characters")
	}
	if len(req.Password) > auth.MaxPasswordLength {
		return domain.User{}, domain.ErrBadRequest.WithMessage("password: ensure this field has no more than 72 bytes")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, domain.ErrConflict.WithMessage("a user with that username already exists")
		}
		slog.Error("failed to register user", "username", username, "error", err)
		return domain.User{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate resolves an access token to the user it was issued for.
func (s *Auth) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.tokens.Verify(token, auth.TokenAccess)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	return user, nil
}
