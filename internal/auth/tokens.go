// Package auth issues and verifies JWT access/refresh tokens, hashes
// passwords and carries the authenticated identity through request contexts.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken   = errors.New("token is invalid or expired")
	ErrWrongTokenType = errors.New("token has wrong type")
)

type Claims struct {
	TokenType TokenType `json:"token_type"`
	Username  string    `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Issuer signs HS256 tokens. The zero value is not usable; use NewIssuer.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair returns a fresh access and refresh token for the user.
func (i *Issuer) IssuePair(user domain.User) (domain.TokenPair, error) {
	access, err := i.sign(user.ID, user.Username, TokenAccess, i.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := i.sign(user.ID, user.Username, TokenRefresh, i.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (i *Issuer) Refresh(refreshToken string) (domain.AccessToken, error) {
	claims, err := i.Verify(refreshToken, TokenRefresh)
	if err != nil {
		return domain.AccessToken{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.AccessToken{}, ErrInvalidToken
	}
	access, err := i.sign(userID, claims.Username, TokenAccess, i.accessTTL)
	if err != nil {
		return domain.AccessToken{}, err
	}
	return domain.AccessToken{Access: access}, nil
}

// Verify parses and validates a token. An empty want accepts either type.
func (i *Issuer) Verify(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if want != "" && claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (i *Issuer) sign(userID int64, username string, typ TokenType, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		TokenType: typ,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}
