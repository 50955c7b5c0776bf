package security

import (
	"errors"
	"time"

	"expense_tracker/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued token.
const TokenTTL = 24 * time.Hour

var (
	ErrEmptySecret   = errors.New("jwt signing secret is empty")
	ErrInvalidClaims = errors.New("token claims require an id and a known role")
)

// Claims is the identity carried by a token.
type Claims struct {
	ID   string     `json:"id"`
	Role model.Role `json:"role"`
}

// TokenService signs and verifies HS256 identity tokens. It holds no state
// besides the key, so one instance is shared by the gate and every handler.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &TokenService{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  TokenTTL,
	}, nil
}

func (s *TokenService) Issue(c Claims) (string, error) {
	if c.ID == "" || !c.Role.Valid() {
		return "", ErrInvalidClaims
	}
	claims := jwt.MapClaims{
		"id":   c.ID,
		"role": string(c.Role),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(s.ttl))
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

// Verify checks signature, expiry and claim shape. Every failure collapses to
// ok == false; callers treat that exactly like a missing token.
func (s *TokenService) Verify(tokenString string) (Claims, bool) {
	if tokenString == "" {
		return Claims{}, false
	}
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil || token == nil {
		return Claims{}, false
	}
	if token.Expiration().IsZero() {
		return Claims{}, false
	}

	raw, _ := token.Get("id")
	id, _ := raw.(string)
	raw, _ = token.Get("role")
	role, _ := raw.(string)

	c := Claims{ID: id, Role: model.Role(role)}
	if c.ID == "" || !c.Role.Valid() {
		return Claims{}, false
	}
	return c, true
}
