package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/ragvault/internal/platform/apierr"
)

const (
	AdminRole   = "admin"
	adminIssuer = "ragvault"
)

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminTokens signs and checks the HS256 tokens that guard the management
// routes. Search traffic never uses them.
type AdminTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAdminTokens(secret string, ttl time.Duration) (*AdminTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("admin jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (t *AdminTokens) Issue(subject string) (string, error) {
	now := t.now()
	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    adminIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Verify accepts only unexpired HS256 tokens from this issuer carrying the
// admin role.
func (t *AdminTokens) Verify(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, apierr.Unauthenticated()
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || claims.Role != AdminRole {
		return nil, apierr.Unauthenticated()
	}
	return claims, nil
}
