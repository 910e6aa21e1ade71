package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ccooksey/bsi-server/internal/apperror"
)

const tokenLifetime = 24 * time.Hour

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// JWTIntrospector verifies HS256 tokens signed with a shared secret. It stands in for the
// OAuth2 server in local development.
type JWTIntrospector struct {
	secret []byte
	now    func() time.Time
}

func NewJWTIntrospector(secret string) *JWTIntrospector {
	return &JWTIntrospector{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (that *JWTIntrospector) Introspect(_ context.Context, token string) (string, error) {
	var parsed claims

	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return that.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(that.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrAuthRejected, err)
	}

	if parsed.Username == "" {
		return "", fmt.Errorf("%w: token has no username", apperror.ErrAuthRejected)
	}

	return parsed.Username, nil
}

// GenerateToken signs a token for username valid for one day.
func (that *JWTIntrospector) GenerateToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(that.now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(that.now()),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(that.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
