// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ManuGH/subcallback/internal/log"
)

// AdminClaims are the claims accepted on the admin API.
type AdminClaims struct {
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// JWTAuth issues and validates HS256 admin tokens.
type JWTAuth struct {
	secret []byte
	now    func() time.Time
}

// NewJWTAuth returns nil when secret is empty, which disables admin auth.
func NewJWTAuth(secret string) *JWTAuth {
	if secret == "" {
		return nil
	}
	return &JWTAuth{secret: []byte(secret), now: time.Now}
}

// GenerateToken creates an admin token valid for ttl.
func (j *JWTAuth) GenerateToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject cannot be empty")
	}
	now := j.now()
	claims := AdminClaims{
		Name:  subject,
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and returns its claims.
func (j *JWTAuth) ValidateToken(raw string) (*AdminClaims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, errors.New("token cannot be empty")
	}
	token, err := jwt.ParseWithClaims(raw, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

type claimsKey struct{}

// ClaimsFromContext returns the admin claims set by AdminRequired.
func ClaimsFromContext(ctx context.Context) *AdminClaims {
	c, _ := ctx.Value(claimsKey{}).(*AdminClaims)
	return c
}

// AdminRequired rejects requests without a valid admin token. A nil auth
// lets every request through.
func AdminRequired(auth *JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if auth == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ValidateToken(header)
			if err != nil {
				logger := log.WithComponentFromContext(r.Context(), "auth")
				logger.Warn().
					Err(err).
					Str(log.FieldEvent, "auth.rejected").
					Msg("admin token rejected")
				writeAuthError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if !claims.Admin {
				writeAuthError(w, "admin privileges required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="subcallback-admin"`)
	}
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, msg)
}
