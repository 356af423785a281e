// Package auth verifies donor bearer tokens issued by the accounts service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/pawfund/internal/http/respond"
)

type contextKey struct{}

var ErrMissingToken = errors.New("authorization token not provided")

// Middleware accepts HS256 bearer tokens and stores the subject claim as the
// donor id of the request.
type Middleware struct {
	secret []byte
}

func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		donorID, err := m.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithDonorID(r.Context(), donorID)))
	})
}

func (m *Middleware) authenticate(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, tokenStr, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
		return "", errors.New("invalid authorization header format")
	}

	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("reading subject: %w", err)
	}

	if sub == "" {
		return "", errors.New("token has no subject")
	}

	return sub, nil
}

func WithDonorID(ctx context.Context, donorID string) context.Context {
	return context.WithValue(ctx, contextKey{}, donorID)
}

// DonorID returns the authenticated donor, or "" outside an authenticated
// request.
func DonorID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
