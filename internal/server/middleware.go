package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// claimsKey is the context key for verified identity claims.
type claimsKey struct{}

// requireAuth verifies the bearer token and stores the resulting claims
// in the request context. Requests without a valid token are rejected
// with 401 before reaching any handler.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, &storage.StoreError{
				Code:    storage.ErrUnauthenticated,
				Message: "missing bearer token",
			})
			return
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			logger.Debug("token verification failed: %v", err)
			writeError(w, r, &storage.StoreError{
				Code:    storage.ErrUnauthenticated,
				Message: "invalid or expired token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// claimsFrom returns the verified claims stored by requireAuth, or nil
// on routes that skip it.
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*auth.Claims)
	return claims
}
