// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/adsgate/internal/logging"
)

// AdminRole is the role claim required on mutating routes.
const AdminRole = "admin"

// AdminClaims are the claims of an operator bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// requireAdmin rejects requests without a valid HS256 bearer token whose
// role claim is admin. An empty secret disables the check.
func requireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "bearer token required")
				return
			}
			claims, err := parseAdminToken(raw, secret)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected admin token")
				writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid bearer token")
				return
			}
			if claims.Role != AdminRole {
				writeError(w, r, http.StatusForbidden, ErrCodeForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseAdminToken(raw string, secret []byte) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
