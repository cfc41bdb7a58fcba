// Package auth authenticates dashboard API requests. Tokens are HS256 JWTs
// minted by the identity provider; the "org" claim carries the caller's
// organization identity, which anchors all workspace resolution downstream.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/config"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

type orgClaims struct {
	Org string `json:"org"`
	jwt.RegisteredClaims
}

// Middleware rejects requests without a valid bearer token and stores the
// org identity in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, err := OrgFromRequest(r)
		if err != nil {
			log.Ctx(r.Context()).Info().Err(err).Msg("unauthorized request")
			httpx.ErrUnAuthorized("invalid or missing bearer token").Send(w)
			return
		}
		ctx := uncommon.SetOrgIdInContext(r.Context(), orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OrgFromRequest extracts and verifies the bearer token, returning the org
// identity it carries.
func OrgFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", jwt.ErrTokenMalformed
	}
	return VerifyToken(tokenString)
}

// VerifyToken validates an HS256 token and returns its org claim.
func VerifyToken(tokenString string) (string, error) {
	claims := &orgClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Config().AuthSigningSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Org == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Org, nil
}

// CreateToken mints a token for an org identity. Used by tooling and tests.
func CreateToken(orgID string, validity time.Duration) (string, error) {
	claims := &orgClaims{
		Org: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Config().AuthSigningSecret))
}

// OrgFromContext is a convenience passthrough for handlers.
func OrgFromContext(ctx context.Context) string {
	return uncommon.OrgIdFromContext(ctx)
}
