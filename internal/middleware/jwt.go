package middleware

import (
	"context"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const claimsKey = "user"

// TokenValidator verifies access tokens issued by the auth service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error)
}

// JWTConfig builds the echo-jwt configuration for /api. Tokens are checked by the auth
// service, or against the JWKS when one is configured.
func JWTConfig(validator TokenValidator, jwks *keyfunc.JWKS) echojwt.Config {
	return echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			if jwks == nil {
				return validator.ValidateToken(c.Request().Context(), auth)
			}
			token, err := jwt.ParseWithClaims(auth, &services.TokenClaims{}, jwks.Keyfunc)
			if err != nil || !token.Valid {
				return nil, &common.AuthenticationError{Message: "invalid or expired token"}
			}
			return token.Claims.(*services.TokenClaims), nil
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsKey).(*services.TokenClaims)
			if !ok {
				return
			}
			ctx := c.Request().Context()
			if userID, err := uuid.Parse(claims.UserID); err == nil {
				ctx = context.WithValue(ctx, common.UserIDKey, userID)
			}
			ctx = context.WithValue(ctx, common.UserRoleKey, strings.ToUpper(claims.Role))
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if strings.Contains(err.Error(), "missing") {
				return &common.AuthenticationError{Message: "missing bearer token"}
			}
			return &common.AuthenticationError{Message: "invalid or expired token"}
		},
	}
}

// JWT returns the authentication middleware.
func JWT(validator TokenValidator, jwks *keyfunc.JWKS) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(validator, jwks))
}

// ClaimsFrom returns the verified token claims of the request.
func ClaimsFrom(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(claimsKey).(*services.TokenClaims)
	return claims, ok
}

// RequireTenantClaim rejects tokens issued for a tenant other than the one resolved
// from the request. It must run after both the tenant and the JWT middleware.
func RequireTenantClaim() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return &common.AuthenticationError{Message: "missing token claims"}
			}
			scope, err := ScopeFrom(c)
			if err != nil {
				return err
			}
			if claims.TenantID != scope.TenantID().String() {
				return &common.AuthorizationError{Message: "token was not issued for this tenant"}
			}
			return next(c)
		}
	}
}
