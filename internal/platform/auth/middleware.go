package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// JWTMiddleware authenticates the bearer access token and stores the
// Principal on the request context.
func JWTMiddleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}

			claims, err := issuer.ParseAccess(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			p := Principal{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}
			c.Set("user_id", p.UserID)
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// Caller returns the authenticated principal together with its parsed user id.
func Caller(c echo.Context) (Principal, uuid.UUID, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return Principal{}, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return Principal{}, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	return p, id, nil
}
