package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

// JWTAuth validates a Bearer admin token and stores its subject and role
// in the request context under ContextSubject and ContextRole.  secret
// must match the one used by utils.NewAdminToken.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return fail(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := utils.ParseToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return fail(c, http.StatusUnauthorized, "invalid token")
			}
			c.Set(ContextSubject, claims.Subject)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}
