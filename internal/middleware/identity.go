package middleware

import "github.com/labstack/echo/v4"

// Context keys written by JWTAuth.
const (
	ContextSubject = "user_id"
	ContextRole    = "role"
)

// subject returns the authenticated subject stored by JWTAuth, or "anon"
// for unauthenticated requests.
func subject(c echo.Context) string {
	if s, ok := c.Get(ContextSubject).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// fail writes the service's JSON envelope for middleware rejections.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"status": status, "message": msg})
}
