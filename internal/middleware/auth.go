package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_app_echo/internal/services"
)

// AdminSessionCookie is the cookie carrying the admin session token.
const AdminSessionCookie = "admin_session"

// RequireAdmin returns a middleware that validates the admin session cookie
// against the server-side session store. It short-circuits with 401 before
// any handler logic runs.
func RequireAdmin(sessions services.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AdminSessionCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			ok, err := sessions.Validate(c.Request().Context(), cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session check failed")
			}
			if !ok {
				// Expired or revoked token; clear the stale cookie
				c.SetCookie(&http.Cookie{
					Name:     AdminSessionCookie,
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			return next(c)
		}
	}
}
