package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"messagely/internal/utils"
)

// UsernameKey is the echo context key under which JWTAuth stores the
// authenticated username.
const UsernameKey = "username"

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and injects the token's username into the request context. The provided
// secret must match the one used when issuing tokens. Handlers behind this
// middleware read the caller identity via c.Get(UsernameKey).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer " followed by the JWT. Anything
			// else is rejected before touching the token library.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			username, err := utils.VerifyAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(UsernameKey, username)
			return next(c)
		}
	}
}
