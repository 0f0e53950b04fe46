package middleware

// identity.go defines helpers shared across middleware files. Currently it
// provides a username extraction function reading the value stored by
// JWTAuth. When no user is authenticated, "guest" is returned so cache
// keys stay well-formed.

import "github.com/labstack/echo/v4"

// username extracts the authenticated username from the context, or
// "guest" when none is present.
func username(c echo.Context) string {
	if v, ok := c.Get(UsernameKey).(string); ok && v != "" {
		return v
	}
	return "guest"
}
