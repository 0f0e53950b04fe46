package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"messagely/internal/handler"
	"messagely/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the application routes. Login and registration are the
// entry points that produce identity and take no token; everything else
// sits behind the JWT middleware. cacheMW (may be nil) is applied to the
// roster listing only, the one read-heavy endpoint whose payload is stable
// enough to cache.
func RegisterAPI(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, m *handler.MessageHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)

	auth := e.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.GET("/me", a.Me)

	if cacheMW != nil {
		auth.GET("/users", u.List, cacheMW)
	} else {
		auth.GET("/users", u.List)
	}
	auth.GET("/users/:username", u.Get)
	auth.GET("/users/:username/from", u.MessagesFrom)
	auth.GET("/users/:username/to", u.MessagesTo)

	auth.GET("/messages/:id", m.Get)
	auth.POST("/messages", m.Create)
	auth.POST("/messages/:id/read", m.MarkRead)
}
