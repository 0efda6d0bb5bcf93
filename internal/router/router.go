package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/madresuerte/raffle-server/internal/handler"    // handlers implement the business logic
	"github.com/madresuerte/raffle-server/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and the protected
// session-management routes.  Unauthenticated operations live under
// /v1/auth; they are wrapped in the login rate limiter so credential
// guessing burns through a small token bucket.  Protected session routes
// live under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", loginLimiter)
	// Login resolves the three-way state machine: invalid_credentials,
	// session_active (confirmation required) or success.
	g.POST("/login", a.Login)
	// Force-login resolves the session_active branch by overwriting the
	// stored session token, logging the other device out.
	g.POST("/force-login", a.ForceLogin)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(roleSeller, roleAdmin))
	auth.GET("/me", a.Me)
	// Session lets a client check whether its token still names the active
	// session (it stops doing so after a force-login elsewhere).
	auth.GET("/session", a.Session)
	auth.POST("/logout", a.Logout)
}

// Role names accepted by the role middleware, mirroring sellers.role.
const (
	roleSeller = "seller"
	roleAdmin  = "admin"
)
