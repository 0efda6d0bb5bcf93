package router

import (
	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/middleware"
)

// RegisterSeller registers the ticket-issuance endpoints.  All routes
// require a valid JWT; both roles may sell.  The issuance transaction
// re-verifies the session digest itself, so a stale device that still holds
// a signed JWT cannot issue tickets after a force-login elsewhere.
// usedCache, when non-nil, serves the used-numbers set from Redis for a few
// seconds; staleness is safe because issuance re-validates transactionally.
func RegisterSeller(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, usedCache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(roleSeller, roleAdmin),
	)
	g.POST("/tickets", h.Issue)
	g.GET("/my-tickets", h.MyTickets)
	if usedCache != nil {
		g.GET("/numbers/used", h.UsedNumbers, usedCache)
	} else {
		g.GET("/numbers/used", h.UsedNumbers)
	}
}
