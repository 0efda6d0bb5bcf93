package router

import (
	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/middleware"
)

// RegisterAdmin registers endpoints reserved for the raffle organizer:
// seller onboarding, the full ticket listing behind the stats table, prize
// editing and the draw itself (setting winning numbers).
func RegisterAdmin(e *echo.Echo, tickets *handler.TicketHandler, prizes *handler.PrizeHandler, sellers *handler.SellerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(roleAdmin),
	)
	g.GET("/tickets", tickets.ListAll)
	g.POST("/sellers", sellers.Create)
	g.PUT("/prizes/:id", prizes.Update)
	g.PUT("/prizes/:id/winning-number", prizes.SetWinningNumber)
}
