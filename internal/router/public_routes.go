package router

import (
	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/handler"
)

// RegisterPublic registers unauthenticated browse endpoints.  The login
// page lists seller names before any authentication happens, and the prize
// gallery and winners board are visible to everyone.  prizeCache, when
// non-nil, serves the prize list from Redis briefly.
func RegisterPublic(e *echo.Echo, prizes *handler.PrizeHandler, sellers *handler.SellerHandler, prizeCache echo.MiddlewareFunc) {
	// Seller picker for the login form (public fields only).
	e.GET("/v1/sellers", sellers.List)
	if prizeCache != nil {
		e.GET("/v1/prizes", prizes.List, prizeCache)
	} else {
		e.GET("/v1/prizes", prizes.List)
	}
	// Winner resolution is a pure read path, safe to refresh repeatedly
	// while the draw is in progress.
	e.GET("/v1/winners", prizes.Winners)
	e.GET("/v1/prizes/:id/winner", prizes.Winner)
}
