package handler // handler defines http handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/middleware"
)

// errNoIdentity is returned when the context carries no usable seller identity.
var errNoIdentity = errors.New("no seller identity in context")

// sellerIdentity extracts the authenticated seller's ID and session token
// digest from the context populated by the JWT middleware.
func sellerIdentity(c echo.Context) (uint64, string, error) {
	id, ok := c.Get(middleware.CtxSellerID).(uint64)
	if !ok || id == 0 {
		return 0, "", errNoIdentity
	}
	sid, _ := c.Get(middleware.CtxSessionHash).(string)
	if sid == "" {
		return 0, "", errNoIdentity
	}
	return id, sid, nil
}
