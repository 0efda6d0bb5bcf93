package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strconv"  // numeric claim conversion
	"strings"  // prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxSellerID    = "seller_id"    // uint64 seller identifier
	CtxRole        = "role"         // "seller" or "admin"
	CtxSessionHash = "session_hash" // SHA-256 digest of the active session token
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the seller ID, role and session digest claims into the request
// context.  The signature proves the claims were issued by this server; the
// sid claim is additionally re-checked against the persisted seller row by
// any handler that mutates state, which is how a force-login elsewhere
// invalidates tokens that are otherwise still within their TTL.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject any other signing
			// method up front.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sellerID, ok := subjectID(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			role, _ := claims["role"].(string)
			sid, _ := claims["sid"].(string)

			c.Set(CtxSellerID, sellerID)
			c.Set(CtxRole, role)
			c.Set(CtxSessionHash, sid)
			return next(c)
		}
	}
}

// subjectID extracts the numeric subject claim.  JWT numbers decode as
// float64; string-encoded subjects are tolerated as well.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v), true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
