package handler

import (
	"context"              // provides context with cancellation for DB calls
	"database/sql"         // SQL sentinel errors
	"net/http"             // HTTP status codes and primitives
	"strings"              // string manipulation utilities
	"time"                 // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/madresuerte/raffle-server/internal/config"     // app configuration
	"github.com/madresuerte/raffle-server/internal/model"      // domain models
	"github.com/madresuerte/raffle-server/internal/repository" // DB repositories
	"github.com/madresuerte/raffle-server/internal/utils"      // hashing and token helpers
)

// AuthHandler bundles dependencies for auth endpoints.  Login enforces the
// single-active-session rule: correct credentials against a seller who
// already holds a session do not log in silently, they surface a
// session_active response that the UI must confirm via force-login.
type AuthHandler struct {
	Cfg     config.Config
	Sellers *repository.SellerRepo
}

func NewAuthHandler(cfg config.Config, s *repository.SellerRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sellers: s}
}

// ----- DTOs -----

type loginReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sellerPart struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
type loginResp struct {
	Status string      `json:"status"` // invalid_credentials | session_active | success
	Seller *sellerPart `json:"seller,omitempty"`
	Access *tokenPart  `json:"access,omitempty"`
}

func publicSeller(s model.Seller) *sellerPart {
	return &sellerPart{ID: s.ID, Name: s.Name, Username: s.Username, Role: s.Role}
}

// issueSession mints a fresh session token, persists its digest (overwriting
// whatever was there) and returns the signed access JWT.
func (h *AuthHandler) issueSession(ctx context.Context, s model.Seller) (*tokenPart, error) {
	tok, err := utils.NewSessionToken()
	if err != nil {
		return nil, err
	}
	if err := h.Sellers.SetSessionToken(ctx, s.ID, tok.Hash); err != nil {
		return nil, err
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Role, tok.Hash, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	return &tokenPart{Token: access.Token, Expires: access.Exp}, nil
}

// Login validates credentials and resolves the session state machine.
// Responses:
//   401 {status: invalid_credentials}            – unknown name or bad password
//   409 {status: session_active, seller}         – credentials fine, session exists elsewhere;
//                                                  the client must confirm force-login
//   200 {status: success, seller, access}        – logged in, new session issued
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sellers.GetByName(ctx, req.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, loginResp{Status: "invalid_credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, loginResp{Status: "invalid_credentials"})
	}

	if s.SessionToken != nil {
		// Confirmation branch: another device holds the session.  Nothing
		// is mutated here; the client decides whether to force-login.
		return c.JSON(http.StatusConflict, loginResp{Status: "session_active", Seller: publicSeller(s)})
	}

	access, err := h.issueSession(ctx, s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, loginResp{Status: "success", Seller: publicSeller(s), Access: access})
}

// ForceLogin resolves the session_active branch: it re-validates credentials
// and then unconditionally overwrites the stored session digest, which cuts
// off whichever device held the old token (its JWTs carry a stale sid and
// fail verification from this point on).
func (h *AuthHandler) ForceLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sellers.GetByName(ctx, req.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, loginResp{Status: "invalid_credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, loginResp{Status: "invalid_credentials"})
	}

	access, err := h.issueSession(ctx, s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, loginResp{Status: "success", Seller: publicSeller(s), Access: access})
}

// Logout clears the stored session digest for the authenticated seller.
// The current JWT keeps its signature but its sid no longer matches
// anything, so session-verified operations reject it immediately.
func (h *AuthHandler) Logout(c echo.Context) error {
	sellerID, _, err := sellerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sellers.ClearSessionToken(ctx, sellerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Session reports whether the caller's token still names the active session
// for its seller.  Clients poll this after resuming from background to
// detect a force-login from another device.
func (h *AuthHandler) Session(c echo.Context) error {
	sellerID, sid, err := sellerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	valid, err := h.Sellers.VerifySession(ctx, sellerID, sid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": valid})
}

// Me returns the authenticated seller's public record.
func (h *AuthHandler) Me(c echo.Context) error {
	sellerID, _, err := sellerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	s, err := h.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, publicSeller(s))
}
