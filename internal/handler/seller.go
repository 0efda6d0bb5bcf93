package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/config"
	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/repository"
)

// SellerHandler serves seller onboarding and listing.  Creation is
// admin-only; the listing exposes public fields only and backs the login
// page's seller picker.
type SellerHandler struct {
	Cfg     config.Config
	Sellers *repository.SellerRepo
}

func NewSellerHandler(cfg config.Config, s *repository.SellerRepo) *SellerHandler {
	if s == nil {
		panic("nil repository passed to NewSellerHandler")
	}
	return &SellerHandler{Cfg: cfg, Sellers: s}
}

type createSellerReq struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // seller | admin
}

// Create handles POST /v1/sellers (admin).  Passwords are bcrypt-hashed in
// the repository; an unknown role falls back to "seller".
func (h *SellerHandler) Create(c echo.Context) error {
	var req createSellerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if req.Name == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, username and password required"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleSeller {
		role = model.RoleSeller
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Sellers.Create(ctx, req.Name, req.Username, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrNameTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "name or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seller failed"})
	}
	return c.JSON(http.StatusCreated, sellerPart{ID: id, Name: req.Name, Username: req.Username, Role: role})
}

// List handles GET /v1/sellers.  Public: the login page shows a picker of
// seller names before any authentication happens, so only harmless fields
// go out.
func (h *SellerHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	sellers, err := h.Sellers.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]sellerPart, 0, len(sellers))
	for _, s := range sellers {
		out = append(out, *publicSeller(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"sellers": out})
}
