package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/numbers"
	"github.com/madresuerte/raffle-server/internal/queue"
	"github.com/madresuerte/raffle-server/internal/repository"
	queue_publisher "github.com/madresuerte/raffle-server/internal/service"
)

// PrizeHandler serves prize CRUD and winner resolution.  Winner resolution
// is a pure read path: a prize's winning number is looked up in
// ticket_numbers and joined out to the holding ticket, buyer and seller.
type PrizeHandler struct {
	Prizes  *repository.PrizeRepo
	Tickets *repository.TicketRepo
}

func NewPrizeHandler(p *repository.PrizeRepo, t *repository.TicketRepo) *PrizeHandler {
	if p == nil || t == nil {
		panic("nil repository passed to NewPrizeHandler")
	}
	return &PrizeHandler{Prizes: p, Tickets: t}
}

type prizeResp struct {
	ID            uint64 `json:"id"`
	PrizeOrder    uint32 `json:"prize_order"`
	Title         string `json:"title"`
	ImageURL      string `json:"image_url"`
	WinningNumber *int   `json:"winning_number"`
}

func toPrizeResp(p model.Prize) prizeResp {
	return prizeResp{
		ID:            p.ID,
		PrizeOrder:    p.PrizeOrder,
		Title:         p.Title,
		ImageURL:      p.ImageURL,
		WinningNumber: p.WinningNumber,
	}
}

// winnerResp describes one prize's draw state.  Status is one of
// "not_drawn" (no winning number set), "no_winner" (number drawn but no
// ticket holds it) and "winner" (Winner populated).
type winnerResp struct {
	prizeResp
	Status string                   `json:"status"`
	Winner *repository.TicketDetail `json:"winner,omitempty"`
}

// List handles GET /v1/prizes.  The repository seeds default prizes on
// first call so the gallery never renders empty.
func (h *PrizeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	prizes, err := h.Prizes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]prizeResp, 0, len(prizes))
	for _, p := range prizes {
		out = append(out, toPrizeResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"prizes": out})
}

type updatePrizeReq struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// Update handles PUT /v1/prizes/:id (admin): title and image only; the
// winning number has its own endpoint.
func (h *PrizeHandler) Update(c echo.Context) error {
	prizeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || prizeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid prize id"})
	}
	var req updatePrizeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || req.ImageURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and image_url required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Prizes.Update(ctx, prizeID, req.Title, req.ImageURL); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prize not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

type setWinningNumberReq struct {
	Number *int `json:"number"` // null clears the drawn number
}

// SetWinningNumber handles PUT /v1/prizes/:id/winning-number (admin).  The
// number is re-settable until the draw is final; a null body value clears
// it.  A best-effort event notifies the winner-image renderer.
func (h *PrizeHandler) SetWinningNumber(c echo.Context) error {
	prizeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || prizeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid prize id"})
	}
	var req setWinningNumberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Number != nil && (*req.Number < 0 || *req.Number >= numbers.PoolSize) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number out of range"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Prizes.SetWinningNumber(ctx, prizeID, req.Number); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prize not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Number != nil {
		prize, perr := h.Prizes.GetByID(ctx, prizeID)
		if perr == nil {
			go func(p model.Prize, n int) {
				_ = queue_publisher.PublishWinnerSet(context.Background(), queue.WinnerSetEvent{
					PrizeID:       p.ID,
					PrizeOrder:    p.PrizeOrder,
					Title:         p.Title,
					WinningNumber: n,
					SetAt:         time.Now().UTC().Format(time.RFC3339),
				})
			}(prize, *req.Number)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// resolve computes the winnerResp for one prize.
func (h *PrizeHandler) resolve(ctx context.Context, p model.Prize) (winnerResp, error) {
	resp := winnerResp{prizeResp: toPrizeResp(p)}
	if p.WinningNumber == nil {
		resp.Status = "not_drawn"
		return resp, nil
	}
	ticket, err := h.Tickets.GetByNumber(ctx, *p.WinningNumber)
	if err != nil {
		if errors.Is(err, repository.ErrWinnerNotFound) {
			resp.Status = "no_winner"
			return resp, nil
		}
		return winnerResp{}, err
	}
	resp.Status = "winner"
	resp.Winner = ticket
	return resp, nil
}

// Winner handles GET /v1/prizes/:id/winner.  Idempotent; safe to call
// repeatedly while the admin re-draws.
func (h *PrizeHandler) Winner(c echo.Context) error {
	prizeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || prizeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid prize id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	prize, err := h.Prizes.GetByID(ctx, prizeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prize not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp, err := h.resolve(ctx, prize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Winners handles GET /v1/winners: every prize with its draw state, the
// data behind the public winners board.
func (h *PrizeHandler) Winners(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	prizes, err := h.Prizes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]winnerResp, 0, len(prizes))
	for _, p := range prizes {
		resp, err := h.resolve(ctx, p)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, echo.Map{"winners": out})
}
