package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/madresuerte/raffle-server/internal/numbers"
	"github.com/madresuerte/raffle-server/internal/queue"
	"github.com/madresuerte/raffle-server/internal/repository"
	queue_publisher "github.com/madresuerte/raffle-server/internal/service"
)

// sampleRetries bounds how many fresh quads the server tries when a
// concurrently committed ticket steals a candidate number.  Resampling is
// cheap, so there is no backoff; exhaustion of the bound surfaces as a
// generation failure to the client.
const sampleRetries = 5

// TicketHandler serves ticket issuance and the read paths around it.  All
// methods assume JWT authentication ran first; the issuance transaction
// itself re-verifies the session digest so a force-login elsewhere aborts
// in-flight requests from the stale device.
type TicketHandler struct {
	Tickets *repository.TicketRepo
}

func NewTicketHandler(t *repository.TicketRepo) *TicketHandler {
	if t == nil {
		panic("nil repository passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: t}
}

type issueReq struct {
	BuyerName        string `json:"buyer_name"`
	BuyerPhoneNumber string `json:"buyer_phone_number"`
	PaymentMethod    string `json:"payment_method"`
	// Numbers is optional: clients that sampled against GET /v1/numbers/used
	// send their quad; otherwise the server samples and retries internally.
	Numbers []int `json:"numbers,omitempty"`
}

// Issue handles POST /v1/tickets.  It validates input, runs the issuance
// transaction, and translates the repository's error taxonomy:
//   401 invalid_session    – token no longer names the active session
//   409 duplicate_number   – client-supplied quad lost a race; resample and retry
//   409 sold_out           – global ticket cap reached, terminal
//   409 generation_failed  – server-side sampling gave up (pool exhausted or
//                            retry bound hit)
func (h *TicketHandler) Issue(c echo.Context) error {
	sellerID, sid, err := sellerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req issueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BuyerName == "" || req.BuyerPhoneNumber == "" || req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "buyer_name, buyer_phone_number and payment_method required"})
	}
	if req.Numbers != nil {
		if err := numbers.ValidateQuad(req.Numbers); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "numbers must be 4 distinct integers in [0,999]"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	base := repository.IssueRequest{
		SellerID:         sellerID,
		SessionHash:      sid,
		BuyerName:        req.BuyerName,
		BuyerPhoneNumber: req.BuyerPhoneNumber,
		PaymentMethod:    req.PaymentMethod,
	}

	var ticketID uint64
	if req.Numbers != nil {
		base.Numbers = req.Numbers
		ticketID, err = h.Tickets.Issue(ctx, base)
	} else {
		ticketID, err = h.issueSampled(ctx, base)
	}
	if err != nil {
		return h.issueError(c, err)
	}

	detail, err := h.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ticket created but could not be loaded"})
	}

	// Best-effort event for the external image/PDF renderer; issuance never
	// fails because the broker is down.
	go func(d repository.TicketDetail) {
		_ = queue_publisher.PublishTicketIssued(context.Background(), queue.TicketIssuedEvent{
			TicketID:         d.ID,
			SellerID:         d.SellerID,
			SellerName:       d.SellerName,
			BuyerName:        d.BuyerName,
			BuyerPhoneNumber: d.BuyerPhoneNumber,
			PaymentMethod:    d.PaymentMethod,
			Numbers:          d.Numbers,
			IssuedAt:         d.CreatedAt,
		})
	}(*detail)

	return c.JSON(http.StatusCreated, detail)
}

// issueSampled samples quads server-side and retries on lost races, a
// bounded number of times.  The fresh UsedNumbers read each attempt keeps
// resamples from re-picking the number that just lost.
func (h *TicketHandler) issueSampled(ctx context.Context, base repository.IssueRequest) (uint64, error) {
	for attempt := 0; attempt < sampleRetries; attempt++ {
		claimed, err := h.Tickets.UsedNumbers(ctx)
		if err != nil {
			return 0, err
		}
		quad, err := numbers.SampleQuad(numbers.UsedSet(claimed))
		if err != nil {
			return 0, err
		}
		base.Numbers = quad
		id, err := h.Tickets.Issue(ctx, base)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			return 0, err
		}
	}
	return 0, numbers.ErrPoolExhausted
}

func (h *TicketHandler) issueError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidSession):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_session"})
	case errors.Is(err, repository.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "sold_out"})
	case errors.Is(err, repository.ErrDuplicateNumber):
		return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate_number"})
	case errors.Is(err, numbers.ErrPoolExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "generation_failed"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue failed"})
}

// UsedNumbers handles GET /v1/numbers/used.  The response feeds client-side
// candidate sampling; it may be slightly stale (and is cached briefly in
// Redis), which is safe because issuance re-validates transactionally.
func (h *TicketHandler) UsedNumbers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	used, err := h.Tickets.UsedNumbers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"used":      used,
		"remaining": numbers.PoolSize - len(used),
	})
}

// MyTickets handles GET /v1/my-tickets: the seller's own sales, newest first.
func (h *TicketHandler) MyTickets(c echo.Context) error {
	sellerID, _, err := sellerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tickets, err := h.Tickets.ListBySeller(ctx, sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// ListAll handles GET /v1/tickets (admin): every ticket with seller names
// joined, for the stats table and CSV export in the admin UI.  An optional
// ?payment_method= query narrows the listing to one method.
func (h *TicketHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tickets, err := h.Tickets.ListAll(ctx, c.QueryParam("payment_method"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	count := len(tickets)
	return c.JSON(http.StatusOK, echo.Map{
		"tickets":  tickets,
		"count":    count,
		"capacity": h.Tickets.MaxTickets(),
	})
}
