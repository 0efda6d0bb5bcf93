package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/testutil"
)

// callWithID invokes a handler for a route with an :id parameter.
func callWithID(e *echo.Echo, h echo.HandlerFunc, method, path, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	_ = h(c)
	return rec
}

func TestWinnerStatusTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewPrizeHandler(prizes, tickets)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)
	testutil.IssueTestTicket(t, tickets, sellerID, sid, []int{417, 12, 800, 55})

	// Listing seeds the defaults.
	req := httptest.NewRequest(http.MethodGet, "/v1/prizes", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	seeded := decodeBody(t, rec)["prizes"].([]interface{})
	require.Len(t, seeded, 3)
	firstID := fmt.Sprintf("%.0f", seeded[0].(map[string]interface{})["id"].(float64))

	// Before the draw the prize reports not_drawn.
	rec = callWithID(e, h.Winner, http.MethodGet, "/v1/prizes/:id/winner", firstID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_drawn", decodeBody(t, rec)["status"])

	// Draw a number nobody holds: no_winner.
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", firstID, `{"number":733}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = callWithID(e, h.Winner, http.MethodGet, "/v1/prizes/:id/winner", firstID, "")
	assert.Equal(t, "no_winner", decodeBody(t, rec)["status"])

	// Re-draw onto a held number: winner with the full ticket detail.
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", firstID, `{"number":417}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = callWithID(e, h.Winner, http.MethodGet, "/v1/prizes/:id/winner", firstID, "")
	body := decodeBody(t, rec)
	assert.Equal(t, "winner", body["status"])
	winner := body["winner"].(map[string]interface{})
	assert.Equal(t, "Test Buyer", winner["buyer_name"])
	assert.Equal(t, "Maria", winner["seller_name"])

	// Clearing the number returns the prize to not_drawn.
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", firstID, `{"number":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = callWithID(e, h.Winner, http.MethodGet, "/v1/prizes/:id/winner", firstID, "")
	assert.Equal(t, "not_drawn", decodeBody(t, rec)["status"])
}

func TestSetWinningNumberValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	h := handler.NewPrizeHandler(repository.NewPrizeRepo(db), repository.NewTicketRepo(db, 250))
	e := echo.New()

	rec := callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", "1", `{"number":1000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", "1", `{"number":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", "abc", `{"number":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = callWithID(e, h.SetWinningNumber, http.MethodPut, "/v1/prizes/:id/winning-number", "9999", `{"number":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWinnersBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewPrizeHandler(prizes, tickets)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/v1/winners", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Winners(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeBody(t, rec)["winners"].([]interface{})
	require.Len(t, board, 3)
	for _, w := range board {
		assert.Equal(t, "not_drawn", w.(map[string]interface{})["status"])
	}
}
