package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/middleware"
	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/testutil"
)

// issueAs runs POST /v1/tickets as the given seller identity.
func issueAs(e *echo.Echo, h *handler.TicketHandler, sellerID uint64, sid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxSellerID, sellerID)
	c.Set(middleware.CtxRole, model.RoleSeller)
	c.Set(middleware.CtxSessionHash, sid)
	_ = h.Issue(c)
	return rec
}

func TestIssueWithClientNumbers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewTicketHandler(tickets)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)

	rec := issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[7,77,177,777]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Rosa", body["buyer_name"])
	assert.Equal(t, "Maria", body["seller_name"])
	assert.Len(t, body["numbers"], 4)
}

func TestIssueServerSampled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewTicketHandler(tickets)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)

	// No numbers field: the server samples a quad itself.
	rec := issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"transferencia"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	nums := decodeBody(t, rec)["numbers"].([]interface{})
	require.Len(t, nums, 4)
	seen := map[float64]bool{}
	for _, n := range nums {
		v := n.(float64)
		assert.GreaterOrEqual(t, v, float64(0))
		assert.LessOrEqual(t, v, float64(999))
		assert.False(t, seen[v], "numbers within a ticket must be distinct")
		seen[v] = true
	}
}

func TestIssueErrorMapping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	tickets := repository.NewTicketRepo(db, 1)
	h := handler.NewTicketHandler(tickets)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)

	// Malformed quads never reach the database.
	rec := issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[1,2,3,1000]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[5,5,6,7]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Stale session digest.
	rec = issueAs(e, h, sellerID, "feedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedface",
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[1,2,3,4]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_session", decodeBody(t, rec)["error"])

	// First ticket fills the cap of 1.
	rec = issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Rosa","buyer_phone_number":"555-0101","payment_method":"efectivo","numbers":[1,2,3,4]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate number loses to the committed ticket.  The cap check runs
	// first in the transaction, so with the cap already reached the response
	// is sold_out either way; use a fresh repo with room to see the
	// duplicate mapping.
	roomy := handler.NewTicketHandler(repository.NewTicketRepo(db, 250))
	rec = issueAs(e, roomy, sellerID, sid,
		`{"buyer_name":"Luz","buyer_phone_number":"555-0102","payment_method":"efectivo","numbers":[4,5,6,7]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_number", decodeBody(t, rec)["error"])

	// Capacity reached.
	rec = issueAs(e, h, sellerID, sid,
		`{"buyer_name":"Luz","buyer_phone_number":"555-0102","payment_method":"efectivo","numbers":[10,11,12,13]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "sold_out", decodeBody(t, rec)["error"])
}

func TestUsedNumbersEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewTicketHandler(tickets)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)
	testutil.IssueTestTicket(t, tickets, sellerID, sid, []int{3, 14, 159, 265})

	req := httptest.NewRequest(http.MethodGet, "/v1/numbers/used", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.UsedNumbers(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["used"], 4)
	assert.Equal(t, float64(996), body["remaining"])
}

func TestMyTicketsScopedToSeller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	tickets := repository.NewTicketRepo(db, 250)
	h := handler.NewTicketHandler(tickets)
	e := echo.New()

	idA := testutil.CreateTestSeller(t, db, "Ana", model.RoleSeller)
	sidA := testutil.StartSession(t, db, idA)
	idB := testutil.CreateTestSeller(t, db, "Bruno", model.RoleSeller)
	sidB := testutil.StartSession(t, db, idB)
	testutil.IssueTestTicket(t, tickets, idA, sidA, []int{1, 2, 3, 4})
	testutil.IssueTestTicket(t, tickets, idB, sidB, []int{5, 6, 7, 8})

	req := httptest.NewRequest(http.MethodGet, "/v1/my-tickets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxSellerID, idA)
	c.Set(middleware.CtxRole, model.RoleSeller)
	c.Set(middleware.CtxSessionHash, sidA)
	require.NoError(t, h.MyTickets(c))
	body := decodeBody(t, rec)
	assert.Len(t, body["tickets"], 1)
}
