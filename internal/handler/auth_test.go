package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madresuerte/raffle-server/internal/config"
	"github.com/madresuerte/raffle-server/internal/handler"
	"github.com/madresuerte/raffle-server/internal/middleware"
	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/testutil"
)

func TestMain(m *testing.M) {
	lg := logger.Init("handler-test", false, false, io.Discard)
	code := m.Run()
	lg.Close()
	os.Exit(code)
}

func testConfig() config.Config {
	return config.Config{
		Env:          "test",
		JWTSecret:    "test-secret",
		AccessTTLMin: 15,
		BcryptCost:   testutil.TestBcryptCost,
		MaxTickets:   250,
	}
}

// postJSON runs a handler against a JSON POST and returns the recorder.
func postJSON(e *echo.Echo, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// sidFromToken extracts the session digest claim from a signed access token.
func sidFromToken(t *testing.T, secret, token string) string {
	t.Helper()
	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	sid, _ := claims["sid"].(string)
	require.NotEmpty(t, sid)
	return sid
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	h := handler.NewAuthHandler(testConfig(), repository.NewSellerRepo(db))
	e := echo.New()

	rec := postJSON(e, h.Login, "/v1/auth/login", `{"name":"Nadie","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["status"])

	testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	rec = postJSON(e, h.Login, "/v1/auth/login", `{"name":"Maria","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["status"])
}

func TestLoginRejectsEmptyBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	h := handler.NewAuthHandler(testConfig(), repository.NewSellerRepo(db))
	e := echo.New()

	rec := postJSON(e, h.Login, "/v1/auth/login", `{"name":"  ","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Full walk of the session state machine: fresh login succeeds, a second
// login hits the confirmation branch without mutating anything, force-login
// takes over and invalidates the first device's session.
func TestLoginSessionTakeover(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	cfg := testConfig()
	sellers := repository.NewSellerRepo(db)
	h := handler.NewAuthHandler(cfg, sellers)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)

	// Device 1 logs in.
	rec := postJSON(e, h.Login, "/v1/auth/login", `{"name":"Maria","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	access1 := body["access"].(map[string]interface{})["token"].(string)
	sid1 := sidFromToken(t, cfg.JWTSecret, access1)

	// Device 2 tries a plain login: confirmation branch, no new session.
	rec = postJSON(e, h.Login, "/v1/auth/login", `{"name":"Maria","password":"secret123"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "session_active", body["status"])
	assert.Nil(t, body["access"])

	// Device 1 is still the active session.
	valid, err := sellers.VerifySession(context.Background(), sellerID, sid1)
	require.NoError(t, err)
	assert.True(t, valid)

	// Device 2 confirms with force-login and takes over.
	rec = postJSON(e, h.ForceLogin, "/v1/auth/force-login", `{"name":"Maria","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	access2 := body["access"].(map[string]interface{})["token"].(string)
	sid2 := sidFromToken(t, cfg.JWTSecret, access2)

	valid, err = sellers.VerifySession(context.Background(), sellerID, sid1)
	require.NoError(t, err)
	assert.False(t, valid, "first device must be cut off after takeover")

	valid, err = sellers.VerifySession(context.Background(), sellerID, sid2)
	require.NoError(t, err)
	assert.True(t, valid)
}

// Force-login still demands valid credentials; it is not a backdoor.
func TestForceLoginRequiresCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	h := handler.NewAuthHandler(testConfig(), repository.NewSellerRepo(db))
	e := echo.New()

	testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	rec := postJSON(e, h.ForceLogin, "/v1/auth/force-login", `{"name":"Maria","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["status"])
}

func TestLogoutClearsSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	cfg := testConfig()
	sellers := repository.NewSellerRepo(db)
	h := handler.NewAuthHandler(cfg, sellers)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	rec := postJSON(e, h.Login, "/v1/auth/login", `{"name":"Maria","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access := decodeBody(t, rec)["access"].(map[string]interface{})["token"].(string)
	sid := sidFromToken(t, cfg.JWTSecret, access)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	out := httptest.NewRecorder()
	c := e.NewContext(req, out)
	c.Set(middleware.CtxSellerID, sellerID)
	c.Set(middleware.CtxRole, model.RoleSeller)
	c.Set(middleware.CtxSessionHash, sid)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, out.Code)

	valid, err := sellers.VerifySession(context.Background(), sellerID, sid)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestSessionEndpointReportsValidity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	sellers := repository.NewSellerRepo(db)
	h := handler.NewAuthHandler(testConfig(), sellers)
	e := echo.New()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	sid := testutil.StartSession(t, db, sellerID)

	ask := func(hash string) bool {
		req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
		out := httptest.NewRecorder()
		c := e.NewContext(req, out)
		c.Set(middleware.CtxSellerID, sellerID)
		c.Set(middleware.CtxRole, model.RoleSeller)
		c.Set(middleware.CtxSessionHash, hash)
		require.NoError(t, h.Session(c))
		require.Equal(t, http.StatusOK, out.Code)
		return decodeBody(t, out)["valid"].(bool)
	}

	assert.True(t, ask(sid))
	assert.False(t, ask("0000000000000000000000000000000000000000000000000000000000000000"))
}
