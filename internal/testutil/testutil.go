// Package testutil provides helpers for integration tests that run against
// a real MySQL instance.  Tests skip when the database is unreachable so
// the pure-logic suites still run anywhere.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/madresuerte/raffle-server/internal/database"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/utils"
)

// DefaultTestDSN points at a local dev database; override with TEST_DB_DSN.
const DefaultTestDSN = "root@tcp(localhost:3306)/madresuerte_test?charset=utf8mb4&parseTime=true&loc=UTC"

// TestBcryptCost keeps password hashing fast in tests.
const TestBcryptCost = 4

// SetupTestDB opens the test database, drops all application tables and
// recreates them from the schema.  It skips the calling test when no
// database is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = DefaultTestDSN
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("test database not reachable: %v", err)
	}

	// Drop children before parents to satisfy foreign keys.
	for _, tbl := range []string{"ticket_numbers", "tickets", "prizes", "sellers"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + tbl); err != nil {
			t.Fatalf("drop table %s: %v", tbl, err)
		}
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

// CreateTestSeller inserts a seller with the given role and the password
// "secret123", returning its ID.
func CreateTestSeller(t *testing.T, db *sql.DB, name, role string) uint64 {
	t.Helper()
	repo := repository.NewSellerRepo(db)
	id, err := repo.Create(context.Background(), name, name+"-user", "secret123", role, TestBcryptCost)
	if err != nil {
		t.Fatalf("create test seller %q: %v", name, err)
	}
	return id
}

// StartSession issues a fresh session token for the seller, persists its
// digest and returns the digest (the form handlers and repositories work
// with).
func StartSession(t *testing.T, db *sql.DB, sellerID uint64) string {
	t.Helper()
	tok, err := utils.NewSessionToken()
	if err != nil {
		t.Fatalf("new session token: %v", err)
	}
	repo := repository.NewSellerRepo(db)
	if err := repo.SetSessionToken(context.Background(), sellerID, tok.Hash); err != nil {
		t.Fatalf("set session token: %v", err)
	}
	return tok.Hash
}

// IssueTestTicket issues a ticket with the given quad and fails the test on
// any error.
func IssueTestTicket(t *testing.T, repo *repository.TicketRepo, sellerID uint64, sessionHash string, quad []int) uint64 {
	t.Helper()
	id, err := repo.Issue(context.Background(), repository.IssueRequest{
		SellerID:         sellerID,
		SessionHash:      sessionHash,
		BuyerName:        "Test Buyer",
		BuyerPhoneNumber: "555-0100",
		PaymentMethod:    "efectivo",
		Numbers:          quad,
	})
	if err != nil {
		t.Fatalf("issue test ticket: %v", err)
	}
	return id
}
