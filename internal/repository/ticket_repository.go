package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TicketRepo provides issuance and read operations for tickets and their
// claimed numbers.  Issuance is the one operation with real correctness
// requirements: the session check, the ticket insert and all four number
// inserts run in a single transaction, and the unique constraint on
// ticket_numbers.number is what makes concurrent issuance safe.  Client-side
// number sampling is only an optimization; two sellers who both picked a
// free number race here, and the second committer loses with
// ErrDuplicateNumber instead of corrupting the pool.
type TicketRepo struct {
	db         *sql.DB
	maxTickets int
}

// NewTicketRepo returns a TicketRepo bound to the given database with the
// given global ticket cap.
func NewTicketRepo(db *sql.DB, maxTickets int) *TicketRepo {
	return &TicketRepo{db: db, maxTickets: maxTickets}
}

// DB exposes the underlying handle for callers that need to compose
// transactions (tests, schema setup).
func (r *TicketRepo) DB() *sql.DB { return r.db }

// MaxTickets returns the configured global cap.
func (r *TicketRepo) MaxTickets() int { return r.maxTickets }

// IssueRequest carries everything needed to issue one ticket.  SessionHash
// is the SHA-256 digest of the seller's session token; it is re-verified
// inside the transaction so a force-login on another device aborts
// in-flight issuance from the stale device.
type IssueRequest struct {
	SellerID         uint64
	SessionHash      string
	BuyerName        string
	BuyerPhoneNumber string
	PaymentMethod    string
	Numbers          []int
}

// Issue atomically creates a ticket and claims its numbers.  Inside one
// transaction it (1) verifies the session token digest, (2) enforces the
// global ticket cap before any write, (3) inserts the ticket row and
// (4) inserts one ticket_numbers row per number.  Any duplicate-key
// violation on step 4 rolls the whole transaction back and surfaces as
// ErrDuplicateNumber, so a partially numbered ticket is never observable.
// Retrying with a freshly sampled quad is the caller's responsibility.
func (r *TicketRepo) Issue(ctx context.Context, req IssueRequest) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ok, err := verifySession(ctx, tx, req.SellerID, req.SessionHash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidSession
	}

	// Cap check before any write.  This is a best-effort pre-flight: even if
	// two transactions pass it simultaneously at cap-1, the number pool
	// itself (cap x 4 numbers = pool size) means the loser cannot find four
	// free numbers and fails on the unique constraint instead.
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&count); err != nil {
		return 0, err
	}
	if count >= r.maxTickets {
		return 0, ErrCapacityExceeded
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (seller_id, buyer_name, buyer_phone_number, payment_method) VALUES (?,?,?,?)",
		req.SellerID, req.BuyerName, req.BuyerPhoneNumber, req.PaymentMethod)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ticketID := uint64(id)

	// Claim all four numbers in one statement; 1062 means a concurrently
	// committed ticket got there first.
	query := "INSERT INTO ticket_numbers (ticket_id, number) VALUES "
	args := make([]interface{}, 0, len(req.Numbers)*2)
	for i, n := range req.Numbers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, ticketID, n)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return ticketID, nil
}

// Count returns the number of issued tickets.
func (r *TicketRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&n)
	return n, err
}

// UsedNumbers returns every claimed number in ascending order.  Clients use
// this set for candidate sampling; it is advisory and may be stale by the
// time issuance runs, which is why the transaction re-validates.
func (r *TicketRepo) UsedNumbers(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT number FROM ticket_numbers ORDER BY number ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	used := make([]int, 0)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		used = append(used, n)
	}
	return used, rows.Err()
}

// TicketDetail is a ticket joined with its seller's name and its numbers,
// shaped for API responses.  Seller name is joined at read time; tickets
// store only seller_id.
type TicketDetail struct {
	ID               uint64 `json:"id"`
	SellerID         uint64 `json:"seller_id"`
	SellerName       string `json:"seller_name"`
	BuyerName        string `json:"buyer_name"`
	BuyerPhoneNumber string `json:"buyer_phone_number"`
	PaymentMethod    string `json:"payment_method"`
	Numbers          []int  `json:"numbers"`
	CreatedAt        string `json:"created_at"`
}

const ticketDetailQ = `SELECT t.id, t.seller_id, s.name, t.buyer_name, t.buyer_phone_number, t.payment_method, t.created_at
					   FROM tickets t
					   JOIN sellers s ON s.id = t.seller_id`

func scanTicketDetail(row *sql.Row) (*TicketDetail, error) {
	var d TicketDetail
	var createdAt time.Time
	if err := row.Scan(&d.ID, &d.SellerID, &d.SellerName, &d.BuyerName, &d.BuyerPhoneNumber, &d.PaymentMethod, &createdAt); err != nil {
		return nil, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	d.Numbers = []int{}
	return &d, nil
}

func (r *TicketRepo) loadNumbers(ctx context.Context, d *TicketDetail) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT number FROM ticket_numbers WHERE ticket_id=? ORDER BY number ASC", d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return err
		}
		d.Numbers = append(d.Numbers, n)
	}
	return rows.Err()
}

// GetByID returns one ticket with seller name and numbers populated.
// sql.ErrNoRows is returned when the ticket does not exist.
func (r *TicketRepo) GetByID(ctx context.Context, ticketID uint64) (*TicketDetail, error) {
	d, err := scanTicketDetail(r.db.QueryRowContext(ctx, ticketDetailQ+" WHERE t.id = ?", ticketID))
	if err != nil {
		return nil, err
	}
	if err := r.loadNumbers(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetByNumber resolves the ticket holding the given raffle number, the read
// path behind winner resolution.  ErrWinnerNotFound is returned when no
// ticket claims the number.
func (r *TicketRepo) GetByNumber(ctx context.Context, number int) (*TicketDetail, error) {
	const q = ticketDetailQ + `
			  JOIN ticket_numbers tn ON tn.ticket_id = t.id
			  WHERE tn.number = ?`
	d, err := scanTicketDetail(r.db.QueryRowContext(ctx, q, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrWinnerNotFound
		}
		return nil, err
	}
	if err := r.loadNumbers(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListAll returns every ticket, newest first, with numbers populated in a
// single follow-up query.  A non-empty paymentMethod narrows the listing to
// that method, backing the admin stats filter.
func (r *TicketRepo) ListAll(ctx context.Context, paymentMethod string) ([]TicketDetail, error) {
	if paymentMethod != "" {
		return r.list(ctx, ticketDetailQ+" WHERE t.payment_method = ? ORDER BY t.id DESC", paymentMethod)
	}
	return r.list(ctx, ticketDetailQ+" ORDER BY t.id DESC")
}

// ListBySeller returns the tickets issued by one seller, newest first.
func (r *TicketRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]TicketDetail, error) {
	return r.list(ctx, ticketDetailQ+" WHERE t.seller_id = ? ORDER BY t.id DESC", sellerID)
}

func (r *TicketRepo) list(ctx context.Context, query string, args ...interface{}) ([]TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d TicketDetail
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.SellerID, &d.SellerName, &d.BuyerName, &d.BuyerPhoneNumber, &d.PaymentMethod, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		d.Numbers = []int{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate numbers for all tickets in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	numQ := `SELECT ticket_id, number FROM ticket_numbers
			 WHERE ticket_id IN (` + strings.Join(placeholders, ",") + `)
			 ORDER BY ticket_id, number`
	nrows, err := r.db.QueryContext(ctx, numQ, ids...)
	if err != nil {
		return nil, err
	}
	defer nrows.Close()
	for nrows.Next() {
		var tid uint64
		var n int
		if err := nrows.Scan(&tid, &n); err != nil {
			return nil, err
		}
		if idx, ok := index[tid]; ok {
			details[idx].Numbers = append(details[idx].Numbers, n)
		}
	}
	if err := nrows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
