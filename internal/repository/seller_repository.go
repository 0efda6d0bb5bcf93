package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/utils"
)

// SellerRepo provides persistence for sellers and their single-active
// session tokens.  The session token column holds the SHA-256 digest of the
// opaque token given to the client; writing a new digest is what logs the
// previous device out, so no extra locking is needed around logins.
type SellerRepo struct{ DB *sql.DB }

func NewSellerRepo(db *sql.DB) *SellerRepo { return &SellerRepo{DB: db} }

const sellerCols = "id,name,username,password_hash,session_token,role,created_at,updated_at"

func scanSeller(row *sql.Row) (model.Seller, error) {
	var s model.Seller
	var token sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Username, &s.PasswordHash, &token, &s.Role, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Seller{}, err
	}
	if token.Valid {
		tk := token.String
		s.SessionToken = &tk
	}
	return s, nil
}

// Create inserts a seller with a bcrypt-hashed password and returns its ID.
// Duplicate names or usernames map to ErrNameTaken.
func (r *SellerRepo) Create(ctx context.Context, name, username, password, role string, cost int) (uint64, error) {
	name = strings.TrimSpace(name)
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sellers (name, username, password_hash, role) VALUES (?,?,?,?)",
		name, username, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrNameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByName fetches a seller by display name, the login identifier.
func (r *SellerRepo) GetByName(ctx context.Context, name string) (model.Seller, error) {
	name = strings.TrimSpace(name)
	return scanSeller(r.DB.QueryRowContext(ctx,
		"SELECT "+sellerCols+" FROM sellers WHERE name=? LIMIT 1", name))
}

// GetByID fetches a seller by id.
func (r *SellerRepo) GetByID(ctx context.Context, id uint64) (model.Seller, error) {
	return scanSeller(r.DB.QueryRowContext(ctx,
		"SELECT "+sellerCols+" FROM sellers WHERE id=? LIMIT 1", id))
}

// List returns all sellers ordered by name.  Callers expose only public
// fields; password hashes and session digests never leave the handler layer.
func (r *SellerRepo) List(ctx context.Context) ([]model.Seller, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sellerCols+" FROM sellers ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sellers := make([]model.Seller, 0)
	for rows.Next() {
		var s model.Seller
		var token sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.PasswordHash, &token, &s.Role, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if token.Valid {
			tk := token.String
			s.SessionToken = &tk
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

// SetSessionToken stores a new session token digest for the seller,
// unconditionally overwriting any existing one.  This is both the success
// path of a fresh login and the resolution of the force-login confirmation
// branch: the overwrite is what invalidates the previous device.
func (r *SellerRepo) SetSessionToken(ctx context.Context, sellerID uint64, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sellers SET session_token=? WHERE id=?", tokenHash, sellerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearSessionToken nulls the stored digest (explicit logout).
func (r *SellerRepo) ClearSessionToken(ctx context.Context, sellerID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sellers SET session_token=NULL WHERE id=?", sellerID)
	return err
}

// VerifySession reports whether tokenHash matches the digest currently
// persisted for the seller.  Comparison is constant time.
func (r *SellerRepo) VerifySession(ctx context.Context, sellerID uint64, tokenHash string) (bool, error) {
	return verifySession(ctx, r.DB, sellerID, tokenHash)
}

// VerifySessionTx is VerifySession inside an already-open transaction, so
// the session check shares the atomicity scope of ticket issuance.
func (r *SellerRepo) VerifySessionTx(ctx context.Context, tx *sql.Tx, sellerID uint64, tokenHash string) (bool, error) {
	return verifySession(ctx, tx, sellerID, tokenHash)
}

// querier is the subset of *sql.DB and *sql.Tx needed by verifySession.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func verifySession(ctx context.Context, q querier, sellerID uint64, tokenHash string) (bool, error) {
	var stored sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT session_token FROM sellers WHERE id=? LIMIT 1", sellerID).Scan(&stored)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	if !stored.Valid || tokenHash == "" {
		return false, nil
	}
	return utils.SessionHashEqual(stored.String, tokenHash), nil
}
