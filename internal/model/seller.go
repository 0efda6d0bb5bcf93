package model

import "time"

// Seller roles.  Roles are checked once at the middleware boundary rather
// than compared ad hoc inside handlers.
const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Seller represents a row in the `sellers` table.  Sellers authenticate
// with name and password and hold at most one active session at a time:
// SessionToken stores the SHA‑256 digest of the current opaque session
// token, and a later login overwrites it, which implicitly invalidates
// whichever device held the previous token.
//
// Fields:
//  ID           – primary key identifier of the seller.
//  Name         – display name, unique, used as the login identifier.
//  Username     – unique short handle.
//  PasswordHash – bcrypt hashed password.
//  SessionToken – SHA‑256 hex digest of the active session token (nil when logged out).
//  Role         – "seller" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Seller struct {
	ID           uint64    // sellers.id
	Name         string    // sellers.name
	Username     string    // sellers.username
	PasswordHash string    // sellers.password_hash
	SessionToken *string   // sellers.session_token (nullable)
	Role         string    // sellers.role
	CreatedAt    time.Time // sellers.created_at
	UpdatedAt    time.Time // sellers.updated_at
}
