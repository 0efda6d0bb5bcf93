package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"    // secure random number generation
	"crypto/sha256"  // SHA‑256 hashing for session tokens
	"crypto/subtle"  // constant-time comparison of token digests
	"encoding/hex"   // hex encoding functions
	"time"           // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken is the opaque credential that makes one device the
// authoritative session for a seller.  Raw is handed to the client once at
// login; only the SHA‑256 digest is persisted on the seller row, and a later
// login overwrites that digest, cutting off the previous device.
type SessionToken struct {
	Raw  string // raw token string returned to the client
	Hash string // SHA‑256 hex digest stored in sellers.session_token
}

// AccessToken is a signed JWT carrying the seller's identity, role and the
// digest of the active session token (the "sid" claim).  Handlers re-check
// sid against the persisted digest on mutating calls, so a force-login on
// another device invalidates outstanding JWTs even before they expire.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewSessionToken generates a 32-byte random token (64 hex characters) and
// its digest.  32 bytes comfortably exceeds the 128-bit entropy floor for
// an unguessable credential.
func NewSessionToken() (SessionToken, error) {
	raw, err := randomHex(32)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Raw: raw, Hash: HashSessionRaw(raw)}, nil
}

// HashSessionRaw returns the SHA‑256 digest of a raw session token as a hex
// string.  The database only ever sees digests, so a leaked sellers table
// does not yield usable credentials.
func HashSessionRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SessionHashEqual compares two session token digests in constant time.
func SessionHashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewAccessToken builds and signs an HS256 JWT for a seller.  Claims are
// sub (seller ID), role, sid (session token digest), exp and iat.
func NewAccessToken(secret string, sellerID uint64, role, sessionHash string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  sellerID,
		"role": role,
		"sid":  sessionHash,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
