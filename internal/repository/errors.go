// Package repository defines sentinel error values shared across the
// repositories.  Handlers translate these into the HTTP error taxonomy;
// raw driver error codes never cross the repository boundary.
package repository

import "errors"

// ErrInvalidSession is returned when a supplied session token does not match
// the digest persisted for the seller, either because it was never valid or
// because a later login on another device overwrote it.  Callers must force
// the client back to the login screen.
var ErrInvalidSession = errors.New("invalid session")

// ErrDuplicateNumber is returned when the issuance transaction aborts on the
// ticket_numbers unique constraint: a concurrently committed ticket claimed
// one of the candidate numbers first.  Transient; callers should resample a
// fresh quad and retry a bounded number of times.
var ErrDuplicateNumber = errors.New("number already claimed")

// ErrCapacityExceeded is returned when the global ticket cap has been
// reached.  The raffle is sold out; not retryable.
var ErrCapacityExceeded = errors.New("ticket capacity exceeded")

// ErrNameTaken is returned when creating a seller whose name or username
// already exists.
var ErrNameTaken = errors.New("seller name already exists")

// ErrWinnerNotFound is returned by winner resolution when no ticket holds
// the prize's winning number.  A valid state, distinct from "not yet
// drawn": the drawn number simply was never sold.
var ErrWinnerNotFound = errors.New("no ticket holds that number")
