// Package numbers implements candidate selection from the raffle number
// pool.  Sampling here is advisory only: it avoids wasted round trips by
// skipping numbers already claimed, but the authoritative duplicate check
// is the unique constraint enforced inside the issuance transaction.
package numbers

import (
	"errors"
	"math/rand"
)

const (
	// PoolSize is the count of valid raffle numbers, 0 through 999.
	PoolSize = 1000
	// QuadSize is how many numbers each ticket claims.
	QuadSize = 4
	// sampleBudget bounds rejection sampling before SampleQuad falls back
	// to enumerating the free set directly.
	sampleBudget = 1000
)

// ErrPoolExhausted is returned when fewer than QuadSize numbers remain free.
var ErrPoolExhausted = errors.New("number pool exhausted")

// ErrInvalidQuad is returned by ValidateQuad for a candidate set that is not
// exactly four distinct numbers in [0, PoolSize).
var ErrInvalidQuad = errors.New("invalid number quad")

// SampleQuad draws uniformly at random from [0, PoolSize) until it has
// collected QuadSize distinct numbers absent from used.  Rejection sampling
// stalls when only a handful of numbers remain free, so once the attempt
// budget runs out the remaining slots are filled by enumerating the free
// set directly; the result stays uniform and the final tickets of a
// near-sold-out raffle sample deterministically.  It does not mutate used.
func SampleQuad(used map[int]struct{}) ([]int, error) {
	quad := make([]int, 0, QuadSize)
	picked := make(map[int]struct{}, QuadSize)
	for attempts := 0; attempts < sampleBudget; attempts++ {
		n := rand.Intn(PoolSize)
		if _, taken := used[n]; taken {
			continue
		}
		if _, dup := picked[n]; dup {
			continue
		}
		picked[n] = struct{}{}
		quad = append(quad, n)
		if len(quad) == QuadSize {
			return quad, nil
		}
	}
	return finishFromFree(used, picked, quad)
}

// finishFromFree completes a partial quad by walking the pool once,
// collecting every number that is neither claimed nor already picked, and
// drawing the missing slots from a shuffle of that list.
func finishFromFree(used, picked map[int]struct{}, quad []int) ([]int, error) {
	free := make([]int, 0, QuadSize)
	for n := 0; n < PoolSize; n++ {
		if _, taken := used[n]; taken {
			continue
		}
		if _, dup := picked[n]; dup {
			continue
		}
		free = append(free, n)
	}
	need := QuadSize - len(quad)
	if len(free) < need {
		return nil, ErrPoolExhausted
	}
	rand.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	return append(quad, free[:need]...), nil
}

// ValidateQuad checks a client-supplied candidate set: exactly QuadSize
// numbers, each in range, no duplicates.  It says nothing about global
// availability; that is decided transactionally at issuance.
func ValidateQuad(quad []int) error {
	if len(quad) != QuadSize {
		return ErrInvalidQuad
	}
	seen := make(map[int]struct{}, QuadSize)
	for _, n := range quad {
		if n < 0 || n >= PoolSize {
			return ErrInvalidQuad
		}
		if _, dup := seen[n]; dup {
			return ErrInvalidQuad
		}
		seen[n] = struct{}{}
	}
	return nil
}

// UsedSet converts a flat list of claimed numbers into the set form that
// SampleQuad consumes.
func UsedSet(claimed []int) map[int]struct{} {
	set := make(map[int]struct{}, len(claimed))
	for _, n := range claimed {
		set[n] = struct{}{}
	}
	return set
}
