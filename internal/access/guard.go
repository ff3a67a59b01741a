// Package access implements the admission decision for image generation.
//
// A Guard combines an optional allow-list of user ids with an optional shared
// redeem code. Users not on the allow-list can gain standing access by
// submitting the exact code once; redeemed ids are kept in memory for the
// process lifetime (durability is intentionally out of scope).
package access

import "sync"

// RedeemStatus is the outcome of a redeem attempt.
type RedeemStatus int

const (
	// RedeemNotRequired means no code is configured, so there is nothing
	// to redeem.
	RedeemNotRequired RedeemStatus = iota
	// RedeemOK means the supplied code matched and the user now has access.
	RedeemOK
	// RedeemInvalid means the supplied code did not match.
	RedeemInvalid
)

// Guard decides whether a user may invoke generation. All methods are safe
// for concurrent use; the zero value is not usable, construct via NewGuard.
type Guard struct {
	mu       sync.Mutex
	allow    map[int64]struct{}
	code     string
	redeemed map[int64]struct{}
}

// NewGuard builds a Guard from the configured allow-list and redeem code.
// An empty allowIDs slice and an empty code yield a guard that admits everyone.
func NewGuard(allowIDs []int64, code string) *Guard {
	allow := make(map[int64]struct{}, len(allowIDs))
	for _, id := range allowIDs {
		allow[id] = struct{}{}
	}
	return &Guard{
		allow:    allow,
		code:     code,
		redeemed: make(map[int64]struct{}),
	}
}

// CodeRequired reports whether a redeem code is configured.
func (g *Guard) CodeRequired() bool { return g.code != "" }

// IsAllowed reports whether userID may invoke generation.
//
// Decision order:
//  1. Non-empty allow-list: allowed iff listed, or (code configured AND
//     previously redeemed).
//  2. Code configured without an allow-list: allowed iff previously redeemed.
//  3. Neither configured: always allowed.
func (g *Guard) IsAllowed(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.allow) > 0 {
		if _, ok := g.allow[userID]; ok {
			return true
		}
		if g.code != "" {
			_, ok := g.redeemed[userID]
			return ok
		}
		return false
	}

	if g.code != "" {
		_, ok := g.redeemed[userID]
		return ok
	}
	return true
}

// Redeem records userID as having standing access when suppliedCode exactly
// matches the configured code. Attempts are not rate limited.
func (g *Guard) Redeem(userID int64, suppliedCode string) RedeemStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.code == "" {
		return RedeemNotRequired
	}
	if suppliedCode != g.code {
		return RedeemInvalid
	}
	g.redeemed[userID] = struct{}{}
	return RedeemOK
}
