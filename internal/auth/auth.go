package auth

import (
	"sync"
	"time"
)

// Authorizer answers admin checks. The bot itself is open to everyone;
// only administrative commands are gated.
type Authorizer struct {
	adminIDs map[int64]bool
}

func NewAuthorizer(admins []int64) *Authorizer {
	adminMap := make(map[int64]bool, len(admins))
	for _, id := range admins {
		adminMap[id] = true
	}
	return &Authorizer{adminIDs: adminMap}
}

func (a *Authorizer) IsAdmin(userID int64) bool {
	_, ok := a.adminIDs[userID]
	return ok
}

// RateLimiter enforces a sliding per-minute message cap per user.
type RateLimiter struct {
	perMinute int
	mu        sync.Mutex
	hits      map[int64][]time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		hits:      make(map[int64][]time.Time),
	}
}

// Allow records a hit and reports whether the user is within the limit.
func (r *RateLimiter) Allow(userID int64) bool {
	return r.allowAt(userID, time.Now())
}

func (r *RateLimiter) allowAt(userID int64, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-time.Minute)
	recent := r.hits[userID][:0]
	for _, t := range r.hits[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.perMinute {
		r.hits[userID] = recent
		return false
	}

	r.hits[userID] = append(recent, now)
	return true
}
